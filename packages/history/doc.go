// Package history keeps a SQLite log of executed requests.
//
// Every `htup run` appends one entry: the request line, the response status,
// timing, headers and body, or the transport error. Entries are read back by
// `htup history` and by `htup run --diff`, which compares a new response with
// the previous one for the same request.
package history
