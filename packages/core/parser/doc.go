// Package parser reads and writes htup request documents.
//
// A request document is one plain-text .http file:
//
//	POST https://api.example.com/users
//	Content-Type: application/json
//
//	{"name": "John"}
//
// The first line holds the method and URL. Header lines follow until the first
// blank line, and everything after that blank line is the body, kept verbatim.
// Encode writes the same form back, so Parse(Encode(r)) reproduces r for
// documents whose body does not end in a newline.
package parser
