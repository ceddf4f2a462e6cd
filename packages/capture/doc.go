// Package capture reads values out of HTTP responses.
//
// It supports queries against:
//   - Response body (gjson paths, with [N] index notation)
//   - Response headers
//   - Response status code
//   - Response duration in milliseconds
//
// The run command prints the result of a query instead of the full response,
// and the assertions package uses the same queries as check subjects.
package capture
