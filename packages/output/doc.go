// Package output renders executions for the terminal.
//
// Supported output formats:
//   - console: status line, optional headers, pretty printed body
//   - json: one machine-readable document per run
//
// Diff compares two response bodies line by line for `htup run --diff`.
package output
