// Package cmd implements the htup CLI commands using Cobra.
//
// Available commands:
//   - init: Create a workspace with a config file and an example request
//   - project: List and create projects
//   - list: List the requests of one or all projects
//   - new: Create a request from a template, interactively on a terminal
//   - edit: Open a request in the configured editor
//   - show: Print a stored request, optionally with variables expanded
//   - run: Send a request, with checks, queries, diffs, watch and bench modes
//   - validate: Check that request files parse
//   - import: Convert curl commands into requests
//   - record: Capture requests through a recording proxy
//   - history: Show past runs
//   - version: Show htup version information
//
// Errors are mapped to process exit codes in exitcodes.go.
package cmd
