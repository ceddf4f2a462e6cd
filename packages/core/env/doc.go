// Package env handles environments, .env files and {{variable}} resolution
// for request documents.
//
// Variables come from, in increasing precedence:
//   - the selected environment in the config file
//   - HTUP_VAR_<name> OS variables
//   - a .env file
//   - name=value pairs given on the command line
package env
