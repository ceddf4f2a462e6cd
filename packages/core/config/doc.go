// Package config handles configuration loading and management for htup.
//
// It provides functionality for:
//   - Loading htup.yaml, .htup.yaml, htup.json or .htuprc from the workspace
//   - Default configuration values
//   - Environment variable overrides (HTUP_ROOT, HTUP_EDITOR, EDITOR, ...)
//   - Named environments of variables for {{name}} interpolation
package config
