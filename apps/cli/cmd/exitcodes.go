package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/snptkdn/htup/packages/editor"
	"github.com/snptkdn/htup/packages/http"
	"github.com/snptkdn/htup/packages/store"
	"github.com/spf13/cobra"
)

// Exit codes for htup CLI
const (
	// ExitSuccess indicates the command completed
	ExitSuccess = 0

	// ExitCheckFailure indicates one or more response checks failed
	ExitCheckFailure = 1

	// ExitParseError indicates a request file could not be parsed
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a request got no response
	ExitNetworkError = 4

	// ExitStorageError indicates a missing request or a file system failure
	ExitStorageError = 5

	// ExitEditorError indicates the editor could not be run
	ExitEditorError = 6

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// errChecksFailed is returned after the failed checks have been printed.
var errChecksFailed = errors.New("checks failed")

// reportedError wraps an error the command has already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string {
	return e.err.Error()
}

func (e *reportedError) Unwrap() error {
	return e.err
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type configError struct {
	err error
}

func (e *configError) Error() string {
	return "config: " + e.err.Error()
}

func (e *configError) Unwrap() error {
	return e.err
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	var (
		usageErr     *usageError
		configErr    *configError
		parseErr     *parser.ParseError
		transportErr *http.TransportError
		storageErr   *store.StorageError
		launchErr    *editor.LaunchError
	)

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errChecksFailed):
		return ExitCheckFailure
	case errors.As(err, &usageErr):
		return ExitUsageError
	case errors.As(err, &configErr):
		return ExitConfigError
	case errors.As(err, &parseErr):
		return ExitParseError
	case errors.As(err, &transportErr):
		return ExitNetworkError
	case errors.As(err, &launchErr):
		return ExitEditorError
	case errors.As(err, &storageErr),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrAlreadyExists):
		return ExitStorageError
	case isCobraUsageError(err):
		return ExitUsageError
	default:
		return ExitCheckFailure
	}
}

// isCobraUsageError recognizes the argument errors cobra reports as plain
// strings.
func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "unknown flag", "required flag", "accepts ", "requires at least", "requires at most", "invalid argument"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

// argsUsage wraps a cobra argument validator so its failures exit with
// ExitUsageError.
func argsUsage(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{msg: err.Error()}
		}
		return nil
	}
}
