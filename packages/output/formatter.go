package output

import (
	"fmt"
	"io"

	"github.com/snptkdn/htup/packages/assertions"
	"github.com/snptkdn/htup/packages/workspace"
)

// Formatter renders executions and their check results.
type Formatter interface {
	FormatExecution(exec *workspace.Execution, checks []*assertions.Result)
	FormatError(err error)
	// Flush writes anything buffered. Console output is unbuffered.
	Flush() error
}

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Formats lists the names accepted by New.
var Formats = []string{FormatConsole, FormatJSON}

// Options configures the formatter returned by New.
type Options struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
}

// New returns the formatter registered under name.
func New(name string, opts Options) (Formatter, error) {
	switch name {
	case "", FormatConsole:
		return NewConsoleFormatter(
			WithWriter(opts.Writer),
			WithVerbose(opts.Verbose),
			WithNoColor(opts.NoColor),
		), nil
	case FormatJSON:
		return NewJSONFormatter(JSONWithWriter(opts.Writer)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (available: console, json)", name)
	}
}
