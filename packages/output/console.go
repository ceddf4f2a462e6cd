package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/snptkdn/htup/packages/assertions"
	"github.com/snptkdn/htup/packages/workspace"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case nil:
		return "(none)"
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	case map[string]string:
		return fmt.Sprintf("{map with %d entries}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		if w != nil {
			f.writer = w
		}
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) colored() bool {
	return !f.noColor && !color.NoColor
}

// statusColor picks the color for a status class.
func statusColor(code int) *color.Color {
	switch {
	case code >= 500:
		return color.New(color.FgRed, color.Bold)
	case code >= 400:
		return color.New(color.FgYellow, color.Bold)
	case code >= 300:
		return color.New(color.FgCyan, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

func (f *ConsoleFormatter) FormatExecution(exec *workspace.Execution, checks []*assertions.Result) {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if f.verbose && exec.Request != nil {
		fmt.Fprintf(f.writer, "%s %s\n", bold(exec.Request.Method), exec.Request.URL)
		for _, h := range exec.Request.Headers {
			fmt.Fprintf(f.writer, "%s %s\n", faint(h.Key+":"), h.Value)
		}
		fmt.Fprintln(f.writer)
	}

	if exec.Err != nil {
		fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), exec.Err)
		return
	}

	resp := exec.Response
	if resp == nil {
		return
	}

	status := statusColor(resp.StatusCode).SprintFunc()
	fmt.Fprintf(f.writer, "%s  %s  %s\n",
		status(fmt.Sprintf("%d %s", resp.StatusCode, resp.Status)),
		faint(fmt.Sprintf("%dms", resp.Duration.Milliseconds())),
		faint(humanize.Bytes(uint64(resp.Size()))),
	)

	if f.verbose {
		keys := make([]string, 0, len(resp.Headers))
		for k := range resp.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(f.writer, "%s %s\n", faint(k+":"), resp.Headers[k])
		}
	}

	if len(resp.Body) > 0 {
		fmt.Fprintln(f.writer)
		body := f.FormatBody(resp.Body)
		fmt.Fprint(f.writer, body)
		if !strings.HasSuffix(body, "\n") {
			fmt.Fprintln(f.writer)
		}
	}

	f.FormatChecks(checks)
}

// FormatBody pretty prints JSON bodies and returns anything else verbatim.
func (f *ConsoleFormatter) FormatBody(body []byte) string {
	if !gjson.ValidBytes(body) {
		return string(body)
	}
	out := pretty.Pretty(body)
	if f.colored() {
		out = pretty.Color(out, nil)
	}
	return string(out)
}

// FormatChecks prints one line per check, with details for failures.
func (f *ConsoleFormatter) FormatChecks(checks []*assertions.Result) {
	if len(checks) == 0 {
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintln(f.writer)
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
			fmt.Fprintf(f.writer, "  %s %s %s %s\n", green("✓"), c.Subject, c.Operator, formatValue(c.Expected, 100))
			continue
		}
		fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), c.Subject, c.Operator)
		fmt.Fprintf(f.writer, "      Expected: %s\n", formatValue(c.Expected, 100))
		fmt.Fprintf(f.writer, "      Actual:   %s\n", formatValue(c.Actual, 100))
		if c.Message != "" {
			fmt.Fprintf(f.writer, "      %s\n", c.Message)
		}
	}

	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Fprintf(f.writer, "\n%s\n", green(summary))
	} else {
		fmt.Fprintf(f.writer, "\n%s\n", red(summary))
	}
}

// FormatDiff prints a diff produced by Diff.
func (f *ConsoleFormatter) FormatDiff(lines []DiffLine) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if !HasChanges(lines) {
		fmt.Fprintln(f.writer, "no changes since the last run")
		return
	}
	for _, l := range lines {
		switch l.Kind {
		case DiffAdded:
			fmt.Fprintln(f.writer, green("+ "+l.Text))
		case DiffRemoved:
			fmt.Fprintln(f.writer, red("- "+l.Text))
		default:
			fmt.Fprintln(f.writer, "  "+l.Text)
		}
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) Flush() error {
	return nil
}
