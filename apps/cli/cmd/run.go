package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/snptkdn/htup/packages/assertions"
	"github.com/snptkdn/htup/packages/bench"
	"github.com/snptkdn/htup/packages/capture"
	"github.com/snptkdn/htup/packages/core/env"
	"github.com/snptkdn/htup/packages/history"
	"github.com/snptkdn/htup/packages/http"
	"github.com/snptkdn/htup/packages/output"
	"github.com/snptkdn/htup/packages/store"
	"github.com/snptkdn/htup/packages/workspace"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <project> <id>",
	Short: "Send a stored request",
	Long: `Send a stored request and print the response.

Placeholders are expanded before sending: {{name}} from the selected
environment, the --env-file, HTUP_VAR_name and --var; {{$NAME}} from the
process environment; and builtins such as {{uuid()}} or {{timestamp()}}.

Examples:
  htup run billing list-invoices
  htup run billing create-invoice --env staging --var amount=42
  htup run billing list-invoices --expect-status 200 --expect "body.items length > 0"
  htup run billing get-invoice --query body.total
  htup run billing get-invoice --diff
  htup run billing get-invoice --watch

Bench mode:
  htup run billing list-invoices --repeat 500 --concurrency 20 --rate 100`,
	Args: argsUsage(cobra.ExactArgs(2)),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	outputFlag    string
	verboseFlag   bool
	noHistoryFlag bool
	watchFlag     bool
	diffFlag      bool
	queryFlag     string

	// Check flags
	expectFlags      []string
	expectStatusFlag int
	schemaFlag       string

	// Bench flags
	repeatFlag      int
	rateFlag        float64
	concurrencyFlag int
)

func init() {
	addVariableFlags(runCmd)

	// Output flags
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("HTUP_OUTPUT", output.FormatConsole), "Output format: console, json (env: HTUP_OUTPUT)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print request and response headers")
	runCmd.Flags().StringVarP(&queryFlag, "query", "q", "", "Print one value instead of the response: body.path, status, header <name>, duration")
	runCmd.Flags().BoolVar(&diffFlag, "diff", false, "Diff the response body against the previous run")
	runCmd.Flags().BoolVar(&noHistoryFlag, "no-history", getEnvBool("HTUP_NO_HISTORY", false), "Do not record this run (env: HTUP_NO_HISTORY)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Re-run when the request file changes")

	// Check flags
	runCmd.Flags().StringArrayVar(&expectFlags, "expect", nil, `Check the response, e.g. "body.id exists" or "header Content-Type contains json" (repeatable)`)
	runCmd.Flags().IntVar(&expectStatusFlag, "expect-status", 0, "Check the response status code")
	runCmd.Flags().StringVar(&schemaFlag, "schema", "", "Validate the response body against a JSON schema file")

	// Bench flags
	runCmd.Flags().IntVarP(&repeatFlag, "repeat", "n", 1, "Send the request this many times and print latency statistics")
	runCmd.Flags().Float64VarP(&rateFlag, "rate", "r", 0, "Requests per second when repeating (0 = unlimited)")
	runCmd.Flags().IntVarP(&concurrencyFlag, "concurrency", "c", getEnvInt("HTUP_CONCURRENCY", 1), "Requests in flight when repeating (env: HTUP_CONCURRENCY)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func runCommand(cmd *cobra.Command, args []string) error {
	project, id := args[0], args[1]

	checks, err := buildChecks()
	if err != nil {
		return err
	}

	benchMode := repeatFlag > 1
	if benchMode && (watchFlag || diffFlag || queryFlag != "" || len(checks) > 0) {
		return usageErrorf("--repeat cannot be combined with --watch, --diff, --query or checks")
	}

	a, err := newApp(cmd, appOptions{history: !noHistoryFlag && !benchMode})
	if err != nil {
		return err
	}
	defer a.Close()

	if diffFlag && a.history == nil {
		return usageErrorf("--diff needs the history, which is disabled")
	}

	resolver, err := buildResolver(a.cfg, a.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if benchMode {
		return runBench(ctx, cmd, a, resolver, project, id)
	}

	formatter, err := output.New(outputFlag, output.Options{
		Writer:  cmd.OutOrStdout(),
		Verbose: verboseFlag,
		NoColor: a.cfg.GetNoColor(),
	})
	if err != nil {
		return usageErrorf("%v", err)
	}

	baseDir, _ := os.Getwd()
	r := &requestRun{
		cmd:       cmd,
		app:       a,
		resolver:  resolver,
		formatter: formatter,
		checks:    checks,
		baseDir:   baseDir,
		project:   project,
		id:        id,
	}

	err = r.once(ctx)
	if !watchFlag {
		return err
	}
	r.report(err)
	return r.watch(ctx)
}

func buildChecks() ([]*assertions.Assertion, error) {
	var checks []*assertions.Assertion
	if expectStatusFlag != 0 {
		checks = append(checks, assertions.ExpectStatus(expectStatusFlag))
	}
	for _, expr := range expectFlags {
		check, err := assertions.Parse(expr)
		if err != nil {
			return nil, usageErrorf("invalid --expect %q: %v", expr, err)
		}
		checks = append(checks, check)
	}
	if schemaFlag != "" {
		checks = append(checks, assertions.ExpectSchema(schemaFlag))
	}
	return checks, nil
}

// requestRun executes one stored request, possibly many times in watch mode.
type requestRun struct {
	cmd       *cobra.Command
	app       *app
	resolver  *env.Resolver
	formatter output.Formatter
	checks    []*assertions.Assertion
	baseDir   string
	project   string
	id        string
}

func (r *requestRun) once(ctx context.Context) error {
	req, err := r.app.ws.LoadRequest(r.project, r.id)
	if err != nil {
		return notFoundHint(r.project, r.id, err)
	}
	warnUnresolved(r.cmd, r.resolver.UnresolvedInRequest(req))

	var previous *history.Entry
	if diffFlag {
		previous, err = r.app.history.Last(ctx, r.project, r.id)
		if errors.Is(err, history.ErrNoHistory) {
			previous = nil
		} else if err != nil {
			return err
		}
	}

	exec, err := r.app.ws.Run(ctx, r.project, r.id, req, workspace.RunOptions{Expand: r.resolver.Resolve})
	if exec == nil {
		return err
	}
	if err != nil {
		r.formatter.FormatExecution(exec, nil)
		if ferr := r.formatter.Flush(); ferr != nil {
			return ferr
		}
		return &reportedError{err: err}
	}

	var results []*assertions.Result
	if len(r.checks) > 0 {
		results = assertions.EvaluateAll(exec.Response, r.checks, assertions.WithBaseDir(r.baseDir))
	}

	if queryFlag != "" {
		if err := r.printQuery(exec.Response, results); err != nil {
			return err
		}
	} else {
		r.formatter.FormatExecution(exec, results)
		if diffFlag {
			r.printDiff(previous, exec.Response)
		}
		if err := r.formatter.Flush(); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}

	if !assertions.AllPassed(results) {
		return errChecksFailed
	}
	return nil
}

// printQuery prints the queried value alone. Failed checks go to stderr so
// stdout stays usable in scripts.
func (r *requestRun) printQuery(resp *http.Response, results []*assertions.Result) error {
	extractor := capture.NewExtractor(resp)
	q := capture.ParseQuery(queryFlag)

	value, ok := extractor.Extract(q)
	if !ok {
		fmt.Fprintf(r.cmd.ErrOrStderr(), "query %q matched nothing\n", queryFlag)
		return errChecksFailed
	}

	switch value.(type) {
	case map[string]any, []any:
		raw, _ := extractor.Raw(q)
		fmt.Fprintln(r.cmd.OutOrStdout(), raw)
	case nil:
		fmt.Fprintln(r.cmd.OutOrStdout(), "null")
	default:
		fmt.Fprintln(r.cmd.OutOrStdout(), value)
	}

	if !assertions.AllPassed(results) {
		output.NewConsoleFormatter(output.WithWriter(r.cmd.ErrOrStderr())).FormatChecks(results)
	}
	return nil
}

// diffPrinter is implemented by formatters that can show body diffs.
type diffPrinter interface {
	FormatDiff(lines []output.DiffLine)
}

func (r *requestRun) printDiff(previous *history.Entry, resp *http.Response) {
	printer, ok := r.formatter.(diffPrinter)
	if !ok {
		return
	}
	if previous == nil {
		fmt.Fprintln(r.cmd.ErrOrStderr(), "no previous run to compare with")
		return
	}

	faint := color.New(color.Faint).SprintFunc()
	fmt.Fprintf(r.cmd.OutOrStdout(), "\n%s\n", faint(fmt.Sprintf("diff against the run from %s (%d %s)",
		humanize.Time(previous.StartedAt), previous.StatusCode, previous.Status)))
	printer.FormatDiff(output.Diff(previous.ResponseBody, resp.Body))
}

// report prints an error from a watched run without stopping the watch.
func (r *requestRun) report(err error) {
	var reported *reportedError
	if err == nil || errors.Is(err, errChecksFailed) || errors.As(err, &reported) {
		return
	}
	r.formatter.FormatError(err)
	_ = r.formatter.Flush()
}

// watch re-runs the request whenever its file is written, until ctx ends.
// Editors often replace files instead of writing them, so the project
// directory is watched rather than the file.
func (r *requestRun) watch(ctx context.Context) error {
	path := filepath.Clean(r.app.requestPath(r.project, r.id))
	dir := filepath.Dir(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return &store.StorageError{Op: "watch", Path: dir, Err: err}
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(r.cmd.ErrOrStderr(), "\n%s\n", cyan(fmt.Sprintf("Watching %s for changes... (Ctrl+C to stop)", path)))

	trigger := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			fmt.Fprintf(r.cmd.ErrOrStderr(), "\n%s\n", cyan("File changed, re-running..."))
			r.report(r.once(ctx))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.formatter.FormatError(fmt.Errorf("watcher error: %w", err))
		}
	}
}

func runBench(ctx context.Context, cmd *cobra.Command, a *app, resolver *env.Resolver, project, id string) error {
	req, err := a.ws.LoadRequest(project, id)
	if err != nil {
		return notFoundHint(project, id, err)
	}
	warnUnresolved(cmd, resolver.UnresolvedInRequest(req))
	req = resolver.ResolveRequest(req)

	cfg := &bench.Config{
		Count:       repeatFlag,
		Rate:        rateFlag,
		Concurrency: concurrencyFlag,
	}
	runner, err := bench.NewRunner(cfg, a.client, bench.WithLogger(a.logger))
	if err != nil {
		return usageErrorf("%v", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Sending %s %s %s times...\n", req.Method, req.URL, humanize.Comma(int64(cfg.Count)))
	summary, runErr := runner.Run(ctx, req)
	if errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "\nReceived interrupt, stopped early")
	}

	reporter := bench.NewReporter(bench.WithWriter(cmd.OutOrStdout()))
	if outputFlag == output.FormatJSON {
		if err := reporter.JSONSummary(summary); err != nil {
			return err
		}
	} else {
		reporter.Summary(fmt.Sprintf("%s/%s", project, id), summary)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// notFoundHint points at the command that creates a missing request.
func notFoundHint(project, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w (create it with 'htup new %s %s')", err, project, id)
	}
	return err
}
