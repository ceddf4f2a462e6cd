package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/snptkdn/htup/packages/history"
	"github.com/snptkdn/htup/packages/output"
	"github.com/spf13/cobra"
)

var (
	historyLimitFlag int
	historyPruneFlag int
	historyBodyFlag  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [project [id]]",
	Short: "Show past runs",
	Long: `Show recorded runs, newest first, for the whole workspace, one project or
one request.

Examples:
  htup history
  htup history billing
  htup history billing get-invoice --limit 5 --body
  htup history --prune 20`,
	Args: argsUsage(cobra.MaximumNArgs(2)),
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "l", 20, "Maximum number of runs to show (0 = all)")
	historyCmd.Flags().IntVar(&historyPruneFlag, "prune", 0, "Delete all but the newest N runs of every request")
	historyCmd.Flags().BoolVar(&historyBodyFlag, "body", false, "Print the response body of each run")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{history: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if a.history == nil {
		return usageErrorf("history is disabled in the config")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if historyPruneFlag > 0 {
		n, err := a.history.Prune(ctx, historyPruneFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %s runs\n", humanize.Comma(n))
		return nil
	}

	filter := history.Filter{Limit: historyLimitFlag}
	if len(args) > 0 {
		filter.Project = args[0]
	}
	if len(args) > 1 {
		filter.RequestID = args[1]
	}

	entries, err := a.history.List(ctx, filter)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No runs recorded")
		return nil
	}

	faint := color.New(color.Faint).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	console := output.NewConsoleFormatter(output.WithWriter(out), output.WithNoColor(a.cfg.GetNoColor()))

	for _, e := range entries {
		result := red("error")
		if !e.Failed() {
			result = fmt.Sprintf("%d %s", e.StatusCode, e.Status)
		}
		fmt.Fprintf(out, "%s %-24s %-7s %-16s %8s  %s\n",
			faint(fmt.Sprintf("%-14s", humanize.Time(e.StartedAt))),
			e.Project+"/"+e.RequestID,
			e.Method,
			result,
			fmt.Sprintf("%dms", e.Duration.Milliseconds()),
			e.URL,
		)
		if e.Failed() {
			fmt.Fprintf(out, "  %s\n", red(e.Error))
		}
		if historyBodyFlag && len(e.ResponseBody) > 0 {
			body := console.FormatBody(e.ResponseBody)
			fmt.Fprintln(out, indent(body, "  "))
		}
	}
	return nil
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
