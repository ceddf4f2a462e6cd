package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/snptkdn/htup/packages/proxy"
	"github.com/spf13/cobra"
)

var (
	recordAddrFlag    string
	recordTargetFlag  string
	recordProjectFlag string
	recordExcludeFlag string
	recordDedupeFlag  bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Start a recording proxy to capture HTTP requests",
	Long: `Start an HTTP proxy that forwards requests to a target server and, when
stopped with Ctrl+C, saves every request it saw into a project.

Sensitive headers (Authorization, Cookie, X-Api-Key, Api-Key) are saved as
{{VARIABLE}} placeholders instead of their values.

Examples:
  htup record --target https://api.example.com --project billing
  htup record --target https://api.example.com --project billing --addr :9000
  htup record --target https://api.example.com --project billing --exclude "/health,/metrics" --dedupe`,
	Args: argsUsage(cobra.NoArgs),
	RunE: recordCommand,
}

func init() {
	recordCmd.Flags().StringVarP(&recordTargetFlag, "target", "t", "", "Target URL to proxy to (required)")
	recordCmd.Flags().StringVarP(&recordProjectFlag, "project", "p", "", "Project to save recorded requests into (required)")
	recordCmd.Flags().StringVarP(&recordAddrFlag, "addr", "a", getEnvString("HTUP_RECORD_ADDR", ":8080"), "Address to listen on (env: HTUP_RECORD_ADDR)")
	recordCmd.Flags().StringVar(&recordExcludeFlag, "exclude", "", "Paths to exclude from recording (comma-separated)")
	recordCmd.Flags().BoolVar(&recordDedupeFlag, "dedupe", false, "Skip duplicate requests (same method+path)")

	_ = recordCmd.MarkFlagRequired("target")
	_ = recordCmd.MarkFlagRequired("project")
}

func recordCommand(cmd *cobra.Command, args []string) error {
	// Parse exclude paths
	var excludePaths []string
	if recordExcludeFlag != "" {
		for _, p := range strings.Split(recordExcludeFlag, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				excludePaths = append(excludePaths, p)
			}
		}
	}

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	recorder, err := proxy.NewRecorder(recordTargetFlag,
		proxy.WithAddr(recordAddrFlag),
		proxy.WithExclude(excludePaths),
		proxy.WithDeduplicate(recordDedupeFlag),
		proxy.WithLogger(a.logger),
	)
	if err != nil {
		return usageErrorf("%v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errOut := cmd.ErrOrStderr()
	ready := func(addr string) {
		fmt.Fprintf(errOut, "Recording proxy listening on %s -> %s\n", color.CyanString(addr), recordTargetFlag)
		fmt.Fprintln(errOut, "Press Ctrl+C to stop and save.")
	}
	if err := recorder.ListenAndServe(ctx, ready); err != nil {
		return err
	}

	recordings := recorder.GetRecordings()
	if len(recordings) == 0 {
		fmt.Fprintln(errOut, "\nNo requests recorded")
		return nil
	}

	fmt.Fprintf(errOut, "\nRecorded %d requests\n", len(recordings))
	ids, err := proxy.SaveAll(a.ws, recordProjectFlag, recordings)
	for _, id := range ids {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", a.requestPath(recordProjectFlag, id))
	}
	return err
}
