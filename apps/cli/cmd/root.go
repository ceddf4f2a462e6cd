package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	rootFlag    string
	configFlag  string
	debugFlag   bool
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "htup",
	Short: "HTTP requests as plain text files",
	Long: `htup keeps HTTP requests as plain text .http files, grouped into
projects, and sends them from the terminal.

Each project is a directory under the workspace root and each request is one
file in it:

  POST https://api.example.com/users
  Content-Type: application/json

  {"name": "John"}`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag {
			color.NoColor = true
		}
	},
}

// Execute runs the CLI and exits with the code matching the returned error.
func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		code := exitCode(err)
		var reported *reportedError
		if !errors.Is(err, errChecksFailed) && !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		}
		if code == ExitUsageError {
			fmt.Fprintln(os.Stderr, "Run 'htup --help' for usage.")
		}
		os.Exit(code)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", getEnvString("HTUP_ROOT", ""), "Workspace root directory (env: HTUP_ROOT)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("HTUP_CONFIG", ""), "Path to config file (env: HTUP_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", getEnvBool("HTUP_DEBUG", false), "Log debug output to stderr (env: HTUP_DEBUG)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("HTUP_NO_COLOR", false), "Disable colored output (env: HTUP_NO_COLOR)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageErrorf("%v", err)
	})

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
