package cmd

import (
	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/spf13/cobra"
)

var showResolvedFlag bool

var showCmd = &cobra.Command{
	Use:   "show <project> <id>",
	Short: "Print a stored request",
	Long: `Print a stored request in its file format.

With --resolved, variables are expanded the same way run expands them.

Examples:
  htup show billing create-invoice
  htup show billing create-invoice --resolved --env staging`,
	Args: argsUsage(cobra.ExactArgs(2)),
	RunE: showCommand,
}

func init() {
	showCmd.Flags().BoolVar(&showResolvedFlag, "resolved", false, "Expand variables before printing")
	addVariableFlags(showCmd)
}

func showCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	req, err := a.ws.LoadRequest(args[0], args[1])
	if err != nil {
		return err
	}

	if showResolvedFlag {
		resolver, err := buildResolver(a.cfg, a.logger)
		if err != nil {
			return err
		}
		warnUnresolved(cmd, resolver.UnresolvedInRequest(req))
		req = resolver.ResolveRequest(req)
	}

	_, err = parser.WriteTo(cmd.OutOrStdout(), req)
	return err
}
