package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List requests",
	Long: `List the requests of one project, or of every project when none is given.

Examples:
  htup list
  htup list billing`,
	Args: argsUsage(cobra.MaximumNArgs(1)),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		ids, err := a.ws.ListRequests(args[0])
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	projects, err := a.ws.ListProjects()
	if err != nil {
		return err
	}
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	for i, p := range projects {
		ids, err := a.ws.ListRequests(p.Name)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s/\n", bold(p.Name))
		if len(ids) == 0 {
			fmt.Fprintf(out, "  %s\n", faint("(empty)"))
		}
		for _, id := range ids {
			fmt.Fprintf(out, "  - %s\n", id)
		}
	}
	return nil
}
