package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [project]",
	Short: "Check that request files parse",
	Long: `Parse every request of one project, or of all projects, without sending
anything. Exits with status 2 when a file does not parse.

Examples:
  htup validate
  htup validate billing`,
	Args: argsUsage(cobra.MaximumNArgs(1)),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	var projects []string
	if len(args) == 1 {
		projects = args
	} else {
		all, err := a.ws.ListProjects()
		if err != nil {
			return err
		}
		for _, p := range all {
			projects = append(projects, p.Name)
		}
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	var (
		checked  int
		firstErr error
	)
	for _, project := range projects {
		ids, err := a.ws.ListRequests(project)
		if err != nil {
			return err
		}
		for _, id := range ids {
			checked++
			_, err := a.ws.LoadRequest(project, id)
			var perr *parser.ParseError
			switch {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s\n", green("✓"), project, id)
			case errors.As(err, &perr):
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s: %v\n", red("✗"), project, id, err)
				if firstErr == nil {
					firstErr = err
				}
			default:
				return err
			}
		}
	}

	if checked == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "No requests found in %s\n", a.layout.Root)
		return nil
	}
	if firstErr != nil {
		return fmt.Errorf("validation failed: %w", firstErr)
	}
	return nil
}
