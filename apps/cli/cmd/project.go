package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long: `A project is a directory of request files under the workspace root.

Examples:
  htup project list
  htup project create billing`,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  argsUsage(cobra.NoArgs),
	RunE:  projectListCommand,
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty project",
	Args:  argsUsage(cobra.ExactArgs(1)),
	RunE:  projectCreateCommand,
}

func init() {
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectCreateCmd)
}

func projectListCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	projects, err := a.ws.ListProjects()
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "No projects in %s\n", a.layout.Root)
		return nil
	}
	for _, p := range projects {
		fmt.Fprintln(cmd.OutOrStdout(), p.Name)
	}
	return nil
}

func projectCreateCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ws.CreateProject(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created project: %s\n", args[0])
	return nil
}
