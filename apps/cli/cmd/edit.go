package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/snptkdn/htup/packages/store"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <project> <id>",
	Short: "Open a request in the editor",
	Long: `Open a request file in the configured editor and wait for it to exit.

The editor is taken from HTUP_EDITOR, the editor setting of the config file,
EDITOR, and finally vim. A request that does not exist yet is created by the
editor when you save.

Examples:
  htup edit billing create-invoice
  HTUP_EDITOR="code --wait" htup edit billing create-invoice`,
	Args: argsUsage(cobra.ExactArgs(2)),
	RunE: editCommand,
}

func editCommand(cmd *cobra.Command, args []string) error {
	project, id := args[0], args[1]

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ws.EditRequest(cmd.Context(), project, id); err != nil {
		return err
	}

	// report a broken file right away instead of on the next run
	_, err = a.ws.LoadRequest(project, id)
	var perr *parser.ParseError
	switch {
	case errors.As(err, &perr):
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", color.YellowString("warning:"), err)
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return err
	}
	return nil
}
