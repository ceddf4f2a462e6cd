package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/snptkdn/htup/packages/wizard"
	"github.com/snptkdn/htup/packages/workspace"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	newMethodFlag string
	newBodyFlag   string
	newEditFlag   bool
)

var errCancelled = errors.New("cancelled")

var newCmd = &cobra.Command{
	Use:   "new <project> [id]",
	Short: "Create a request from a template",
	Long: `Create a request in a project from a template.

On a terminal, htup asks for whatever the arguments and flags leave open:
the request name, the method and the body template. Otherwise the id is
required and the method and body default to GET and empty.

An existing request with the same id is replaced.

Examples:
  htup new billing
  htup new billing create-invoice --method POST --body json
  htup new billing list-invoices --edit`,
	Args: argsUsage(cobra.RangeArgs(1, 2)),
	RunE: newCommand,
}

func init() {
	newCmd.Flags().StringVarP(&newMethodFlag, "method", "X", "", "HTTP method (GET, POST, PUT, DELETE, PATCH)")
	newCmd.Flags().StringVarP(&newBodyFlag, "body", "b", "", "Body template: empty or json")
	newCmd.Flags().BoolVarP(&newEditFlag, "edit", "e", false, "Open the new request in the editor")
}

func newCommand(cmd *cobra.Command, args []string) error {
	project := args[0]
	var id string
	if len(args) == 2 {
		id = args[1]
	}

	interactive := isTerminal(cmd.InOrStdin())
	if id == "" && !interactive {
		return usageErrorf("request id is required when stdin is not a terminal")
	}

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	w := wizard.New(a.ws)
	if err := w.Start(project); err != nil {
		return err
	}
	p := &prompter{
		in:  bufio.NewReader(cmd.InOrStdin()),
		out: cmd.OutOrStdout(),
	}

	if id != "" {
		if err := w.SubmitName(id); err != nil {
			return usageErrorf("%v", err)
		}
	} else if err := p.name(w); err != nil {
		return err
	}

	switch {
	case newMethodFlag != "":
		if err := w.SelectMethod(newMethodFlag); err != nil {
			return usageErrorf("%v", err)
		}
	case interactive:
		if err := p.choose(w, "Method"); err != nil {
			return err
		}
	default:
		if err := w.SelectMethod(workspace.DefaultMethod); err != nil {
			return err
		}
	}

	draft := w.Draft()
	if newBodyFlag != "" || !interactive {
		kind, err := workspace.ParseBodyKind(newBodyFlag)
		if err != nil {
			w.Cancel()
			return usageErrorf("%v", err)
		}
		if _, err := w.SelectBody(kind); err != nil {
			return err
		}
	} else if err := p.choose(w, "Body"); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", a.requestPath(draft.Project, draft.ID))

	if newEditFlag {
		return a.ws.EditRequest(cmd.Context(), draft.Project, draft.ID)
	}
	return nil
}

// prompter asks for wizard input line by line.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if line == "" {
			return "", errCancelled
		}
	} else if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) name(w *wizard.Wizard) error {
	for {
		fmt.Fprint(p.out, color.New(color.Bold).Sprint("Request name: "))
		line, err := p.readLine()
		if err != nil {
			w.Cancel()
			return err
		}
		err = w.SubmitName(line)
		if errors.Is(err, wizard.ErrEmptyName) {
			continue
		}
		return err
	}
}

// choose lists the wizard's current options and applies the one picked by
// number. Input that is not a valid choice asks again.
func (p *prompter) choose(w *wizard.Wizard, label string) error {
	faint := color.New(color.Faint).SprintFunc()
	options := w.Options()
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %s %s\n", faint(strconv.Itoa(i+1)+")"), opt)
	}

	for {
		fmt.Fprintf(p.out, "%s ", color.New(color.Bold).Sprintf("%s [1-%d]:", label, len(options)))
		line, err := p.readLine()
		if err != nil {
			w.Cancel()
			return err
		}
		if line == "" {
			line = "1"
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintf(p.out, "enter a number between 1 and %d\n", len(options))
			continue
		}
		if _, err := w.Choose(n - 1); err != nil {
			if errors.Is(err, wizard.ErrInvalidChoice) {
				fmt.Fprintln(p.out, err)
				continue
			}
			return err
		}
		return nil
	}
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
