package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for htup.

Project names and request ids complete from the workspace root.

Bash:
  $ source <(htup completion bash)

Zsh:
  $ htup completion zsh > "${fpath[1]}/_htup"

Fish:
  $ htup completion fish > ~/.config/fish/completions/htup.fish

PowerShell:
  PS> htup completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  argsUsage(cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		default:
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)

	for _, c := range []*cobra.Command{runCmd, showCmd, editCmd, historyCmd} {
		c.ValidArgsFunction = completeRequests(2)
	}
	for _, c := range []*cobra.Command{listCmd, validateCmd, newCmd} {
		c.ValidArgsFunction = completeRequests(1)
	}
}

// completeRequests completes a project name as the first argument and, when
// maxArgs allows it, one of that project's request ids as the second.
func completeRequests(maxArgs int) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= maxArgs {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		a, err := newApp(cmd, appOptions{})
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer a.Close()

		var names []string
		if len(args) == 0 {
			projects, err := a.ws.ListProjects()
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			for _, p := range projects {
				names = append(names, p.Name)
			}
		} else {
			names, err = a.ws.ListRequests(args[0])
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
		}

		matches := names[:0]
		for _, n := range names {
			if strings.HasPrefix(n, toComplete) {
				matches = append(matches, n)
			}
		}
		return matches, cobra.ShellCompDirectiveNoFileComp
	}
}
