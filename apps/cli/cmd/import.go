package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/snptkdn/htup/packages/import/curl"
	"github.com/snptkdn/htup/packages/store"
	"github.com/spf13/cobra"
)

var (
	importIDFlag   string
	importFileFlag string
)

var importCmd = &cobra.Command{
	Use:   "import <format>",
	Short: "Import requests from other tools",
	Long: `Import requests from other tools into a project.

Supported formats:
  curl - curl command lines`,
}

var importCurlCmd = &cobra.Command{
	Use:   "curl <project> [-- curl arguments]",
	Short: "Import curl commands",
	Long: `Convert curl commands into request files of a project.

The command is taken from the arguments after --, from a file with one
command per line (--file), or from stdin. The request id is derived from the
method and path unless --id is given; ids already in the project get a
numeric suffix.

Examples:
  htup import curl billing -- curl -X POST https://api.example.com/invoices -d '{"amount":1}'
  htup import curl billing --id create-invoice -- -X POST https://api.example.com/invoices
  htup import curl billing --file commands.txt
  pbpaste | htup import curl billing`,
	Args: argsUsage(cobra.MinimumNArgs(1)),
	RunE: importCurlCommand,
}

func init() {
	importCurlCmd.Flags().StringVar(&importIDFlag, "id", "", "Request id (default: derived from method and path)")
	importCurlCmd.Flags().StringVarP(&importFileFlag, "file", "f", "", "File with one curl command per line")
	importCmd.AddCommand(importCurlCmd)
}

func importCurlCommand(cmd *cobra.Command, args []string) error {
	project := args[0]
	converter := curl.NewConverter()

	var (
		imported []*curl.Imported
		err      error
	)
	switch {
	case importFileFlag != "":
		imported, err = converter.ConvertFile(importFileFlag)
	case len(args) > 1:
		var one *curl.Imported
		one, err = converter.ConvertArgs(args[1:])
		imported = []*curl.Imported{one}
	default:
		var data []byte
		data, err = io.ReadAll(cmd.InOrStdin())
		if err == nil {
			if strings.TrimSpace(string(data)) == "" {
				return usageErrorf("no curl command given")
			}
			var one *curl.Imported
			one, err = converter.ConvertCommand(string(data))
			imported = []*curl.Imported{one}
		}
	}
	if err != nil {
		return usageErrorf("%v", err)
	}
	if importIDFlag != "" && len(imported) > 1 {
		return usageErrorf("--id cannot be used with %d commands", len(imported))
	}

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	existing, err := a.ws.ListRequests(project)
	if err != nil {
		return err
	}
	taken := make(map[string]bool, len(existing))
	for _, id := range existing {
		taken[id] = true
	}

	for _, imp := range imported {
		id := imp.ID
		if importIDFlag != "" {
			id = importIDFlag
		}
		id = store.UniqueID(id, func(candidate string) bool { return taken[candidate] })

		if err := a.ws.SaveRequest(project, id, imp.Request); err != nil {
			return err
		}
		taken[id] = true
		fmt.Fprintf(cmd.OutOrStdout(), "Imported: %s %s -> %s\n", imp.Request.Method, imp.Request.URL, a.requestPath(project, id))
	}
	return nil
}
