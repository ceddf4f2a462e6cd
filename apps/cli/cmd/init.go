package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/snptkdn/htup/packages/core/config"
	"github.com/snptkdn/htup/packages/store"
	"github.com/snptkdn/htup/packages/workspace"
	"github.com/spf13/cobra"
)

var forceInit bool

const (
	exampleProject = "example"
	exampleRequest = "get-example"
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a new htup workspace",
	Long: `Initialize a new htup workspace in the given directory, or the current one.

This creates:
  - htup.yaml                  - Configuration file with environments
  - example/get-example.http   - Example request

Examples:
  htup init
  htup init ~/requests
  htup init --force`,
	Args: argsUsage(cobra.MaximumNArgs(1)),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	} else if rootFlag != "" {
		dir = rootFlag
	}

	layout := store.NewLayout(dir)
	configFile := filepath.Join(dir, config.ConfigFilenames[0])
	exampleFile := layout.RequestPath(store.Project{Name: exampleProject}, exampleRequest)

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite): %w", f, store.ErrAlreadyExists)
			}
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &store.StorageError{Op: "create root", Path: dir, Err: err}
	}

	cfg := config.DefaultConfig()
	cfg.DefaultEnvironment = "dev"
	cfg.Headers = map[string]string{
		"User-Agent": "htup/" + version,
	}
	cfg.Environments = map[string]map[string]any{
		"dev": {
			"baseUrl": "http://localhost:3000",
		},
		"staging": {
			"baseUrl": "https://staging.api.example.com",
		},
		"prod": {
			"baseUrl": "https://api.example.com",
		},
	}
	if err := cfg.SaveConfig(configFile); err != nil {
		return &store.StorageError{Op: "write config", Path: configFile, Err: err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	example := workspace.NewFromTemplate("GET", workspace.BodyEmpty)
	example.URL = "{{baseUrl}}/health"
	example.Headers.Set("Accept", "application/json")

	requests := store.NewRequestStore(layout)
	if err := requests.Save(store.Project{Name: exampleProject}, exampleRequest, example); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nhtup workspace initialized!\n")
	if dir == "." {
		fmt.Fprintf(cmd.OutOrStdout(), "Run 'htup run %s %s' to send the example request.\n", exampleProject, exampleRequest)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Run 'htup --root %s run %s %s' to send the example request.\n", dir, exampleProject, exampleRequest)
	}
	return nil
}
