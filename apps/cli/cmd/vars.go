package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/snptkdn/htup/packages/core/config"
	"github.com/snptkdn/htup/packages/core/env"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFlag     string
	envFileFlag string
	varFlags    []string
)

// addVariableFlags registers the flags that feed buildResolver.
func addVariableFlags(c *cobra.Command) {
	c.Flags().StringVarP(&envFlag, "env", "e", getEnvString("HTUP_ENV", ""), "Environment from the config file (env: HTUP_ENV)")
	c.Flags().StringVar(&envFileFlag, "env-file", getEnvString("HTUP_ENV_FILE", ""), "Path to .env file for variable interpolation (env: HTUP_ENV_FILE)")
	c.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable, name=value (repeatable)")
}

// buildResolver collects variables from, lowest precedence first: the config
// environment, the .env file, HTUP_VAR_* process variables and --var flags.
func buildResolver(cfg *config.Config, logger *zap.Logger) (*env.Resolver, error) {
	name := envFlag
	if name == "" {
		name = cfg.DefaultEnvironment
	}
	environment, err := env.LoadEnvironment(name, cfg.Environments)
	if err != nil {
		return nil, &configError{err: err}
	}

	var dotenv map[string]any
	if envFileFlag != "" {
		vars, err := env.LoadAndExportDotEnv(envFileFlag)
		if err != nil {
			return nil, &configError{err: err}
		}
		dotenv = env.StringVars(vars)
	}

	assigned, err := env.ParseAssignments(varFlags)
	if err != nil {
		return nil, usageErrorf("%v", err)
	}

	resolver := env.NewResolver()
	resolver.SetWarnFunc(logger.Sugar().Debugf)
	resolver.SetVariables(env.MergeVariables(
		environment.Variables,
		dotenv,
		env.LoadSystemEnv(env.SystemVarPrefix),
		assigned,
	))

	logger.Debug("variables loaded", zap.String("environment", name), zap.Int("assigned", len(assigned)))
	return resolver, nil
}

func warnUnresolved(cmd *cobra.Command, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s unresolved variables: %s\n",
		color.YellowString("warning:"), strings.Join(names, ", "))
}
