package env

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// SystemVarPrefix marks OS environment variables exposed as plain {{name}}
// variables: HTUP_VAR_token=abc makes {{token}} resolve to abc.
const SystemVarPrefix = "HTUP_VAR_"

type Environment struct {
	Name      string
	Variables map[string]any
}

// LoadEnvironment picks a named environment from the config. An empty name
// yields an empty environment; an unknown name is an error.
func LoadEnvironment(envName string, configEnvs map[string]map[string]any) (*Environment, error) {
	env := &Environment{
		Name:      envName,
		Variables: make(map[string]any),
	}
	if envName == "" {
		return env, nil
	}

	vars, ok := configEnvs[envName]
	if !ok {
		names := make([]string, 0, len(configEnvs))
		for name := range configEnvs {
			names = append(names, name)
		}
		slices.Sort(names)
		return nil, fmt.Errorf("environment %q not found (available: %s)", envName, strings.Join(names, ", "))
	}
	for k, v := range vars {
		env.Variables[k] = v
	}
	return env, nil
}

// MergeVariables merges maps left to right; later sources win.
func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// LoadSystemEnv returns the OS variables starting with prefix, with the
// prefix removed. An empty prefix returns everything.
func LoadSystemEnv(prefix string) map[string]any {
	return systemEnv(os.Environ(), prefix)
}

func systemEnv(environ []string, prefix string) map[string]any {
	result := make(map[string]any)
	for _, e := range environ {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if name, found := strings.CutPrefix(key, prefix); found && name != "" {
			result[name] = value
		}
	}
	return result
}

// ParseAssignments turns ["a=1", "b=x=y"] into variables.
func ParseAssignments(pairs []string) (map[string]any, error) {
	result := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q: expected name=value", pair)
		}
		result[key] = value
	}
	return result, nil
}
