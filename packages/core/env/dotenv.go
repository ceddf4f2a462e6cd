package env

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv parses a .env file and returns its key-value pairs without
// touching the process environment.
func LoadDotEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read env file %s: %w", path, err)
	}
	return vars, nil
}

// LoadAndExportDotEnv parses a .env file and exports its variables so that
// {{$VAR}} placeholders see them. Variables already set in the environment win.
func LoadAndExportDotEnv(path string) (map[string]string, error) {
	vars, err := LoadDotEnv(path)
	if err != nil {
		return nil, err
	}

	for k, v := range vars {
		if _, ok := os.LookupEnv(k); !ok {
			_ = os.Setenv(k, v)
		}
	}

	return vars, nil
}

// StringVars converts dotenv output for Resolver.SetVariables.
func StringVars(vars map[string]string) map[string]any {
	result := make(map[string]any, len(vars))
	for k, v := range vars {
		result[k] = v
	}
	return result
}
