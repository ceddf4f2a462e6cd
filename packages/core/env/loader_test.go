package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvironment(t *testing.T) {
	envs := map[string]map[string]any{
		"dev":  {"baseUrl": "http://localhost"},
		"prod": {"baseUrl": "https://api.example.com"},
	}

	env, err := LoadEnvironment("prod", envs)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", env.Variables["baseUrl"])

	env, err = LoadEnvironment("", envs)
	require.NoError(t, err)
	assert.Empty(t, env.Variables)

	_, err = LoadEnvironment("qa", envs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: dev, prod")
}

func TestMergeVariables(t *testing.T) {
	got := MergeVariables(
		map[string]any{"a": 1, "b": 1},
		map[string]any{"b": 2},
		nil,
	)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, got)
}

func TestSystemEnv(t *testing.T) {
	environ := []string{"HTUP_VAR_token=abc", "HTUP_VAR_=skip", "PATH=/bin", "HTUP_VAR_url=http://x?a=b"}

	assert.Equal(t, map[string]any{"token": "abc", "url": "http://x?a=b"}, systemEnv(environ, SystemVarPrefix))
	assert.Len(t, systemEnv(environ, ""), 4)
}

func TestParseAssignments(t *testing.T) {
	got, err := ParseAssignments([]string{"a=1", "b=x=y", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1", "b": "x=y", "empty": ""}, got)

	_, err = ParseAssignments([]string{"novalue"})
	assert.Error(t, err)

	_, err = ParseAssignments([]string{"=v"})
	assert.Error(t, err)
}
