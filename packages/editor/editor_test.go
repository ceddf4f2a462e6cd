package editor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snptkdn/htup/packages/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-editor.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestNew_DefaultCommand(t *testing.T) {
	e := New(store.NewLayout(t.TempDir()), Config{})
	assert.Equal(t, DefaultCommand, e.Command())

	e = New(store.NewLayout(t.TempDir()), Config{Command: "  code   --wait "})
	assert.Equal(t, "code --wait", e.Command())
}

func TestCommandEditor_EditsStoredPath(t *testing.T) {
	root := t.TempDir()
	layout := store.NewLayout(root)
	script := writeScript(t, `printf 'PUT https://edited\n' > "$1"`)

	var out bytes.Buffer
	e := New(layout, Config{Command: script}, WithIO(strings.NewReader(""), &out, &out))

	p := store.Project{Name: "api"}
	require.NoError(t, e.Edit(context.Background(), p, "new-one"))

	loaded, err := store.NewRequestStore(layout).Load(p, "new-one")
	require.NoError(t, err)
	assert.Equal(t, "PUT", loaded.Method)
	assert.Equal(t, "https://edited", loaded.URL)
}

func TestCommandEditor_PassesArguments(t *testing.T) {
	root := t.TempDir()
	layout := store.NewLayout(root)
	script := writeScript(t, `echo "$1" > "$2"`)

	e := New(layout, Config{Command: script + " GET"}, WithIO(nil, &bytes.Buffer{}, &bytes.Buffer{}))
	require.NoError(t, e.Edit(context.Background(), store.Project{Name: "p"}, "r"))

	content, err := os.ReadFile(layout.RequestPath(store.Project{Name: "p"}, "r"))
	require.NoError(t, err)
	assert.Equal(t, "GET\n", string(content))
}

func TestCommandEditor_NonZeroExit(t *testing.T) {
	script := writeScript(t, "exit 3")
	e := New(store.NewLayout(t.TempDir()), Config{Command: script}, WithIO(nil, &bytes.Buffer{}, &bytes.Buffer{}))

	err := e.Edit(context.Background(), store.Project{Name: "p"}, "r")
	require.Error(t, err)

	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, 3, launchErr.ExitCode)
}

func TestCommandEditor_MissingProgram(t *testing.T) {
	root := t.TempDir()
	e := New(store.NewLayout(root), Config{Command: "htup-no-such-editor-binary"}, WithIO(nil, &bytes.Buffer{}, &bytes.Buffer{}))

	err := e.Edit(context.Background(), store.Project{Name: "p"}, "r")
	require.Error(t, err)

	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, 0, launchErr.ExitCode)

	// the project directory exists even though the editor never ran
	assert.DirExists(t, filepath.Join(root, "p"))
	assert.NoFileExists(t, filepath.Join(root, "p", "r.http"))
}
