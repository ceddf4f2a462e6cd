package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/snptkdn/htup/packages/store"
	"go.uber.org/zap"
)

// DefaultCommand is used when no editor is configured.
const DefaultCommand = "vim"

type Config struct {
	// Command is the editor program, optionally followed by arguments
	// ("code --wait"). The file path is appended as the last argument.
	Command string
}

// LaunchError reports an editor that could not be started or exited non-zero.
type LaunchError struct {
	Command  string
	Path     string
	ExitCode int
	Err      error
}

func (e *LaunchError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("editor %q exited with status %d editing %s", e.Command, e.ExitCode, e.Path)
	}
	return fmt.Sprintf("editor %q failed on %s: %v", e.Command, e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

type Option func(*CommandEditor)

// WithIO attaches the editor to the given streams instead of the process's own.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(e *CommandEditor) {
		e.stdin = in
		e.stdout = out
		e.stderr = errOut
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *CommandEditor) {
		if l != nil {
			e.logger = l
		}
	}
}

// CommandEditor runs an external program on the request file and waits for it
// to exit. It never reads or writes the file itself.
type CommandEditor struct {
	layout  store.Layout
	command []string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	logger  *zap.Logger
}

func New(layout store.Layout, cfg Config, opts ...Option) *CommandEditor {
	command := strings.Fields(cfg.Command)
	if len(command) == 0 {
		command = []string{DefaultCommand}
	}

	e := &CommandEditor{
		layout:  layout,
		command: command,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Command returns the resolved editor command line.
func (e *CommandEditor) Command() string {
	return strings.Join(e.command, " ")
}

// Edit opens the request file, creating the project directory first so the
// editor can create the file when it does not exist yet.
func (e *CommandEditor) Edit(ctx context.Context, p store.Project, id string) error {
	path := e.layout.RequestPath(p, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &store.StorageError{Op: "create project", Path: filepath.Dir(path), Err: err}
	}

	args := append(append([]string{}, e.command[1:]...), path)
	cmd := exec.CommandContext(ctx, e.command[0], args...)
	cmd.Stdin = e.stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	e.logger.Debug("launching editor", zap.Strings("command", e.command), zap.String("path", path))

	if err := cmd.Run(); err != nil {
		launchErr := &LaunchError{Command: e.Command(), Path: path, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			launchErr.ExitCode = exitErr.ExitCode()
		}
		return launchErr
	}
	return nil
}
