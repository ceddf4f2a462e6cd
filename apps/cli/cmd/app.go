package cmd

import (
	"os"
	"path/filepath"

	"github.com/snptkdn/htup/packages/core/config"
	"github.com/snptkdn/htup/packages/editor"
	"github.com/snptkdn/htup/packages/history"
	"github.com/snptkdn/htup/packages/http"
	"github.com/snptkdn/htup/packages/logging"
	"github.com/snptkdn/htup/packages/store"
	"github.com/snptkdn/htup/packages/workspace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds everything a command needs, built from the resolved config.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	layout  store.Layout
	client  *http.Client
	history *history.Store
	ws      *workspace.Workspace
}

type appOptions struct {
	// history opens the history database and records executions into it.
	history bool
}

// loadConfig reads the config file named by --config, or the first one found
// in the workspace root, then applies environment and flag overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFlag != "" {
		cfg, err = config.LoadConfig(configFlag)
	} else {
		dir := rootFlag
		if dir == "" {
			dir = "."
		}
		cfg, err = config.FindAndLoadConfig(dir)
	}
	if err != nil {
		return nil, &configError{err: err}
	}

	cfg.ApplyEnv(os.Getenv)

	// a relative root in an explicit config file is relative to that file
	if configFlag != "" && cfg.Root != "" && !filepath.IsAbs(cfg.Root) && os.Getenv("HTUP_ROOT") == "" {
		cfg.Root = filepath.Join(filepath.Dir(configFlag), cfg.Root)
	}
	if rootFlag != "" {
		cfg.Root = rootFlag
	}
	if noColorFlag {
		cfg.NoColor = config.BoolPtr(true)
	}

	if err := cfg.Validate(); err != nil {
		return nil, &configError{err: err}
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Options{Debug: debugFlag, Writer: cmd.ErrOrStderr()})
	layout := store.NewLayout(cfg.GetRoot())

	clientOpts := []http.ClientOption{
		http.WithTimeout(cfg.GetTimeout()),
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithProxy(cfg.Proxy),
		http.WithDefaultHeaders(cfg.Headers),
		http.WithLogger(logger),
	}
	if cfg.MaxRedirects > 0 {
		clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	client := http.NewClient(clientOpts...)

	ed := editor.New(layout, editor.Config{Command: cfg.Editor},
		editor.WithIO(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
		editor.WithLogger(logger),
	)

	a := &app{
		cfg:    cfg,
		logger: logger,
		layout: layout,
		client: client,
	}

	wsOpts := []workspace.Option{
		workspace.WithSender(client),
		workspace.WithEditor(ed),
		workspace.WithLogger(logger),
	}
	if opts.history && cfg.GetHistory() {
		path := cfg.GetHistoryPath()
		h, err := history.Open(path, history.WithLogger(logger))
		if err != nil {
			return nil, &store.StorageError{Op: "open history", Path: path, Err: err}
		}
		a.history = h
		wsOpts = append(wsOpts, workspace.WithRecorder(h))
	}

	a.ws = workspace.New(
		store.NewProjectStore(layout, store.WithLogger(logger)),
		store.NewRequestStore(layout, store.WithLogger(logger)),
		wsOpts...,
	)
	return a, nil
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("failed to close history", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *app) requestPath(project, id string) string {
	return a.layout.RequestPath(store.Project{Name: project}, id)
}
