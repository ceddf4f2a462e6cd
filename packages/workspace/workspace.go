package workspace

import (
	"context"
	"errors"
	"time"

	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/snptkdn/htup/packages/http"
	"github.com/snptkdn/htup/packages/store"
	"go.uber.org/zap"
)

var (
	ErrNoSender = errors.New("no HTTP sender configured")
	ErrNoEditor = errors.New("no editor configured")
)

type Workspace struct {
	projects ProjectStore
	requests RequestStore
	sender   Sender
	editor   Editor
	recorder Recorder
	logger   *zap.Logger
}

type Option func(*Workspace)

func WithSender(s Sender) Option {
	return func(w *Workspace) {
		w.sender = s
	}
}

func WithEditor(e Editor) Option {
	return func(w *Workspace) {
		w.editor = e
	}
}

func WithRecorder(r Recorder) Option {
	return func(w *Workspace) {
		w.recorder = r
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

func New(projects ProjectStore, requests RequestStore, opts ...Option) *Workspace {
	w := &Workspace{
		projects: projects,
		requests: requests,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workspace) ListProjects() ([]store.Project, error) {
	return w.projects.ListProjects()
}

func (w *Workspace) ListRequests(project string) ([]string, error) {
	return w.projects.ListRequests(store.Project{Name: project})
}

func (w *Workspace) CreateProject(name string) error {
	return w.projects.CreateProject(name)
}

// CreateRequest saves a new request built from a template. An existing request
// with the same id is overwritten.
func (w *Workspace) CreateRequest(project, id, method string, kind BodyKind) (*parser.Request, error) {
	if method != "" {
		if err := ValidateMethod(method); err != nil {
			return nil, err
		}
	}
	req := NewFromTemplate(method, kind)
	if err := w.requests.Save(store.Project{Name: project}, id, req); err != nil {
		return nil, err
	}
	w.logger.Debug("created request",
		zap.String("project", project),
		zap.String("id", id),
		zap.String("method", req.Method),
		zap.Stringer("body", kind),
	)
	return req, nil
}

func (w *Workspace) LoadRequest(project, id string) (*parser.Request, error) {
	return w.requests.Load(store.Project{Name: project}, id)
}

func (w *Workspace) SaveRequest(project, id string, req *parser.Request) error {
	return w.requests.Save(store.Project{Name: project}, id, req)
}

// ExecuteRequest sends the document as-is. Errors come back unchanged and
// nothing is retried.
func (w *Workspace) ExecuteRequest(ctx context.Context, req *parser.Request) (*http.Response, error) {
	if w.sender == nil {
		return nil, ErrNoSender
	}
	return w.sender.Send(ctx, req)
}

// EditRequest hands the stored file to the editor. The request need not exist.
func (w *Workspace) EditRequest(ctx context.Context, project, id string) error {
	if w.editor == nil {
		return ErrNoEditor
	}
	return w.editor.Edit(ctx, store.Project{Name: project}, id)
}

// Execution is one run of a stored request.
type Execution struct {
	Project   string
	ID        string
	Request   *parser.Request
	Response  *http.Response
	Err       error
	StartedAt time.Time
}

type RunOptions struct {
	// Expand rewrites placeholders before sending. Nil sends the stored text.
	Expand func(string) string
}

// RunRequest loads a stored request and runs it.
func (w *Workspace) RunRequest(ctx context.Context, project, id string, opts RunOptions) (*Execution, error) {
	req, err := w.LoadRequest(project, id)
	if err != nil {
		return nil, err
	}
	return w.Run(ctx, project, id, req, opts)
}

// Run expands and executes an already loaded request, then hands the outcome
// to the recorder under project/id. Failing to record is logged, never
// returned.
func (w *Workspace) Run(ctx context.Context, project, id string, req *parser.Request, opts RunOptions) (*Execution, error) {
	if opts.Expand != nil {
		req = req.Expand(opts.Expand)
	}

	exec := &Execution{
		Project:   project,
		ID:        id,
		Request:   req,
		StartedAt: time.Now(),
	}
	exec.Response, exec.Err = w.ExecuteRequest(ctx, req)

	if w.recorder != nil {
		if rerr := w.recorder.Record(ctx, exec); rerr != nil {
			w.logger.Warn("failed to record execution",
				zap.String("project", project),
				zap.String("id", id),
				zap.Error(rerr),
			)
		}
	}

	if exec.Err != nil {
		return exec, exec.Err
	}
	return exec, nil
}
