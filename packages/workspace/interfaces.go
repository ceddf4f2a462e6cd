package workspace

import (
	"context"

	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/snptkdn/htup/packages/http"
	"github.com/snptkdn/htup/packages/store"
)

type ProjectStore interface {
	ListProjects() ([]store.Project, error)
	ListRequests(p store.Project) ([]string, error)
	CreateProject(name string) error
}

type RequestStore interface {
	Load(p store.Project, id string) (*parser.Request, error)
	Save(p store.Project, id string, req *parser.Request) error
}

// Sender performs one HTTP exchange.
type Sender interface {
	Send(ctx context.Context, req *parser.Request) (*http.Response, error)
}

// Editor lets the user change a stored request in place.
type Editor interface {
	Edit(ctx context.Context, p store.Project, id string) error
}

// Recorder keeps a record of executed requests.
type Recorder interface {
	Record(ctx context.Context, exec *Execution) error
}
