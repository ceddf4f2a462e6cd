package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/snptkdn/htup/packages/core/parser"
	"go.uber.org/zap"
)

// FSRequestStore loads and saves request documents.
type FSRequestStore struct {
	layout Layout
	logger *zap.Logger
}

func NewRequestStore(layout Layout, opts ...Option) *FSRequestStore {
	o := buildOptions(opts)
	return &FSRequestStore{layout: layout, logger: o.logger}
}

func (s *FSRequestStore) Layout() Layout {
	return s.layout
}

// Load reads and parses a request. A missing file is reported as ErrNotFound
// and malformed content as a *parser.ParseError naming the file.
func (s *FSRequestStore) Load(p Project, id string) (*parser.Request, error) {
	path := s.layout.RequestPath(p, id)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("request %s/%s: %w", p.Name, id, ErrNotFound)
		}
		return nil, &StorageError{Op: "read request", Path: path, Err: err}
	}

	req, err := parser.Parse(string(content), path)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded request", zap.String("project", p.Name), zap.String("id", id), zap.String("path", path))
	return req, nil
}

// Save writes the request, creating the directory of the request file when
// needed. The previous file, if any, is replaced atomically. A document Load
// could not read back is rejected with a *parser.ParseError before anything
// is written.
func (s *FSRequestStore) Save(p Project, id string, req *parser.Request) error {
	path := s.layout.RequestPath(p, id)
	if err := parser.Validate(req); err != nil {
		err.File = path
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "create directory", Path: dir, Err: err}
	}
	if err := writeFileAtomic(path, []byte(parser.Encode(req)), 0o644); err != nil {
		return &StorageError{Op: "write request", Path: path, Err: err}
	}
	s.logger.Debug("saved request", zap.String("project", p.Name), zap.String("id", id), zap.String("path", path))
	return nil
}
