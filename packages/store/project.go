package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// FSProjectStore lists and creates project directories.
type FSProjectStore struct {
	layout Layout
	logger *zap.Logger
}

func NewProjectStore(layout Layout, opts ...Option) *FSProjectStore {
	o := buildOptions(opts)
	return &FSProjectStore{layout: layout, logger: o.logger}
}

func (s *FSProjectStore) Layout() Layout {
	return s.layout
}

// ListProjects returns every directory under the root, sorted by name.
// A missing root is created and yields an empty list.
func (s *FSProjectStore) ListProjects() ([]Project, error) {
	if err := os.MkdirAll(s.layout.Root, 0o755); err != nil {
		return nil, &StorageError{Op: "create root", Path: s.layout.Root, Err: err}
	}

	entries, err := os.ReadDir(s.layout.Root)
	if err != nil {
		return nil, &StorageError{Op: "list projects", Path: s.layout.Root, Err: err}
	}

	var names []string
	for _, entry := range entries {
		if isDir(s.layout.Root, entry) {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)

	projects := make([]Project, 0, len(names))
	for _, name := range names {
		projects = append(projects, Project{Name: name})
	}
	s.logger.Debug("listed projects", zap.String("root", s.layout.Root), zap.Int("count", len(projects)))
	return projects, nil
}

// ListRequests returns the ids of the .http files in the project, sorted.
// A project without a directory has no requests.
func (s *FSProjectStore) ListRequests(p Project) ([]string, error) {
	dir := s.layout.ProjectDir(p)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &StorageError{Op: "list requests", Path: dir, Err: err}
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) != Ext || name == Ext {
			continue
		}
		if !isRegular(dir, entry) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, Ext))
	}
	slices.Sort(ids)
	return ids, nil
}

// CreateProject creates an empty project directory. An existing project is
// left untouched and reported as ErrAlreadyExists.
func (s *FSProjectStore) CreateProject(name string) error {
	p := Project{Name: name}
	dir := s.layout.ProjectDir(p)

	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("project %q: %w", name, ErrAlreadyExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &StorageError{Op: "stat project", Path: dir, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return &StorageError{Op: "create root", Path: filepath.Dir(dir), Err: err}
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("project %q: %w", name, ErrAlreadyExists)
		}
		return &StorageError{Op: "create project", Path: dir, Err: err}
	}

	s.logger.Debug("created project", zap.String("project", name), zap.String("path", dir))
	return nil
}

// isDir follows symlinks, matching what a user sees with ls.
func isDir(parent string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}

func isRegular(parent string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}
