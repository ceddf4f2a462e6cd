package store

import "path/filepath"

// Ext is the file extension of a stored request document.
const Ext = ".http"

// Project identifies a project directory under the workspace root.
type Project struct {
	Name string
}

// Layout maps projects and request ids to paths. Stores and the editor share
// one Layout so they always resolve the same file.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	if root == "" {
		root = "."
	}
	return Layout{Root: root}
}

func (l Layout) ProjectDir(p Project) string {
	return filepath.Join(l.Root, p.Name)
}

func (l Layout) RequestPath(p Project, id string) string {
	return filepath.Join(l.Root, p.Name, id+Ext)
}
