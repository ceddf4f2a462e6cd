package proxy

import (
	"fmt"

	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/snptkdn/htup/packages/store"
)

// Saver stores request documents in a project.
type Saver interface {
	ListRequests(project string) ([]string, error)
	SaveRequest(project, id string, req *parser.Request) error
}

// SaveAll writes every recording into project under its suggested id. An id
// that is already taken, by an existing request or an earlier recording, gets
// a numeric suffix. It returns the ids written, in recording order.
func SaveAll(s Saver, project string, recordings []Recording) ([]string, error) {
	existing, err := s.ListRequests(project)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(existing)+len(recordings))
	for _, id := range existing {
		taken[id] = true
	}

	ids := make([]string, 0, len(recordings))
	for _, rec := range recordings {
		id := store.UniqueID(rec.ID, func(candidate string) bool { return taken[candidate] })
		if err := s.SaveRequest(project, id, rec.Request); err != nil {
			return ids, fmt.Errorf("save %s: %w", id, err)
		}
		taken[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
