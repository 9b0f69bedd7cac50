package indexerrun

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/simerrors"
)

// StatusStore persists one JSON blob per indexer under
// <root>/indexers/<name>.status.json, using the same
// write-to-temp-then-rename pattern the vector index uses for its graph
// and mapping files so a crash mid-write never corrupts a status record.
type StatusStore struct {
	root string
}

// NewStatusStore opens a status store rooted at dir.
func NewStatusStore(dir string) *StatusStore {
	return &StatusStore{root: dir}
}

func (s *StatusStore) path(indexer string) string {
	return filepath.Join(s.root, "indexers", indexer+".status.json")
}

// Load returns the indexer's persisted state, or a fresh idle state if
// none has been saved yet.
func (s *StatusStore) Load(indexer string) (*model.IndexerState, error) {
	f, err := os.Open(s.path(indexer))
	if os.IsNotExist(err) {
		return &model.IndexerState{Status: model.IndexerIdle}, nil
	}
	if err != nil {
		return nil, simerrors.NewConfiguration("failed to open indexer status", err)
	}
	defer f.Close()

	var state model.IndexerState
	if err := json.NewDecoder(f).Decode(&state); err != nil {
		return nil, simerrors.NewConfiguration("failed to decode indexer status", err)
	}
	return &state, nil
}

// Save persists state for indexer, atomically.
func (s *StatusStore) Save(indexer string, state *model.IndexerState) error {
	dir := filepath.Join(s.root, "indexers")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return simerrors.NewConfiguration("failed to create indexer status directory", err)
	}

	path := s.path(indexer)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return simerrors.NewConfiguration("failed to create indexer status file", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		f.Close()
		os.Remove(tmp)
		return simerrors.NewConfiguration("failed to write indexer status", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return simerrors.NewConfiguration("failed to close indexer status file", err)
	}
	return os.Rename(tmp, path)
}
