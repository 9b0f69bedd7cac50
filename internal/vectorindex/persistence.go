package vectorindex

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/localsearch/simulator/internal/simerrors"
)

// fieldMetadata is the gob-encoded sibling of the graph file: everything
// needed to rebuild idMap/keyMap and the field's tunable profile without
// re-walking the graph.
type fieldMetadata struct {
	IDMap   map[string]uint64
	NextID  uint64
	Profile Profile
	Vectors map[string][]float32
}

// graphPath and mappingPath implement the "<root>/hnsw/<index>/<field>"
// sibling-file persistence contract.
func graphPath(root, index, field string) string {
	return filepath.Join(root, "hnsw", index, field+".hnsw")
}

func mappingPath(root, index, field string) string {
	return filepath.Join(root, "hnsw", index, field+".mapping")
}

// Save persists (index, field)'s graph and key mapping to root, using the
// write-to-temp-then-rename pattern so a crash mid-write never leaves a
// corrupt file in place.
func (e *Engine) Save(root, index, field string) error {
	fi, ok := e.get(index, field)
	if !ok {
		return nil
	}
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	dir := filepath.Join(root, "hnsw", index)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return simerrors.NewConfiguration("failed to create vector index directory", err)
	}

	if fi.profile.UseHNSW {
		gp := graphPath(root, index, field)
		if err := writeAtomic(gp, fi.graph.Export); err != nil {
			return simerrors.NewConfiguration(fmt.Sprintf("failed to save HNSW graph for %s/%s", index, field), err)
		}
	}

	meta := fieldMetadata{
		IDMap:   fi.idMap,
		NextID:  fi.nextID,
		Profile: fi.profile,
		Vectors: fi.vectors,
	}
	mp := mappingPath(root, index, field)
	if err := writeAtomic(mp, func(f *os.File) error {
		return gob.NewEncoder(f).Encode(meta)
	}); err != nil {
		return simerrors.NewConfiguration(fmt.Sprintf("failed to save vector metadata for %s/%s", index, field), err)
	}
	return nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Load opens (index, field)'s persisted graph and mapping from root, lazily
// and idempotently: a missing mapping file means the field has never been
// saved and Load is a no-op.
func (e *Engine) Load(root, index, field string) error {
	mp := mappingPath(root, index, field)
	mf, err := os.Open(mp)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return simerrors.NewConfiguration(fmt.Sprintf("failed to open vector metadata for %s/%s", index, field), err)
	}
	defer mf.Close()

	var meta fieldMetadata
	if err := gob.NewDecoder(mf).Decode(&meta); err != nil {
		return simerrors.NewConfiguration(fmt.Sprintf("failed to decode vector metadata for %s/%s", index, field), err)
	}

	fi := newFieldIndex(meta.Profile)
	fi.idMap = meta.IDMap
	fi.nextID = meta.NextID
	fi.vectors = meta.Vectors
	for key, label := range meta.IDMap {
		fi.keyMap[label] = key
	}

	if fi.profile.UseHNSW {
		gp := graphPath(root, index, field)
		gf, err := os.Open(gp)
		if err != nil {
			return simerrors.NewConfiguration(fmt.Sprintf("failed to open HNSW graph for %s/%s", index, field), err)
		}
		defer gf.Close()
		if err := fi.graph.Import(bufio.NewReader(gf)); err != nil {
			return simerrors.NewConfiguration(fmt.Sprintf("failed to import HNSW graph for %s/%s", index, field), err)
		}
	}

	e.mu.Lock()
	e.fields[fieldKey(index, field)] = fi
	e.mu.Unlock()
	return nil
}
