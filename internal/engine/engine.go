// Package engine composes the inverted-index, vector, fusion, scoring,
// and filter subsystems into the single top-level search operation of
// §2/§6.3. It owns no document data itself — every field value lives in
// the text index, the vector graphs, or the document store — and its own
// job is orchestration: run both sub-searches, fuse, score, filter, sort,
// page, and shape the response.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/localsearch/simulator/internal/catalog"
	"github.com/localsearch/simulator/internal/docstore"
	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/simerrors"
	"github.com/localsearch/simulator/internal/textindex"
	"github.com/localsearch/simulator/internal/vectorindex"
)

// TextEmbedder embeds query text for a vectorQueries entry of kind "text".
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Engine is the composition root for one simulator instance: one catalog
// of index/indexer/datasource/skillset definitions, one text index per
// search index (opened lazily, on demand), one shared vector engine
// keyed internally by (index, field), and one document store.
//
// Each sub-engine enforces its own read-lease boundary at its own entry
// points (TextIndex.Search takes TextIndex.mu.RLock, vectorindex field
// search takes fieldIndex.mu.RLock) — a write (document upload, index
// rebuild) becomes visible to readers only at that sub-engine's next
// lease acquisition, per §5's concurrency contract. Engine itself adds no
// additional global lock around Search; it only serializes its own
// bookkeeping (which text indexes have been opened).
type Engine struct {
	root     string
	catalog  *catalog.Catalog
	docs     *docstore.Store
	vectors  *vectorindex.Engine
	embedder TextEmbedder

	mu          sync.Mutex
	textIndexes map[string]*textindex.TextIndex
}

// New builds an Engine rooted at dataRoot (the same root the text index,
// vector index, docstore, and catalog persist under).
func New(dataRoot string, cat *catalog.Catalog, docs *docstore.Store, vectors *vectorindex.Engine, embedder TextEmbedder) *Engine {
	return &Engine{
		root:        dataRoot,
		catalog:     cat,
		docs:        docs,
		vectors:     vectors,
		embedder:    embedder,
		textIndexes: make(map[string]*textindex.TextIndex),
	}
}

// ProvisionIndex opens (or re-opens) the text index and registers the
// vector-field HNSW profiles for idx, called after the index definition
// is created or updated in the catalog.
func (e *Engine) ProvisionIndex(idx model.Index) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.textIndexes[idx.Name]; ok {
		_ = existing.Close()
		delete(e.textIndexes, idx.Name)
	}

	ti, err := textindex.Open(e.textIndexPath(idx.Name), idx)
	if err != nil {
		return err
	}
	e.textIndexes[idx.Name] = ti

	for _, f := range idx.Fields {
		if !f.IsVector() {
			continue
		}
		e.vectors.EnsureField(idx.Name, f.Name, vectorProfileFor(idx, f))
	}
	return nil
}

// vectorProfileFor resolves the named HNSW profile a field declares, or
// falls back to the package default (cosine metric).
func vectorProfileFor(idx model.Index, f model.Field) vectorindex.Profile {
	if idx.VectorSearch != nil && f.VectorProfile != "" {
		if hp, ok := idx.VectorSearch.Profiles[f.VectorProfile]; ok {
			return vectorindex.Profile{
				Dimensions:      f.Dimensions,
				Metric:          hp.Metric,
				M:               hp.M,
				EfConstruction:  hp.EfConstruction,
				EfSearch:        hp.EfSearch,
				RandomSeed:      hp.RandomSeed,
				BruteForceBelow: 64,
				UseHNSW:         true,
			}
		}
	}
	return vectorindex.DefaultProfile(f.Dimensions, model.MetricCosine)
}

func (e *Engine) textIndexPath(index string) string {
	if e.root == "" {
		return ""
	}
	return e.root + "/text/" + index
}

func (e *Engine) textIndexFor(index string) (*textindex.TextIndex, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ti, ok := e.textIndexes[index]
	if !ok {
		return nil, simerrors.NewNotFound(fmt.Sprintf("index %q has no open text index (provision it first)", index), nil)
	}
	return ti, nil
}

// Close releases every open text index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var firstErr error
	for name, ti := range e.textIndexes {
		if err := ti.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.textIndexes, name)
	}
	return firstErr
}
