// Package textindex implements the inverted-index text search engine of
// spec §4.2 on bleve: analyzed per-field postings, phrase matching,
// wildcards, and per-field weighting. Scores come from bleve's default
// scoring model; the index mapping does not select BM25.
package textindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/simerrors"
)

// Hit is one scored text match, per §4.2's "(document key, raw text
// score)" contract.
type Hit struct {
	Key   string
	Score float64
}

// TextIndex wraps one bleve.Index per search index, scoped to the
// searchable string fields of that index's schema.
type TextIndex struct {
	mu              sync.RWMutex
	index           bleve.Index
	path            string
	searchableFields map[string]model.Field
	closed          bool
}

// Open creates (or opens) the inverted-index text store for idx at path.
// An empty path creates an in-memory index, matching the teacher's
// in-memory-for-testing convention.
func Open(path string, idx model.Index) (*TextIndex, error) {
	indexMapping, fields, err := buildIndexMapping(idx)
	if err != nil {
		return nil, simerrors.NewConfiguration("failed to build index mapping", err)
	}

	var bIdx bleve.Index
	if path == "" {
		bIdx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, simerrors.NewConfiguration("failed to create index directory", mkErr)
		}
		bIdx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			bIdx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, simerrors.NewConfiguration("failed to create/open text index", err)
	}

	return &TextIndex{index: bIdx, path: path, searchableFields: fields}, nil
}

// buildIndexMapping builds a bleve index mapping with one document
// sub-mapping field per searchable string field, each using that field's
// declared analyzer (default "standard").
func buildIndexMapping(idx model.Index) (*mapping.IndexMappingImpl, map[string]model.Field, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	fields := map[string]model.Field{}

	for _, f := range idx.Fields {
		if !f.Searchable || model.ElementType(f.Type) != model.FieldTypeString {
			continue
		}
		fields[f.Name] = f

		fm := bleve.NewTextFieldMapping()
		fm.IncludeInAll = true
		fm.Store = false
		fm.IncludeTermVectors = true
		if f.Analyzer != "" {
			fm.Analyzer = f.Analyzer
		} else {
			fm.Analyzer = "standard"
		}
		docMapping.AddFieldMappingsAt(f.Name, fm)
	}

	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = "standard"
	return im, fields, nil
}

// Close releases the underlying bleve index.
func (t *TextIndex) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.index.Close()
}

// IndexDocuments bulk-inserts or replaces documents' searchable field
// content, per §4.8 step 4c's bulk commit.
func (t *TextIndex) IndexDocuments(ctx context.Context, docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return simerrors.NewValidation("text index is closed", nil)
	}

	batch := t.index.NewBatch()
	for _, doc := range docs {
		body := map[string]any{}
		for name := range t.searchableFields {
			if v, ok := doc.Fields[name]; ok {
				body[name] = v
			}
		}
		if err := batch.Index(doc.Key, body); err != nil {
			return simerrors.NewBulkUploadFailure(fmt.Sprintf("failed to stage document %q", doc.Key), err)
		}
	}
	if err := t.index.Batch(batch); err != nil {
		return simerrors.NewBulkUploadFailure("bulk commit to text index failed", err)
	}
	return nil
}

// DeleteDocuments removes documents by key.
func (t *TextIndex) DeleteDocuments(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return simerrors.NewValidation("text index is closed", nil)
	}
	batch := t.index.NewBatch()
	for _, k := range keys {
		batch.Delete(k)
	}
	if err := t.index.Batch(batch); err != nil {
		return simerrors.NewBulkUploadFailure("bulk delete from text index failed", err)
	}
	return nil
}

// QueryType selects the text-query grammar, per §4.2.
type QueryType string

const (
	QuerySimple QueryType = "simple"
	QueryFull   QueryType = "full"
)

// SearchMode controls how unqualified bare terms combine in simple mode.
type SearchMode string

const (
	ModeAny SearchMode = "any"
	ModeAll SearchMode = "all"
)

// SearchOptions configures one text search request.
type SearchOptions struct {
	QueryType QueryType
	Mode      SearchMode
	Fields    []string           // defaults to all searchable fields
	Weights   map[string]float64 // per-field weight multiplier, default 1.0
	Limit     int
}

// Search executes a text query and returns hits ordered by score
// descending, plus any non-fatal warnings for unknown names in
// opts.Fields. Field qualifiers inside a full-mode query are not checked
// and produce no warning.
func (t *TextIndex) Search(ctx context.Context, queryStr string, opts SearchOptions) ([]Hit, []string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return nil, nil, simerrors.NewValidation("text index is closed", nil)
	}

	if strings.TrimSpace(queryStr) == "" {
		hits, err := t.matchAll(ctx, opts.Limit)
		return hits, nil, err
	}

	fields := opts.Fields
	if len(fields) == 0 {
		for name := range t.searchableFields {
			fields = append(fields, name)
		}
	}

	var warnings []string
	for _, f := range opts.Fields {
		if _, ok := t.searchableFields[f]; !ok {
			warnings = append(warnings, fmt.Sprintf("unknown searchable field %q skipped", f))
		}
	}

	var q query.Query
	var err error
	switch opts.QueryType {
	case QueryFull:
		q, err = buildFullQuery(queryStr, fields)
	default:
		q, err = buildSimpleQuery(queryStr, fields, opts.Mode)
	}
	if err != nil {
		return nil, warnings, simerrors.NewValidation(fmt.Sprintf("malformed %s query: %v", opts.QueryType, err), err)
	}

	req := bleve.NewSearchRequest(q)
	if opts.Limit > 0 {
		req.Size = opts.Limit
	} else {
		req.Size = 1000
	}
	req.IncludeLocations = true

	result, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, warnings, simerrors.NewValidation("search failed", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		score := h.Score
		for field, weight := range opts.Weights {
			if _, matched := h.Locations[field]; matched && weight != 1.0 {
				score *= weight
			}
		}
		hits = append(hits, Hit{Key: h.ID, Score: score})
	}
	if len(opts.Weights) > 0 {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	}
	return hits, warnings, nil
}

func (t *TextIndex) matchAll(ctx context.Context, limit int) ([]Hit, error) {
	q := bleve.NewMatchAllQuery()
	req := bleve.NewSearchRequest(q)
	if limit > 0 {
		req.Size = limit
	} else {
		req.Size = 10000
	}
	result, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, simerrors.NewValidation("match-all search failed", err)
	}
	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, Hit{Key: h.ID, Score: 1.0})
	}
	return hits, nil
}

