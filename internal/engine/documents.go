package engine

import (
	"context"
	"fmt"

	"github.com/localsearch/simulator/internal/docstore"
	"github.com/localsearch/simulator/internal/model"
)

// Apply commits one bulk document action (§6.2) and keeps the text index
// and every declared vector field in step with the document store: an
// upload/merge re-indexes the document's searchable and vector fields, a
// delete removes it from all three. Both the HTTP bulk-document endpoint
// and the indexer orchestrator's per-record commit go through this single
// path (it satisfies indexerrun.DocumentSink) so a document is never
// visible in one sub-engine without the others.
func (e *Engine) Apply(ctx context.Context, index string, action docstore.Action, key string, fields map[string]any) docstore.ActionResult {
	idx, ok := e.catalog.GetIndex(index)
	if !ok {
		return errResult(key, fmt.Sprintf("index %q does not exist", index))
	}
	ti, err := e.textIndexFor(index)
	if err != nil {
		return errResult(key, err.Error())
	}

	result := e.docs.Apply(ctx, index, action, key, fields)
	if !result.Status {
		return result
	}

	if action == docstore.ActionDelete {
		_ = ti.DeleteDocuments(ctx, []string{key})
		_ = e.vectors.RemoveDocument(ctx, index, key, vectorFieldNames(idx))
		return result
	}

	full, ok, err := e.docs.Get(ctx, index, key)
	if err != nil {
		return errResult(key, err.Error())
	}
	if !ok {
		return result
	}
	if err := ti.IndexDocuments(ctx, []model.Document{{Key: key, Fields: full}}); err != nil {
		return errResult(key, err.Error())
	}
	for _, f := range idx.Fields {
		if !f.IsVector() {
			continue
		}
		// The stored payload has been through a JSON round-trip, so a vector
		// usually comes back as []any of float64 rather than []float32.
		var vec []float32
		switch raw := full[f.Name].(type) {
		case []float32:
			vec = raw
		case []any:
			for _, x := range raw {
				if n, ok := x.(float64); ok {
					vec = append(vec, float32(n))
				}
			}
		}
		if len(vec) == 0 {
			continue
		}
		if err := e.vectors.Add(ctx, index, f.Name, key, vec); err != nil {
			return errResult(key, err.Error())
		}
	}
	return result
}

func errResult(key, msg string) docstore.ActionResult {
	return docstore.ActionResult{Key: key, Status: false, ErrorMessage: &msg, StatusCode: 500}
}

func vectorFieldNames(idx model.Index) []string {
	names := make([]string, 0)
	for _, f := range idx.Fields {
		if f.IsVector() {
			names = append(names, f.Name)
		}
	}
	return names
}
