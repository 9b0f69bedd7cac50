package docstore

import (
	"context"
	"errors"
)

// Action is one `@search.action` value from a bulk document request, §6.2.
type Action string

const (
	ActionUpload        Action = "upload"
	ActionMerge         Action = "merge"
	ActionMergeOrUpload Action = "mergeOrUpload"
	ActionDelete        Action = "delete"
)

// ActionResult is one bulk-action outcome: whether it succeeded, the
// HTTP-shaped status code, and an error message (nil when successful),
// per §6.2's response shape.
type ActionResult struct {
	Key          string  `json:"key"`
	Status       bool    `json:"status"`
	ErrorMessage *string `json:"errorMessage"`
	StatusCode   int     `json:"statusCode"`
}

// Apply executes one bulk document action against index, per the §6.2
// status-code table: upload-new=201, upload-existing=200,
// merge-existing=200, merge-missing=404, mergeOrUpload=201 if new else
// 200, delete=200 (always, regardless of prior existence).
func (s *Store) Apply(ctx context.Context, index string, action Action, key string, fields map[string]any) ActionResult {
	result := ActionResult{Key: key}

	switch action {
	case ActionUpload:
		wasNew, err := s.Upload(ctx, index, key, fields)
		if err != nil {
			return failResult(result, err)
		}
		result.Status = true
		if wasNew {
			result.StatusCode = 201
		} else {
			result.StatusCode = 200
		}

	case ActionMerge:
		err := s.Merge(ctx, index, key, fields)
		if errors.Is(err, ErrNotFound) {
			msg := "document not found for merge"
			result.ErrorMessage = &msg
			result.StatusCode = 404
			return result
		}
		if err != nil {
			return failResult(result, err)
		}
		result.Status = true
		result.StatusCode = 200

	case ActionMergeOrUpload:
		wasNew, err := s.MergeOrUpload(ctx, index, key, fields)
		if err != nil {
			return failResult(result, err)
		}
		result.Status = true
		if wasNew {
			result.StatusCode = 201
		} else {
			result.StatusCode = 200
		}

	case ActionDelete:
		if err := s.Delete(ctx, index, key); err != nil {
			return failResult(result, err)
		}
		result.Status = true
		result.StatusCode = 200

	default:
		msg := "unsupported @search.action " + string(action)
		result.ErrorMessage = &msg
		result.StatusCode = 400
	}

	return result
}

func failResult(result ActionResult, err error) ActionResult {
	msg := err.Error()
	result.ErrorMessage = &msg
	result.StatusCode = 500
	return result
}
