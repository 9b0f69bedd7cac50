package indexerrun

import (
	"encoding/json"
	"fmt"

	"github.com/localsearch/simulator/internal/skillpipeline"
)

// crackBody turns one downloaded document body into the list of raw field
// records it contributes, per the parsing-mode rule in §4.8 step 4b:
// "default" treats the whole body as a single opaque/text content field,
// "json" parses one JSON object into one record, "jsonArray" parses a
// JSON array into one record per element.
func crackBody(raw []byte, parsingMode string) ([]map[string]any, error) {
	switch parsingMode {
	case "", "default":
		contentType := skillpipeline.DetectContentType(raw)
		return []map[string]any{{
			"content":     string(raw),
			"contentType": contentType,
		}}, nil

	case "json":
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("parsingMode json: %w", err)
		}
		return []map[string]any{obj}, nil

	case "jsonArray":
		var arr []map[string]any
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, fmt.Errorf("parsingMode jsonArray: %w", err)
		}
		return arr, nil

	default:
		return nil, fmt.Errorf("unsupported parsingMode %q", parsingMode)
	}
}
