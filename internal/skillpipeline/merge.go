package skillpipeline

import (
	"context"
	"sort"
)

// MergeExecutor implements the Merge behavior of §4.7: concatenates text
// with a set of items inserted at given offsets, each wrapped in
// configurable pre/post tags.
type MergeExecutor struct{}

func (MergeExecutor) Execute(_ context.Context, inputs map[string]any, params map[string]any) (map[string]any, []string, error) {
	text, _ := inputs["text"].(string)
	items := toStringSlice(inputs["itemsToInsert"])
	offsets := toIntSlice(inputs["offsets"])

	preTag := paramString(params, "insertPreTag", "")
	postTag := paramString(params, "insertPostTag", "")

	if len(items) == 0 {
		return map[string]any{"mergedText": text}, nil, nil
	}

	if len(offsets) != len(items) {
		// No offsets (or a mismatched count): append items in order.
		merged := text
		for _, item := range items {
			merged += preTag + item + postTag
		}
		return map[string]any{"mergedText": merged}, nil, nil
	}

	type insertion struct {
		offset int
		text   string
	}
	inserts := make([]insertion, len(items))
	for i, item := range items {
		inserts[i] = insertion{offset: offsets[i], text: preTag + item + postTag}
	}
	sort.Slice(inserts, func(i, j int) bool { return inserts[i].offset > inserts[j].offset })

	runes := []rune(text)
	for _, ins := range inserts {
		pos := ins.offset
		if pos < 0 {
			pos = 0
		}
		if pos > len(runes) {
			pos = len(runes)
		}
		runes = append(runes[:pos], append([]rune(ins.text), runes[pos:]...)...)
	}
	return map[string]any{"mergedText": string(runes)}, nil, nil
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toIntSlice(v any) []int {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		switch n := item.(type) {
		case int:
			out = append(out, n)
		case float64:
			out = append(out, int(n))
		default:
			return nil
		}
	}
	return out
}
