package skillpipeline

import (
	"context"
	"fmt"
	"strings"
)

const defaultMaximumPageLength = 5000

// SplitExecutor implements the Split behavior of §4.7: breaks `text` into
// an ordered sequence of pages or sentences.
type SplitExecutor struct{}

func (SplitExecutor) Execute(_ context.Context, inputs map[string]any, params map[string]any) (map[string]any, []string, error) {
	text, _ := inputs["text"].(string)
	if text == "" {
		return nil, []string{"text input is empty; no items produced"}, nil
	}

	mode := paramString(params, "textSplitMode", "pages")
	var items []string
	switch strings.ToLower(mode) {
	case "sentences":
		items = splitSentences(text)
	case "pages", "":
		maxLen := paramInt(params, "maximumPageLength", defaultMaximumPageLength)
		items = splitPages(text, maxLen)
	default:
		return nil, nil, fmt.Errorf("split: unsupported textSplitMode %q", mode)
	}

	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return map[string]any{"textItems": out}, nil, nil
}

func splitPages(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = defaultMaximumPageLength
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return []string{text}
	}
	var pages []string
	for start := 0; start < len(runes); start += maxLen {
		end := start + maxLen
		if end > len(runes) {
			end = len(runes)
		}
		pages = append(pages, string(runes[start:end]))
	}
	return pages
}

func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			sentences = append(sentences, strings.TrimSpace(b.String()))
			b.Reset()
		}
	}
	if b.Len() > 0 {
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}

func paramString(params map[string]any, key, def string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

func paramInt(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}
