package filterexpr

import (
	"strings"

	"github.com/localsearch/simulator/internal/analyzer"
)

// HighlightOptions configures fragment extraction, per §4.3.
type HighlightOptions struct {
	Fields       []string // only these fields appear in the result
	PreTag       string   // default "<em>"
	PostTag      string   // default "</em>"
	MaxFragments int      // default 5
	FragmentSize int      // bounded character length per snippet, default 120
}

// DefaultHighlightOptions returns the declared defaults.
func DefaultHighlightOptions() HighlightOptions {
	return HighlightOptions{PreTag: "<em>", PostTag: "</em>", MaxFragments: 5, FragmentSize: 120}
}

// Highlight extracts up to MaxFragments snippets per requested field that
// contain any of terms, wrapping matches in Pre/PostTag. A field with no
// matches is omitted entirely — no empty array is emitted for it.
func Highlight(doc map[string]any, terms []string, opts HighlightOptions) map[string][]string {
	if len(opts.Fields) == 0 || len(terms) == 0 {
		return nil
	}
	pre, post := opts.PreTag, opts.PostTag
	if pre == "" {
		pre = "<em>"
	}
	if post == "" {
		post = "</em>"
	}
	maxFragments := opts.MaxFragments
	if maxFragments <= 0 {
		maxFragments = 5
	}
	fragmentSize := opts.FragmentSize
	if fragmentSize <= 0 {
		fragmentSize = 120
	}

	result := make(map[string][]string)
	for _, field := range opts.Fields {
		raw, ok := doc[field].(string)
		if !ok || raw == "" {
			continue
		}
		fragments := fragmentsFor(raw, terms, pre, post, maxFragments, fragmentSize)
		if len(fragments) > 0 {
			result[field] = fragments
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func fragmentsFor(text string, terms []string, pre, post string, maxFragments, fragmentSize int) []string {
	tokens := analyzer.Tokenize(text)
	lowerText := strings.ToLower(text)

	wantedTerms := make(map[string]bool, len(terms))
	for _, t := range terms {
		wantedTerms[strings.ToLower(t)] = true
	}

	var matchPositions []int
	searchFrom := 0
	for _, tok := range tokens {
		lowerTok := strings.ToLower(tok)
		if !wantedTerms[lowerTok] {
			continue
		}
		idx := strings.Index(lowerText[searchFrom:], lowerTok)
		if idx < 0 {
			continue
		}
		pos := searchFrom + idx
		matchPositions = append(matchPositions, pos)
		searchFrom = pos + len(lowerTok)
	}
	if len(matchPositions) == 0 {
		return nil
	}

	var fragments []string
	for _, pos := range matchPositions {
		if len(fragments) >= maxFragments {
			break
		}
		fragments = append(fragments, buildFragment(text, pos, fragmentSize, pre, post, wantedTerms))
	}
	return fragments
}

func buildFragment(text string, matchPos, fragmentSize int, pre, post string, wantedTerms map[string]bool) string {
	half := fragmentSize / 2
	start := matchPos - half
	if start < 0 {
		start = 0
	}
	end := start + fragmentSize
	if end > len(text) {
		end = len(text)
		start = end - fragmentSize
		if start < 0 {
			start = 0
		}
	}
	snippet := text[start:end]

	tokens := analyzer.Tokenize(snippet)
	lowerSnippet := strings.ToLower(snippet)
	var b strings.Builder
	cursor := 0
	search := 0
	for _, tok := range tokens {
		lowerTok := strings.ToLower(tok)
		idx := strings.Index(lowerSnippet[search:], lowerTok)
		if idx < 0 {
			continue
		}
		pos := search + idx
		b.WriteString(snippet[cursor:pos])
		if wantedTerms[lowerTok] {
			b.WriteString(pre)
			b.WriteString(snippet[pos : pos+len(tok)])
			b.WriteString(post)
		} else {
			b.WriteString(snippet[pos : pos+len(tok)])
		}
		cursor = pos + len(tok)
		search = cursor
	}
	b.WriteString(snippet[cursor:])
	return b.String()
}
