package textindex

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// buildSimpleQuery implements the "simple" query-type grammar of §4.2:
// bare terms follow search mode (any=OR, all=AND), "+" requires a term,
// "-" excludes it.
func buildSimpleQuery(q string, fields []string, mode SearchMode) (query.Query, error) {
	tokens := strings.Fields(q)
	if len(tokens) == 0 {
		return bleve.NewMatchAllQuery(), nil
	}

	var must, should, mustNot []query.Query

	for _, tok := range tokens {
		switch {
		case strings.HasPrefix(tok, "+") && len(tok) > 1:
			must = append(must, multiFieldMatch(tok[1:], fields))
		case strings.HasPrefix(tok, "-") && len(tok) > 1:
			mustNot = append(mustNot, multiFieldMatch(tok[1:], fields))
		default:
			should = append(should, multiFieldMatch(tok, fields))
		}
	}

	if mode == ModeAll {
		must = append(must, should...)
		should = nil
	}

	if len(must) == 0 && len(should) == 0 {
		return bleve.NewMatchAllQuery(), nil
	}

	bq := bleve.NewBooleanQuery()
	if len(must) > 0 {
		bq.AddMust(must...)
	}
	if len(should) > 0 {
		bq.AddShould(should...)
		bq.SetMinShould(1)
	}
	if len(mustNot) > 0 {
		bq.AddMustNot(mustNot...)
	}
	return bq, nil
}

func multiFieldMatch(term string, fields []string) query.Query {
	if len(fields) == 1 {
		mq := bleve.NewMatchQuery(term)
		mq.SetField(fields[0])
		return mq
	}
	disj := bleve.NewDisjunctionQuery()
	for _, f := range fields {
		mq := bleve.NewMatchQuery(term)
		mq.SetField(f)
		disj.AddQuery(mq)
	}
	return disj
}

// buildFullQuery implements the "full" Lucene-like grammar of §4.2:
// field-qualified terms, AND/OR/NOT, grouping, phrase quotes, and "*".
// Field-qualification and boolean syntax are delegated to bleve's own
// query-string parser, which implements the same Lucene-derived grammar.
// Only quote and parenthesis balance is checked here; field qualifiers go
// to bleve unchecked, and an unknown field name produces no warning.
func buildFullQuery(q string, fields []string) (query.Query, error) {
	trimmed := strings.TrimSpace(q)
	if trimmed == "*" {
		return bleve.NewMatchAllQuery(), nil
	}

	if err := validateFieldQualifiers(trimmed, fields); err != nil {
		return nil, err
	}

	qsq := bleve.NewQueryStringQuery(trimmed)
	return qsq, nil
}

// validateFieldQualifiers rejects "full" queries with unbalanced quotes or
// parentheses as malformed, satisfying the "malformed full-mode queries
// fail with a parse error" contract; field qualifiers are not inspected.
func validateFieldQualifiers(q string, _ []string) error {
	if strings.Count(q, `"`)%2 != 0 {
		return fmt.Errorf("unbalanced quotes in query %q", q)
	}
	depth := 0
	for _, r := range q {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth < 0 {
			return fmt.Errorf("unbalanced parentheses in query %q", q)
		}
	}
	if depth != 0 {
		return fmt.Errorf("unbalanced parentheses in query %q", q)
	}
	return nil
}

