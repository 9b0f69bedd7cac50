package filterexpr

import (
	"fmt"
	"sort"
	"strings"
)

// OrderClause is one comma-separated "field asc|desc" clause, or the
// special "search.score() desc/asc" clause.
type OrderClause struct {
	Field      string // empty when IsScore
	IsScore    bool
	Descending bool
}

// ParseOrderBy parses the comma-separated orderby list of §4.3.
func ParseOrderBy(s string) ([]OrderClause, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var clauses []OrderClause
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		descending := false
		if len(fields) > 1 {
			switch strings.ToLower(fields[len(fields)-1]) {
			case "desc":
				descending = true
				fields = fields[:len(fields)-1]
			case "asc":
				fields = fields[:len(fields)-1]
			}
		}
		expr := strings.Join(fields, " ")
		if strings.EqualFold(strings.TrimSpace(expr), "search.score()") {
			clauses = append(clauses, OrderClause{IsScore: true, Descending: descending})
			continue
		}
		if len(fields) != 1 {
			return nil, fmt.Errorf("orderby: malformed clause %q", part)
		}
		clauses = append(clauses, OrderClause{Field: fields[0], Descending: descending})
	}
	return clauses, nil
}

// Sortable is one document candidate to be ordered: its field values
// (for orderby field clauses) and its current relevance score (for
// "search.score()").
type Sortable struct {
	Key    string
	Score  float64
	Fields map[string]any
}

// SortResults orders docs in place per clauses, falling back to
// "search.score() desc" when clauses is empty, then key ascending as the
// universal tie-break. Nulls sort last on asc, first on desc.
func SortResults(docs []Sortable, clauses []OrderClause) {
	if len(clauses) == 0 {
		clauses = []OrderClause{{IsScore: true, Descending: true}}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, c := range clauses {
			cmp := compareClause(docs[i], docs[j], c)
			if cmp != 0 {
				return cmp < 0
			}
		}
		return docs[i].Key < docs[j].Key
	})
}

// compareClause returns <0 if a sorts before b, >0 if after, 0 if equal,
// under clause c (already accounting for ascending/descending).
func compareClause(a, b Sortable, c OrderClause) int {
	var av, bv any
	if c.IsScore {
		av, bv = a.Score, b.Score
	} else {
		av, bv = a.Fields[c.Field], b.Fields[c.Field]
	}

	if av == nil && bv == nil {
		return 0
	}
	if av == nil {
		if c.Descending {
			return -1 // nulls first on desc
		}
		return 1 // nulls last on asc
	}
	if bv == nil {
		if c.Descending {
			return 1
		}
		return -1
	}

	cmp := compareOrderable(av, bv)
	if c.Descending {
		return -cmp
	}
	return cmp
}

func compareOrderable(a, b any) int {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	as := fmt.Sprintf("%v", a)
	bs := fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
