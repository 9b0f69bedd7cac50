package filterexpr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/simerrors"
)

// FacetSpec is one parsed "fieldName[,count:N][,interval:I][,unit:U]
// [,values:v1|v2|...][,sort:count|-count|value|-value]" facet
// declaration, per §4.3.
type FacetSpec struct {
	Field    string
	Count    int    // default 10
	Interval float64
	Unit     string // hour|day|week|month|quarter|year; default "day" when Interval is set with no unit
	Values   []float64
	Sort     string // count|-count|value|-value; default "-count"
}

// ParseFacetSpec parses one facet specification string.
func ParseFacetSpec(s string) (FacetSpec, error) {
	parts := strings.Split(s, ",")
	spec := FacetSpec{Field: strings.TrimSpace(parts[0]), Count: 10, Sort: "-count"}
	if spec.Field == "" {
		return FacetSpec{}, fmt.Errorf("facet: missing field name in %q", s)
	}

	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		name, value, ok := strings.Cut(p, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		switch name {
		case "count":
			n, err := strconv.Atoi(value)
			if err != nil {
				return FacetSpec{}, fmt.Errorf("facet: invalid count %q", value)
			}
			spec.Count = n
		case "interval":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return FacetSpec{}, fmt.Errorf("facet: invalid interval %q", value)
			}
			spec.Interval = f
		case "unit":
			spec.Unit = strings.ToLower(value)
		case "values":
			for _, v := range strings.Split(value, "|") {
				f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
				if err != nil {
					return FacetSpec{}, fmt.Errorf("facet: invalid break point %q", v)
				}
				spec.Values = append(spec.Values, f)
			}
		case "sort":
			spec.Sort = strings.ToLower(value)
		}
	}
	if spec.Interval > 0 && spec.Unit == "" {
		spec.Unit = "day" // bare numeric interval on a date field = count of days
	}
	return spec, nil
}

// FacetBucket is one computed facet entry: either a distinct value count
// or an interval/explicit-break-point range count.
type FacetBucket struct {
	Value      string // formatted distinct value, or "[from,to)" for ranges
	Count      int
	From, To   *float64 // set for interval/values facets
	FromT, ToT *time.Time
}

// ComputeFacet aggregates spec over the matched (unpaged) document set,
// per §4.3's "facet counts are computed over the matched documents before
// paging" contract.
func ComputeFacet(spec FacetSpec, docs []map[string]any, fields map[string]model.Field) ([]FacetBucket, error) {
	f, ok := fields[spec.Field]
	if ok && !f.Facetable {
		return nil, simerrors.NewValidation(fmt.Sprintf("field %q is not facetable", spec.Field), nil)
	}
	if ok && f.Type != model.FieldTypeDateOffset {
		spec.Unit = "" // units apply to date fields only; numeric intervals are raw widths
	}

	if spec.Interval > 0 || len(spec.Values) > 0 {
		return computeRangeFacet(spec, docs)
	}
	return computeValueFacet(spec, docs)
}

func computeValueFacet(spec FacetSpec, docs []map[string]any) ([]FacetBucket, error) {
	counts := make(map[string]int)
	for _, doc := range docs {
		v, ok := doc[spec.Field]
		if !ok || v == nil {
			continue
		}
		for _, s := range facetValueStrings(v) {
			counts[s]++
		}
	}

	buckets := make([]FacetBucket, 0, len(counts))
	for v, c := range counts {
		buckets = append(buckets, FacetBucket{Value: v, Count: c})
	}
	sortValueBuckets(buckets, spec.Sort)

	count := spec.Count
	if count <= 0 {
		count = 10
	}
	if len(buckets) > count {
		buckets = buckets[:count]
	}
	return buckets, nil
}

func facetValueStrings(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case []string:
		return t
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

func sortValueBuckets(buckets []FacetBucket, mode string) {
	sort.Slice(buckets, func(i, j int) bool {
		switch mode {
		case "count":
			if buckets[i].Count != buckets[j].Count {
				return buckets[i].Count < buckets[j].Count
			}
		case "value":
			return buckets[i].Value < buckets[j].Value
		case "-value":
			return buckets[i].Value > buckets[j].Value
		default: // "-count"
			if buckets[i].Count != buckets[j].Count {
				return buckets[i].Count > buckets[j].Count
			}
		}
		return buckets[i].Value < buckets[j].Value
	})
}

func computeRangeFacet(spec FacetSpec, docs []map[string]any) ([]FacetBucket, error) {
	breaks := spec.Values
	if len(breaks) == 0 {
		breaks = generateIntervalBreaks(spec, docs)
	}
	sort.Float64s(breaks)

	buckets := make([]FacetBucket, len(breaks)+1)
	for i := range buckets {
		var from, to *float64
		if i > 0 {
			v := breaks[i-1]
			from = &v
		}
		if i < len(breaks) {
			v := breaks[i]
			to = &v
		}
		buckets[i] = FacetBucket{From: from, To: to}
	}

	for _, doc := range docs {
		v, ok := doc[spec.Field]
		if !ok || v == nil {
			continue
		}
		f, ok := numericValue(v)
		if !ok {
			continue
		}
		// The smallest i with breaks[i] > f is exactly the bucket index for
		// the half-open range [breaks[i-1], breaks[i]).
		idx := sort.Search(len(breaks), func(i int) bool { return breaks[i] > f })
		buckets[idx].Count++
	}

	for i := range buckets {
		buckets[i].Value = rangeLabel(buckets[i])
	}
	return buckets, nil
}

func generateIntervalBreaks(spec FacetSpec, docs []map[string]any) []float64 {
	var min, max float64
	first := true
	for _, doc := range docs {
		v, ok := doc[spec.Field]
		if !ok {
			continue
		}
		f, ok := numericValue(v)
		if !ok {
			continue
		}
		if first {
			min, max = f, f
			first = false
			continue
		}
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}
	if first {
		return nil
	}

	width := intervalWidth(spec)
	if width <= 0 {
		width = 1
	}
	var breaks []float64
	for b := min + width; b <= max; b += width {
		breaks = append(breaks, b)
	}
	return breaks
}

// intervalWidth converts spec.Interval (a count of spec.Unit) into the
// numeric bucket width used against epoch-second date values or raw
// numeric values.
func intervalWidth(spec FacetSpec) float64 {
	if spec.Unit == "" {
		return spec.Interval
	}
	switch spec.Unit {
	case "hour":
		return spec.Interval * float64(time.Hour.Seconds())
	case "day":
		return spec.Interval * 24 * float64(time.Hour.Seconds())
	case "week":
		return spec.Interval * 7 * 24 * float64(time.Hour.Seconds())
	case "month":
		return spec.Interval * 30 * 24 * float64(time.Hour.Seconds())
	case "quarter":
		return spec.Interval * 91 * 24 * float64(time.Hour.Seconds())
	case "year":
		return spec.Interval * 365 * 24 * float64(time.Hour.Seconds())
	default:
		return spec.Interval
	}
}

func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case time.Time:
		return float64(t.Unix()), true
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, true
		}
		if t2, err := time.Parse(time.RFC3339, t); err == nil {
			return float64(t2.Unix()), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func rangeLabel(b FacetBucket) string {
	from := "*"
	to := "*"
	if b.From != nil {
		from = strconv.FormatFloat(*b.From, 'f', -1, 64)
	}
	if b.To != nil {
		to = strconv.FormatFloat(*b.To, 'f', -1, 64)
	}
	return fmt.Sprintf("[%s,%s)", from, to)
}
