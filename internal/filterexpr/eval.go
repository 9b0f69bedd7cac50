package filterexpr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/localsearch/simulator/internal/model"
)

// Normalize is the hook filter evaluation uses to apply a filterable
// string field's normalizer before comparison, per §4.3 ("filter
// evaluation after normalizer application for filterable string
// fields").
type Normalize func(fieldName string, value string) string

// Evaluate runs expr against one document's field map. fields supplies
// each field's declared normalizer (string fields only); normalize
// applies it.
func Evaluate(expr Expr, doc map[string]any, fields map[string]model.Field, normalize Normalize) (bool, error) {
	v, err := evalNode(expr, doc, fields, normalize, nil)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expression does not evaluate to a boolean")
	}
	return b, nil
}

// lambdaBinding maps a lambda's bound variable name to the current
// collection element during any()/all() evaluation.
type lambdaBinding struct {
	name  string
	value any
}

func evalNode(expr Expr, doc map[string]any, fields map[string]model.Field, normalize Normalize, binding *lambdaBinding) (any, error) {
	switch e := expr.(type) {
	case literal:
		return e.value, nil

	case fieldRef:
		if binding != nil && e.name == binding.name {
			return binding.value, nil
		}
		return resolveField(e.name, doc, fields, normalize), nil

	case notExpr:
		v, err := evalNode(e.operand, doc, fields, normalize, binding)
		if err != nil {
			return nil, err
		}
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("not: operand is not boolean")
		}
		return !b, nil

	case andExpr:
		l, err := evalBool(e.left, doc, fields, normalize, binding)
		if err != nil {
			return nil, err
		}
		if !l {
			return false, nil
		}
		return evalBool(e.right, doc, fields, normalize, binding)

	case orExpr:
		l, err := evalBool(e.left, doc, fields, normalize, binding)
		if err != nil {
			return nil, err
		}
		if l {
			return true, nil
		}
		return evalBool(e.right, doc, fields, normalize, binding)

	case compareExpr:
		return evalCompare(e, doc, fields, normalize, binding)

	case lambdaExpr:
		return evalLambda(e, doc, fields, normalize)

	case searchInExpr:
		return evalSearchIn(e, doc, fields, normalize)

	case geoDistanceExpr:
		return nil, fmt.Errorf("geo.distance must be compared with le/lt/ge/gt")

	case geoIntersectsExpr:
		return evalGeoIntersects(e, doc, fields, normalize)

	default:
		return nil, fmt.Errorf("unsupported expression node %T", expr)
	}
}

func evalBool(expr Expr, doc map[string]any, fields map[string]model.Field, normalize Normalize, binding *lambdaBinding) (bool, error) {
	v, err := evalNode(expr, doc, fields, normalize, binding)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected boolean operand")
	}
	return b, nil
}

func resolveField(name string, doc map[string]any, fields map[string]model.Field, normalize Normalize) any {
	v, ok := doc[name]
	if !ok {
		return nil
	}
	if f, ok := fields[name]; ok && f.Type == model.FieldTypeString && f.Filterable && normalize != nil {
		if s, ok := v.(string); ok {
			return normalize(name, s)
		}
	}
	return v
}

func evalCompare(e compareExpr, doc map[string]any, fields map[string]model.Field, normalize Normalize, binding *lambdaBinding) (any, error) {
	if gd, ok := e.field.(geoDistanceExpr); ok {
		return evalGeoDistanceCompare(e.op, gd, e.value, doc, fields, normalize)
	}

	left, err := evalNode(e.field, doc, fields, normalize, binding)
	if err != nil {
		return nil, err
	}

	if e.op == "in" {
		right, ok := e.value.(literal)
		if !ok {
			return nil, fmt.Errorf("in: right-hand side must be a literal list string")
		}
		raw, _ := right.value.(string)
		return containsValue(raw, " ", left), nil
	}

	right, err := evalNode(e.value, doc, fields, normalize, binding)
	if err != nil {
		return nil, err
	}
	return compareValues(e.op, left, right)
}

func containsValue(list, delimiter string, v any) bool {
	s := fmt.Sprintf("%v", v)
	for _, item := range strings.Split(list, delimiter) {
		if strings.EqualFold(strings.TrimSpace(item), s) {
			return true
		}
	}
	return false
}

func compareValues(op string, left, right any) (any, error) {
	if left == nil || right == nil {
		switch op {
		case "eq":
			return left == nil && right == nil, nil
		case "ne":
			return !(left == nil && right == nil), nil
		default:
			return false, nil // ordering against null is always false
		}
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if lok && rok {
		switch op {
		case "eq":
			return lf == rf, nil
		case "ne":
			return lf != rf, nil
		case "gt":
			return lf > rf, nil
		case "ge":
			return lf >= rf, nil
		case "lt":
			return lf < rf, nil
		case "le":
			return lf <= rf, nil
		}
	}

	ls := fmt.Sprintf("%v", left)
	rs := fmt.Sprintf("%v", right)
	switch op {
	case "eq":
		return ls == rs, nil
	case "ne":
		return ls != rs, nil
	case "gt":
		return ls > rs, nil
	case "ge":
		return ls >= rs, nil
	case "lt":
		return ls < rs, nil
	case "le":
		return ls <= rs, nil
	}
	return nil, fmt.Errorf("unsupported comparison operator %q", op)
}

func toFloat(v any) (float64, bool) {
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
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func evalLambda(e lambdaExpr, doc map[string]any, fields map[string]model.Field, normalize Normalize) (any, error) {
	collection, ok := toSlice(doc[e.field])
	if !ok {
		return e.all, nil // vacuous truth: all() is true, any() is false, over an empty collection
	}
	if e.body == nil {
		return len(collection) > 0, nil
	}
	for _, item := range collection {
		b := lambdaBinding{name: e.bound, value: item}
		v, err := evalBool(e.body, doc, fields, normalize, &b)
		if err != nil {
			return nil, err
		}
		if e.all && !v {
			return false, nil
		}
		if !e.all && v {
			return true, nil
		}
	}
	return e.all, nil
}

func toSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func evalSearchIn(e searchInExpr, doc map[string]any, fields map[string]model.Field, normalize Normalize) (any, error) {
	v := resolveField(e.field, doc, fields, normalize)
	if v == nil {
		return false, nil
	}
	s := fmt.Sprintf("%v", v)
	for _, want := range e.values {
		if strings.EqualFold(strings.TrimSpace(want), s) {
			return true, nil
		}
	}
	return false, nil
}

func evalGeoDistanceCompare(op string, gd geoDistanceExpr, boundExpr Expr, doc map[string]any, fields map[string]model.Field, normalize Normalize) (any, error) {
	boundV, err := evalNode(boundExpr, doc, fields, normalize, nil)
	if err != nil {
		return nil, err
	}
	bound, ok := toFloat(boundV)
	if !ok {
		return nil, fmt.Errorf("geo.distance comparison: bound must be numeric")
	}

	lat, lon, ok := geoFieldValue(doc[gd.field])
	if !ok {
		return false, nil
	}
	dist := haversineKm(lat, lon, gd.lat, gd.lon)
	return compareValues(op, dist, bound)
}

func evalGeoIntersects(e geoIntersectsExpr, doc map[string]any, fields map[string]model.Field, normalize Normalize) (any, error) {
	lat, lon, ok := geoFieldValue(doc[e.field])
	if !ok {
		return false, nil
	}
	return pointInPolygon(lat, lon, e.polygon), nil
}

func geoFieldValue(v any) (lat, lon float64, ok bool) {
	switch t := v.(type) {
	case []float64:
		if len(t) == 2 {
			return t[1], t[0], true
		}
	case []any:
		if len(t) == 2 {
			lonF, ok1 := toFloat(t[0])
			latF, ok2 := toFloat(t[1])
			if ok1 && ok2 {
				return latF, lonF, true
			}
		}
	case string:
		parts := strings.Split(t, ",")
		if len(parts) == 2 {
			lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err1 == nil && err2 == nil {
				return lat, lon, true
			}
		}
	}
	return 0, 0, false
}

// pointInPolygon implements the standard ray-casting algorithm over a
// WKT-ordered [lon,lat] ring.
func pointInPolygon(lat, lon float64, poly []point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if ((pi.lat > lat) != (pj.lat > lat)) &&
			(lon < (pj.lon-pi.lon)*(lat-pi.lat)/(pj.lat-pi.lat)+pi.lon) {
			inside = !inside
		}
	}
	return inside
}

const earthRadiusKm = 6371.0088

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
