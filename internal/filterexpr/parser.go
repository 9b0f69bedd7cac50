package filterexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse compiles a filter expression string into an Expr tree. Filter
// errors are fatal for the request per §4.3's failure-mode contract.
func Parse(s string) (Expr, error) {
	toks, err := newLexer(s).tokens()
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	p := &parser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	if p.cur().kind != tokEOF {
		return nil, fmt.Errorf("filter: unexpected trailing token %q", p.cur().text)
	}
	return expr, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token {
	if p.pos >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, text string) error {
	if p.cur().kind != kind {
		return fmt.Errorf("expected %q, got %q", text, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = andExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.isKeyword("not") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notExpr{operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{"eq": true, "ne": true, "gt": true, "ge": true, "lt": true, "le": true, "in": true}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokIdent && comparisonOps[strings.ToLower(p.cur().text)] {
		op := strings.ToLower(p.advance().text)
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return compareExpr{op: op, field: left, value: right}, nil
	}
	return left, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.cur()
	switch tok.kind {
	case tokLParen:
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return expr, nil
	case tokString:
		p.advance()
		return literal{value: tok.text}, nil
	case tokNumber:
		p.advance()
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric literal %q", tok.text)
		}
		return literal{value: f}, nil
	case tokIdent:
		return p.parseIdentExpr()
	default:
		return nil, fmt.Errorf("unexpected token %q", tok.text)
	}
}

func (p *parser) parseIdentExpr() (Expr, error) {
	name := p.advance().text
	lower := strings.ToLower(name)

	switch lower {
	case "true":
		return literal{value: true}, nil
	case "false":
		return literal{value: false}, nil
	case "null":
		return literal{value: nil}, nil
	case "geo.distance":
		return p.parseGeoDistance()
	case "geo.intersects":
		return p.parseGeoIntersects()
	case "search.in":
		return p.parseSearchIn()
	}

	if p.cur().kind == tokLParen {
		return nil, fmt.Errorf("unknown function %q", name)
	}

	// field reference, optionally followed by a collection lambda:
	// fieldName/any(v: predicate) or fieldName/all(v: predicate)
	if p.cur().kind == tokSlash {
		p.advance()
		if p.cur().kind != tokIdent {
			return nil, fmt.Errorf("expected any/all after %q/", name)
		}
		kind := strings.ToLower(p.advance().text)
		if kind != "any" && kind != "all" {
			return nil, fmt.Errorf("expected any/all, got %q", kind)
		}
		if err := p.expect(tokLParen, "("); err != nil {
			return nil, err
		}
		var bound string
		if p.cur().kind == tokIdent && p.peekIsColon() {
			bound = p.advance().text
			p.advance() // ':'
		}
		var body Expr
		if p.cur().kind != tokRParen {
			var err error
			body, err = p.parseOr()
			if err != nil {
				return nil, err
			}
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return lambdaExpr{field: name, all: kind == "all", bound: bound, body: body}, nil
	}

	return fieldRef{name: name}, nil
}

func (p *parser) peekIsColon() bool {
	return p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == tokColon
}

func (p *parser) parseGeoDistance() (Expr, error) {
	if err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	if p.cur().kind != tokIdent {
		return nil, fmt.Errorf("geo.distance: expected field name")
	}
	field := p.advance().text
	if err := p.expect(tokComma, ","); err != nil {
		return nil, err
	}
	lat, lon, err := p.parseGeographyPoint()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return geoDistanceExpr{field: field, lat: lat, lon: lon}, nil
}

func (p *parser) parseGeographyPoint() (lat, lon float64, err error) {
	if p.cur().kind == tokIdent && strings.EqualFold(p.cur().text, "geography") {
		p.advance()
	}
	if p.cur().kind != tokString {
		return 0, 0, fmt.Errorf("expected geography'POINT(lon lat)' literal")
	}
	wkt := p.advance().text
	return parseWKTPoint(wkt)
}

func parseWKTPoint(wkt string) (lat, lon float64, err error) {
	wkt = strings.TrimSpace(wkt)
	inner := strings.TrimPrefix(strings.ToUpper(wkt), "POINT")
	inner = strings.TrimSpace(wkt[len(wkt)-len(inner):])
	inner = strings.TrimPrefix(inner, "(")
	inner = strings.TrimSuffix(inner, ")")
	parts := strings.Fields(inner)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed POINT literal %q", wkt)
	}
	lonF, err1 := strconv.ParseFloat(parts[0], 64)
	latF, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("malformed POINT coordinates in %q", wkt)
	}
	return latF, lonF, nil
}

func (p *parser) parseGeoIntersects() (Expr, error) {
	if err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	if p.cur().kind != tokIdent {
		return nil, fmt.Errorf("geo.intersects: expected field name")
	}
	field := p.advance().text
	if err := p.expect(tokComma, ","); err != nil {
		return nil, err
	}
	if p.cur().kind == tokIdent && strings.EqualFold(p.cur().text, "geography") {
		p.advance()
	}
	if p.cur().kind != tokString {
		return nil, fmt.Errorf("expected geography'POLYGON(...)' literal")
	}
	wkt := p.advance().text
	poly, err := parseWKTPolygon(wkt)
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return geoIntersectsExpr{field: field, polygon: poly}, nil
}

func parseWKTPolygon(wkt string) ([]point, error) {
	upper := strings.ToUpper(wkt)
	idx := strings.Index(upper, "POLYGON")
	if idx < 0 {
		return nil, fmt.Errorf("malformed POLYGON literal %q", wkt)
	}
	inner := strings.TrimSpace(wkt[idx+len("POLYGON"):])
	inner = strings.TrimPrefix(inner, "(")
	inner = strings.TrimSuffix(inner, ")")
	inner = strings.TrimPrefix(inner, "(")
	inner = strings.TrimSuffix(inner, ")")

	var pts []point
	for _, pair := range strings.Split(inner, ",") {
		fields := strings.Fields(strings.TrimSpace(pair))
		if len(fields) != 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(fields[0], 64)
		lat, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, point{lon: lon, lat: lat})
	}
	if len(pts) < 3 {
		return nil, fmt.Errorf("malformed POLYGON literal %q", wkt)
	}
	return pts, nil
}

func (p *parser) parseSearchIn() (Expr, error) {
	if err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	if p.cur().kind != tokIdent {
		return nil, fmt.Errorf("search.in: expected field name")
	}
	field := p.advance().text
	if err := p.expect(tokComma, ","); err != nil {
		return nil, err
	}
	if p.cur().kind != tokString {
		return nil, fmt.Errorf("search.in: expected value list string")
	}
	valuesRaw := p.advance().text
	delimiter := " "
	if p.cur().kind == tokComma {
		p.advance()
		if p.cur().kind != tokString {
			return nil, fmt.Errorf("search.in: expected delimiter string")
		}
		delimiter = p.advance().text
	}
	if err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	var values []string
	for _, v := range strings.Split(valuesRaw, delimiter) {
		values = append(values, v)
	}
	return searchInExpr{field: field, values: values, delimiter: delimiter}, nil
}
