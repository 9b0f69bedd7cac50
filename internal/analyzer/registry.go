package analyzer

import (
	"strings"
	"unicode"

	"github.com/localsearch/simulator/internal/model"
)

// builtinNormalizers maps built-in normalizer names (case-insensitive) to
// their whole-value transform, per spec §4.1.
var builtinNormalizers = map[string]TokenFilter{
	"lowercase":                   Lowercase,
	"uppercase":                   Uppercase,
	"standard":                    Standard,
	"asciifolding":                Asciifolding,
	"elision":                     Elision,
	"trim":                        Trim,
	"arabic_normalization":        ArabicNormalization,
	"cjk_width":                   CJKWidth,
	"german_normalization":        GermanNormalization,
	"hindi_normalization":         HindiNormalization,
	"indic_normalization":         IndicNormalization,
	"persian_normalization":       PersianNormalization,
	"scandinavian_folding":        ScandinavianFolding,
	"scandinavian_normalization":  ScandinavianNormalization,
	"sorani_normalization":        SoraniNormalization,
}

// Registry resolves normalizer names (built-in or custom, declared on an
// index) to an executable chain. Unknown names are a no-op per §4.1.
type Registry struct {
	custom map[string]model.CustomNormalizer
}

// NewRegistry builds a registry for one index's declared custom normalizers.
func NewRegistry(customNormalizers []model.CustomNormalizer) *Registry {
	m := make(map[string]model.CustomNormalizer, len(customNormalizers))
	for _, n := range customNormalizers {
		m[strings.ToLower(n.Name)] = n
	}
	return &Registry{custom: m}
}

// Normalize applies the named normalizer to value. Matching is
// case-insensitive; an unrecognized name returns value unchanged.
func (r *Registry) Normalize(name, value string) string {
	if name == "" {
		return value
	}
	key := strings.ToLower(name)

	if custom, ok := r.custom[key]; ok {
		return r.applyCustom(custom, value)
	}
	if fn, ok := builtinNormalizers[key]; ok {
		return fn(value)
	}
	return value
}

func (r *Registry) applyCustom(n model.CustomNormalizer, value string) string {
	for _, cf := range n.CharFilters {
		if fn, ok := charFilterByName(cf); ok {
			value = fn(value)
		}
	}
	for _, tf := range n.TokenFilters {
		if fn, ok := builtinNormalizers[strings.ToLower(tf)]; ok {
			value = fn(value)
		}
	}
	return value
}

func charFilterByName(name string) (CharFilter, bool) {
	switch strings.ToLower(name) {
	case "html_strip":
		return HTMLStrip, true
	default:
		return nil, false
	}
}

// Tokenize splits s on Unicode word boundaries for searchable-field
// analysis, per §4.1 ("Analyzers ... additionally tokenize on Unicode word
// boundaries for searchable fields").
func Tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}
