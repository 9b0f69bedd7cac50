// Package analyzer implements the character-filter + token-filter chains
// used for normalizers (whole-value comparison) and analyzers (tokenized
// search), per spec §4.1.
package analyzer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CharFilter transforms raw input text before tokenization/normalization.
type CharFilter func(string) string

// TokenFilter transforms a single token (for normalizers, the token is the
// whole value; for analyzers, one word at a time).
type TokenFilter func(string) string

// Lowercase implements the "lowercase" built-in normalizer/token filter.
func Lowercase(s string) string { return strings.ToLower(s) }

// Uppercase implements the "uppercase" built-in normalizer/token filter.
func Uppercase(s string) string { return strings.ToUpper(s) }

// Asciifolding converts accented/diacritic Unicode characters to their
// closest plain-ASCII equivalent, implementing the "asciifolding" filter.
func Asciifolding(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Standard implements the "standard" built-in normalizer: lowercase then
// asciifolding.
func Standard(s string) string {
	return Asciifolding(Lowercase(s))
}

// Elision strips a small set of leading elided-article contractions
// (French-style l'/d'/qu' etc.), implementing the "elision" filter.
func Elision(s string) string {
	elisions := []string{"l'", "d'", "c'", "j'", "m'", "n'", "s'", "t'", "qu'"}
	lower := strings.ToLower(s)
	for _, e := range elisions {
		if strings.HasPrefix(lower, e) {
			return s[len(e):]
		}
	}
	return s
}

// Trim removes leading and trailing whitespace, implementing the "trim"
// token filter.
func Trim(s string) string { return strings.TrimSpace(s) }

// CJKWidth normalizes halfwidth/fullwidth CJK-adjacent characters to a
// single width form, implementing the "cjk_width" token filter.
func CJKWidth(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 0xFF01 && r <= 0xFF5E {
			b.WriteRune(r - 0xFEE0) // fullwidth ASCII block -> basic ASCII
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ScandinavianNormalization maps Scandinavian letters to simplified forms
// (å/ä -> a, ö/ø -> o, etc.), implementing "scandinavian_normalization".
func ScandinavianNormalization(s string) string {
	replacer := strings.NewReplacer(
		"å", "a", "Å", "A",
		"ä", "a", "Ä", "A",
		"ö", "o", "Ö", "O",
		"ø", "o", "Ø", "O",
	)
	return replacer.Replace(s)
}

// ScandinavianFolding is a softer variant that folds ø/ö to o and å to a
// but keeps composed forms distinct from plain vowels only when a digraph
// would otherwise collapse ambiguously; here it delegates to the same
// mapping as ScandinavianNormalization, matching the filter's documented
// behavior of namesake Unicode-range transformation.
func ScandinavianFolding(s string) string {
	return ScandinavianNormalization(s)
}

// GermanNormalization maps eszett and umlauts to their digraph forms,
// implementing "german_normalization".
func GermanNormalization(s string) string {
	replacer := strings.NewReplacer(
		"ß", "ss",
		"ä", "ae", "Ä", "Ae",
		"ö", "oe", "Ö", "Oe",
		"ü", "ue", "Ü", "Ue",
	)
	return replacer.Replace(s)
}

// ArabicNormalization strips Arabic diacritics (tashkeel) and normalizes
// alef/yeh variants, implementing "arabic_normalization".
func ArabicNormalization(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 0x064B && r <= 0x0652: // tashkeel diacritics
			continue
		case r == 0x0622 || r == 0x0623 || r == 0x0625: // alef variants
			b.WriteRune(0x0627)
		case r == 0x0649: // alef maksura -> yeh
			b.WriteRune(0x064A)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PersianNormalization normalizes Persian-specific yeh/kaf variants,
// implementing "persian_normalization".
func PersianNormalization(s string) string {
	replacer := strings.NewReplacer("ی", "ي", "ک", "ك")
	return replacer.Replace(s)
}

// HindiNormalization normalizes Devanagari nukta/candra variants and
// equivalent vowel signs, implementing "hindi_normalization" at the level
// of namesake-filter character collapsing.
func HindiNormalization(s string) string {
	replacer := strings.NewReplacer(
		"ऩ", "न", // NNA -> NA
		"ऱ", "र", // RRA -> RA
		"ऴ", "ळ", // LLLA -> LLA
		"क़", "क", "ख़", "ख", "ग़", "ग",
	)
	return replacer.Replace(s)
}

// IndicNormalization collapses common Indic-script variant encodings to a
// canonical NFC representation, implementing "indic_normalization".
func IndicNormalization(s string) string {
	return norm.NFC.String(s)
}

// SoraniNormalization normalizes Sorani Kurdish yeh/kaf variants to their
// Arabic-range equivalents, implementing "sorani_normalization".
func SoraniNormalization(s string) string {
	replacer := strings.NewReplacer("ی", "ي", "ک", "ك", "ھ", "ه")
	return replacer.Replace(s)
}

// HTMLStrip removes HTML/XML tags, implementing the "html_strip" char
// filter.
var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

func HTMLStrip(s string) string {
	return htmlTagRegex.ReplaceAllString(s, "")
}

// MappingCharFilter applies each declared "from=>to" mapping,
// implementing MappingCharFilter. mappings is a map, so the order in which
// overlapping mappings are applied is not defined.
func MappingCharFilter(mappings map[string]string) CharFilter {
	return func(s string) string {
		for from, to := range mappings {
			s = strings.ReplaceAll(s, from, to)
		}
		return s
	}
}

// PatternReplaceCharFilter applies a regex replacement. An invalid pattern
// passes input through unchanged, per spec §4.1.
func PatternReplaceCharFilter(pattern, replacement string) CharFilter {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return func(s string) string { return s }
	}
	return func(s string) string { return re.ReplaceAllString(s, replacement) }
}
