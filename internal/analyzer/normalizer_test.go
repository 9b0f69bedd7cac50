package analyzer

import (
	"testing"

	"github.com/localsearch/simulator/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_BuiltinNormalizers(t *testing.T) {
	r := NewRegistry(nil)

	assert.Equal(t, "hello world", r.Normalize("lowercase", "Hello World"))
	assert.Equal(t, "HELLO", r.Normalize("uppercase", "hello"))
	assert.Equal(t, "cafe", r.Normalize("standard", "Café"))
	assert.Equal(t, "cafe", r.Normalize("asciifolding", "café"))
}

func TestRegistry_CaseInsensitiveLookup(t *testing.T) {
	r := NewRegistry(nil)
	assert.Equal(t, "abc", r.Normalize("LOWERCASE", "ABC"))
	assert.Equal(t, "abc", r.Normalize("LowerCase", "ABC"))
}

func TestRegistry_UnknownNameIsNoop(t *testing.T) {
	r := NewRegistry(nil)
	assert.Equal(t, "Unchanged", r.Normalize("does_not_exist", "Unchanged"))
}

func TestRegistry_CustomNormalizer(t *testing.T) {
	r := NewRegistry([]model.CustomNormalizer{
		{
			Name:         "my_norm",
			CharFilters:  []string{"html_strip"},
			TokenFilters: []string{"lowercase", "trim"},
		},
	})
	got := r.Normalize("my_norm", "  <b>HELLO</b>  ")
	assert.Equal(t, "hello", got)
}

func TestElision(t *testing.T) {
	assert.Equal(t, "hotel", Elision("l'hotel"))
	assert.Equal(t, "plain", Elision("plain"))
}

func TestTokenize_UnicodeWordBoundaries(t *testing.T) {
	got := Tokenize("luxury spa-resort, 2024!")
	assert.Equal(t, []string{"luxury", "spa", "resort", "2024"}, got)
}

func TestGermanNormalization(t *testing.T) {
	assert.Equal(t, "strasse", GermanNormalization("straße"))
}
