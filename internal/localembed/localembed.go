// Package localembed provides the simulator's stand-in for the managed
// service's built-in vectorizers, per LocalEmbeddingSettings (§6.5). It
// never calls out to a model host: embeddings are generated locally by
// hashing tokens and character n-grams into a fixed-width vector, so
// vectorQueries of kind "text" and document-level vectorization both
// produce deterministic, repeatable results without a model download.
package localembed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/localsearch/simulator/internal/simconfig"
)

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// Embedder is a deterministic, hash-based text vectorizer. Same text and
// dimensions always produce the same vector: unit-length, or all zeros for
// text with no tokens.
type Embedder struct {
	mu         sync.RWMutex
	dimensions int
	caseSensitive bool
	closed     bool
}

// New builds an Embedder sized and configured per cfg.
func New(cfg simconfig.LocalEmbeddingConfig) *Embedder {
	dims := cfg.MaximumTokens
	if dims <= 0 {
		dims = 512
	}
	return &Embedder{dimensions: dims, caseSensitive: cfg.CaseSensitive}
}

// Dimensions reports the vector width this embedder produces.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Embed generates a deterministic embedding for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("localembed: embedder is closed")
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, e.dimensions), nil
	}
	return normalize(e.generateVector(trimmed)), nil
}

// EmbedBatch embeds each text independently.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("localembed: text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Close marks the embedder unusable; further Embed calls return an error.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *Embedder) generateVector(text string) []float32 {
	vector := make([]float32, e.dimensions)

	for _, tok := range tokenize(text, e.caseSensitive) {
		vector[hashToIndex(tok, e.dimensions)] += tokenWeight
	}
	for _, gram := range extractNgrams(normalizeForNgrams(text), ngramSize) {
		vector[hashToIndex(gram, e.dimensions)] += ngramWeight
	}
	return vector
}

func tokenize(text string, caseSensitive bool) []string {
	words := tokenRegex.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if !caseSensitive {
			w = strings.ToLower(w)
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func normalizeForNgrams(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func extractNgrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	grams := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		grams = append(grams, text[i:i+n])
	}
	return grams
}

func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(1.0 / math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * norm
	}
	return out
}
