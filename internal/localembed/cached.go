package localembed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of distinct query vectors retained in
// memory at once.
const DefaultCacheSize = 1000

// TextEmbedder is the minimal contract engine.Engine depends on.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Cached wraps a TextEmbedder with an LRU cache keyed by text, avoiding
// recomputation for repeated vectorQueries.
type Cached struct {
	inner TextEmbedder
	cache *lru.Cache[string, []float32]
}

// NewCached wraps inner with an LRU cache of the given size (DefaultCacheSize
// when size <= 0).
func NewCached(inner TextEmbedder, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, v)
	return v, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
