package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrInvalidInput    = errors.New("invalid input")
	ErrBatchTooLarge   = errors.New("batch size exceeds limit")
	ErrProviderFailed  = errors.New("embedding provider failed")
	ErrUnknownProvider = errors.New("unknown embedding provider")
)

// MaxBatchSize caps a single EmbedBatch call
const MaxBatchSize = 100

// Embedder generates dense vector representations of code text
type Embedder interface {
	// Embed generates a single embedding for the given text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call,
	// preserving input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension for this provider
	Dimension() int

	// Provider returns the provider name
	Provider() string

	// Close releases any resources held by the embedder
	Close() error
}

// Cache provides in-memory LRU caching of embeddings by content hash
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// DefaultCacheSize is used when no size is configured
const DefaultCacheSize = 10000

// NewCache creates an embedding cache with LRU eviction
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		// Only reachable with a non-positive size
		cache, _ = lru.New[string, []float32](DefaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get retrieves a copy of a cached vector. A copy is returned so caller
// mutations cannot corrupt the cached value.
func (c *Cache) Get(hash string) ([]float32, bool) {
	v, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// Set stores a vector, evicting the least recently used entry at capacity
func (c *Cache) Set(hash string, v []float32) {
	c.cache.Add(hash, v)
}

// Size returns the current cache size
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache
func (c *Cache) Clear() {
	c.cache.Purge()
}

// ComputeHash computes the SHA-256 content hash used as the cache key
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// validateBatch rejects empty batches, oversized batches and empty texts
func validateBatch(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	if len(texts) > MaxBatchSize {
		return fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}
	for i, text := range texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}

// Cosine computes cosine similarity in [-1, 1]. Either vector having zero
// norm, or a length mismatch, yields 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Similarity maps cosine similarity onto [0, 1] via (cos+1)/2, the scale
// used for semantic scores throughout the searcher.
func Similarity(a, b []float32) float64 {
	return (Cosine(a, b) + 1) / 2
}

// Normalize returns a unit-length copy of v; zero vectors pass through
// unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = val / norm
	}
	return out
}
