package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Hash provider defaults
const (
	ProviderHash   = "hash"
	DefaultHashDim = 384
)

// HashProvider is a deterministic offline embedder: the vector is derived
// from repeated SHA-256 digests of the input text and normalized to unit
// length. It carries no semantic signal but is stable across runs, which is
// what indexing tests and air-gapped setups need.
type HashProvider struct {
	dimension int
	cache     *Cache
}

// NewHashProvider creates a deterministic local embedder
func NewHashProvider(dimension int, cache *Cache) *HashProvider {
	if dimension <= 0 {
		dimension = DefaultHashDim
	}
	return &HashProvider{dimension: dimension, cache: cache}
}

// Embed derives a unit vector from the text content
func (h *HashProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := ComputeHash(text)
	if h.cache != nil {
		if v, ok := h.cache.Get(hash); ok {
			return v, nil
		}
	}

	vector := make([]float32, h.dimension)
	digest := sha256.Sum256([]byte(text))
	buf := digest[:]

	for i := 0; i < h.dimension; i++ {
		// Each digest yields 8 values; rehash to extend the stream.
		if i > 0 && i%8 == 0 {
			digest = sha256.Sum256(buf)
			buf = digest[:]
		}
		bits := binary.BigEndian.Uint32(buf[(i%8)*4:])
		vector[i] = float32(bits%2000)/1000.0 - 1.0
	}

	vector = Normalize(vector)

	if h.cache != nil {
		h.cache.Set(hash, vector)
	}
	return vector, nil
}

// EmbedBatch embeds each text in order
func (h *HashProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := h.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

// Dimension returns the configured vector width
func (h *HashProvider) Dimension() int {
	return h.dimension
}

// Provider returns the provider name
func (h *HashProvider) Provider() string {
	return ProviderHash
}

// Close is a no-op
func (h *HashProvider) Close() error {
	return nil
}
