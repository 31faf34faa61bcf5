package vectorstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Common errors
var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrNotFound          = errors.New("vector not found")
	ErrEmptyBatch        = errors.New("empty vector batch")
)

// Match is one nearest-neighbor hit. Cosine is the raw cosine similarity in
// [-1, 1]; zero-norm vectors score 0.
type Match struct {
	ID     int
	Cosine float64
}

// Store is a flat in-memory vector index. Ids are assigned densely in
// append order: the first vector ever stored gets id 0, and ids stay
// aligned with the metadata store's embedding ids for the lifetime of the
// index. Search is exact brute-force scan, which is the right trade for
// corpus sizes in the tens of thousands.
type Store struct {
	mu        sync.RWMutex
	vectors   [][]float32
	dimension int
	logger    *zap.Logger
}

// New creates an empty store for vectors of the given dimension
func New(dimension int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dimension: dimension,
		logger:    logger,
	}
}

// Append stores a batch of vectors and returns the id assigned to the first
// one; the rest follow contiguously. Every vector must match the store
// dimension.
func (s *Store) Append(vectors [][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, ErrEmptyBatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, v := range vectors {
		if len(v) != s.dimension {
			return 0, fmt.Errorf("%w: vector %d has dimension %d, want %d",
				ErrDimensionMismatch, i, len(v), s.dimension)
		}
	}

	firstID := len(s.vectors)
	for _, v := range vectors {
		stored := make([]float32, len(v))
		copy(stored, v)
		s.vectors = append(s.vectors, stored)
	}

	return firstID, nil
}

// Get returns a copy of the vector with the given id
func (s *Store) Get(id int) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 0 || id >= len(s.vectors) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	out := make([]float32, len(s.vectors[id]))
	copy(out, s.vectors[id])
	return out, nil
}

// Search scans all stored vectors and returns the k nearest by cosine
// similarity, best first. Ties break by ascending id.
func (s *Store) Search(query []float32, k int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d",
			ErrDimensionMismatch, len(query), s.dimension)
	}
	if len(s.vectors) == 0 || k <= 0 {
		return nil, nil
	}

	queryNorm := norm(query)

	matches := make([]Match, len(s.vectors))
	for id, v := range s.vectors {
		matches[id] = Match{ID: id, Cosine: cosineWithNorm(query, queryNorm, v)}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Cosine != matches[j].Cosine {
			return matches[i].Cosine > matches[j].Cosine
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Count returns the number of stored vectors
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Dimension returns the vector width this store accepts
func (s *Store) Dimension() int {
	return s.dimension
}

// Clear drops all vectors; the next Append starts again at id 0
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vectors = nil
	s.logger.Debug("vector store cleared")
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosineWithNorm computes cosine similarity reusing a precomputed query
// norm. Either side having zero norm yields 0.
func cosineWithNorm(query []float32, queryNorm float64, v []float32) float64 {
	if queryNorm == 0 {
		return 0
	}

	var dot, vSum float64
	for i := range v {
		dot += float64(query[i]) * float64(v[i])
		vSum += float64(v[i]) * float64(v[i])
	}
	if vSum == 0 {
		return 0
	}
	return dot / (queryNorm * math.Sqrt(vSum))
}

// encodeVector packs a vector as little-endian float32 bits
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

// decodeVector unpacks a little-endian float32 vector
func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector record: %d bytes", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}
