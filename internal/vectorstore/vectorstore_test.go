package vectorstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAssignsDenseIDs(t *testing.T) {
	s := New(3, nil)

	first, err := s.Append([][]float32{{1, 0, 0}, {0, 1, 0}})
	require.NoError(t, err)
	assert.Equal(t, 0, first)

	second, err := s.Append([][]float32{{0, 0, 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, second)

	assert.Equal(t, 3, s.Count())
}

func TestAppendValidation(t *testing.T) {
	s := New(3, nil)

	_, err := s.Append(nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = s.Append([][]float32{{1, 0}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	// A failed batch must not leak partial state.
	_, err = s.Append([][]float32{{1, 0, 0}, {1, 0}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 0, s.Count())
}

func TestGet(t *testing.T) {
	s := New(2, nil)
	_, err := s.Append([][]float32{{1, 2}})
	require.NoError(t, err)

	v, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)

	// Returned slices are copies.
	v[0] = 99
	v2, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, float32(1), v2[0])

	_, err = s.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(-1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchRanksByCosine(t *testing.T) {
	s := New(2, nil)
	_, err := s.Append([][]float32{
		{1, 0},   // id 0: identical direction
		{1, 1},   // id 1: 45 degrees
		{-1, 0},  // id 2: opposite
		{0, 0},   // id 3: zero vector, scores 0
	})
	require.NoError(t, err)

	matches, err := s.Search([]float32{1, 0}, 4)
	require.NoError(t, err)
	require.Len(t, matches, 4)

	assert.Equal(t, 0, matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Cosine, 1e-6)
	assert.Equal(t, 1, matches[1].ID)
	assert.Equal(t, 3, matches[2].ID)
	assert.Equal(t, 0.0, matches[2].Cosine)
	assert.Equal(t, 2, matches[3].ID)
	assert.InDelta(t, -1.0, matches[3].Cosine, 1e-6)
}

func TestSearchLimitAndEdgeCases(t *testing.T) {
	s := New(2, nil)
	_, err := s.Append([][]float32{{1, 0}, {0, 1}, {1, 1}})
	require.NoError(t, err)

	matches, err := s.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = s.Search([]float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = s.Search([]float32{1}, 2)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	empty := New(2, nil)
	matches, err = empty.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchZeroQuery(t *testing.T) {
	s := New(2, nil)
	_, err := s.Append([][]float32{{1, 0}})
	require.NoError(t, err)

	matches, err := s.Search([]float32{0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.0, matches[0].Cosine)
}

func TestClear(t *testing.T) {
	s := New(2, nil)
	_, err := s.Append([][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	s.Clear()
	assert.Equal(t, 0, s.Count())

	// Ids restart at zero after a clear.
	first, err := s.Append([][]float32{{1, 1}})
	require.NoError(t, err)
	assert.Equal(t, 0, first)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")

	s := New(3, nil)
	original := [][]float32{{1, 0, 0}, {0.5, 0.5, 0}, {0, 0, 1}}
	_, err := s.Append(original)
	require.NoError(t, err)
	require.NoError(t, s.Save(path))

	loaded := New(3, nil)
	require.NoError(t, loaded.Load(path))
	require.Equal(t, 3, loaded.Count())

	for i, want := range original {
		got, err := loaded.Get(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestLoadDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")

	s := New(3, nil)
	_, err := s.Append([][]float32{{1, 0, 0}})
	require.NoError(t, err)
	require.NoError(t, s.Save(path))

	other := New(4, nil)
	assert.ErrorIs(t, other.Load(path), ErrDimensionMismatch)
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")

	s := New(2, nil)
	_, err := s.Append([][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)
	require.NoError(t, s.Save(path))

	s.Clear()
	_, err = s.Append([][]float32{{1, 1}})
	require.NoError(t, err)
	require.NoError(t, s.Save(path))

	loaded := New(2, nil)
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, 1, loaded.Count())
}
