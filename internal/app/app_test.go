package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/internal/config"
	"github.com/codescope/codescope/internal/searcher"
)

const sampleSource = `def authenticate_user(username, password):
    """Verify user credentials before login."""
    return check(username, password)

def slide_from_left(element):
    """Animate an element in from the left."""
    return element
`

func testConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.Config{DataDir: filepath.Join(t.TempDir(), "data")}
	cfg.ApplyDefaults()
	cfg.Embedding.Dimension = 32
	return cfg
}

func newApp(t *testing.T, cfg config.Config) *App {
	t.Helper()

	a, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Close()
	})
	return a
}

func writeSource(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "auth.py"), []byte(sampleSource), 0o600))
	return root
}

func TestIndexAndSearch(t *testing.T) {
	a := newApp(t, testConfig(t))
	ctx := context.Background()

	stats, err := a.Index(ctx, writeSource(t))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 2, stats.TotalSymbols)

	results, err := a.Search(ctx, searcher.Request{Query: "authentication", Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "authenticate_user", results[0].SymbolName)
	assert.True(t, strings.HasPrefix(results[0].MatchInfo, "Keywords: "))
}

func TestIndexSingleFile(t *testing.T) {
	a := newApp(t, testConfig(t))
	root := writeSource(t)

	stats, err := a.Index(context.Background(), filepath.Join(root, "auth.py"))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
}

func TestIndexMissingPath(t *testing.T) {
	a := newApp(t, testConfig(t))

	_, err := a.Index(context.Background(), "/no/such/path")
	assert.Error(t, err)
}

func TestSymbolRoundTrip(t *testing.T) {
	a := newApp(t, testConfig(t))
	ctx := context.Background()

	_, err := a.Index(ctx, writeSource(t))
	require.NoError(t, err)

	sym, err := a.Symbol(ctx, "slide_from_left", "")
	require.NoError(t, err)
	assert.Equal(t, 5, sym.StartLine)
	assert.Equal(t, 7, sym.EndLine)

	named, err := a.SymbolsNamed(ctx, "slide", 5)
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "slide_from_left", named[0].SymbolName)
}

func TestSimilarSnippet(t *testing.T) {
	a := newApp(t, testConfig(t))
	ctx := context.Background()

	_, err := a.Index(ctx, writeSource(t))
	require.NoError(t, err)

	results, err := a.Similar(ctx, "def auth(user, pwd): return verify(user, pwd)", 2, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "Semantic similarity", r.MatchInfo)
	}
}

func TestSuggestAndStats(t *testing.T) {
	a := newApp(t, testConfig(t))
	ctx := context.Background()

	_, err := a.Index(ctx, writeSource(t))
	require.NoError(t, err)

	assert.Contains(t, a.Suggest("auth", 5), "authenticate")

	stats, err := a.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalFiles)
	assert.Equal(t, 2, stats.TotalSymbols)
	assert.Equal(t, 2, stats.Vectors)
}

func TestRestartRestoresIndex(t *testing.T) {
	cfg := testConfig(t)
	root := writeSource(t)
	ctx := context.Background()

	a := newApp(t, cfg)
	_, err := a.Index(ctx, root)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	// A fresh process over the same data dir picks up the snapshot.
	b, err := New(cfg, nil)
	require.NoError(t, err)
	defer func() {
		_ = b.Close()
	}()

	stats, err := b.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Vectors)

	results, err := b.Search(ctx, searcher.Request{Query: "credentials", Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "authenticate_user", results[0].SymbolName)
}

func TestClear(t *testing.T) {
	cfg := testConfig(t)
	a := newApp(t, cfg)
	ctx := context.Background()

	_, err := a.Index(ctx, writeSource(t))
	require.NoError(t, err)
	require.NoError(t, a.Clear(ctx))

	stats, err := a.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalSymbols)
	assert.Equal(t, 0, stats.Vectors)

	_, err = os.Stat(cfg.VectorsPath())
	assert.True(t, os.IsNotExist(err), "snapshot removed on clear")

	results, err := a.Search(ctx, searcher.Request{Query: "credentials", Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}
