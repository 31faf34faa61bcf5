package searcher

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/internal/embedder"
	"github.com/codescope/codescope/internal/store"
	"github.com/codescope/codescope/internal/textsearch"
	"github.com/codescope/codescope/internal/vectorstore"
	"github.com/codescope/codescope/pkg/types"
)

type corpusSymbol struct {
	name      string
	kind      string
	file      string
	docstring string
	code      string
	startLine int
	endLine   int
}

var corpus = []corpusSymbol{
	{
		name:      "authenticate_user",
		kind:      "function",
		file:      "src/auth.py",
		docstring: "Verify user credentials before login",
		code:      "def authenticate_user(username, password):\n    return check(username, password)",
		startLine: 1,
		endLine:   5,
	},
	{
		name:      "parse_config",
		kind:      "function",
		file:      "src/config.py",
		docstring: "Load configuration from disk",
		code:      "def parse_config(path):\n    return yaml.safe_load(open(path))",
		startLine: 10,
		endLine:   14,
	},
	{
		name:      "ChartRenderer",
		kind:      "class",
		file:      "src/ui/chart.js",
		docstring: "Draws charts onto a canvas",
		code:      "class ChartRenderer {\n  render() {}\n}",
		startLine: 3,
		endLine:   20,
	},
}

func newSearcher(t *testing.T) (*Searcher, *textsearch.Engine) {
	t.Helper()
	ctx := context.Background()

	meta, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "meta.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = meta.Close()
	})

	emb := embedder.NewHashProvider(32, nil)
	vectors := vectorstore.New(32, nil)
	text := textsearch.New(nil)

	byFile := make(map[string][]corpusSymbol)
	var fileOrder []string
	for _, sym := range corpus {
		if _, ok := byFile[sym.file]; !ok {
			fileOrder = append(fileOrder, sym.file)
		}
		byFile[sym.file] = append(byFile[sym.file], sym)
	}

	for _, path := range fileOrder {
		symbols := byFile[path]

		file := &store.FileRecord{Path: path, Language: "python",
			TotalLines: 50, SymbolCount: len(symbols)}
		require.NoError(t, meta.AddFile(ctx, file))

		texts := make([]string, len(symbols))
		for i, sym := range symbols {
			texts[i] = sym.name + "\n" + sym.docstring + "\n" + sym.code
		}
		vecs, err := emb.EmbedBatch(ctx, texts)
		require.NoError(t, err)

		firstID, err := vectors.Append(vecs)
		require.NoError(t, err)

		records := make([]*store.SymbolRecord, len(symbols))
		entries := make([]textsearch.Entry, len(symbols))
		for i, sym := range symbols {
			id := firstID + i
			records[i] = &store.SymbolRecord{
				EmbeddingID: id, FileID: file.ID, Name: sym.name, Kind: sym.kind,
				Docstring: sym.docstring, Code: sym.code,
				StartLine: sym.startLine, EndLine: sym.endLine,
			}
			entries[i] = textsearch.Entry{ID: id, Doc: textsearch.Document{
				Name: sym.name, Kind: sym.kind, Code: sym.code, Docstring: sym.docstring,
			}}
		}
		require.NoError(t, meta.AddSymbolsBatch(ctx, records))
		text.AddDocuments(entries)
	}

	return New(emb, vectors, meta, text, 0, nil), text
}

func TestSearchLexicalHit(t *testing.T) {
	s, _ := newSearcher(t)

	results, err := s.Search(context.Background(), Request{Query: "credentials", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, "authenticate_user", top.SymbolName)
	assert.True(t, strings.HasPrefix(top.MatchInfo, "Keywords: "), "got %q", top.MatchInfo)
	assert.Contains(t, top.MatchInfo, "credentials")
	assert.NotContains(t, top.MatchInfo, "~")
	assert.Greater(t, top.Score, 0.0)
	assert.LessOrEqual(t, top.Score, 1.0)
}

func TestSearchSynonymQuery(t *testing.T) {
	s, _ := newSearcher(t)

	// "authentication" is not a literal token anywhere; the synonym table
	// bridges to the auth symbol.
	results, err := s.Search(context.Background(), Request{Query: "authentication", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "authenticate_user", results[0].SymbolName)
	assert.True(t, strings.HasPrefix(results[0].MatchInfo, "Keywords: "))
}

func TestSearchSemanticOnlyCapped(t *testing.T) {
	s, _ := newSearcher(t)

	// No lexical match for this query; every result must come from the
	// semantic arm, capped at the pure-semantic weight.
	results, err := s.Search(context.Background(), Request{Query: "zzzzzz qqqqqq wwwwww xxxxxx", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		assert.Equal(t, "Semantic similarity only", r.MatchInfo)
		assert.LessOrEqual(t, r.Score, semOnlyWeight+1e-9)
	}
}

func TestSearchMinSimilarityDropsSemanticNoise(t *testing.T) {
	s, _ := newSearcher(t)

	results, err := s.Search(context.Background(),
		Request{Query: "credentials", Limit: 10, MinSimilarity: 0.45})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// Pure-semantic scores cap at 0.4, so only keyword hits survive.
	for _, r := range results {
		assert.True(t, strings.HasPrefix(r.MatchInfo, "Keywords: "))
	}
}

func TestSearchKindFilter(t *testing.T) {
	s, _ := newSearcher(t)

	results, err := s.Search(context.Background(),
		Request{Query: "chart renderer", Limit: 10, KindFilter: "class"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, types.KindClass, r.Kind)
	}
}

func TestSearchFilePathFilter(t *testing.T) {
	s, _ := newSearcher(t)

	results, err := s.Search(context.Background(),
		Request{Query: "credentials config chart", Limit: 10, FilePathFilter: "UI/"})
	require.NoError(t, err)
	for _, r := range results {
		assert.Contains(t, strings.ToLower(r.FilePath), "ui/")
	}
}

func TestSearchDegenerateQueries(t *testing.T) {
	s, _ := newSearcher(t)
	ctx := context.Background()

	// Empty, whitespace-only and all-stopword queries are not errors; they
	// simply match nothing.
	for _, query := range []string{"", "   ", "the of and"} {
		results, err := s.Search(ctx, Request{Query: query, Limit: 10})
		require.NoError(t, err, "query %q", query)
		assert.Empty(t, results, "query %q", query)
	}
}

func TestFindSimilarCode(t *testing.T) {
	s, _ := newSearcher(t)

	// An arbitrary snippet is embedded on the fly and ranked against the
	// index. A snippet identical to an indexed symbol's embedded text
	// scores a perfect match.
	auth := corpus[0]
	snippet := auth.name + "\n" + auth.docstring + "\n" + auth.code

	results, err := s.FindSimilarCode(context.Background(), snippet, 3, 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "authenticate_user", results[0].SymbolName)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "Semantic similarity", results[0].MatchInfo)

	// Best first.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestFindSimilarCodeArbitrarySnippet(t *testing.T) {
	s, _ := newSearcher(t)

	results, err := s.FindSimilarCode(context.Background(),
		"def auth(user, pwd): return verify(user, pwd)", 3, 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestFindSimilarCodeMinSimilarity(t *testing.T) {
	s, _ := newSearcher(t)

	auth := corpus[0]
	snippet := auth.name + "\n" + auth.docstring + "\n" + auth.code

	// Only the identical symbol clears a near-perfect threshold.
	results, err := s.FindSimilarCode(context.Background(), snippet, 10, 0.999)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "authenticate_user", results[0].SymbolName)
}

func TestFindSimilarCodeEmptySnippet(t *testing.T) {
	s, _ := newSearcher(t)

	results, err := s.FindSimilarCode(context.Background(), "   ", 5, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilarToSymbol(t *testing.T) {
	s, _ := newSearcher(t)

	results, err := s.FindSimilarToSymbol(context.Background(), "authenticate_user", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		assert.NotEqual(t, "authenticate_user", r.SymbolName, "source symbol excluded")
		assert.Equal(t, "Similar to authenticate_user", r.MatchInfo)
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestFindSimilarToSymbolUnknown(t *testing.T) {
	s, _ := newSearcher(t)

	_, err := s.FindSimilarToSymbol(context.Background(), "no_such_symbol", 5)
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestSearchByName(t *testing.T) {
	s, _ := newSearcher(t)

	results, err := s.SearchByName(context.Background(), "config", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "parse_config", results[0].SymbolName)
	assert.Equal(t, "Name match", results[0].MatchInfo)
}

func TestGetSymbolByNameRoundTrip(t *testing.T) {
	s, _ := newSearcher(t)

	result, err := s.GetSymbolByName(context.Background(), "ChartRenderer", "")
	require.NoError(t, err)

	assert.Equal(t, "src/ui/chart.js", result.FilePath)
	assert.Equal(t, 3, result.StartLine)
	assert.Equal(t, 20, result.EndLine)
	assert.Equal(t, types.KindClass, result.Kind)

	// The path narrows the lookup; a wrong path finds nothing.
	result, err = s.GetSymbolByName(context.Background(), "ChartRenderer", "src/ui/chart.js")
	require.NoError(t, err)
	assert.Equal(t, "ChartRenderer", result.SymbolName)

	_, err = s.GetSymbolByName(context.Background(), "ChartRenderer", "src/other.js")
	assert.ErrorIs(t, err, ErrSymbolNotFound)

	_, err = s.GetSymbolByName(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestSuggest(t *testing.T) {
	s, _ := newSearcher(t)

	suggestions := s.Suggest("cred", 5)
	assert.Contains(t, suggestions, "credentials")

	// An empty prefix falls back to the most frequent terms.
	popular := s.Suggest("", 10)
	assert.NotEmpty(t, popular)
}

func TestStats(t *testing.T) {
	s, _ := newSearcher(t)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalFiles)
	assert.Equal(t, 3, stats.TotalSymbols)
	assert.Equal(t, 3, stats.Vectors)
	assert.Equal(t, 2, stats.ByKind["function"])
	assert.Equal(t, 1, stats.ByKind["class"])
	assert.Greater(t, stats.UniqueTerms, 0)
	assert.Equal(t, "hash", stats.Provider)
	assert.Equal(t, 32, stats.Dimension)
	assert.True(t, stats.Ready)
}

func TestRebuildTextIndex(t *testing.T) {
	s, text := newSearcher(t)
	ctx := context.Background()

	text.Clear()
	require.Empty(t, text.Search("credentials", 10))

	require.NoError(t, s.RebuildTextIndex(ctx))

	results, err := s.Search(ctx, Request{Query: "credentials", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.True(t, strings.HasPrefix(results[0].MatchInfo, "Keywords: "))
}
