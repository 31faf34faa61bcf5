package searcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codescope/codescope/internal/embedder"
	"github.com/codescope/codescope/internal/store"
	"github.com/codescope/codescope/internal/textsearch"
	"github.com/codescope/codescope/internal/vectorstore"
	"github.com/codescope/codescope/pkg/types"
)

// Fusion weights. A lexical hit blends its normalized BM25 score with the
// semantic score; a pure-semantic hit is capped at semOnlyWeight so keyword
// relevance always outranks embedding noise.
const (
	textWeight    = 0.8
	semWeight     = 0.2
	semOnlyWeight = 0.4

	// DefaultCandidateLimit bounds each retrieval arm
	DefaultCandidateLimit = 100
)

// ErrSymbolNotFound is returned by name lookups with no match
var ErrSymbolNotFound = errors.New("symbol not found")

// Request contains parameters for a hybrid search
type Request struct {
	Query          string
	Limit          int
	MinSimilarity  float64 // Drop results scoring below this
	KindFilter     string  // Keep only this symbol kind when set
	FilePathFilter string  // Case-insensitive substring on file path
}

// Stats aggregates index statistics across the three stores
type Stats struct {
	TotalFiles   int
	TotalSymbols int
	TotalLines   int
	ByKind       map[string]int
	Vectors      int
	UniqueTerms  int
	AvgDocLength float64
	Provider     string
	Dimension    int
	Ready        bool // true once something is indexed and searchable
}

// Searcher runs hybrid lexical+semantic queries over the indexed corpus
type Searcher struct {
	embedder       embedder.Embedder
	vectors        *vectorstore.Store
	meta           store.Store
	text           *textsearch.Engine
	candidateLimit int
	logger         *zap.Logger
}

// New creates a Searcher over the given stores
func New(emb embedder.Embedder, vectors *vectorstore.Store, meta store.Store,
	text *textsearch.Engine, candidateLimit int, logger *zap.Logger) *Searcher {
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		embedder:       emb,
		vectors:        vectors,
		meta:           meta,
		text:           text,
		candidateLimit: candidateLimit,
		logger:         logger,
	}
}

// Search runs both retrieval arms concurrently and fuses their scores.
// Lexical hits score textWeight*normalizedBM25 + semWeight*semantic;
// semantic-only hits score semOnlyWeight*semantic.
func (s *Searcher) Search(ctx context.Context, req Request) ([]types.SearchResult, error) {
	// Empty, whitespace-only and all-stopword queries carry no searchable
	// signal; they yield no results rather than an error.
	if len(textsearch.Tokenize(req.Query)) == 0 {
		return []types.SearchResult{}, nil
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	var lexical []textsearch.Result
	semantic := make(map[int]float64)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lexical = s.text.Search(req.Query, s.candidateLimit)
		return nil
	})

	g.Go(func() error {
		queryVec, err := s.embedder.Embed(gctx, req.Query)
		if err != nil {
			// Embedding failure degrades to lexical-only search.
			s.logger.Warn("query embedding failed", zap.Error(err))
			return nil
		}
		matches, err := s.vectors.Search(queryVec, s.candidateLimit)
		if err != nil {
			return err
		}
		for _, m := range matches {
			semantic[m.ID] = (m.Cosine + 1) / 2
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Normalize BM25 by the best score seen; the floor of 1.0 keeps weak
	// single-term matches from inflating to full relevance.
	maxText := 1.0
	lexicalByID := make(map[int]textsearch.Result, len(lexical))
	for _, r := range lexical {
		lexicalByID[r.ID] = r
		if r.Score > maxText {
			maxText = r.Score
		}
	}

	ids := unionIDs(lexicalByID, semantic)
	records, err := s.meta.GetSymbolsByEmbeddingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve candidates: %w", err)
	}

	results := make([]types.SearchResult, 0, len(ids))
	resultIDs := make([]int, 0, len(ids))

	for i, rec := range records {
		if rec == nil {
			continue // vector without metadata, skip
		}
		id := ids[i]

		var score float64
		var matchInfo string
		var terms []string

		if lex, ok := lexicalByID[id]; ok && lex.Score > 0 {
			score = textWeight*(lex.Score/maxText) + semWeight*semantic[id]
			terms = lex.MatchedTerms
			matchInfo = "Keywords: " + strings.Join(displayTerms(terms), ", ")
		} else {
			score = semOnlyWeight * semantic[id]
			matchInfo = "Semantic similarity only"
		}

		if score < req.MinSimilarity {
			continue
		}
		if req.KindFilter != "" && rec.Kind != req.KindFilter {
			continue
		}
		if req.FilePathFilter != "" &&
			!strings.Contains(strings.ToLower(rec.FilePath), strings.ToLower(req.FilePathFilter)) {
			continue
		}

		results = append(results, toResult(rec, score, matchInfo, terms))
		resultIDs = append(resultIDs, id)
	}

	sortResults(results, resultIDs)

	if len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return results, nil
}

// FindSimilarCode embeds an arbitrary code snippet and returns the indexed
// symbols closest to it in embedding space, best first. Results below
// minSimilarity are dropped.
func (s *Searcher) FindSimilarCode(ctx context.Context, snippet string, limit int, minSimilarity float64) ([]types.SearchResult, error) {
	if strings.TrimSpace(snippet) == "" {
		return []types.SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	vec, err := s.embedder.Embed(ctx, snippet)
	if err != nil {
		return nil, fmt.Errorf("failed to embed snippet: %w", err)
	}

	matches, err := s.vectors.Search(vec, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(matches))
	simByID := make(map[int]float64, len(matches))
	for _, m := range matches {
		sim := (m.Cosine + 1) / 2
		if sim < minSimilarity {
			continue
		}
		ids = append(ids, m.ID)
		simByID[m.ID] = sim
	}

	records, err := s.meta.GetSymbolsByEmbeddingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(ids))
	for i, rec := range records {
		if rec == nil {
			continue
		}
		results = append(results, toResult(rec, simByID[ids[i]], "Semantic similarity", nil))
	}
	return results, nil
}

// FindSimilarToSymbol finds the symbols semantically closest to an already
// indexed symbol, reusing its stored vector.
func (s *Searcher) FindSimilarToSymbol(ctx context.Context, symbolName string, limit int) ([]types.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	source, err := s.meta.GetSymbolByName(ctx, symbolName, "")
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbolName)
		}
		return nil, err
	}

	vec, err := s.vectors.Get(source.EmbeddingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vector for %s: %w", symbolName, err)
	}

	// One extra candidate since the symbol matches itself perfectly.
	matches, err := s.vectors.Search(vec, limit+1)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(matches))
	simByID := make(map[int]float64, len(matches))
	for _, m := range matches {
		if m.ID == source.EmbeddingID {
			continue
		}
		ids = append(ids, m.ID)
		simByID[m.ID] = (m.Cosine + 1) / 2
	}

	records, err := s.meta.GetSymbolsByEmbeddingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(ids))
	for i, rec := range records {
		if rec == nil {
			continue
		}
		results = append(results, toResult(rec, simByID[ids[i]],
			"Similar to "+symbolName, nil))
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchByName finds symbols by case-insensitive substring on the name
func (s *Searcher) SearchByName(ctx context.Context, name string, limit int) ([]types.SearchResult, error) {
	records, err := s.meta.FindSymbolsByName(ctx, name, limit)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(records))
	for _, rec := range records {
		results = append(results, toResult(rec, 1.0, "Name match", []string{name}))
	}
	return results, nil
}

// GetSymbolByName fetches one symbol by exact name. A non-empty filePath
// disambiguates names defined in more than one file.
func (s *Searcher) GetSymbolByName(ctx context.Context, name, filePath string) (*types.SearchResult, error) {
	rec, err := s.meta.GetSymbolByName(ctx, name, filePath)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
		}
		return nil, err
	}

	result := toResult(rec, 1.0, "Exact name match", nil)
	return &result, nil
}

// Suggest returns query completions from the indexed vocabulary. A prefix
// too short to complete yields the most frequent terms instead.
func (s *Searcher) Suggest(prefix string, limit int) []string {
	if len(prefix) < 2 {
		return s.text.PopularTerms(limit)
	}
	return s.text.Autocomplete(prefix, limit)
}

// Stats aggregates statistics from all three stores
func (s *Searcher) Stats(ctx context.Context) (*Stats, error) {
	metaStats, err := s.meta.Stats(ctx)
	if err != nil {
		return nil, err
	}
	textStats := s.text.IndexStats()

	return &Stats{
		TotalFiles:   metaStats.TotalFiles,
		TotalSymbols: metaStats.TotalSymbols,
		TotalLines:   metaStats.TotalLines,
		ByKind:       metaStats.ByKind,
		Vectors:      s.vectors.Count(),
		UniqueTerms:  textStats.UniqueTerms,
		AvgDocLength: textStats.AvgDocLength,
		Provider:     s.embedder.Provider(),
		Dimension:    s.embedder.Dimension(),
		Ready:        metaStats.TotalSymbols > 0 && s.vectors.Count() > 0,
	}, nil
}

// RebuildTextIndex repopulates the lexical index from stored metadata.
// Useful after loading a vector snapshot into a fresh process.
func (s *Searcher) RebuildTextIndex(ctx context.Context) error {
	records, err := s.meta.AllSymbols(ctx)
	if err != nil {
		return fmt.Errorf("failed to load symbols: %w", err)
	}

	s.text.Clear()

	entries := make([]textsearch.Entry, len(records))
	for i, rec := range records {
		entries[i] = textsearch.Entry{
			ID: rec.EmbeddingID,
			Doc: textsearch.Document{
				Name:      rec.Name,
				Kind:      rec.Kind,
				Code:      rec.Code,
				Docstring: rec.Docstring,
			},
		}
	}
	s.text.AddDocuments(entries)

	s.logger.Info("rebuilt text index", zap.Int("symbols", len(entries)))
	return nil
}

// unionIDs merges candidate ids from both arms in ascending order
func unionIDs(lexical map[int]textsearch.Result, semantic map[int]float64) []int {
	seen := make(map[int]struct{}, len(lexical)+len(semantic))
	for id := range lexical {
		seen[id] = struct{}{}
	}
	for id := range semantic {
		seen[id] = struct{}{}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// displayTerms strips the non-literal marker for match info display
func displayTerms(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.TrimPrefix(t, "~")
	}
	return out
}

// sortResults orders by score descending, embedding id ascending on ties.
// Both slices are reordered together.
func sortResults(results []types.SearchResult, ids []int) {
	sort.Sort(&byScore{results: results, ids: ids})
}

type byScore struct {
	results []types.SearchResult
	ids     []int
}

func (b *byScore) Len() int { return len(b.results) }

func (b *byScore) Less(i, j int) bool {
	if b.results[i].Score != b.results[j].Score {
		return b.results[i].Score > b.results[j].Score
	}
	return b.ids[i] < b.ids[j]
}

func (b *byScore) Swap(i, j int) {
	b.results[i], b.results[j] = b.results[j], b.results[i]
	b.ids[i], b.ids[j] = b.ids[j], b.ids[i]
}

func toResult(rec *store.SymbolRecord, score float64, matchInfo string, terms []string) types.SearchResult {
	return types.SearchResult{
		SymbolName:           rec.Name,
		Kind:                 types.SymbolKind(rec.Kind),
		FilePath:             rec.FilePath,
		StartLine:            rec.StartLine,
		EndLine:              rec.EndLine,
		CodeSnippet:          rec.Code,
		Docstring:            rec.Docstring,
		Score:                score,
		MatchInfo:            matchInfo,
		HighlightedName:      Highlight(rec.Name, terms),
		HighlightedDocstring: Highlight(rec.Docstring, terms),
	}
}
