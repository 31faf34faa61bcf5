package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/codescope/codescope/internal/config"
	"github.com/codescope/codescope/internal/embedder"
	"github.com/codescope/codescope/internal/extractor"
	"github.com/codescope/codescope/internal/indexer"
	"github.com/codescope/codescope/internal/searcher"
	"github.com/codescope/codescope/internal/store"
	"github.com/codescope/codescope/internal/textsearch"
	"github.com/codescope/codescope/internal/vectorstore"
	"github.com/codescope/codescope/pkg/types"
)

// App wires the full engine together: extractors, embedder, the three
// stores, indexer and searcher. A single writer lock serializes mutations
// (Index, Clear) while queries run concurrently.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	meta    *store.SQLiteStore
	vectors *vectorstore.Store
	text    *textsearch.Engine
	emb     embedder.Embedder
	idx     *indexer.Indexer
	search  *searcher.Searcher

	mu sync.RWMutex
}

// New builds the engine from configuration. The data directory is created
// if missing; an existing vector snapshot is loaded and the text index
// rebuilt from metadata so a restarted process resumes where it left off.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	meta, err := store.NewSQLiteStore(cfg.MetadataPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metadata store: %w", err)
	}

	emb, err := embedder.New(embedder.Options{
		Provider:  cfg.Embedding.Provider,
		APIKey:    cfg.Embedding.APIKey,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
		BaseURL:   cfg.Embedding.BaseURL,
		CacheSize: cfg.Embedding.CacheSize,
	}, logger)
	if err != nil {
		_ = meta.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	vectors := vectorstore.New(emb.Dimension(), logger)
	text := textsearch.New(logger)
	registry := extractor.NewRegistry(logger)

	idx := indexer.New(registry, emb, vectors, meta, text, indexer.Config{
		Extensions:  cfg.Index.Extensions,
		ExcludeDirs: cfg.Index.ExcludeDirs,
		BatchSize:   cfg.Index.BatchSize,
		SkipIndexed: cfg.Index.SkipIndexed,
	}, logger)

	srch := searcher.New(emb, vectors, meta, text, cfg.Search.CandidateLimit, logger)

	a := &App{
		cfg:     cfg,
		logger:  logger,
		meta:    meta,
		vectors: vectors,
		text:    text,
		emb:     emb,
		idx:     idx,
		search:  srch,
	}

	if err := a.restore(context.Background()); err != nil {
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

// restore loads the persisted vector snapshot and rebuilds the lexical
// index from metadata. A missing snapshot means a fresh index.
func (a *App) restore(ctx context.Context) error {
	if _, err := os.Stat(a.cfg.VectorsPath()); err != nil {
		return nil
	}

	if err := a.vectors.Load(a.cfg.VectorsPath()); err != nil {
		return fmt.Errorf("failed to load vector snapshot: %w", err)
	}
	if err := a.search.RebuildTextIndex(ctx); err != nil {
		return fmt.Errorf("failed to rebuild text index: %w", err)
	}

	a.logger.Info("restored index state",
		zap.Int("vectors", a.vectors.Count()))
	return nil
}

// Index indexes a file or directory tree and persists the vector snapshot
func (a *App) Index(ctx context.Context, path string) (*indexer.Statistics, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot index %s: %w", path, err)
	}

	var stats *indexer.Statistics
	if info.IsDir() {
		stats, err = a.idx.IndexDirectory(ctx, path)
	} else {
		stats, err = a.idx.IndexFile(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	if err := a.vectors.Save(a.cfg.VectorsPath()); err != nil {
		return nil, fmt.Errorf("failed to persist vectors: %w", err)
	}

	return stats, nil
}

// Search runs a hybrid query. Unset request fields fall back to the
// configured search defaults.
func (a *App) Search(ctx context.Context, req searcher.Request) ([]types.SearchResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if req.Limit <= 0 {
		req.Limit = a.cfg.Search.DefaultLimit
	}
	if req.MinSimilarity <= 0 {
		req.MinSimilarity = a.cfg.Search.MinSimilarity
	}
	return a.search.Search(ctx, req)
}

// Similar embeds a code snippet and finds the indexed symbols closest to it
func (a *App) Similar(ctx context.Context, snippet string, limit int, minSimilarity float64) ([]types.SearchResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.search.FindSimilarCode(ctx, snippet, limit, minSimilarity)
}

// SimilarToSymbol finds symbols semantically close to the named one
func (a *App) SimilarToSymbol(ctx context.Context, symbolName string, limit int) ([]types.SearchResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.search.FindSimilarToSymbol(ctx, symbolName, limit)
}

// Symbol fetches a symbol by exact name, optionally narrowed to a file path
func (a *App) Symbol(ctx context.Context, name, filePath string) (*types.SearchResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.search.GetSymbolByName(ctx, name, filePath)
}

// SymbolsNamed finds symbols by name substring
func (a *App) SymbolsNamed(ctx context.Context, name string, limit int) ([]types.SearchResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.search.SearchByName(ctx, name, limit)
}

// Suggest returns query completions from the indexed vocabulary
func (a *App) Suggest(prefix string, limit int) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.search.Suggest(prefix, limit)
}

// Stats reports aggregate index statistics
func (a *App) Stats(ctx context.Context) (*searcher.Stats, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.search.Stats(ctx)
}

// Clear empties all stores and removes the vector snapshot
func (a *App) Clear(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.idx.Clear(ctx); err != nil {
		return err
	}

	if err := os.Remove(a.cfg.VectorsPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove vector snapshot: %w", err)
	}
	return nil
}

// Close releases the metadata store and embedder
func (a *App) Close() error {
	if err := a.emb.Close(); err != nil {
		a.logger.Warn("embedder close failed", zap.Error(err))
	}
	return a.meta.Close()
}
