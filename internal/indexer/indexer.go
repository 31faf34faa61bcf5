package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/codescope/codescope/internal/embedder"
	"github.com/codescope/codescope/internal/extractor"
	"github.com/codescope/codescope/internal/store"
	"github.com/codescope/codescope/internal/textsearch"
	"github.com/codescope/codescope/internal/vectorstore"
	"github.com/codescope/codescope/pkg/types"
)

// Config contains configuration for the indexer
type Config struct {
	Extensions  []string // Source extensions to index
	ExcludeDirs []string // Directory names skipped during the walk
	BatchSize   int      // Symbols per embedding batch (default: 8)
	SkipIndexed bool     // Skip files already present in the metadata store
}

// Statistics reports the outcome of an indexing run
type Statistics struct {
	FilesProcessed int
	FilesFailed    int
	FilesSkipped   int
	TotalSymbols   int
	Functions      int
	Classes        int
	Methods        int
	TotalLines     int
	Duration       time.Duration
	ErrorMessages  []string
}

// Indexer coordinates the pipeline: extract -> embed -> store. Files are
// processed one at a time so embedding ids stay contiguous across the
// vector store, the metadata store and the text index.
type Indexer struct {
	registry *extractor.Registry
	embedder embedder.Embedder
	vectors  *vectorstore.Store
	meta     store.Store
	text     *textsearch.Engine
	config   Config
	logger   *zap.Logger
}

// New creates an Indexer wired to the given stores
func New(registry *extractor.Registry, emb embedder.Embedder, vectors *vectorstore.Store,
	meta store.Store, text *textsearch.Engine, config Config, logger *zap.Logger) *Indexer {
	if config.BatchSize <= 0 {
		config.BatchSize = 8
	}
	if len(config.Extensions) == 0 {
		config.Extensions = registry.Extensions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Indexer{
		registry: registry,
		embedder: emb,
		vectors:  vectors,
		meta:     meta,
		text:     text,
		config:   config,
		logger:   logger,
	}
}

// IndexDirectory walks root and indexes every supported source file.
// Extraction failures are recorded and skipped; storage failures abort the
// run.
func (idx *Indexer) IndexDirectory(ctx context.Context, root string) (*Statistics, error) {
	start := time.Now()
	stats := &Statistics{}

	files, err := idx.discoverFiles(root)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	idx.logger.Info("indexing directory",
		zap.String("root", root),
		zap.Int("files", len(files)))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := idx.indexOne(ctx, path, stats); err != nil {
			return nil, err
		}
	}

	stats.Duration = time.Since(start)

	idx.logger.Info("indexing complete",
		zap.Int("processed", stats.FilesProcessed),
		zap.Int("failed", stats.FilesFailed),
		zap.Int("skipped", stats.FilesSkipped),
		zap.Int("symbols", stats.TotalSymbols),
		zap.Duration("elapsed", stats.Duration))

	return stats, nil
}

// IndexFile indexes a single source file
func (idx *Indexer) IndexFile(ctx context.Context, path string) (*Statistics, error) {
	start := time.Now()
	stats := &Statistics{}

	if err := idx.indexOne(ctx, path, stats); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// Clear empties every store: vectors, metadata and the text index
func (idx *Indexer) Clear(ctx context.Context) error {
	if err := idx.meta.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	idx.vectors.Clear()
	idx.text.Clear()

	idx.logger.Info("index cleared")
	return nil
}

// discoverFiles walks root collecting files with a supported extension,
// pruning excluded directories by name.
func (idx *Indexer) discoverFiles(root string) ([]string, error) {
	excluded := make(map[string]bool, len(idx.config.ExcludeDirs))
	for _, d := range idx.config.ExcludeDirs {
		excluded[d] = true
	}

	extensions := make(map[string]bool, len(idx.config.Extensions))
	for _, ext := range idx.config.Extensions {
		extensions[strings.ToLower(ext)] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && excluded[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if extensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// indexOne runs the full pipeline for a single file, updating stats.
// Returns an error only for storage failures; extraction and read failures
// are recorded in stats and skipped.
func (idx *Indexer) indexOne(ctx context.Context, path string, stats *Statistics) error {
	if idx.config.SkipIndexed {
		if _, err := idx.meta.GetFile(ctx, path); err == nil {
			stats.FilesSkipped++
			return nil
		}
	}

	src, err := os.ReadFile(path)
	if err != nil {
		stats.FilesFailed++
		stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", path, err))
		idx.logger.Warn("failed to read file", zap.String("path", path), zap.Error(err))
		return nil
	}

	ext, ok := idx.registry.ForPath(path)
	if !ok {
		stats.FilesFailed++
		stats.ErrorMessages = append(stats.ErrorMessages,
			fmt.Sprintf("%s: %v", path, types.ErrUnsupportedExt))
		return nil
	}

	extracted, err := ext.Extract(src, path)
	if err != nil {
		stats.FilesFailed++
		stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", path, err))
		idx.logger.Warn("failed to extract file", zap.String("path", path), zap.Error(err))
		return nil
	}

	symbols := extracted.Flatten()

	file := &store.FileRecord{
		Path:        path,
		Language:    ext.Language(),
		TotalLines:  extracted.TotalLines,
		SymbolCount: len(symbols),
	}
	if err := idx.meta.AddFile(ctx, file); err != nil {
		return fmt.Errorf("failed to store file %s: %w", path, err)
	}

	stats.FilesProcessed++
	stats.TotalLines += extracted.TotalLines

	if len(symbols) == 0 {
		return nil
	}

	vectors := idx.embedSymbols(ctx, symbols)

	firstID, err := idx.vectors.Append(vectors)
	if err != nil {
		return fmt.Errorf("failed to store vectors for %s: %w", path, err)
	}

	records := make([]*store.SymbolRecord, len(symbols))
	entries := make([]textsearch.Entry, len(symbols))
	for i, sym := range symbols {
		id := firstID + i
		records[i] = &store.SymbolRecord{
			EmbeddingID: id,
			FileID:      file.ID,
			Name:        sym.Name,
			Kind:        string(sym.Kind),
			ParentClass: sym.ParentClass,
			Docstring:   sym.Docstring,
			Code:        sym.Code,
			StartLine:   sym.StartLine,
			EndLine:     sym.EndLine,
		}
		entries[i] = textsearch.Entry{
			ID: id,
			Doc: textsearch.Document{
				Name:      sym.Name,
				Kind:      string(sym.Kind),
				Code:      sym.Code,
				Docstring: sym.Docstring,
			},
		}

		switch sym.Kind {
		case types.KindFunction:
			stats.Functions++
		case types.KindClass:
			stats.Classes++
		case types.KindMethod:
			stats.Methods++
		}
	}

	if err := idx.meta.AddSymbolsBatch(ctx, records); err != nil {
		return fmt.Errorf("failed to store symbols for %s: %w", path, err)
	}
	idx.text.AddDocuments(entries)

	stats.TotalSymbols += len(symbols)

	idx.logger.Debug("indexed file",
		zap.String("path", path),
		zap.Int("symbols", len(symbols)),
		zap.Int("first_id", firstID))

	return nil
}

// embedSymbols embeds symbols in batches. A failed batch falls back to
// per-symbol embedding, and a symbol that still fails gets a zero vector
// so ids stay aligned; such symbols remain findable lexically.
func (idx *Indexer) embedSymbols(ctx context.Context, symbols []types.Symbol) [][]float32 {
	texts := make([]string, len(symbols))
	for i, sym := range symbols {
		texts[i] = embedText(sym)
	}

	vectors := make([][]float32, len(symbols))
	dim := idx.embedder.Dimension()

	for start := 0; start < len(texts); start += idx.config.BatchSize {
		end := start + idx.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		embedded, err := idx.embedder.EmbedBatch(ctx, batch)
		if err == nil {
			copy(vectors[start:end], embedded)
			continue
		}

		idx.logger.Warn("batch embedding failed, retrying per symbol",
			zap.Int("batch_start", start), zap.Error(err))

		for i := start; i < end; i++ {
			v, err := idx.embedder.Embed(ctx, texts[i])
			if err != nil {
				idx.logger.Warn("embedding failed, storing zero vector",
					zap.String("symbol", symbols[i].Name), zap.Error(err))
				v = make([]float32, dim)
			}
			vectors[i] = v
		}
	}

	return vectors
}

// embedText builds the text sent to the embedding provider: the name, the
// docstring and the code, newline-joined.
func embedText(sym types.Symbol) string {
	return sym.Name + "\n" + sym.Docstring + "\n" + sym.Code
}
