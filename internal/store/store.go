package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")
)

// FileRecord tracks one indexed source file
type FileRecord struct {
	ID          int64
	Path        string
	Language    string
	TotalLines  int
	SymbolCount int
	IndexedAt   time.Time
}

// SymbolRecord is the stored metadata for one indexed symbol. EmbeddingID
// is the dense id shared with the vector store and the text index.
type SymbolRecord struct {
	EmbeddingID int
	FileID      int64
	FilePath    string
	Name        string
	Kind        string
	ParentClass string
	Docstring   string
	Code        string
	StartLine   int
	EndLine     int
}

// Stats summarizes the indexed corpus
type Stats struct {
	TotalFiles   int
	TotalSymbols int
	TotalLines   int
	ByKind       map[string]int
}

// Store persists symbol metadata keyed by embedding id
type Store interface {
	// AddFile upserts a file record by path and fills in its ID
	AddFile(ctx context.Context, file *FileRecord) error

	// GetFile fetches a file record by path
	GetFile(ctx context.Context, path string) (*FileRecord, error)

	// ListFiles returns all indexed files ordered by path
	ListFiles(ctx context.Context) ([]*FileRecord, error)

	// AddSymbolsBatch inserts symbol records in one transaction
	AddSymbolsBatch(ctx context.Context, symbols []*SymbolRecord) error

	// GetSymbolsByEmbeddingIDs resolves ids to records, preserving order.
	// Unknown ids yield nil entries rather than an error.
	GetSymbolsByEmbeddingIDs(ctx context.Context, ids []int) ([]*SymbolRecord, error)

	// GetSymbolByName fetches the first symbol with an exact name match.
	// A non-empty filePath restricts the match to that exact file, which
	// disambiguates names defined in more than one file.
	GetSymbolByName(ctx context.Context, name, filePath string) (*SymbolRecord, error)

	// FindSymbolsByName finds symbols whose name contains the substring,
	// case-insensitive
	FindSymbolsByName(ctx context.Context, name string, limit int) ([]*SymbolRecord, error)

	// AllSymbols streams every stored symbol in embedding-id order
	AllSymbols(ctx context.Context) ([]*SymbolRecord, error)

	// Stats reports corpus counts
	Stats(ctx context.Context) (*Stats, error)

	// Clear removes all files and symbols
	Clear(ctx context.Context) error

	// Close releases the underlying database
	Close() error
}
