package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SQLiteStore implements Store on SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// openDatabase opens SQLite with WAL mode, a single writer connection and
// foreign keys on.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore opens (or creates) the metadata database at dbPath and
// applies pending migrations.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Debug("opened metadata store",
		zap.String("path", dbPath),
		zap.String("driver", DriverName))

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddFile upserts a file record by path
func (s *SQLiteStore) AddFile(ctx context.Context, file *FileRecord) error {
	query := `
		INSERT INTO files (path, language, total_lines, symbol_count, indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language = excluded.language,
			total_lines = excluded.total_lines,
			symbol_count = excluded.symbol_count,
			indexed_at = excluded.indexed_at
	`
	now := time.Now()
	if _, err := s.db.ExecContext(ctx, query,
		file.Path, file.Language, file.TotalLines, file.SymbolCount, now); err != nil {
		return fmt.Errorf("failed to upsert file %s: %w", file.Path, err)
	}

	// The upsert path doesn't report the row id, so read it back.
	var id int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT id FROM files WHERE path = ?", file.Path).Scan(&id); err != nil {
		return fmt.Errorf("failed to read back file id for %s: %w", file.Path, err)
	}

	file.ID = id
	file.IndexedAt = now
	return nil
}

// GetFile fetches a file record by path
func (s *SQLiteStore) GetFile(ctx context.Context, path string) (*FileRecord, error) {
	query := `
		SELECT id, path, language, total_lines, symbol_count, indexed_at
		FROM files WHERE path = ?
	`
	var f FileRecord
	err := s.db.QueryRowContext(ctx, query, path).Scan(
		&f.ID, &f.Path, &f.Language, &f.TotalLines, &f.SymbolCount, &f.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFiles returns all indexed files ordered by path
func (s *SQLiteStore) ListFiles(ctx context.Context) ([]*FileRecord, error) {
	query := `
		SELECT id, path, language, total_lines, symbol_count, indexed_at
		FROM files ORDER BY path
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var files []*FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.TotalLines,
			&f.SymbolCount, &f.IndexedAt); err != nil {
			return nil, err
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

// AddSymbolsBatch inserts symbol records in a single transaction
func (s *SQLiteStore) AddSymbolsBatch(ctx context.Context, symbols []*SymbolRecord) error {
	if len(symbols) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols (embedding_id, file_id, name, kind, parent_class,
		                     docstring, code, start_line, end_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare symbol insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, sym := range symbols {
		if _, err := stmt.ExecContext(ctx,
			sym.EmbeddingID, sym.FileID, sym.Name, sym.Kind, sym.ParentClass,
			sym.Docstring, sym.Code, sym.StartLine, sym.EndLine); err != nil {
			return fmt.Errorf("failed to insert symbol %s: %w", sym.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit symbol batch: %w", err)
	}
	return nil
}

const symbolColumns = `
	s.embedding_id, s.file_id, f.path, s.name, s.kind, s.parent_class,
	s.docstring, s.code, s.start_line, s.end_line
`

func scanSymbol(scanner interface{ Scan(...any) error }) (*SymbolRecord, error) {
	var sym SymbolRecord
	var parentClass, docstring sql.NullString
	err := scanner.Scan(
		&sym.EmbeddingID, &sym.FileID, &sym.FilePath, &sym.Name, &sym.Kind,
		&parentClass, &docstring, &sym.Code, &sym.StartLine, &sym.EndLine)
	if err != nil {
		return nil, err
	}
	sym.ParentClass = parentClass.String
	sym.Docstring = docstring.String
	return &sym, nil
}

// GetSymbolsByEmbeddingIDs resolves embedding ids to symbol records in the
// order given. Ids with no record produce nil entries.
func (s *SQLiteStore) GetSymbolsByEmbeddingIDs(ctx context.Context, ids []int) ([]*SymbolRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT %s FROM symbols s
		JOIN files f ON f.id = s.file_id
		WHERE s.embedding_id IN (%s)
	`, symbolColumns, placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	byID := make(map[int]*SymbolRecord, len(ids))
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		byID[sym.EmbeddingID] = sym
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*SymbolRecord, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out, nil
}

// GetSymbolByName fetches the first symbol matching name exactly. A
// non-empty filePath narrows the match to symbols defined in that file.
func (s *SQLiteStore) GetSymbolByName(ctx context.Context, name, filePath string) (*SymbolRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM symbols s
		JOIN files f ON f.id = s.file_id
		WHERE s.name = ?
	`, symbolColumns)
	args := []any{name}

	if filePath != "" {
		query += " AND f.path = ?"
		args = append(args, filePath)
	}
	query += " ORDER BY s.embedding_id LIMIT 1"

	sym, err := scanSymbol(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sym, nil
}

// FindSymbolsByName finds symbols whose name contains the substring,
// case-insensitive, shortest names first so exact-ish matches lead.
func (s *SQLiteStore) FindSymbolsByName(ctx context.Context, name string, limit int) ([]*SymbolRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT %s FROM symbols s
		JOIN files f ON f.id = s.file_id
		WHERE LOWER(s.name) LIKE '%%' || LOWER(?) || '%%'
		ORDER BY LENGTH(s.name), s.name, s.embedding_id
		LIMIT ?
	`, symbolColumns)

	rows, err := s.db.QueryContext(ctx, query, name, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var symbols []*SymbolRecord
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// AllSymbols returns every stored symbol in embedding-id order
func (s *SQLiteStore) AllSymbols(ctx context.Context) ([]*SymbolRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM symbols s
		JOIN files f ON f.id = s.file_id
		ORDER BY s.embedding_id
	`, symbolColumns)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var symbols []*SymbolRecord
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// Stats reports file, symbol and per-kind counts
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByKind: make(map[string]int)}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(total_lines), 0) FROM files").
		Scan(&stats.TotalFiles, &stats.TotalLines)
	if err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, COUNT(*) FROM symbols GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("failed to count symbols: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats.ByKind[kind] = count
		stats.TotalSymbols += count
	}
	return stats, rows.Err()
}

// Clear removes all files and symbols
func (s *SQLiteStore) Clear(ctx context.Context) error {
	// files cascade onto symbols, but delete both explicitly in case
	// foreign keys are off in an exotic driver configuration
	if _, err := s.db.ExecContext(ctx, "DELETE FROM symbols"); err != nil {
		return fmt.Errorf("failed to clear symbols: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM files"); err != nil {
		return fmt.Errorf("failed to clear files: %w", err)
	}

	s.logger.Debug("metadata store cleared")
	return nil
}
