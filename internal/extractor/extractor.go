package extractor

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/codescope/codescope/pkg/types"
)

// Extractor turns one source file's text into a list of typed symbols
type Extractor interface {
	// Extract parses src and returns the file's functions and classes.
	// Unparseable input returns an error wrapping types.ErrParseFailed;
	// callers are expected to count the failure and continue.
	Extract(src []byte, path string) (*types.ExtractedFile, error)

	// Language returns the extractor's language label
	Language() string
}

// Registry dispatches files to the extractor registered for their extension
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry creates a registry with the default language extractors:
// tree-sitter Python for .py, the regex script extractor for .js/.jsx/.ts/.tsx.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	py := NewPythonExtractor(logger)
	js := NewScriptExtractor(logger)

	return &Registry{
		byExt: map[string]Extractor{
			".py":  py,
			".js":  js,
			".jsx": js,
			".ts":  js,
			".tsx": js,
		},
	}
}

// Register maps a file extension (with leading dot) to an extractor
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// ForPath returns the extractor for the file's extension, or false when the
// extension is not indexable.
func (r *Registry) ForPath(path string) (Extractor, bool) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

// Extensions returns the set of registered file extensions
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}
