package types

// SearchResult represents a single ranked search hit. Results are transient:
// they are projected from the stores at query time and never persisted.
type SearchResult struct {
	// Identification
	SymbolName string
	Kind       SymbolKind

	// Location
	FilePath  string
	StartLine int
	EndLine   int

	// Content
	CodeSnippet string
	Docstring   string

	// Scoring
	Score float64 // Fused relevance score in [0,1]

	// Presentation
	MatchInfo            string // "Keywords: ..." or "Semantic similarity only"
	HighlightedName      string
	HighlightedDocstring string
}

// Validate checks if the search result is well formed
func (r *SearchResult) Validate() error {
	if r.SymbolName == "" {
		return ErrMissingSymbolName
	}

	if r.Score < 0 || r.Score > 1 {
		return ErrInvalidScore
	}

	if r.FilePath == "" {
		return ErrMissingFilePath
	}

	return nil
}
