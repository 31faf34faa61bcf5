package types

import "errors"

// SymbolKind represents the type of an extracted code symbol
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindClass    SymbolKind = "class"
	KindMethod   SymbolKind = "method"
)

// Symbol represents a named code unit extracted from a source file.
// The same shape is shared by every language extractor.
type Symbol struct {
	// Identification
	Name string
	Kind SymbolKind

	// Content
	Code      string // Exact source span of the symbol
	Docstring string // Optional documentation text

	// Location (1-indexed, inclusive)
	StartLine int
	EndLine   int

	// ParentClass is set for methods only: the name of the enclosing class
	ParentClass string
}

// Class is a class symbol together with its methods. Methods are kept for
// display and navigation; each method is also indexed as its own Symbol.
type Class struct {
	Symbol
	Methods []Symbol
}

// ExtractedFile is the result of extracting symbols from one source file
type ExtractedFile struct {
	Path       string
	Functions  []Symbol
	Classes    []Class
	TotalLines int
}

// Flatten returns every indexable symbol in insertion order: module-level
// functions first, then for each class the class itself followed by its
// methods. This ordering is the contract the indexing pipeline relies on
// when assigning embedding ids.
func (f *ExtractedFile) Flatten() []Symbol {
	out := make([]Symbol, 0, f.SymbolCount())

	out = append(out, f.Functions...)

	for i := range f.Classes {
		cls := &f.Classes[i]
		out = append(out, cls.Symbol)
		for _, m := range cls.Methods {
			m.Kind = KindMethod
			m.ParentClass = cls.Name
			out = append(out, m)
		}
	}

	return out
}

// SymbolCount returns the number of indexable symbols in the file
func (f *ExtractedFile) SymbolCount() int {
	n := len(f.Functions)
	for i := range f.Classes {
		n += 1 + len(f.Classes[i].Methods)
	}
	return n
}

// ValidateKind checks if the symbol kind is valid
func (s *Symbol) ValidateKind() error {
	switch s.Kind {
	case KindFunction, KindClass, KindMethod:
		return nil
	default:
		return errors.New("invalid symbol kind")
	}
}

// Validate performs comprehensive validation of the symbol
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return errors.New("symbol name is required")
	}

	if err := s.ValidateKind(); err != nil {
		return err
	}

	// Methods must carry their enclosing class
	if s.Kind == KindMethod && s.ParentClass == "" {
		return errors.New("methods must have a parent class")
	}

	if s.Kind != KindMethod && s.ParentClass != "" {
		return errors.New("only methods can have a parent class")
	}

	if s.StartLine <= 0 || s.EndLine <= 0 {
		return errors.New("invalid span: line numbers must be positive")
	}

	if s.StartLine > s.EndLine {
		return errors.New("invalid span: start line must be before or equal to end line")
	}

	return nil
}
