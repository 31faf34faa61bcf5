package types

import "errors"

// Domain errors shared across packages
var (
	// Extraction errors
	ErrParseFailed    = errors.New("parse failed")
	ErrUnsupportedExt = errors.New("unsupported file extension")

	// Search result errors
	ErrMissingSymbolName = errors.New("symbol name is required")
	ErrInvalidScore      = errors.New("score must be between 0 and 1")
	ErrMissingFilePath   = errors.New("file path is required")
)
