// Package types defines the shared data model for codescope: extracted
// symbols, per-file extraction results, and transient search results.
//
// A Symbol is a named code unit (function, class, or method) with its exact
// source span and optional docstring. Every language extractor produces the
// same Symbol shape; there are no language-specific record types.
//
// ExtractedFile.Flatten defines the canonical indexing order (functions,
// then each class followed by its methods), which the pipeline relies on
// when assigning dense embedding ids.
package types
