// Package textsearch implements BM25 lexical search over extracted code
// symbols. Identifiers are split at camelCase and snake_case boundaries,
// lightly stemmed, and indexed twice (raw and stemmed). Queries expand
// through a code-domain synonym table, with single-edit fuzzy recovery for
// short queries that match nothing.
package textsearch
