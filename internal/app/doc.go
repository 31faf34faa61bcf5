// Package app assembles the engine from configuration and exposes the
// operations the CLI drives: index, search, similar, symbol lookup,
// suggestions, stats and clear. Mutations hold a writer lock; queries
// share a reader lock.
package app
