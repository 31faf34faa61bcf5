// Package indexer drives the indexing pipeline: walk the source tree,
// extract symbols, embed them and write the three stores (vectors,
// metadata, text index) with aligned embedding ids.
package indexer
