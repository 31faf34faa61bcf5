// Package vectorstore holds embedding vectors in a flat in-memory index
// with dense append-order ids and exact brute-force cosine search.
// Snapshots persist to a bolt database for fast cold starts.
package vectorstore
