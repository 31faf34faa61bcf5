// Package embedder generates dense vector embeddings for code symbols.
// Providers share a content-hash LRU cache and exponential-backoff retry;
// the hash provider gives deterministic offline vectors, the OpenAI
// provider calls the embeddings API.
package embedder
