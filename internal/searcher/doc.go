// Package searcher fuses lexical BM25 and semantic vector retrieval into a
// single ranked result list. Both arms run concurrently; keyword hits blend
// normalized BM25 with the semantic score, while embedding-only hits are
// capped below keyword relevance.
package searcher
