package textsearch

import (
	"math"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// BM25 parameters: k1 controls term-frequency saturation, b controls
// document-length normalization.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75

	// stemPrefix namespaces stemmed terms inside the inverted index so
	// they never collide with raw tokens.
	stemPrefix = "stem:"

	// expandedWeight down-weights scores that only matched through
	// synonym/stem expansion rather than the literal query.
	expandedWeight = 0.7

	// fuzzy recovery bounds
	fuzzyMinTokenLen   = 4
	fuzzyMaxQueryLen   = 3
	fuzzyLenWindow     = 2
	fuzzyMaxEditDist   = 1
	fuzzyMatchesPerTok = 5
)

// Document is the indexable projection of a symbol
type Document struct {
	Name      string
	Kind      string
	Code      string
	Docstring string
}

// Entry pairs a document with its embedding id
type Entry struct {
	ID  int
	Doc Document
}

// Result is one ranked lexical hit. MatchedTerms lists the query terms that
// contributed; a "~" prefix marks a non-literal (stem, synonym or fuzzy)
// match.
type Result struct {
	ID           int
	Score        float64
	MatchedTerms []string
}

// Stats summarizes the index state
type Stats struct {
	TotalDocuments int
	UniqueTerms    int
	AvgDocLength   float64
}

// indexedDoc holds the per-document token data needed for BM25 scoring
type indexedDoc struct {
	tokens     []string
	stemmed    []string
	tokenSet   map[string]bool
	stemmedSet map[string]bool
}

// Engine is a from-scratch BM25 inverted-index search engine over symbol
// documents. Reads may run concurrently; writes are serialized internally.
type Engine struct {
	k1 float64
	b  float64

	mu           sync.RWMutex
	docs         map[int]*indexedDoc
	inverted     map[string]map[int]struct{}
	docLengths   map[int]int
	avgDocLength float64

	logger *zap.Logger
}

// New creates a BM25 engine with the default parameters
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		k1:         DefaultK1,
		b:          DefaultB,
		docs:       make(map[int]*indexedDoc),
		inverted:   make(map[string]map[int]struct{}),
		docLengths: make(map[int]int),
		logger:     logger,
	}
}

// searchableText builds the weighted text for a document: the name counts
// three times, the docstring twice, code and kind once.
func searchableText(doc Document) string {
	parts := []string{
		doc.Name, doc.Name, doc.Name,
		doc.Docstring, doc.Docstring,
		doc.Code,
		doc.Kind,
	}
	return strings.Join(parts, " ")
}

// AddDocuments indexes a batch of documents. The running average document
// length is recomputed once at the end of the batch.
func (e *Engine) AddDocuments(entries []Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, entry := range entries {
		tokens := tokenize(searchableText(entry.Doc))
		stemmed := make([]string, len(tokens))
		for i, t := range tokens {
			stemmed[i] = stem(t)
		}

		doc := &indexedDoc{
			tokens:     tokens,
			stemmed:    stemmed,
			tokenSet:   make(map[string]bool, len(tokens)),
			stemmedSet: make(map[string]bool, len(stemmed)),
		}

		for _, t := range tokens {
			doc.tokenSet[t] = true
		}
		for _, t := range stemmed {
			doc.stemmedSet[t] = true
		}

		e.docs[entry.ID] = doc
		e.docLengths[entry.ID] = len(tokens)

		for t := range doc.tokenSet {
			e.addPosting(t, entry.ID)
		}
		for t := range doc.stemmedSet {
			e.addPosting(stemPrefix+t, entry.ID)
		}
	}

	e.recomputeAvgLength()

	e.logger.Debug("indexed documents", zap.Int("count", len(entries)),
		zap.Int("total", len(e.docs)))
}

func (e *Engine) addPosting(term string, id int) {
	postings, ok := e.inverted[term]
	if !ok {
		postings = make(map[int]struct{})
		e.inverted[term] = postings
	}
	postings[id] = struct{}{}
}

func (e *Engine) recomputeAvgLength() {
	if len(e.docs) == 0 {
		e.avgDocLength = 0
		return
	}
	total := 0
	for _, l := range e.docLengths {
		total += l
	}
	e.avgDocLength = float64(total) / float64(len(e.docs))
}

// idf computes ln((N - df + 0.5)/(df + 0.5) + 1), which is non-negative for
// any df <= N and decreases as df grows.
func (e *Engine) idf(term string) float64 {
	df := len(e.inverted[term])
	if df == 0 {
		return 0
	}
	n := float64(len(e.docs))
	return math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1)
}

// expandQuery adds, for every query token, its stem and the synonym-table
// entries keyed by the token or its stem (plus their stems). Order is
// deterministic: originals first, then expansions in discovery order.
func expandQuery(tokens []string) []string {
	var expanded []string
	seen := make(map[string]bool)

	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			expanded = append(expanded, t)
		}
	}

	for _, t := range tokens {
		add(t)
	}
	for _, t := range tokens {
		st := stem(t)
		add(st)

		for _, syn := range synonyms[t] {
			add(syn)
			add(stem(syn))
		}
		for _, syn := range synonyms[st] {
			add(syn)
			add(stem(syn))
		}
	}

	return expanded
}

// bm25Score sums the BM25 contribution of every query term that matches the
// document, either as an exact raw token or through its stem. Stemmed
// matches are reported with a "~" prefix.
func (e *Engine) bm25Score(id int, terms []string) (float64, []string) {
	doc, ok := e.docs[id]
	if !ok {
		return 0, nil
	}

	docLen := float64(e.docLengths[id])
	score := 0.0
	var matched []string

	for _, term := range terms {
		var tf float64
		var idf float64

		switch {
		case doc.tokenSet[term]:
			tf = float64(countOf(doc.tokens, term))
			idf = e.idf(term)
			matched = append(matched, term)
		case doc.stemmedSet[stem(term)]:
			tf = float64(countOf(doc.stemmed, stem(term)))
			idf = e.idf(stemPrefix + stem(term))
			matched = append(matched, "~"+term)
		default:
			continue
		}

		numerator := tf * (e.k1 + 1)
		denominator := tf + e.k1*(1-e.b+e.b*docLen/e.avgDocLength)
		score += idf * numerator / denominator
	}

	return score, matched
}

func countOf(tokens []string, term string) int {
	n := 0
	for _, t := range tokens {
		if t == term {
			n++
		}
	}
	return n
}

// fuzzyMatches finds indexed raw terms within edit distance 1 of token,
// considering only terms of comparable length. Results are alphabetical so
// recovery is deterministic.
func (e *Engine) fuzzyMatches(token string) []string {
	minLen := len(token) - fuzzyLenWindow
	if minLen < 1 {
		minLen = 1
	}
	maxLen := len(token) + fuzzyLenWindow

	var matches []string
	for term := range e.inverted {
		if strings.HasPrefix(term, stemPrefix) {
			continue
		}
		if len(term) < minLen || len(term) > maxLen {
			continue
		}
		if d := levenshtein(token, term); d > 0 && d <= fuzzyMaxEditDist {
			matches = append(matches, term)
		}
	}

	sort.Strings(matches)
	if len(matches) > fuzzyMatchesPerTok {
		matches = matches[:fuzzyMatchesPerTok]
	}
	return matches
}

// Search ranks documents against the query by BM25. Candidates come from
// the expanded token set (stems and synonyms); when nothing matches a short
// query, fuzzy recovery kicks in. Candidates are scored against the
// original query tokens first; only documents with no literal relevance
// fall back to the expanded set at reduced weight.
func (e *Engine) Search(query string, limit int) []Result {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.docs) == 0 {
		return nil
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	expanded := expandQuery(queryTokens)

	candidates := make(map[int]struct{})
	for _, tok := range expanded {
		for id := range e.inverted[tok] {
			candidates[id] = struct{}{}
		}
		for id := range e.inverted[stemPrefix+stem(tok)] {
			candidates[id] = struct{}{}
		}
	}

	if len(candidates) == 0 && len(queryTokens) <= fuzzyMaxQueryLen {
		for _, tok := range queryTokens {
			if len(tok) < fuzzyMinTokenLen {
				continue
			}
			for _, term := range e.fuzzyMatches(tok) {
				expanded = append(expanded, term)
				for id := range e.inverted[term] {
					candidates[id] = struct{}{}
				}
			}
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	results := make([]Result, 0, len(candidates))
	for id := range candidates {
		score, matched := e.bm25Score(id, queryTokens)

		if score == 0 {
			expScore, expMatched := e.bm25Score(id, expanded)
			score = expScore * expandedWeight
			matched = markNonLiteral(expMatched)
		}

		if score > 0 {
			results = append(results, Result{ID: id, Score: score, MatchedTerms: matched})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// markNonLiteral prefixes every matched term with "~", leaving terms that
// already carry the marker alone.
func markNonLiteral(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		if strings.HasPrefix(t, "~") {
			out[i] = t
		} else {
			out[i] = "~" + t
		}
	}
	return out
}

// Autocomplete suggests indexed raw terms matching the prefix, most common
// first.
func (e *Engine) Autocomplete(prefix string, limit int) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len(prefix) < 2 {
		return nil
	}

	type suggestion struct {
		term string
		df   int
	}

	var matches []suggestion
	for term, postings := range e.inverted {
		if strings.HasPrefix(term, stemPrefix) {
			continue
		}
		if strings.HasPrefix(term, prefix) {
			matches = append(matches, suggestion{term, len(postings)})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].df != matches[j].df {
			return matches[i].df > matches[j].df
		}
		return matches[i].term < matches[j].term
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.term
	}
	return out
}

// PopularTerms returns the raw terms with the largest posting lists
func (e *Engine) PopularTerms(limit int) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	type termDF struct {
		term string
		df   int
	}

	terms := make([]termDF, 0, len(e.inverted))
	for term, postings := range e.inverted {
		if strings.HasPrefix(term, stemPrefix) {
			continue
		}
		terms = append(terms, termDF{term, len(postings)})
	}

	sort.Slice(terms, func(i, j int) bool {
		if terms[i].df != terms[j].df {
			return terms[i].df > terms[j].df
		}
		return terms[i].term < terms[j].term
	})

	if limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}

	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.term
	}
	return out
}

// Clear empties the index
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.docs = make(map[int]*indexedDoc)
	e.inverted = make(map[string]map[int]struct{})
	e.docLengths = make(map[int]int)
	e.avgDocLength = 0

	e.logger.Debug("text index cleared")
}

// IndexStats reports index size
func (e *Engine) IndexStats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	unique := 0
	for term := range e.inverted {
		if !strings.HasPrefix(term, stemPrefix) {
			unique++
		}
	}

	return Stats{
		TotalDocuments: len(e.docs),
		UniqueTerms:    unique,
		AvgDocLength:   e.avgDocLength,
	}
}
