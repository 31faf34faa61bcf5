package textsearch

import (
	"regexp"
	"strings"
	"unicode"
)

// tokenPattern extracts runs of letters optionally followed by digits, or
// pure digit runs. Input is lowercased first, so [a-z] is sufficient.
var tokenPattern = regexp.MustCompile(`[a-z]+[0-9]*|[0-9]+`)

// stopwords are language keywords and common English function words that
// carry no search signal in code.
var stopwords = map[string]bool{
	// python / general keywords
	"self": true, "def": true, "class": true, "return": true,
	"if": true, "else": true, "elif": true, "for": true,
	"while": true, "try": true, "except": true, "finally": true,
	"with": true, "as": true, "import": true, "from": true,
	"in": true, "is": true, "not": true, "and": true, "or": true,
	"none": true, "true": true, "false": true,
	// javascript / typescript keywords
	"function": true, "const": true, "let": true, "var": true,
	"async": true, "await": true, "export": true, "new": true,
	"this": true, "null": true, "undefined": true,
	// english function words
	"the": true, "a": true, "an": true, "of": true, "to": true,
	"that": true, "it": true, "be": true, "are": true,
}

// suffixes tried in order by the stemmer, most specific first
var stemSuffixes = []string{
	"tion", "sion", "ment", "ness", "able", "ible",
	"ing", "ed", "er", "est", "ly", "es", "s",
}

// Tokenize splits text into lowercase search terms; callers use it to tell
// whether a query carries any searchable signal at all.
func Tokenize(text string) []string {
	return tokenize(text)
}

// tokenize splits text into lowercase search terms. camelCase and
// snake_case identifiers split at their boundaries; tokens shorter than two
// characters and stopwords are dropped.
func tokenize(text string) []string {
	text = splitCamelCase(text)
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, "_", " ")

	raw := tokenPattern.FindAllString(text, -1)

	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if len(t) < 2 || stopwords[t] {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// splitCamelCase inserts a space between a lowercase letter and the
// uppercase letter that directly follows it.
func splitCamelCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	var prev rune
	for _, r := range s {
		if unicode.IsLower(prev) && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// stem strips the first matching suffix that leaves a stem of length >= 3;
// otherwise the word is returned unchanged.
func stem(word string) string {
	for _, suffix := range stemSuffixes {
		if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 3 {
			return word[:len(word)-len(suffix)]
		}
	}
	return word
}
