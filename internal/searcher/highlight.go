package searcher

import (
	"regexp"
	"strings"
)

// Highlight wraps case-insensitive occurrences of each matched term in **
// markers. The non-literal "~" marker is stripped first and terms shorter
// than two characters are skipped, so single letters never litter the
// output.
func Highlight(text string, terms []string) string {
	if text == "" || len(terms) == 0 {
		return text
	}

	for _, term := range terms {
		term = strings.TrimPrefix(term, "~")
		if len(term) < 2 {
			continue
		}

		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(term))
		if err != nil {
			continue
		}
		text = re.ReplaceAllString(text, "**$0**")
	}

	return text
}
