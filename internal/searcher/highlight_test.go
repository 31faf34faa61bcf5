package searcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlightWrapsTerms(t *testing.T) {
	out := Highlight("authenticate_user checks credentials", []string{"credentials"})
	assert.Equal(t, "authenticate_user checks **credentials**", out)
}

func TestHighlightCaseInsensitive(t *testing.T) {
	out := Highlight("Parse the Config file", []string{"config"})
	assert.Equal(t, "Parse the **Config** file", out)
}

func TestHighlightStripsMarker(t *testing.T) {
	out := Highlight("indexing in progress", []string{"~indexing"})
	assert.Equal(t, "**indexing** in progress", out)
}

func TestHighlightSkipsShortTerms(t *testing.T) {
	out := Highlight("a b c", []string{"a", "~b"})
	assert.Equal(t, "a b c", out)
}

func TestHighlightMultipleTerms(t *testing.T) {
	out := Highlight("load config from file", []string{"load", "file"})
	assert.Equal(t, "**load** config from **file**", out)
}

func TestHighlightEmpty(t *testing.T) {
	assert.Equal(t, "", Highlight("", []string{"x"}))
	assert.Equal(t, "text", Highlight("text", nil))
}
