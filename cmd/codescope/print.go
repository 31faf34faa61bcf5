package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/codescope/codescope/pkg/types"
)

const timeRounding = time.Millisecond

// printResults renders ranked hits in a compact terminal layout
func printResults(results []types.SearchResult) {
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}

	for i, r := range results {
		fmt.Printf("%2d. %s (%s) %.3f\n", i+1, r.SymbolName, r.Kind, r.Score)
		fmt.Printf("    %s:%d-%d\n", r.FilePath, r.StartLine, r.EndLine)
		if r.MatchInfo != "" {
			fmt.Printf("    %s\n", r.MatchInfo)
		}
		if r.Docstring != "" {
			fmt.Printf("    %s\n", firstLine(r.Docstring))
		}
	}
}

// printSymbol renders one symbol with its full code
func printSymbol(r types.SearchResult) {
	fmt.Printf("%s (%s)\n", r.SymbolName, r.Kind)
	fmt.Printf("%s:%d-%d\n", r.FilePath, r.StartLine, r.EndLine)
	if r.Docstring != "" {
		fmt.Printf("\n%s\n", r.Docstring)
	}
	fmt.Printf("\n%s\n", r.CodeSnippet)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
