package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/codescope/codescope/pkg/types"
)

// Pattern families for candidate declarations, matched in order. Each
// pattern's first capture group is the symbol name and the match ends on the
// block opener handed to the block scanner.
var (
	scriptFuncPatterns = []*regexp.Regexp{
		// function declarations, possibly export/async qualified
		regexp.MustCompile(`(?m)(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\([^)]*\)\s*(?::\s*\w+(?:<[^>]+>)?)?\s*\{`),
		// arrow functions bound to const/let/var
		regexp.MustCompile(`(?m)(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?\([^)]*\)\s*(?::\s*\w+(?:<[^>]+>)?)?\s*=>\s*[{(]`),
		// bare method shorthand
		regexp.MustCompile(`(?m)^\s*(?:async\s+)?(\w+)\s*\([^)]*\)\s*(?::\s*\w+(?:<[^>]+>)?)?\s*\{`),
	}

	scriptClassPattern = regexp.MustCompile(`(?m)(?:export\s+)?class\s+(\w+)(?:\s+extends\s+\w+)?\s*(?:implements\s+[\w,\s]+)?\s*\{`)

	// React-style function components: capitalized const/function bindings
	scriptComponentPattern = regexp.MustCompile(`(?m)(?:export\s+)?(?:const|function)\s+(\w+)\s*(?::\s*(?:React\.)?FC(?:<[^>]+>)?)?\s*=?\s*\([^)]*\)\s*(?::\s*\w+(?:<[^>]+>)?)?\s*(?:=>)?\s*[{(]`)

	scriptMethodPattern = regexp.MustCompile(`(?m)(?:async\s+)?(\w+)\s*\([^)]*\)\s*(?::\s*\w+(?:<[^>]+>)?)?\s*\{`)

	jsdocPattern = regexp.MustCompile(`(?s)/\*\*\s*(.*?)\s*\*/\s*$`)
	jsdocStar    = regexp.MustCompile(`(?m)^\s*\*\s?`)
)

// Names that look like declarations but are control flow
var controlKeywords = map[string]bool{
	"if":     true,
	"for":    true,
	"while":  true,
	"switch": true,
	"catch":  true,
}

// jsdocWindow is how far back to look for a preceding JSDoc block
const jsdocWindow = 500

// ScriptExtractor extracts symbols from JavaScript and TypeScript source
// using text scanning: regex pattern families for declarations plus a
// brace-matching scanner for block ends. No grammar is involved, which keeps
// it tolerant of the dialect soup (.js/.jsx/.ts/.tsx).
type ScriptExtractor struct {
	logger *zap.Logger
}

// NewScriptExtractor creates a JS/TS extractor
func NewScriptExtractor(logger *zap.Logger) *ScriptExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScriptExtractor{logger: logger}
}

// Language returns the extractor's language label
func (s *ScriptExtractor) Language() string {
	return "javascript"
}

// Extract scans src for function, component and class declarations
func (s *ScriptExtractor) Extract(src []byte, path string) (*types.ExtractedFile, error) {
	source := string(src)

	result := &types.ExtractedFile{
		Path:       path,
		Functions:  s.extractFunctions(source),
		Classes:    s.extractClasses(source),
		TotalLines: countLines(source) + 1,
	}

	s.logger.Debug("extracted script file",
		zap.String("path", path),
		zap.Int("functions", len(result.Functions)),
		zap.Int("classes", len(result.Classes)))

	return result, nil
}

// extractFunctions applies the pattern families in order, then the React
// component heuristic. Duplicate matches from overlapping patterns are
// suppressed by (name, start line).
func (s *ScriptExtractor) extractFunctions(source string) []types.Symbol {
	var funcs []types.Symbol

	seen := func(name string, startLine int) bool {
		for _, f := range funcs {
			if f.Name == name && f.StartLine == startLine {
				return true
			}
		}
		return false
	}

	for _, pattern := range scriptFuncPatterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(source, -1) {
			name := source[loc[2]:loc[3]]
			if name == "" || controlKeywords[name] {
				continue
			}

			startLine := countLines(source[:loc[0]]) + 1
			if seen(name, startLine) {
				continue
			}

			code, endLine := extractBlock(source, loc[0], loc[1]-1, startLine)

			funcs = append(funcs, types.Symbol{
				Name:      name,
				Kind:      types.KindFunction,
				Code:      code,
				StartLine: startLine,
				EndLine:   endLine,
				Docstring: s.findJSDoc(source, loc[0]),
			})
		}
	}

	// React components: capitalized bindings whose value is callable
	for _, loc := range scriptComponentPattern.FindAllStringSubmatchIndex(source, -1) {
		name := source[loc[2]:loc[3]]
		if name == "" || !unicode.IsUpper(rune(name[0])) {
			continue
		}

		// Overlap with the function patterns is common: annotate the
		// existing record instead of emitting a duplicate.
		duplicate := false
		for i := range funcs {
			if funcs[i].Name == name {
				if funcs[i].Docstring == "" {
					funcs[i].Docstring = "React component: " + name
				}
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		startLine := countLines(source[:loc[0]]) + 1
		code, endLine := extractBlock(source, loc[0], loc[1]-1, startLine)

		doc := s.findJSDoc(source, loc[0])
		if doc == "" {
			doc = "React component: " + name
		}

		funcs = append(funcs, types.Symbol{
			Name:      name,
			Kind:      types.KindFunction,
			Code:      code,
			StartLine: startLine,
			EndLine:   endLine,
			Docstring: doc,
		})
	}

	return funcs
}

// extractClasses finds class declarations and their methods
func (s *ScriptExtractor) extractClasses(source string) []types.Class {
	var classes []types.Class

	for _, loc := range scriptClassPattern.FindAllStringSubmatchIndex(source, -1) {
		name := source[loc[2]:loc[3]]
		startLine := countLines(source[:loc[0]]) + 1
		code, endLine := extractBlock(source, loc[0], loc[1]-1, startLine)

		classes = append(classes, types.Class{
			Symbol: types.Symbol{
				Name:      name,
				Kind:      types.KindClass,
				Code:      code,
				StartLine: startLine,
				EndLine:   endLine,
				Docstring: s.findJSDoc(source, loc[0]),
			},
			Methods: s.extractMethods(code, startLine),
		})

		cls := &classes[len(classes)-1]
		for i := range cls.Methods {
			cls.Methods[i].ParentClass = cls.Name
		}
	}

	return classes
}

// extractMethods scans a class body for method declarations. The class
// header line itself never matches because "class" requires a following
// block opener, not a parameter list.
func (s *ScriptExtractor) extractMethods(classCode string, classStart int) []types.Symbol {
	var methods []types.Symbol

	for _, loc := range scriptMethodPattern.FindAllStringSubmatchIndex(classCode, -1) {
		name := classCode[loc[2]:loc[3]]
		if controlKeywords[name] {
			continue
		}

		startLine := classStart + countLines(classCode[:loc[0]])
		code, endLine := extractBlock(classCode, loc[0], loc[1]-1, startLine)

		methods = append(methods, types.Symbol{
			Name:      name,
			Kind:      types.KindMethod,
			Code:      code,
			StartLine: startLine,
			EndLine:   endLine,
		})
	}

	return methods
}

// findJSDoc looks for a /** ... */ block ending just before pos. The leading
// * of each line is stripped and the summary stops at the first @tag line.
func (s *ScriptExtractor) findJSDoc(source string, pos int) string {
	windowStart := pos - jsdocWindow
	if windowStart < 0 {
		windowStart = 0
	}

	m := jsdocPattern.FindStringSubmatch(source[windowStart:pos])
	if m == nil {
		return ""
	}

	doc := jsdocStar.ReplaceAllString(m[1], "")

	var brief []string
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "@") {
			break
		}
		brief = append(brief, line)
	}

	return strings.TrimSpace(strings.Join(brief, " "))
}
