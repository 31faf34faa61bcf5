package extractor

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"go.uber.org/zap"

	"github.com/codescope/codescope/pkg/types"
)

// PythonExtractor extracts functions, classes and methods from Python source
// using the tree-sitter grammar.
type PythonExtractor struct {
	lang   *sitter.Language
	logger *zap.Logger
}

// NewPythonExtractor creates a Python extractor
func NewPythonExtractor(logger *zap.Logger) *PythonExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PythonExtractor{
		lang:   python.GetLanguage(),
		logger: logger,
	}
}

// Language returns the extractor's language label
func (p *PythonExtractor) Language() string {
	return "python"
}

// Extract parses src and walks the syntax tree collecting module-level
// functions and classes with their methods.
func (p *PythonExtractor) Extract(src []byte, path string) (*types.ExtractedFile, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrParseFailed, path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w: %s: syntax errors detected", types.ErrParseFailed, path)
	}

	result := &types.ExtractedFile{
		Path:       path,
		Functions:  p.collectFunctions(root, src, false),
		Classes:    p.collectClasses(root, src),
		TotalLines: countLines(string(src)) + 1,
	}

	p.logger.Debug("extracted python file",
		zap.String("path", path),
		zap.Int("functions", len(result.Functions)),
		zap.Int("classes", len(result.Classes)))

	return result, nil
}

// collectFunctions walks node recursively gathering function definitions.
// When insideClass is false, descent stops at class_definition nodes so that
// methods are not double-counted as module-level functions.
func (p *PythonExtractor) collectFunctions(node *sitter.Node, src []byte, insideClass bool) []types.Symbol {
	var funcs []types.Symbol

	if node.Type() == "function_definition" {
		if sym, ok := p.functionSymbol(node, src); ok {
			funcs = append(funcs, sym)
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if !insideClass && child.Type() == "class_definition" {
			continue
		}
		funcs = append(funcs, p.collectFunctions(child, src, insideClass)...)
	}

	return funcs
}

// collectClasses walks node recursively gathering class definitions
func (p *PythonExtractor) collectClasses(node *sitter.Node, src []byte) []types.Class {
	var classes []types.Class

	if node.Type() == "class_definition" {
		if cls, ok := p.classSymbol(node, src); ok {
			classes = append(classes, cls)
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		classes = append(classes, p.collectClasses(node.Child(i), src)...)
	}

	return classes
}

// functionSymbol converts a function_definition node into a Symbol
func (p *PythonExtractor) functionSymbol(node *sitter.Node, src []byte) (types.Symbol, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return types.Symbol{}, false
	}

	return types.Symbol{
		Name:      nameNode.Content(src),
		Kind:      types.KindFunction,
		Code:      string(src[node.StartByte():node.EndByte()]),
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Docstring: p.docstring(node, src),
	}, true
}

// classSymbol converts a class_definition node into a Class with its methods
func (p *PythonExtractor) classSymbol(node *sitter.Node, src []byte) (types.Class, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return types.Class{}, false
	}

	cls := types.Class{
		Symbol: types.Symbol{
			Name:      nameNode.Content(src),
			Kind:      types.KindClass,
			Code:      string(src[node.StartByte():node.EndByte()]),
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
			Docstring: p.docstring(node, src),
		},
	}

	if body := node.ChildByFieldName("body"); body != nil {
		cls.Methods = p.collectFunctions(body, src, true)
		for i := range cls.Methods {
			cls.Methods[i].Kind = types.KindMethod
			cls.Methods[i].ParentClass = cls.Name
		}
	}

	return cls, true
}

// docstring extracts the documentation string of a function or class: the
// first statement of the body when it is a bare string-literal expression.
func (p *PythonExtractor) docstring(node *sitter.Node, src []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}

	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}

	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}

	return stripStringQuotes(str.Content(src))
}

// stripStringQuotes removes surrounding quote characters and whitespace from
// a Python string literal, including triple-quoted forms and prefix letters.
func stripStringQuotes(s string) string {
	s = strings.TrimLeft(s, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			s = s[len(q) : len(s)-len(q)]
			break
		}
	}
	return strings.TrimSpace(s)
}
