// Package extractor turns raw source text into typed symbol records.
//
// Two language variants share one contract:
//
//   - PythonExtractor walks a tree-sitter syntax tree. function_definition
//     nodes become functions unless lexically nested in a class_definition,
//     in which case they attach to the class as methods. Docstrings come
//     from the first statement of the body when it is a bare string literal.
//
//   - ScriptExtractor (.js/.jsx/.ts/.tsx) is grammar-free: ordered regex
//     pattern families find candidate declarations and a brace-matching
//     state machine locates block ends. Capitalized callable bindings are
//     treated as React components.
//
// Both variants return an error wrapping types.ErrParseFailed for broken
// input; the indexing pipeline counts the file as failed and continues.
package extractor
