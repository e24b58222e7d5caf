package features

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/lspproto"
	"github.com/standardbeagle/lcserver/internal/posconv"
	"github.com/standardbeagle/lcserver/internal/selection"
	"github.com/standardbeagle/lcserver/internal/types"
)

// hoverCategory mirrors the classification set spec §4.12 names for hover:
// header, numeric literal, string literal, keyword, declaration reference,
// call expression, deduced type, expression (fallback).
type hoverCategory string

const (
	hoverHeader      hoverCategory = "header"
	hoverNumber      hoverCategory = "numeric literal"
	hoverString      hoverCategory = "string literal"
	hoverKeyword     hoverCategory = "keyword"
	hoverDeclRef     hoverCategory = "declaration reference"
	hoverCall        hoverCategory = "call expression"
	hoverDeducedType hoverCategory = "deduced type"
	hoverExpression  hoverCategory = "expression"
)

// classify assigns a hoverCategory to a selection leaf node, using its
// tree-sitter kind the same way internal/visitor dispatches on n.Kind().
func classify(n *sitter.Node) hoverCategory {
	switch n.Kind() {
	case "string_literal", "raw_string_literal", "char_literal":
		return hoverString
	case "number_literal":
		return hoverNumber
	case "call_expression":
		return hoverCall
	case "identifier", "field_identifier", "type_identifier", "namespace_identifier", "qualified_identifier":
		return hoverDeclRef
	case "auto", "placeholder_type_specifier":
		return hoverDeducedType
	case "preproc_include":
		return hoverHeader
	default:
		if !n.IsNamed() {
			return hoverKeyword
		}
		return hoverExpression
	}
}

// Hover locates the token at offset using the Selection Tree, classifies
// it, and renders a short Markdown hover record. Rendering is intentionally
// kept to a pure string-building function, per spec §4.12's "rendering to
// Markdown is a separate pure function" requirement.
func Hover(unit *frontend.CompilationUnit, fid types.FileID, offset uint32, enc posconv.Encoding) (*lspproto.HoverResult, bool) {
	node := selection.Tree(unit, fid, offset, offset)
	if node == nil || node.AST == nil {
		return nil, false
	}
	content, _ := unit.Content(fid)
	category := classify(node.AST)
	text := string(textOf(content, node.AST))

	md := renderHoverMarkdown(category, text, node.AST.Kind())
	r := toWireRange(content, node.Range, enc)
	return &lspproto.HoverResult{Contents: md, Range: &r}, true
}

// renderHoverMarkdown is the pure formatting step: category, spelled text,
// and the underlying grammar production, as a one-line code block plus a
// category caption.
func renderHoverMarkdown(category hoverCategory, text, kind string) string {
	return fmt.Sprintf("```cpp\n%s\n```\n*%s* (`%s`)", text, category, kind)
}
