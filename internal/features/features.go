// Package features implements the Feature Adapters (spec §4.12): hover,
// completion, semantic tokens, document links, and inlay hints. Each
// adapter consumes a frontend.CompilationUnit (plus, where relevant, a
// point or range) and returns a plain lspproto result struct — the outer
// layer (cmd/lcserver) is the only thing that serializes it.
//
// Grounded on the teacher's internal/mcp/handlers*.go idiom: small adapter
// functions taking a snapshot/request and returning a result plus error,
// rather than a monolithic dispatcher. Node classification reuses the
// tagged-dispatch-over-n.Kind() style internal/visitor already applies, and
// field access goes through ChildByFieldName the same way internal/visitor
// does, rather than positional child indexing.
package features

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// textOf returns the bytes a node spans within content.
func textOf(content []byte, n *sitter.Node) []byte {
	if n == nil {
		return nil
	}
	b, e := n.StartByte(), n.EndByte()
	if e > uint32(len(content)) {
		e = uint32(len(content))
	}
	if b > e {
		return nil
	}
	return content[b:e]
}

// walkAll visits every node in the tree rooted at n, in the same document
// order internal/visitor's walk traversal produces.
func walkAll(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := uint(0); i < n.ChildCount(); i++ {
		walkAll(n.Child(i), visit)
	}
}
