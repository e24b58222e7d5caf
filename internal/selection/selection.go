// Package selection implements the Selection Tree (spec §4.8): given a
// CompilationUnit and a byte range in one file, builds a tree of AST nodes
// annotated with how much of each node's own (unclaimed) token set falls
// inside the selection.
//
// Grounded on original_source/src/AST/Selection.cpp for the claimed-range
// algorithm, re-expressed over tree-sitter nodes (StartByte()/EndByte()
// instead of clang SourceRanges) per SPEC_FULL.md §4.8.
package selection

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/types"
)

// Kind classifies how much of a node's own claimed tokens lie in the
// selection.
type Kind uint8

const (
	Unselected Kind = iota
	Partial
	Complete
)

// Node is one entry of the Selection Tree.
type Node struct {
	AST      *sitter.Node
	Range    types.LocalSourceRange
	Kind     Kind
	Children []*Node
}

// semanticallyIrrelevant is the set of leaf node kinds §4.8 says to skip:
// comments, semicolons, cv-qualifier keywords.
var semanticallyIrrelevant = map[string]bool{
	"comment":   true,
	";":         true,
	"const":     true,
	"volatile":  true,
	"restrict":  true,
}

// Tree builds the Selection Tree for [begin, end) within fid.
func Tree(unit *frontend.CompilationUnit, fid types.FileID, begin, end uint32) *Node {
	root := unit.Root(fid)
	if root == nil {
		return nil
	}
	sel := types.LocalSourceRange{Begin: begin, End: end}
	if sel.Begin == sel.End {
		return pointSelection(root, sel.Begin)
	}

	unclaimed := newIntervalSet(root.StartByte(), root.EndByte())
	node, _ := build(root, sel, unclaimed)
	return node
}

// build recurses in AST order (the grammar already yields declarations
// before their children), computing each node's claimed range as
// "node range minus what its descendants already claimed" after
// descending, so children claim their tokens first.
func build(n *sitter.Node, sel types.LocalSourceRange, unclaimed *intervalSet) (*Node, bool) {
	if n == nil || isImplicit(n) {
		return nil, false
	}
	nodeRange := types.LocalSourceRange{Begin: n.StartByte(), End: n.EndByte()}

	if n.ChildCount() == 0 {
		if semanticallyIrrelevant[n.Kind()] {
			return nil, false
		}
		claimed := unclaimed.claim(nodeRange)
		if len(claimed) == 0 {
			return nil, false
		}
		return &Node{AST: n, Range: nodeRange, Kind: classify(claimed, sel)}, true
	}

	var children []*Node
	for i := uint(0); i < n.ChildCount(); i++ {
		if child, ok := build(n.Child(i), sel, unclaimed); ok {
			children = append(children, child)
		}
	}

	claimed := unclaimed.claim(nodeRange)
	if len(claimed) == 0 && len(children) == 0 {
		return nil, false
	}
	kind := classify(claimed, sel)
	if len(children) > 0 {
		kind = combine(kind, children)
	}
	return &Node{AST: n, Range: nodeRange, Kind: kind, Children: children}, true
}

// classify compares the ranges actually attributable to a node (claimed)
// against the selection.
func classify(claimed []types.LocalSourceRange, sel types.LocalSourceRange) Kind {
	if len(claimed) == 0 {
		return Unselected
	}
	anyIn, anyOut := false, false
	for _, r := range claimed {
		if overlaps(r, sel) {
			if within(r, sel) {
				anyIn = true
			} else {
				anyIn = true
				anyOut = true
			}
		} else {
			anyOut = true
		}
	}
	switch {
	case anyIn && !anyOut:
		return Complete
	case anyIn:
		return Partial
	default:
		return Unselected
	}
}

// combine folds a node's own classification together with its children's,
// per §4.8: Complete only when every contributing token is inside.
func combine(self Kind, children []*Node) Kind {
	allComplete := self != Unselected
	anySelected := self != Unselected
	for _, c := range children {
		if c.Kind != Unselected {
			anySelected = true
		}
		if c.Kind != Complete {
			allComplete = false
		}
	}
	if self == Unselected && len(children) > 0 {
		allComplete = true
		for _, c := range children {
			if c.Kind != Complete {
				allComplete = false
			}
		}
	}
	switch {
	case !anySelected:
		return Unselected
	case allComplete:
		return Complete
	default:
		return Partial
	}
}

func overlaps(a, b types.LocalSourceRange) bool {
	return a.Begin < b.End && a.End > b.Begin
}

func within(a, b types.LocalSourceRange) bool {
	return a.Begin >= b.Begin && a.End <= b.End
}

// isImplicit reports whether a node has no written tokens of its own:
// implicit casts, compiler-synthesized `this`, implicit destructor calls.
// Tree-sitter's cpp grammar does not synthesize such nodes the way a real
// semantic AST does; the only nodes skipped here are the zero-width MISSING
// nodes tree-sitter inserts while recovering from a syntax error.
func isImplicit(n *sitter.Node) bool {
	return n.IsMissing()
}

// pointSelection handles a zero-length selection: probe up to two
// neighboring tokens and prefer the right-hand one (§4.8).
func pointSelection(root *sitter.Node, at uint32) *Node {
	left, right := neighboringLeaves(root, at)
	if right != nil {
		return &Node{AST: right, Range: types.LocalSourceRange{Begin: right.StartByte(), End: right.EndByte()}, Kind: Complete}
	}
	if left != nil {
		return &Node{AST: left, Range: types.LocalSourceRange{Begin: left.StartByte(), End: left.EndByte()}, Kind: Complete}
	}
	return nil
}

func neighboringLeaves(n *sitter.Node, at uint32) (left, right *sitter.Node) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.ChildCount() == 0 {
			if semanticallyIrrelevant[n.Kind()] {
				return
			}
			if n.EndByte() <= at {
				if left == nil || n.EndByte() > left.EndByte() {
					left = n
				}
			} else if n.StartByte() >= at {
				if right == nil || n.StartByte() < right.StartByte() {
					right = n
				}
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(n)
	return left, right
}

// Candidates exposes both trees for an ambiguous point selection, per
// §4.8's "expose an iterator returning both candidate trees" rule.
func Candidates(unit *frontend.CompilationUnit, fid types.FileID, at uint32) []*Node {
	root := unit.Root(fid)
	if root == nil {
		return nil
	}
	left, right := neighboringLeaves(root, at)
	var out []*Node
	if left != nil {
		out = append(out, &Node{AST: left, Range: types.LocalSourceRange{Begin: left.StartByte(), End: left.EndByte()}, Kind: Complete})
	}
	if right != nil {
		out = append(out, &Node{AST: right, Range: types.LocalSourceRange{Begin: right.StartByte(), End: right.EndByte()}, Kind: Complete})
	}
	return out
}

// intervalSet tracks the yet-unclaimed expanded tokens within [lo, hi), as
// a sorted list of disjoint half-open ranges.
type intervalSet struct {
	free []types.LocalSourceRange
}

func newIntervalSet(lo, hi uint32) *intervalSet {
	return &intervalSet{free: []types.LocalSourceRange{{Begin: lo, End: hi}}}
}

// claim removes rng ∩ free from the free set and returns the portions that
// were actually free (i.e. not already claimed by a descendant, which this
// post-order walk processes before its parent).
func (s *intervalSet) claim(rng types.LocalSourceRange) []types.LocalSourceRange {
	var claimed []types.LocalSourceRange
	var remaining []types.LocalSourceRange
	for _, f := range s.free {
		if f.End <= rng.Begin || f.Begin >= rng.End {
			remaining = append(remaining, f)
			continue
		}
		lo := max(f.Begin, rng.Begin)
		hi := min(f.End, rng.End)
		if lo < hi {
			claimed = append(claimed, types.LocalSourceRange{Begin: lo, End: hi})
		}
		if f.Begin < lo {
			remaining = append(remaining, types.LocalSourceRange{Begin: f.Begin, End: lo})
		}
		if f.End > hi {
			remaining = append(remaining, types.LocalSourceRange{Begin: hi, End: f.End})
		}
	}
	s.free = remaining
	return claimed
}

func max(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func min(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
