package features

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/lspproto"
	"github.com/standardbeagle/lcserver/internal/posconv"
	"github.com/standardbeagle/lcserver/internal/types"
)

// skippedCallNames are the builtin call-argument-name hint exclusions named
// in spec §4.12.
var skippedCallNames = map[string]bool{
	"move": true, "forward": true, "addressof": true, "as_const": true, "move_if_noexcept": true,
}

// InlayHints emits hints for auto/structured-binding declarations,
// non-trailing function return types, and call-argument names, per spec
// §4.12. Designated-initializer names get no hints. Deduced types are approximated from
// the initializer's literal kind rather than real type checking — this
// package has no semantic type system, only tree-sitter's syntax.
func InlayHints(unit *frontend.CompilationUnit, fid types.FileID, enc posconv.Encoding) []lspproto.InlayHint {
	root := unit.Root(fid)
	if root == nil {
		return nil
	}
	content, _ := unit.Content(fid)

	var hints []lspproto.InlayHint
	walkAll(root, func(n *sitter.Node) {
		switch n.Kind() {
		case "declaration":
			hints = append(hints, autoDeclHints(content, n, enc)...)
		case "function_definition":
			hints = append(hints, returnTypeHint(content, n, enc)...)
		case "call_expression":
			hints = append(hints, callArgumentHints(content, n, enc)...)
		}
	})
	return hints
}

// autoDeclHints handles "auto x = ...;" and structured bindings: the
// declared type is unknown, so the hint names the initializer's surface
// kind as a stand-in for the deduced type.
func autoDeclHints(content []byte, decl *sitter.Node, enc posconv.Encoding) []lspproto.InlayHint {
	typeNode := decl.ChildByFieldName("type")
	if typeNode == nil || !isAutoSpecifier(content, typeNode) {
		return nil
	}

	var hints []lspproto.InlayHint
	for i := uint(0); i < decl.ChildCount(); i++ {
		d := decl.Child(i)
		if d.Kind() != "init_declarator" {
			continue
		}
		declarator := d.ChildByFieldName("declarator")
		init := d.ChildByFieldName("value")
		if declarator == nil {
			continue
		}
		label := deducedTypeLabel(init)
		pos := posconv.ToPosition(content, int(declarator.EndByte()), enc)
		hints = append(hints, lspproto.InlayHint{
			Position: lspproto.Position{Line: pos.Line, Character: pos.Character},
			Label:    []lspproto.InlayHintLabelPart{{Value: ": " + label}},
		})
	}
	return hints
}

func isAutoSpecifier(content []byte, n *sitter.Node) bool {
	return string(textOf(content, n)) == "auto"
}

func deducedTypeLabel(init *sitter.Node) string {
	if init == nil {
		return "<deduced>"
	}
	switch init.Kind() {
	case "true", "false":
		return "bool"
	case "number_literal":
		return "auto" // without a real type system, int vs. float vs. double isn't distinguishable here
	case "string_literal":
		return "std::string"
	case "char_literal":
		return "char"
	default:
		return "<deduced>"
	}
}

// returnTypeHint emits a hint for a function's non-trailing return type
// when the written type is "auto" (the trailing-return-type form already
// spells the type explicitly and is excluded).
func returnTypeHint(content []byte, fn *sitter.Node, enc posconv.Encoding) []lspproto.InlayHint {
	typeNode := fn.ChildByFieldName("type")
	if typeNode == nil || !isAutoSpecifier(content, typeNode) {
		return nil
	}
	declarator := fn.ChildByFieldName("declarator")
	if declarator == nil {
		return nil
	}
	for i := uint(0); i < declarator.ChildCount(); i++ {
		if c := declarator.Child(i); c != nil && c.Kind() == "trailing_return_type" {
			return nil
		}
	}
	pos := posconv.ToPosition(content, int(typeNode.EndByte()), enc)
	return []lspproto.InlayHint{{
		Position: lspproto.Position{Line: pos.Line, Character: pos.Character},
		Label:    []lspproto.InlayHintLabelPart{{Value: " /* -> deduced */"}},
	}}
}

// callArgumentHints emits a parameter-name hint ahead of each positional
// argument, found by locating a same-file function_definition whose name
// matches the callee — the in-file heuristic this package substitutes for
// full overload resolution.
func callArgumentHints(content []byte, call *sitter.Node, enc posconv.Encoding) []lspproto.InlayHint {
	fn := call.ChildByFieldName("function")
	args := call.ChildByFieldName("arguments")
	if fn == nil || args == nil || fn.Kind() != "identifier" {
		return nil
	}
	name := string(textOf(content, fn))
	if skippedCallNames[name] {
		return nil
	}

	params := lookupParamNames(content, call, name)
	if len(params) == 0 {
		return nil
	}

	var hints []lspproto.InlayHint
	idx := 0
	for i := uint(0); i < args.ChildCount(); i++ {
		arg := args.Child(i)
		if !arg.IsNamed() {
			continue
		}
		if idx < len(params) && params[idx] != "" {
			pos := posconv.ToPosition(content, int(arg.StartByte()), enc)
			hints = append(hints, lspproto.InlayHint{
				Position: lspproto.Position{Line: pos.Line, Character: pos.Character},
				Label:    []lspproto.InlayHintLabelPart{{Value: params[idx] + ": "}},
			})
		}
		idx++
	}
	return hints
}

// lookupParamNames walks up to the translation unit root from call and
// scans its siblings for a function_definition named name, returning its
// parameter identifier names in order.
func lookupParamNames(content []byte, call *sitter.Node, name string) []string {
	root := call
	for root.Parent() != nil {
		root = root.Parent()
	}

	var params []string
	walkAll(root, func(n *sitter.Node) {
		if params != nil || n.Kind() != "function_definition" {
			return
		}
		declarator := n.ChildByFieldName("declarator")
		for declarator != nil && declarator.Kind() != "function_declarator" {
			declarator = declarator.ChildByFieldName("declarator")
		}
		if declarator == nil {
			return
		}
		fnName := declarator.ChildByFieldName("declarator")
		if fnName == nil || string(textOf(content, fnName)) != name {
			return
		}
		paramList := declarator.ChildByFieldName("parameters")
		if paramList == nil {
			return
		}
		var names []string
		for i := uint(0); i < paramList.ChildCount(); i++ {
			p := paramList.Child(i)
			if p.Kind() != "parameter_declaration" {
				continue
			}
			d := p.ChildByFieldName("declarator")
			names = append(names, string(textOf(content, d)))
		}
		params = names
	})
	return params
}
