package features

import (
	"bytes"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/lspproto"
	"github.com/standardbeagle/lcserver/internal/posconv"
	"github.com/standardbeagle/lcserver/internal/types"
)

// Token type indices for the semantic-tokens legend (spec §4.12: "keyword
// vs. identifier vs. reference-of-class, etc.").
const (
	TokKeyword uint32 = iota
	TokIdentifier
	TokType
	TokNamespace
	TokFunction
	TokNumber
	TokString
	TokComment
	TokOperator
)

// Token modifier bits.
const (
	ModDeclaration uint32 = 1 << iota
	ModDefinition
	ModConst
	ModOverloaded
	ModTyped
	ModTemplated
)

var typeKinds = map[string]bool{
	"type_identifier": true, "primitive_type": true, "placeholder_type_specifier": true,
	"sized_type_specifier": true, "auto": true,
}

var numberKinds = map[string]bool{"number_literal": true}
var stringKinds = map[string]bool{"string_literal": true, "raw_string_literal": true, "char_literal": true}
var commentKinds = map[string]bool{"comment": true}
var namespaceKinds = map[string]bool{"namespace_identifier": true}

// leafTokenType classifies one AST leaf into a semantic-token type. Keyword
// detection relies on tree-sitter-cpp emitting reserved words as anonymous
// (unnamed) leaf nodes, the same convention internal/selection's
// semanticallyIrrelevant set assumes for punctuation.
func leafTokenType(n *sitter.Node, parentKind string) uint32 {
	switch {
	case commentKinds[n.Kind()]:
		return TokComment
	case stringKinds[n.Kind()]:
		return TokString
	case numberKinds[n.Kind()]:
		return TokNumber
	case namespaceKinds[n.Kind()]:
		return TokNamespace
	case typeKinds[n.Kind()]:
		return TokType
	case n.Kind() == "identifier" || n.Kind() == "field_identifier":
		if parentKind == "function_declarator" || parentKind == "call_expression" {
			return TokFunction
		}
		return TokIdentifier
	case !n.IsNamed():
		if isWordByte(n.Kind()) {
			return TokKeyword
		}
		return TokOperator
	default:
		return TokIdentifier
	}
}

func isWordByte(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func leafModifiers(n *sitter.Node, parentKind string) uint32 {
	var mods uint32
	switch parentKind {
	case "init_declarator", "function_definition", "declaration":
		mods |= ModDeclaration
	}
	return mods
}

type rawToken struct {
	begin, end uint32
	tokType    uint32
	mods       uint32
}

// SemanticTokens walks every leaf token in fid and flattens the result into
// the 5-tuple-per-token payload of spec §6, splitting any token whose
// spelling spans multiple lines (block comments, raw string literals) into
// one token per line.
func SemanticTokens(unit *frontend.CompilationUnit, fid types.FileID, enc posconv.Encoding) lspproto.SemanticTokens {
	root := unit.Root(fid)
	if root == nil {
		return lspproto.SemanticTokens{}
	}
	content, _ := unit.Content(fid)

	var raw []rawToken
	var walk func(n, parent *sitter.Node)
	walk = func(n, parent *sitter.Node) {
		if n == nil {
			return
		}
		if n.ChildCount() == 0 {
			if n.EndByte() > n.StartByte() {
				parentKind := ""
				if parent != nil {
					parentKind = parent.Kind()
				}
				raw = append(raw, rawToken{
					begin: n.StartByte(), end: n.EndByte(),
					tokType: leafTokenType(n, parentKind), mods: leafModifiers(n, parentKind),
				})
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i), n)
		}
	}
	walk(root, nil)

	split := splitMultiline(content, raw)
	return encodeTokens(content, split, enc)
}

// splitMultiline breaks any raw token whose byte range crosses a newline
// into one token per line, per spec §4.12.
func splitMultiline(content []byte, tokens []rawToken) []rawToken {
	var out []rawToken
	for _, t := range tokens {
		span := content[t.begin:t.end]
		if !bytes.ContainsRune(span, '\n') {
			out = append(out, t)
			continue
		}
		start := t.begin
		for i, b := range span {
			if b == '\n' {
				lineEnd := t.begin + uint32(i)
				if lineEnd > start {
					out = append(out, rawToken{begin: start, end: lineEnd, tokType: t.tokType, mods: t.mods})
				}
				start = t.begin + uint32(i) + 1
			}
		}
		if start < t.end {
			out = append(out, rawToken{begin: start, end: t.end, tokType: t.tokType, mods: t.mods})
		}
	}
	return out
}

// encodeTokens converts an ordered token list to the delta-encoded flat
// array the LSP semanticTokens/full result expects.
func encodeTokens(content []byte, tokens []rawToken, enc posconv.Encoding) lspproto.SemanticTokens {
	stream := posconv.NewStream(content, enc)
	var data []uint32
	var lastLine, lastChar uint32
	for _, t := range tokens {
		pos := stream.Position(int(t.begin))
		endPos := stream.Position(int(t.end))
		length := endPos.Character - pos.Character
		if pos.Line != endPos.Line {
			// shouldn't happen post-split, but guard against it rather than
			// emit a negative length.
			length = 0
		}

		deltaLine := pos.Line - lastLine
		var deltaChar uint32
		if deltaLine == 0 {
			deltaChar = pos.Character - lastChar
		} else {
			deltaChar = pos.Character
		}

		data = append(data, deltaLine, deltaChar, length, t.tokType, t.mods)
		lastLine, lastChar = pos.Line, pos.Character
	}
	return lspproto.SemanticTokens{Data: data}
}
