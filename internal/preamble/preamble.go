// Package preamble computes the byte bound before which a source file
// contains only top-level preprocessor directives — the region a PCH can
// safely be built from. No parse is required, only a lexer pass over
// directive lines.
//
// Grounded on clice's compute_preamble_bound/compute_preamble_bounds
// (original_source include/Compiler/Preamble.h, include/AST/Preamble.h).
package preamble

import "bytes"

// directiveKeywords are the only directives allowed before the bound.
var directiveKeywords = []string{
	"include", "include_next", "define", "undef",
	"if", "ifdef", "ifndef", "elif", "elifdef", "elifndef", "else", "endif",
	"pragma", "import",
}

// ComputeBound returns the byte offset up to (and including) the last
// top-level preprocessing directive line that may appear in the preamble.
// The returned bound is always in [0, len(content)].
func ComputeBound(content []byte) uint32 {
	bounds := ComputeBounds(content)
	if len(bounds) == 0 {
		return 0
	}
	return bounds[len(bounds)-1]
}

// ComputeBounds returns the successive bounds of each top-level directive
// line, for chained-PCH building. The last element, if any, equals what
// ComputeBound would return.
func ComputeBounds(content []byte) []uint32 {
	var bounds []uint32
	offset := 0

	for offset < len(content) {
		lineEnd := bytes.IndexByte(content[offset:], '\n')
		var line []byte
		var nextOffset int
		if lineEnd < 0 {
			line = content[offset:]
			nextOffset = len(content)
		} else {
			line = content[offset : offset+lineEnd]
			nextOffset = offset + lineEnd + 1
		}

		trimmed := trimLeadingSpace(line)

		if len(trimmed) == 0 {
			// Blank line: still within a valid preamble prefix.
			offset = nextOffset
			continue
		}

		if isLineComment(trimmed) {
			offset = nextOffset
			continue
		}

		if trimmed[0] != '#' {
			// First non-directive, non-blank, non-comment line: stop.
			break
		}

		directive := trimLeadingSpace(trimmed[1:])
		if !startsWithDirectiveKeyword(directive) {
			break
		}

		bounds = append(bounds, uint32(nextOffset))
		offset = nextOffset
	}

	return bounds
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\r') {
		i++
	}
	return b[i:]
}

func isLineComment(b []byte) bool {
	return len(b) >= 2 && b[0] == '/' && b[1] == '/'
}

func startsWithDirectiveKeyword(b []byte) bool {
	for _, kw := range directiveKeywords {
		if len(b) >= len(kw) && string(b[:len(kw)]) == kw {
			rest := b[len(kw):]
			if len(rest) == 0 || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '(' {
				return true
			}
		}
	}
	return false
}
