// Package directive is the Directive Recorder: it observes a file's
// preprocessor directives and produces the per-FileID trace defined in
// types.DirectiveRecord, ordered by source location.
//
// Grounded on clice's directive-recording pass (original_source
// include/Compiler/Directive.h, src/Compiler/Directive.cpp) and, for the
// line-scanning mechanics, on this module's own internal/preamble — both
// walk directive lines without requiring a full parse. Condition
// evaluation is a small hand-rolled recursive-descent evaluator over the
// C preprocessor's boolean/integer expression subset, grounded on the
// same clice source for the {True, False, Skipped, None} state machine
// across nested #if/#elif/#else/#endif groups.
package directive

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/standardbeagle/lcserver/internal/types"
)

// Resolver maps an #include/#include_next/__has_include filename to the
// FileID it resolves to, and reports whether that target has already been
// entered under macro-guard state that makes this occurrence a no-op
// (skipped). The recorder never searches the filesystem itself; resolution
// is supplied by the translation-unit builder (internal/frontend), which
// owns the include-path search order and the cross-file guard state.
type Resolver func(filename string, angled bool) (target types.FileID, skipped bool)

// noopResolver is used when the caller has no resolver available (e.g.
// tests exercising condition/macro/pragma recording only); every include
// resolves to InvalidFileID, unskipped.
func noopResolver(string, bool) (types.FileID, bool) {
	return types.InvalidFileID, false
}

// branchFrame tracks the state of one #if/#ifdef/#ifndef ... #endif group.
type branchFrame struct {
	parentActive bool // an enclosing branch (if any) is the live one
	anyTaken     bool // some branch in this group has already been live
	liveBranch   bool // the branch currently open is the live one
}

// Record walks content's directive lines and builds its DirectiveRecord.
// If resolve is nil, includes resolve to InvalidFileID.
func Record(content []byte, resolve Resolver) *types.DirectiveRecord {
	if resolve == nil {
		resolve = noopResolver
	}

	rec := &types.DirectiveRecord{}
	macroEnv := map[string]string{}
	var stack []branchFrame

	// topActive reports whether content at the current nesting level is
	// being lexed, i.e. every enclosing branch (if any) is live.
	topActive := func() bool {
		if len(stack) == 0 {
			return true
		}
		top := stack[len(stack)-1]
		return top.parentActive && top.liveBranch
	}

	offset := 0
	for offset < len(content) {
		lineStart := offset
		lineEnd := bytes.IndexByte(content[offset:], '\n')
		var line []byte
		if lineEnd < 0 {
			line = content[offset:]
			offset = len(content)
		} else {
			line = content[offset : offset+lineEnd]
			offset += lineEnd + 1
		}

		trimmed := trimSpace(line)
		if len(trimmed) == 0 || trimmed[0] != '#' {
			// Non-directive content: scan for __has_include queries and
			// macro references, but only within the currently live branch.
			if topActive() {
				scanHasIncludes(line, lineStart, resolve, rec)
				scanMacroRefs(line, lineStart, macroEnv, rec)
			}
			continue
		}

		loc := uint32(lineStart)
		body := trimSpace(trimmed[1:])
		kw, rest := splitKeyword(body)

		active := topActive()

		switch kw {
		case "if", "ifdef", "ifndef":
			frame := branchFrame{parentActive: active}
			var kind types.ConditionKind
			var value types.ConditionValue
			switch kw {
			case "if":
				kind = types.CondIf
			case "ifdef":
				kind = types.CondIfdef
			case "ifndef":
				kind = types.CondIfndef
			}
			if !active {
				value = types.CondSkipped
			} else {
				var taken bool
				switch kw {
				case "if":
					taken = evalExpr(extractHasIncludes(rest, line, lineStart, resolve, rec), macroEnv)
				case "ifdef":
					_, taken = macroEnv[strings.TrimSpace(rest)]
				case "ifndef":
					_, defined := macroEnv[strings.TrimSpace(rest)]
					taken = !defined
				}
				if taken {
					value = types.CondTrue
				} else {
					value = types.CondFalse
				}
				frame.anyTaken = taken
			}
			frame.liveBranch = value == types.CondTrue
			stack = append(stack, frame)
			rec.Conditions = append(rec.Conditions, types.ConditionEntry{
				Kind: kind, Location: loc, Value: value,
				ConditionText: textRange(line, lineStart, rest),
			})

		case "elif", "elifdef", "elifndef":
			var kind types.ConditionKind
			switch kw {
			case "elif":
				kind = types.CondElif
			case "elifdef":
				kind = types.CondElifdef
			case "elifndef":
				kind = types.CondElifndef
			}
			var value types.ConditionValue
			if len(stack) == 0 {
				value = types.CondSkipped
			} else {
				top := &stack[len(stack)-1]
				if !top.parentActive || top.anyTaken {
					value = types.CondSkipped
					top.liveBranch = false
				} else {
					var taken bool
					switch kw {
					case "elif":
						taken = evalExpr(extractHasIncludes(rest, line, lineStart, resolve, rec), macroEnv)
					case "elifdef":
						_, taken = macroEnv[strings.TrimSpace(rest)]
					case "elifndef":
						_, defined := macroEnv[strings.TrimSpace(rest)]
						taken = !defined
					}
					if taken {
						value = types.CondTrue
						top.anyTaken = true
					} else {
						value = types.CondFalse
					}
					top.liveBranch = taken
				}
			}
			rec.Conditions = append(rec.Conditions, types.ConditionEntry{
				Kind: kind, Location: loc, Value: value,
				ConditionText: textRange(line, lineStart, rest),
			})

		case "else":
			var value types.ConditionValue
			if len(stack) == 0 {
				value = types.CondSkipped
			} else {
				top := &stack[len(stack)-1]
				if !top.parentActive || top.anyTaken {
					value = types.CondSkipped
					if top.anyTaken {
						value = types.CondFalse
					}
					if !top.parentActive {
						value = types.CondSkipped
					}
					top.liveBranch = false
				} else {
					value = types.CondTrue
					top.anyTaken = true
					top.liveBranch = true
				}
			}
			rec.Conditions = append(rec.Conditions, types.ConditionEntry{
				Kind: types.CondElse, Location: loc, Value: value,
			})

		case "endif":
			rec.Conditions = append(rec.Conditions, types.ConditionEntry{
				Kind: types.CondEndif, Location: loc, Value: types.CondNone,
			})
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case "include", "include_next":
			if active {
				filename, angled, ok := parseIncludeArg(rest)
				if ok {
					target, skipped := resolve(filename, angled)
					rec.Includes = append(rec.Includes, types.IncludeEntry{
						Location:      loc,
						FilenameRange: textRange(line, lineStart, filenameText(rest)),
						TargetFID:     target,
						Skipped:       skipped,
					})
				}
			}

		case "define":
			if active {
				name, value := parseDefine(rest)
				macroEnv[name] = value
				rec.Macros = append(rec.Macros, types.MacroEntry{
					Kind: types.MacroDef, Location: loc, MacroIdentity: name,
				})
			}

		case "undef":
			if active {
				name := strings.TrimSpace(rest)
				delete(macroEnv, name)
				rec.Macros = append(rec.Macros, types.MacroEntry{
					Kind: types.MacroUndef, Location: loc, MacroIdentity: name,
				})
			}

		case "pragma":
			if active {
				recordPragma(rest, loc, rec)
			}
		}
	}

	return rec
}

func trimSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\r') {
		i++
	}
	j := len(b)
	for j > i && (b[j-1] == ' ' || b[j-1] == '\t' || b[j-1] == '\r') {
		j--
	}
	return b[i:j]
}

// splitKeyword splits a directive body ("if FOO", "include <x.h>", ...)
// into its keyword and the remainder, trimmed.
func splitKeyword(body []byte) (string, string) {
	i := 0
	for i < len(body) && isIdentByte(body[i]) {
		i++
	}
	kw := string(body[:i])
	rest := strings.TrimSpace(string(body[i:]))
	return kw, rest
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// parseIncludeArg extracts the filename and angled-vs-quoted form from an
// #include/#include_next argument such as `<vector>` or `"local.h"`.
func parseIncludeArg(rest string) (filename string, angled bool, ok bool) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", false, false
	}
	switch rest[0] {
	case '<':
		if end := strings.IndexByte(rest, '>'); end > 0 {
			return rest[1:end], true, true
		}
	case '"':
		if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
			return rest[1 : 1+end], false, true
		}
	}
	return "", false, false
}

// filenameText returns the raw bracketed/quoted text (including delimiters)
// for range computation.
func filenameText(rest string) string {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return ""
	}
	switch rest[0] {
	case '<':
		if end := strings.IndexByte(rest, '>'); end > 0 {
			return rest[:end+1]
		}
	case '"':
		if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
			return rest[:end+2]
		}
	}
	return ""
}

// textRange computes the byte range of needle within line (which starts at
// lineStart in the whole-file content), for condition/filename ranges.
func textRange(line []byte, lineStart int, needle string) types.LocalSourceRange {
	if needle == "" {
		return types.LocalSourceRange{}
	}
	idx := bytes.Index(line, []byte(needle))
	if idx < 0 {
		return types.LocalSourceRange{}
	}
	begin := uint32(lineStart + idx)
	return types.LocalSourceRange{Begin: begin, End: begin + uint32(len(needle))}
}

// parseDefine splits "#define NAME value..." (ignoring function-like
// parameter lists for the purpose of condition evaluation, which only
// needs object-like macro values) into its identity and replacement text.
func parseDefine(rest string) (name string, value string) {
	i := 0
	for i < len(rest) && isIdentByte(rest[i]) {
		i++
	}
	name = rest[:i]
	if i < len(rest) && rest[i] == '(' {
		// Function-like macro: keep the identity, no usable integer value.
		if close := strings.IndexByte(rest[i:], ')'); close >= 0 {
			return name, strings.TrimSpace(rest[i+close+1:])
		}
		return name, ""
	}
	return name, strings.TrimSpace(rest[i:])
}

// recordPragma classifies a #pragma body into Region/EndRegion/Other.
func recordPragma(rest string, loc uint32, rec *types.DirectiveRecord) {
	lower := strings.ToLower(rest)
	switch {
	case strings.HasPrefix(lower, "region"):
		rec.Pragmas = append(rec.Pragmas, types.PragmaEntry{
			Kind: types.PragmaRegion, Location: loc, Text: strings.TrimSpace(rest[len("region"):]),
		})
	case strings.HasPrefix(lower, "endregion"):
		rec.Pragmas = append(rec.Pragmas, types.PragmaEntry{
			Kind: types.PragmaEndRegion, Location: loc, Text: strings.TrimSpace(rest[len("endregion"):]),
		})
	default:
		rec.Pragmas = append(rec.Pragmas, types.PragmaEntry{
			Kind: types.PragmaOther, Location: loc, Text: rest,
		})
	}
}

// scanHasIncludes finds __has_include(...) occurrences in ordinary
// (non-directive) lines and records a HasIncludeEntry for each. Queries
// inside an #if/#elif condition are recorded by extractHasIncludes instead.
func scanHasIncludes(line []byte, lineStart int, resolve Resolver, rec *types.DirectiveRecord) {
	const marker = "__has_include"
	text := string(line)
	from := 0
	for {
		i := strings.Index(text[from:], marker)
		if i < 0 {
			return
		}
		abs := from + i
		argStart := abs + len(marker)
		for argStart < len(text) && text[argStart] == ' ' {
			argStart++
		}
		if argStart >= len(text) || text[argStart] != '(' {
			from = abs + len(marker)
			continue
		}
		close := strings.IndexByte(text[argStart:], ')')
		if close < 0 {
			return
		}
		inner := strings.TrimSpace(text[argStart+1 : argStart+close])
		filename, angled, ok := parseIncludeArg(inner)
		target := types.InvalidFileID
		if ok {
			target, _ = resolve(filename, angled)
		}
		rec.HasIncludes = append(rec.HasIncludes, types.HasIncludeEntry{
			Location: uint32(lineStart + abs), TargetFID: target,
		})
		from = argStart + close + 1
	}
}

// extractHasIncludes finds __has_include(...) queries within an #if/#elif
// condition's text, records a HasIncludeEntry for each, and returns the
// condition with every query substituted by "1" (resolved) or "0"
// (unresolved) so evalExpr can evaluate the surrounding boolean expression
// the way a real preprocessor would.
func extractHasIncludes(rest string, line []byte, lineStart int, resolve Resolver, rec *types.DirectiveRecord) string {
	const marker = "__has_include"
	if !strings.Contains(rest, marker) {
		return rest
	}
	restStart := lineStart
	if idx := bytes.Index(line, []byte(rest)); idx >= 0 {
		restStart = lineStart + idx
	}

	var sb strings.Builder
	from := 0
	for {
		i := strings.Index(rest[from:], marker)
		if i < 0 {
			sb.WriteString(rest[from:])
			break
		}
		abs := from + i
		sb.WriteString(rest[from:abs])
		argStart := abs + len(marker)
		for argStart < len(rest) && rest[argStart] == ' ' {
			argStart++
		}
		if argStart >= len(rest) || rest[argStart] != '(' {
			sb.WriteString(rest[abs:argStart])
			from = argStart
			continue
		}
		close := strings.IndexByte(rest[argStart:], ')')
		if close < 0 {
			sb.WriteString(rest[abs:])
			break
		}
		inner := strings.TrimSpace(rest[argStart+1 : argStart+close])
		filename, angled, ok := parseIncludeArg(inner)
		target := types.InvalidFileID
		if ok {
			target, _ = resolve(filename, angled)
		}
		rec.HasIncludes = append(rec.HasIncludes, types.HasIncludeEntry{
			Location: uint32(restStart + abs), TargetFID: target,
		})
		if target != types.InvalidFileID {
			sb.WriteString("1")
		} else {
			sb.WriteString("0")
		}
		from = argStart + close + 1
	}
	return sb.String()
}

// scanMacroRefs records a best-effort MacroRef event for each identifier in
// an ordinary line that matches a currently-defined macro. Full macro-use
// detection requires token-level expansion, which this recorder does not
// perform; this conservative scan only catches identifiers that are exact
// matches for a known macro name, which is sufficient for the directive
// trace's intended purpose of tracking macro liveness, not full expansion.
func scanMacroRefs(line []byte, lineStart int, macroEnv map[string]string, rec *types.DirectiveRecord) {
	if len(macroEnv) == 0 {
		return
	}
	text := string(line)
	i := 0
	for i < len(text) {
		if !isIdentStart(text[i]) {
			i++
			continue
		}
		j := i
		for j < len(text) && isIdentByte(text[j]) {
			j++
		}
		ident := text[i:j]
		if _, defined := macroEnv[ident]; defined {
			rec.Macros = append(rec.Macros, types.MacroEntry{
				Kind: types.MacroRef, Location: uint32(lineStart + i), MacroIdentity: ident,
			})
		}
		i = j
	}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// --- condition expression evaluation ---

// evalExpr evaluates a C preprocessor #if/#elif boolean expression over the
// subset this recorder supports: integer literals, identifiers (0 unless
// resolvable to an integer macro value, else 1 if merely defined),
// defined(X)/defined X, !, &&, ||, ==, !=, <, <=, >, >=, +, -, *, /, and
// parentheses. Unparseable expressions evaluate to false.
func evalExpr(expr string, macroEnv map[string]string) bool {
	p := &exprParser{toks: tokenizeExpr(expr), env: macroEnv}
	v := p.parseOr()
	return v != 0
}

type exprParser struct {
	toks []string
	pos  int
	env  map[string]string
}

func (p *exprParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *exprParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *exprParser) parseOr() int64 {
	v := p.parseAnd()
	for p.peek() == "||" {
		p.next()
		rhs := p.parseAnd()
		if v != 0 || rhs != 0 {
			v = 1
		} else {
			v = 0
		}
	}
	return v
}

func (p *exprParser) parseAnd() int64 {
	v := p.parseEquality()
	for p.peek() == "&&" {
		p.next()
		rhs := p.parseEquality()
		if v != 0 && rhs != 0 {
			v = 1
		} else {
			v = 0
		}
	}
	return v
}

func (p *exprParser) parseEquality() int64 {
	v := p.parseRelational()
	for {
		switch p.peek() {
		case "==":
			p.next()
			rhs := p.parseRelational()
			v = boolToInt(v == rhs)
		case "!=":
			p.next()
			rhs := p.parseRelational()
			v = boolToInt(v != rhs)
		default:
			return v
		}
	}
}

func (p *exprParser) parseRelational() int64 {
	v := p.parseAdditive()
	for {
		switch p.peek() {
		case "<":
			p.next()
			v = boolToInt(v < p.parseAdditive())
		case "<=":
			p.next()
			v = boolToInt(v <= p.parseAdditive())
		case ">":
			p.next()
			v = boolToInt(v > p.parseAdditive())
		case ">=":
			p.next()
			v = boolToInt(v >= p.parseAdditive())
		default:
			return v
		}
	}
}

func (p *exprParser) parseAdditive() int64 {
	v := p.parseMultiplicative()
	for {
		switch p.peek() {
		case "+":
			p.next()
			v += p.parseMultiplicative()
		case "-":
			p.next()
			v -= p.parseMultiplicative()
		default:
			return v
		}
	}
}

func (p *exprParser) parseMultiplicative() int64 {
	v := p.parseUnary()
	for {
		switch p.peek() {
		case "*":
			p.next()
			v *= p.parseUnary()
		case "/":
			p.next()
			rhs := p.parseUnary()
			if rhs == 0 {
				return 0
			}
			v /= rhs
		default:
			return v
		}
	}
}

func (p *exprParser) parseUnary() int64 {
	switch p.peek() {
	case "!":
		p.next()
		return boolToInt(p.parseUnary() == 0)
	case "-":
		p.next()
		return -p.parseUnary()
	case "+":
		p.next()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() int64 {
	tok := p.next()
	switch tok {
	case "(":
		v := p.parseOr()
		if p.peek() == ")" {
			p.next()
		}
		return v
	case "defined":
		paren := p.peek() == "("
		if paren {
			p.next()
		}
		name := p.next()
		if paren && p.peek() == ")" {
			p.next()
		}
		if _, ok := p.env[name]; ok {
			return 1
		}
		return 0
	case "":
		return 0
	}
	if n, err := strconv.ParseInt(tok, 0, 64); err == nil {
		return n
	}
	// Identifier: 0 unless the macro expands to a parseable integer, else
	// 1 if merely defined (object-like macro with a non-numeric body).
	if val, ok := p.env[tok]; ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(val), 0, 64); err == nil {
			return n
		}
		return 1
	}
	return 0
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// tokenizeExpr splits a preprocessor expression into tokens: identifiers,
// integer literals, and the operators/punctuation this evaluator supports.
func tokenizeExpr(expr string) []string {
	var toks []string
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case isIdentStart(c):
			j := i
			for j < len(expr) && isIdentByte(expr[j]) {
				j++
			}
			toks = append(toks, expr[i:j])
			i = j
		case c >= '0' && c <= '9':
			j := i
			for j < len(expr) && (isIdentByte(expr[j]) || expr[j] == 'x' || expr[j] == 'X') {
				j++
			}
			toks = append(toks, expr[i:j])
			i = j
		case c == '&' && i+1 < len(expr) && expr[i+1] == '&':
			toks = append(toks, "&&")
			i += 2
		case c == '|' && i+1 < len(expr) && expr[i+1] == '|':
			toks = append(toks, "||")
			i += 2
		case (c == '=' || c == '!' || c == '<' || c == '>') && i+1 < len(expr) && expr[i+1] == '=':
			toks = append(toks, expr[i:i+2])
			i += 2
		default:
			toks = append(toks, string(c))
			i++
		}
	}
	return toks
}
