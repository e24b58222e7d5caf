// Package argfilter normalizes raw compiler command lines for language-server
// use: it strips options that make no sense outside a real build (the input
// file, -o, -c, PCH/PCM emission flags) while preserving every remaining
// option's original rendering style, and interns the resulting vectors so an
// unchanged command is represented by the exact same backing array.
//
// Grounded on clice's CompilationDatabase::update_command (original_source
// src/Compiler/Command.cpp), re-expressed without an options table: instead
// of asking a driver options table for an option's render style, this
// package classifies each raw token itself (joined value, separate value,
// flag-alone) since no libclang-derived options table is available here.
package argfilter

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// RenderStyle records how an option's value was spelled in the original
// command, so a kept option survives filtering with the same shape.
type RenderStyle uint8

const (
	// StyleAlone is a flag with no value, e.g. "-Wall".
	StyleAlone RenderStyle = iota
	// StyleJoined is a flag with its value glued on, e.g. "-Ifoo" or "-DX=1".
	StyleJoined
	// StyleSeparate is a flag followed by a distinct argument, e.g. "-I" "foo".
	StyleSeparate
)

// Option describes one argument (and its values, if any) as parsed from a
// raw command line.
type Option struct {
	Flag   string // e.g. "-I", "-D", "-std"
	Values []string
	Style  RenderStyle
	Raw    []string // the original token(s), preserved verbatim for re-emission
}

// DefaultRemoveFlags is the set of flags the spec requires removing:
// output selection, compile-only mode, and PCH/PCM emission/consumption.
var DefaultRemoveFlags = map[string]bool{
	"-o":             true,
	"-c":             true,
	"-emit-pch":      true,
	"-include-pch":   true,
	"-fmodule-file":  true,
	"-fmodule-output": true,
	"-fprebuilt-module-path": true,
}

// takesSeparateValue lists flags that, per GCC/Clang convention, consume the
// following token as a value when not joined.
var takesSeparateValue = map[string]bool{
	"-I": true, "-D": true, "-U": true, "-include": true, "-isystem": true,
	"-iquote": true, "-o": true, "-include-pch": true, "-Xclang": true,
	"-target": true, "-std": true,
}

// Filter owns an interned pool of argument vectors: identical vectors (by
// content) are represented by the same backing slice, so reuse decisions in
// the PCH cache (§4.7 rule 2) can use a pointer-equality check.
type Filter struct {
	remove map[string]bool
	pool   map[uint64]*internedArgs
}

type internedArgs struct {
	args []string
}

// New creates a Filter that removes DefaultRemoveFlags plus any caller-
// supplied extras.
func New(extraRemove ...string) *Filter {
	remove := make(map[string]bool, len(DefaultRemoveFlags)+len(extraRemove))
	for k := range DefaultRemoveFlags {
		remove[k] = true
	}
	for _, f := range extraRemove {
		remove[f] = true
	}
	return &Filter{remove: remove, pool: make(map[uint64]*internedArgs)}
}

// Filter parses a raw argument vector (driver name first, as from argv) and
// returns a normalized vector: the input file(s) and every removed flag (and
// its value arguments) dropped, every remaining option preserved with its
// original rendering style. The returned slice is interned: calling Filter
// again with an equal vector returns the exact same slice (pointer-equal).
func (f *Filter) Filter(driver string, rawArgs []string, inputFile string) []string {
	out := make([]string, 0, len(rawArgs)+1)
	if driver != "" {
		out = append(out, driver)
	}

	for i := 0; i < len(rawArgs); i++ {
		arg := rawArgs[i]

		if inputFile != "" && arg == inputFile {
			continue
		}

		flag, _, hasJoined := splitJoined(arg)
		name := arg
		if eq := strings.IndexByte(arg, '='); eq > 0 {
			name = arg[:eq]
		}

		if f.remove[flag] || f.remove[arg] || f.remove[name] {
			// Removing an option also removes its value argument(s).
			if !hasJoined && takesSeparateValue[flag] && i+1 < len(rawArgs) {
				i++
			}
			continue
		}

		out = append(out, arg)
		if !hasJoined && takesSeparateValue[flag] && i+1 < len(rawArgs) {
			// Separate-style value: keep both tokens together so downstream
			// consumers never see a flag without its value.
			out = append(out, rawArgs[i+1])
			i++
		}
	}

	return f.intern(out)
}

// splitJoined recognizes "-Ifoo", "-DX=1", "-std=c++20" as a flag plus a
// joined value; returns ok=false for flags with no recognizable joined form
// (e.g. "-Wall", "-c", or a bare input file).
func splitJoined(arg string) (flag, value string, ok bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return arg, "", false
	}
	for _, prefix := range []string{"-I", "-D", "-U", "-std=", "-W", "-f", "-O"} {
		if strings.HasPrefix(arg, prefix) && len(arg) > len(prefix) {
			return prefix, arg[len(prefix):], true
		}
	}
	if eq := strings.IndexByte(arg, '='); eq > 0 {
		return arg[:eq], arg[eq+1:], true
	}
	return arg, "", false
}

// intern returns a pointer-stable copy of args, reusing a previous vector's
// backing array if one with identical content was already interned.
func (f *Filter) intern(args []string) []string {
	h := fingerprint(args)
	if existing, ok := f.pool[h]; ok && equalArgs(existing.args, args) {
		return existing.args
	}
	stored := &internedArgs{args: args}
	f.pool[h] = stored
	return stored.args
}

func fingerprint(args []string) uint64 {
	d := xxhash.New()
	for _, a := range args {
		_, _ = d.WriteString(a)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

func equalArgs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
