// Package compiledb is the Compilation Database: for each source file path
// it stores the canonical, filtered argument vector and working directory
// that should be used to compile it, plus the C++20 module-name to file-path
// map. Grounded on clice's CompilationDatabase (original_source
// src/Compiler/Command.cpp) and on the Database type exposed by
// include/Server/Database.h, re-expressed as a Go value type owned
// explicitly by the server process per spec.md §9 ("shared-mutable
// singletons ... should be concrete values owned by the server process").
package compiledb

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/lcserver/internal/argfilter"
)

// Entry is the canonical compile command stored for one file.
type Entry struct {
	Directory string
	Arguments []string // filtered, interned; does not yet include the file path
}

// LookupOptions controls per-lookup augmentations that are never persisted.
type LookupOptions struct {
	// ResourceDir, if non-empty, is appended as "-resource-dir=<dir>".
	ResourceDir string
	// QueryDriver enables probing the driver for its implicit include paths.
	// The probe result, if any, is supplied by the caller via DriverProbe.
	QueryDriver bool
	DriverProbe []string
}

// ChangeEvent reports whether update() actually altered a stored entry.
type ChangeEvent struct {
	Path    string
	Changed bool
}

// DB is the Compilation Database.
type DB struct {
	filter  *argfilter.Filter
	entries map[string]Entry
	// modules maps a C++20 module name to the file path that defines its
	// interface unit.
	modules map[string]string
}

// New creates an empty Compilation Database.
func New() *DB {
	return &DB{
		filter:  argfilter.New(),
		entries: make(map[string]Entry),
		modules: make(map[string]string),
	}
}

// Update parses either a shell command string or an explicit argument
// vector, filters it, interns it, and stores it for path. Returns whether
// the stored entry actually changed (different directory or arguments).
func (db *DB) Update(path, directory string, commandOrArgs any) (ChangeEvent, error) {
	var rawArgs []string
	switch v := commandOrArgs.(type) {
	case string:
		rawArgs = tokenize(v, driverIsMSVCStyle(v))
	case []string:
		rawArgs = v
	default:
		return ChangeEvent{Path: path}, fmt.Errorf("compiledb: unsupported command type %T", commandOrArgs)
	}
	if len(rawArgs) == 0 {
		return ChangeEvent{Path: path}, fmt.Errorf("compiledb: empty command for %s", path)
	}

	driver := rawArgs[0]
	filtered := db.filter.Filter(driver, rawArgs[1:], path)

	newEntry := Entry{Directory: directory, Arguments: filtered}

	old, existed := db.entries[path]
	changed := !existed || old.Directory != newEntry.Directory || !argsEqual(old.Arguments, newEntry.Arguments)
	db.entries[path] = newEntry

	return ChangeEvent{Path: path, Changed: changed}, nil
}

// driverIsMSVCStyle reports whether a command's driver token looks like
// cl.exe or clang-cl, which tokenize with Windows quoting rules rather than
// POSIX shell rules.
func driverIsMSVCStyle(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	base := strings.ToLower(filepath.Base(fields[0]))
	return base == "cl" || strings.HasPrefix(base, "cl.") || strings.HasPrefix(base, "clang-cl")
}

// tokenize splits a command string into argv-style tokens. windowsStyle
// selects backslash-escaping-free, double-quote-delimited splitting (as
// cmd.exe/MSVC do); otherwise POSIX shell quoting rules are used. Malformed
// commands are handled best-effort: an unterminated quote consumes the rest
// of the string as one token.
func tokenize(command string, windowsStyle bool) []string {
	var tokens []string
	var cur strings.Builder
	inSingle, inDouble := false, false
	hasToken := false

	flush := func() {
		if hasToken {
			tokens = append(tokens, cur.String())
			cur.Reset()
			hasToken = false
		}
	}

	for i := 0; i < len(command); i++ {
		c := command[i]
		switch {
		case !windowsStyle && c == '\'' && !inDouble:
			inSingle = !inSingle
			hasToken = true
		case c == '"' && !inSingle:
			inDouble = !inDouble
			hasToken = true
		case !windowsStyle && c == '\\' && !inSingle && i+1 < len(command):
			i++
			cur.WriteByte(command[i])
			hasToken = true
		case c == ' ' || c == '\t':
			if inSingle || inDouble {
				cur.WriteByte(c)
				hasToken = true
			} else {
				flush()
			}
		default:
			cur.WriteByte(c)
			hasToken = true
		}
	}
	flush()
	return tokens
}

func argsEqual(a, b []string) bool {
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

// jsonEntry mirrors one element of a compile_commands.json array.
type jsonEntry struct {
	Directory string          `json:"directory"`
	File      string          `json:"file"`
	Command   string          `json:"command,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// LoadJSON parses a compile_commands.json-shaped byte array and calls
// Update for each well-formed entry. Entries missing directory/file, or
// that are not JSON objects, are skipped (a warning is the caller's
// responsibility; this package returns the change list and lets the
// caller log). If both arguments and command are present, arguments wins.
func (db *DB) LoadJSON(data []byte) ([]ChangeEvent, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("compiledb: invalid compile_commands.json: %w", err)
	}

	var events []ChangeEvent
	for _, item := range raw {
		var e jsonEntry
		if err := json.Unmarshal(item, &e); err != nil {
			continue // not an object / malformed entry: skip
		}
		if e.Directory == "" || e.File == "" {
			continue
		}

		var args []string
		if len(e.Arguments) > 0 {
			if err := json.Unmarshal(e.Arguments, &args); err != nil {
				continue
			}
			ev, err := db.Update(e.File, e.Directory, args)
			if err != nil {
				continue
			}
			events = append(events, ev)
			continue
		}
		if e.Command != "" {
			ev, err := db.Update(e.File, e.Directory, e.Command)
			if err != nil {
				continue
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

// Lookup returns the directory and argument vector to compile path with,
// appending path itself at the end. Options apply per-lookup augmentations
// (resource directory, driver-probe include paths) without mutating the
// stored entry.
func (db *DB) Lookup(path string, opts LookupOptions) (directory string, arguments []string, ok bool) {
	entry, found := db.entries[path]
	if !found {
		return "", nil, false
	}

	args := make([]string, 0, len(entry.Arguments)+len(opts.DriverProbe)+2)
	args = append(args, entry.Arguments...)
	if opts.ResourceDir != "" {
		args = append(args, "-resource-dir="+opts.ResourceDir)
	}
	if opts.QueryDriver {
		args = append(args, opts.DriverProbe...)
	}
	args = append(args, path)

	return entry.Directory, args, true
}

// RegisterModule records that moduleName's interface unit lives at path.
func (db *DB) RegisterModule(moduleName, path string) {
	db.modules[moduleName] = path
}

// ModuleFile returns the file path implementing moduleName, if known.
func (db *DB) ModuleFile(moduleName string) (string, bool) {
	path, ok := db.modules[moduleName]
	return path, ok
}
