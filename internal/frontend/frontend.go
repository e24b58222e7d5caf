// Package frontend binds the Compilation Unit contract (spec §4.6) to
// github.com/tree-sitter/go-tree-sitter with the tree-sitter-cpp grammar —
// the same parsing stack the teacher module wires in for every other
// language it indexes. Nothing outside this package imports tree-sitter
// directly: CompilationUnit is the opaque handle the rest of the pipeline
// is written against.
//
// Grounded on internal/parser/parser_language_setup.go's setupCpp (parser
// construction, language binding) and internal/symbollinker/linker_engine.go's
// parser.Parse/tree.Close lifecycle.
package frontend

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"

	"github.com/standardbeagle/lcserver/internal/directive"
	"github.com/standardbeagle/lcserver/internal/types"
)

// Kind is the invocation kind a Compilation Unit is built for (spec §4.6).
type Kind uint8

const (
	KindPreprocess Kind = iota
	KindIndexing
	KindPreamble
	KindModuleInterface
	KindContent
	KindCompletion
)

// CompletionPosition names the (file, byte offset) a Completion-kind unit
// attaches its completion consumer at.
type CompletionPosition struct {
	Path   string
	Offset uint32
}

// Request parameterizes one compiler invocation, mirroring spec §4.6's
// CompilationUnit constructor argument tuple.
type Request struct {
	Kind               Kind
	MainPath           string
	Arguments          []string
	Remapped           map[string][]byte
	PCHInput           string
	PCMInputs          []string
	CompletionPosition *CompletionPosition
	StopFlag           *StopFlag
}

// StopFlag is a cooperative cancellation signal shared between a task and
// the front end building it; §4.6 requires partial ASTs never to be exposed
// once set.
type StopFlag struct {
	mu      sync.Mutex
	stopped bool
}

// Set marks the flag; safe to call from any goroutine.
func (f *StopFlag) Set() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

// IsSet reports whether the flag has been set. A nil flag is never set.
func (f *StopFlag) IsSet() bool {
	if f == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// Diagnostic is a single front-end-produced diagnostic.
type Diagnostic struct {
	File    types.FileID
	Range   types.LocalSourceRange
	Message string
	IsError bool
}

// CompilationUnit is the opaque result of a successful Build: main FileID,
// FileID<->path, content-by-FileID, a token buffer, directive records, the
// translation-unit root, and the set of files/dependencies involved.
type CompilationUnit struct {
	mainFile   types.FileID
	paths      map[types.FileID]string
	ids        map[string]types.FileID
	content    map[types.FileID][]byte
	roots      map[types.FileID]*sitter.Node
	trees      []*sitter.Tree // owned trees, closed by Close()
	directives map[types.FileID]*types.DirectiveRecord
	deps       map[types.FileID]struct{}
	diags      []Diagnostic
	nextFileID types.FileID
}

// MainFile returns the FileID of the unit's primary translation unit file.
func (u *CompilationUnit) MainFile() types.FileID { return u.mainFile }

// Path returns the filesystem path a FileID was opened from.
func (u *CompilationUnit) Path(fid types.FileID) (string, bool) {
	p, ok := u.paths[fid]
	return p, ok
}

// FileIDFor returns the FileID a path was assigned within this unit, if any.
func (u *CompilationUnit) FileIDFor(path string) (types.FileID, bool) {
	fid, ok := u.ids[path]
	return fid, ok
}

// Content returns the buffer a FileID was parsed from.
func (u *CompilationUnit) Content(fid types.FileID) ([]byte, bool) {
	c, ok := u.content[fid]
	return c, ok
}

// Root returns the translation-unit root node for fid, or nil.
func (u *CompilationUnit) Root(fid types.FileID) *sitter.Node {
	return u.roots[fid]
}

// Directives returns the directive record produced while scanning fid.
func (u *CompilationUnit) Directives(fid types.FileID) (*types.DirectiveRecord, bool) {
	d, ok := u.directives[fid]
	return d, ok
}

// Files returns every FileID touched while building this unit.
func (u *CompilationUnit) Files() []types.FileID {
	out := make([]types.FileID, 0, len(u.paths))
	for fid := range u.paths {
		out = append(out, fid)
	}
	return out
}

// Dependencies returns the set of real (on-disk) files this unit depends on
// — used by the PCH/PCM reuse predicate's mtime check (spec §4.7).
func (u *CompilationUnit) Dependencies() []string {
	out := make([]string, 0, len(u.deps))
	for fid := range u.deps {
		if p, ok := u.paths[fid]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Diagnostics returns every diagnostic produced while building this unit.
func (u *CompilationUnit) Diagnostics() []Diagnostic { return u.diags }

// SpelledTokens returns the byte ranges of tokens spelled in fid, walking
// the node tree's leaves. No macro expansion is modeled (SPEC_FULL.md
// §4.6): spelled and expanded coincide.
func (u *CompilationUnit) SpelledTokens(fid types.FileID) []types.LocalSourceRange {
	root := u.roots[fid]
	if root == nil {
		return nil
	}
	var out []types.LocalSourceRange
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.ChildCount() == 0 {
			if n.EndByte() > n.StartByte() {
				out = append(out, types.LocalSourceRange{Begin: n.StartByte(), End: n.EndByte()})
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return out
}

// ExpandedTokens returns the tokens overlapping rng in the main file. Macro
// expansion is not modeled; this is the spelled range unchanged, the
// degraded-but-honest behavior SPEC_FULL.md §4.6 commits to.
func (u *CompilationUnit) ExpandedTokens(rng types.LocalSourceRange) []types.LocalSourceRange {
	all := u.SpelledTokens(u.mainFile)
	out := all[:0:0]
	for _, t := range all {
		if t.Begin < rng.End && t.End > rng.Begin {
			out = append(out, t)
		}
	}
	return out
}

// Close releases every tree-sitter tree owned by this unit. Must be called
// once the unit is no longer in use.
func (u *CompilationUnit) Close() {
	for _, t := range u.trees {
		if t != nil {
			t.Close()
		}
	}
	u.trees = nil
}

var cppLanguage *sitter.Language

func language() *sitter.Language {
	if cppLanguage == nil {
		cppLanguage = sitter.NewLanguage(tree_sitter_cpp.Language())
	}
	return cppLanguage
}

// Builder constructs CompilationUnits, resolving #include targets against a
// search-path list derived from the Compilation Database (spec §4.3).
type Builder struct {
	IncludeDirs []string
}

// NewBuilder constructs a Builder with the given #include search directories.
func NewBuilder(includeDirs []string) *Builder {
	return &Builder{IncludeDirs: includeDirs}
}

// buildState tracks per-build bookkeeping the directive.Resolver closure
// needs: which paths have already been allocated a FileID, and which
// resolved paths still need their content read and parsed.
type buildState struct {
	unit    *CompilationUnit
	builder *Builder
	pending []string // resolved paths awaiting readFile+parse in attach phase
	remapped map[string][]byte
}

func (s *buildState) resolve(filename string, angled bool) (types.FileID, bool) {
	path := s.builder.searchInclude(filename, angled)
	if path == "" {
		return types.InvalidFileID, false
	}
	if fid, ok := s.unit.ids[path]; ok {
		return fid, true // already entered once: a reinclusion without a guard is not "skipped" unless seen before
	}
	fid := s.unit.reserveFileID(path)
	s.pending = append(s.pending, path)
	return fid, false
}

// ResolveInclude exposes the builder's #include search order to callers
// that need dependency paths without running a full build — the PCH cache
// (internal/scheduler) uses this to discover a file's #include dependency
// set before a PCH is built, per spec §4.7's "dependencies of a PCM are the
// files it transitively included while being built" generalized to PCHs.
func (b *Builder) ResolveInclude(filename string, angled bool) (string, bool) {
	path := b.searchInclude(filename, angled)
	return path, path != ""
}

// searchInclude looks for filename under each configured include directory,
// quoted includes additionally trying the current directory first.
func (b *Builder) searchInclude(filename string, angled bool) string {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename
		}
		return ""
	}
	dirs := b.IncludeDirs
	if !angled {
		dirs = append([]string{"."}, dirs...)
	}
	for _, d := range dirs {
		candidate := filepath.Join(d, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Build performs one compiler invocation per spec §4.6. On failure it
// returns a nil unit and a human-readable error; diagnostics gathered
// before the failure are not returned.
func (b *Builder) Build(req Request) (*CompilationUnit, error) {
	mainContent, err := b.readFile(req.MainPath, req.Remapped)
	if err != nil {
		return nil, fmt.Errorf("frontend: reading %s: %w", req.MainPath, err)
	}

	unit := &CompilationUnit{
		paths:      make(map[types.FileID]string),
		ids:        make(map[string]types.FileID),
		content:    make(map[types.FileID][]byte),
		roots:      make(map[types.FileID]*sitter.Node),
		directives: make(map[types.FileID]*types.DirectiveRecord),
		deps:       make(map[types.FileID]struct{}),
		nextFileID: 1,
	}

	mainFID := unit.reserveFileID(req.MainPath)
	unit.content[mainFID] = mainContent
	unit.mainFile = mainFID
	unit.deps[mainFID] = struct{}{}

	if req.StopFlag.IsSet() {
		unit.Close()
		return nil, fmt.Errorf("frontend: build of %s cancelled", req.MainPath)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(language()); err != nil {
		unit.Close()
		return nil, fmt.Errorf("frontend: setting cpp language: %w", err)
	}

	state := &buildState{unit: unit, builder: b, remapped: req.Remapped}

	tree := parser.Parse(mainContent, nil)
	if tree == nil {
		unit.Close()
		return nil, fmt.Errorf("frontend: parsing %s produced no tree", req.MainPath)
	}
	unit.trees = append(unit.trees, tree)
	unit.roots[mainFID] = tree.RootNode()
	unit.directives[mainFID] = directive.Record(mainContent, state.resolve)

	// Attach phase: parse every header transitively reached through a
	// resolved #include so the semantic layer (§4.8-4.9) can walk into them.
	for i := 0; i < len(state.pending); i++ {
		path := state.pending[i]
		fid := unit.ids[path]
		content, err := b.readFile(path, req.Remapped)
		if err != nil {
			unit.diags = append(unit.diags, Diagnostic{Message: fmt.Sprintf("cannot open %s: %v", path, err)})
			continue
		}
		unit.content[fid] = content
		unit.deps[fid] = struct{}{}

		t := parser.Parse(content, nil)
		if t == nil {
			continue
		}
		unit.trees = append(unit.trees, t)
		unit.roots[fid] = t.RootNode()
		unit.directives[fid] = directive.Record(content, state.resolve)

		if req.StopFlag.IsSet() {
			unit.Close()
			return nil, fmt.Errorf("frontend: build of %s cancelled mid-header-scan", req.MainPath)
		}
	}

	return unit, nil
}

func (u *CompilationUnit) reserveFileID(path string) types.FileID {
	if fid, ok := u.ids[path]; ok {
		return fid
	}
	fid := u.nextFileID
	u.nextFileID++
	u.ids[path] = fid
	u.paths[fid] = path
	return fid
}

func (b *Builder) readFile(path string, remapped map[string][]byte) ([]byte, error) {
	if remapped != nil {
		if c, ok := remapped[path]; ok {
			return c, nil
		}
	}
	return os.ReadFile(path)
}
