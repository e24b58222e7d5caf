package scheduler

import (
	"fmt"
	"strconv"

	"github.com/standardbeagle/lcserver/internal/compiledb"
	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/idcodec"
	"github.com/standardbeagle/lcserver/internal/symbolindex"
	"github.com/standardbeagle/lcserver/internal/types"
	"github.com/standardbeagle/lcserver/internal/visitor"
)

// FileSummary is one indexed file's symbol table plus the FileID it was
// built under (spec §4.10's per-FileID storage, rendered for a caller that
// isn't the header-context manager itself).
type FileSummary struct {
	Path   string
	FileID types.FileID
	Index  symbolindex.FileIndex
}

// IndexProject runs the Semantic Visitor (internal/visitor) over every
// compiledb-known translation unit and folds its events into a per-file
// Symbol Index (internal/symbolindex), merging each file's header-dependent
// views through one HeaderContextManager per spec §4.10's "index once per
// distinct header context" requirement.
//
// This is the batch counterpart to the open-file scheduler above: it runs
// outside any one file's buildMu, driven directly off the compiledb rather
// than an editor's didOpen/didChange stream.
func (s *Scheduler) IndexProject(paths []string) ([]FileSummary, *symbolindex.HeaderContextManager, error) {
	hctx := symbolindex.NewHeaderContextManager()
	summaries := make([]FileSummary, 0, len(paths))

	for _, path := range paths {
		_, arguments, _ := s.db.Lookup(path, compiledb.LookupOptions{})
		unit, err := s.builder.Build(frontend.Request{Kind: frontend.KindIndexing, MainPath: path, Arguments: arguments})
		if err != nil {
			return nil, nil, fmt.Errorf("scheduler: indexing %s: %w", path, err)
		}

		for _, fid := range unit.Files() {
			idx := indexFile(unit, fid)
			hctx.Merge(idx)
			p, _ := unit.Path(fid)
			summaries = append(summaries, FileSummary{Path: p, FileID: fid, Index: idx})
		}
		unit.Close()
	}

	return summaries, hctx, nil
}

// indexFile visits one file's AST and finalizes its Symbol Index.
func indexFile(unit *frontend.CompilationUnit, fid types.FileID) symbolindex.FileIndex {
	content, _ := unit.Content(fid)
	root := unit.Root(fid)
	if root == nil {
		return symbolindex.FileIndex{}
	}

	result := visitor.New(fid, content).Visit(root)

	b := symbolindex.NewBuilder()
	for _, d := range result.Decls {
		b.AddSymbol(d.Symbol)
		b.AddOccurrence(d.Range, d.Symbol.ID)
	}
	for _, r := range result.Relations {
		b.AddRelation(r.Source, types.Relation{Kind: r.Kind, Range: r.Range, Target: r.Target})
	}
	return b.Finalize()
}

// ShortSymbolID renders a SymbolID as the base-63 string a debug surface
// prints instead of a raw 64-bit integer (spec §4.10's SymbolID is an
// opaque stable hash; idcodec is this module's display encoding for it).
func ShortSymbolID(id types.SymbolID) string {
	return idcodec.EncodeSymbolID(id)
}

// ShortCompositeID renders a symbol's (file, local-position-within-file)
// pair as idcodec's shorter composite form — used once a debug listing
// already knows which FileSummary a symbol came from, so it doesn't need
// the full 64-bit hash to disambiguate it on that line.
func ShortCompositeID(fid types.FileID, localIndex int) string {
	return idcodec.EncodeComposite(fid, uint32(localIndex))
}

// ResolveSymbolFilter parses a "--symbol" command-line argument into a
// SymbolID, accepting either an idcodec short form (as printed by
// ShortSymbolID) or a plain decimal uint64 — cmd/lcserver's "index --symbol"
// flag uses this before scanning FileSummary.Index.Symbols for a match.
func ResolveSymbolFilter(arg string) (types.SymbolID, error) {
	if idcodec.IsValidSymbolID(arg) {
		id, err := idcodec.DecodeSymbolID(arg)
		if err != nil {
			return 0, fmt.Errorf("scheduler: decoding symbol filter %q: %w", arg, err)
		}
		return id, nil
	}
	n, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("scheduler: %q is not a valid symbol id (short form or decimal): %w", arg, err)
	}
	return types.SymbolID(n), nil
}
