package symbolindex

import (
	"testing"

	"github.com/standardbeagle/lcserver/internal/types"
)

func buildSimple() FileIndex {
	b := NewBuilder()
	b.AddSymbol(types.Symbol{ID: 2, Name: "bar", Kind: types.KindFunction})
	b.AddSymbol(types.Symbol{ID: 1, Name: "foo", Kind: types.KindFunction})
	b.AddOccurrence(types.LocalSourceRange{Begin: 10, End: 13}, 1)
	b.AddOccurrence(types.LocalSourceRange{Begin: 0, End: 3}, 1)
	b.AddRelation(1, types.Relation{Kind: types.Callee, Target: 2, Range: types.LocalSourceRange{Begin: 10, End: 13}})
	return b.Finalize()
}

func TestFinalizeOrdersSymbolsByID(t *testing.T) {
	idx := buildSimple()
	if len(idx.Symbols) != 2 || idx.Symbols[0].ID != 1 || idx.Symbols[1].ID != 2 {
		t.Fatalf("expected symbols ordered by id, got %+v", idx.Symbols)
	}
}

func TestFinalizeOrdersRangesAndRewritesOccurrences(t *testing.T) {
	idx := buildSimple()
	if len(idx.Ranges) != 2 || idx.Ranges[0].Begin != 0 || idx.Ranges[1].Begin != 10 {
		t.Fatalf("expected ranges sorted by offset, got %+v", idx.Ranges)
	}
	for _, occ := range idx.Occurrences {
		if occ.SymbolIdx != 0 {
			t.Fatalf("expected every occurrence to index symbol 0 (foo), got %+v", occ)
		}
	}
}

func TestFinalizeIsDeterministic(t *testing.T) {
	a := buildSimple()
	b := buildSimple()
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatal("two Finalize calls over identical inputs produced different fingerprints")
	}
}

func TestFinalizeDedupsRelations(t *testing.T) {
	b := NewBuilder()
	rel := types.Relation{Kind: types.Callee, Target: 2, Range: types.LocalSourceRange{Begin: 1, End: 2}}
	b.AddSymbol(types.Symbol{ID: 1, Name: "foo"})
	b.AddRelation(1, rel)
	b.AddRelation(1, rel)
	idx := b.Finalize()
	if len(idx.Symbols[0].Relations) != 1 {
		t.Fatalf("expected duplicate relation to be dropped, got %+v", idx.Symbols[0].Relations)
	}
}

func TestHeaderContextManagerFoldsIdenticalIndices(t *testing.T) {
	m := NewHeaderContextManager()
	idxA := buildSimple()
	idxB := buildSimple()

	hctx1, cctx1 := m.Merge(idxA)
	hctx2, cctx2 := m.Merge(idxB)

	if hctx1 == hctx2 {
		t.Fatal("expected distinct hctx_ids per inclusion site")
	}
	if cctx1 != cctx2 {
		t.Fatalf("expected byte-identical indices to fold into one cctx_id, got %d and %d", cctx1, cctx2)
	}
}

func TestHeaderContextManagerErase(t *testing.T) {
	m := NewHeaderContextManager()
	hctx, cctx := m.Merge(buildSimple())

	if got, ok := m.CctxFor(hctx); !ok || got != cctx {
		t.Fatalf("expected CctxFor(%d) == %d, got %d ok=%v", hctx, cctx, got, ok)
	}

	m.Erase(hctx)
	if _, ok := m.CctxFor(hctx); ok {
		t.Fatal("expected hctx_id to be released after Erase")
	}
}

func TestHeaderContextManagerRemoveRoundTripRestoresCounts(t *testing.T) {
	m := NewHeaderContextManager()

	baselineHeaderCount := m.HeaderContextCount()
	baselineUniqueCount := m.UniqueContextCount()

	// add_context(path, site_i) for three inclusion sites: two identical
	// (fold into one cctx_id) and one distinct.
	b := NewBuilder()
	b.AddSymbol(types.Symbol{ID: 99, Name: "unique"})
	distinct := b.Finalize()

	hctxA, _ := m.Merge(buildSimple())
	hctxB, _ := m.Merge(buildSimple())
	hctxC, _ := m.Merge(distinct)

	if got, want := m.HeaderContextCount(), baselineHeaderCount+3; got != want {
		t.Fatalf("after three Merge calls, expected header_context_count %d, got %d", want, got)
	}
	if got, want := m.UniqueContextCount(), baselineUniqueCount+2; got != want {
		t.Fatalf("after three Merge calls (two identical, one distinct), expected unique_context_count %d, got %d", want, got)
	}

	// remove(path) for every site_i added above, in a different order than
	// they were added.
	m.Remove(hctxC)
	m.Remove(hctxB)
	m.Remove(hctxA)

	if got := m.HeaderContextCount(); got != baselineHeaderCount {
		t.Fatalf("expected header_context_count to return to %d after the full add/remove sequence, got %d", baselineHeaderCount, got)
	}
	if got := m.UniqueContextCount(); got != baselineUniqueCount {
		t.Fatalf("expected unique_context_count to return to %d after the full add/remove sequence, got %d", baselineUniqueCount, got)
	}

	// The freed hctx_id/cctx_id slots must be reused, not abandoned, so a
	// long add/remove-heavy session doesn't grow the id space unbounded.
	hctxD, _ := m.Merge(buildSimple())
	if hctxD != hctxA && hctxD != hctxB && hctxD != hctxC {
		t.Fatalf("expected a freed hctx_id to be reused, got fresh id %d", hctxD)
	}
	m.Remove(hctxD)
}

func TestHeaderContextManagerDistinguishesDifferentIndices(t *testing.T) {
	m := NewHeaderContextManager()
	b := NewBuilder()
	b.AddSymbol(types.Symbol{ID: 99, Name: "unique"})
	idxB := b.Finalize()

	_, cctxA := m.Merge(buildSimple())
	_, cctxB := m.Merge(idxB)

	if cctxA == cctxB {
		t.Fatal("expected differing indices to allocate distinct cctx_ids")
	}
}
