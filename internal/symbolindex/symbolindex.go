// Package symbolindex implements the Symbol Indexer & Header-Context
// Manager (spec §4.10): per-file canonical symbol/range/occurrence tables,
// a deterministic finalization procedure, and the dense hctx_id/cctx_id
// allocation that lets the same header be parsed under different macro
// environments without indexing it once per inclusion site.
//
// Grounded on internal/core/index_types.go / index_coordinator.go (per-file
// canonical tables, permutation-based finalization) and
// internal/core/dense_object_id.go (dense id allocation, mirrored here for
// cctx_id/hctx_id free-list allocation) per SPEC_FULL.md §4.10.
package symbolindex

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lcserver/internal/types"
)

// FileIndex is one file's canonicalized symbol/range/occurrence storage
// (spec §4.10's "per-FileID storage").
type FileIndex struct {
	Symbols     []types.Symbol
	Ranges      []types.LocalSourceRange
	Occurrences []Occurrence
}

// Occurrence indexes into FileIndex.Ranges and FileIndex.Symbols rather
// than embedding a types.Occurrence directly, matching §4.10's
// {range_idx, symbol_idx} storage.
type Occurrence struct {
	RangeIdx  int
	SymbolIdx int
}

// Builder accumulates raw (not yet canonicalized) symbols/ranges/occurrences
// for one file as the Semantic Visitor produces them.
type Builder struct {
	symbols     map[types.SymbolID]*types.Symbol
	occurrences []rawOccurrence
}

type rawOccurrence struct {
	Range  types.LocalSourceRange
	Symbol types.SymbolID
}

// NewBuilder starts an empty per-file index builder.
func NewBuilder() *Builder {
	return &Builder{symbols: make(map[types.SymbolID]*types.Symbol)}
}

// AddSymbol registers (or merges into) a symbol's entry.
func (b *Builder) AddSymbol(s types.Symbol) {
	existing, ok := b.symbols[s.ID]
	if !ok {
		copyOf := s
		copyOf.Relations = append([]types.Relation(nil), s.Relations...)
		b.symbols[s.ID] = &copyOf
		return
	}
	existing.Relations = append(existing.Relations, s.Relations...)
}

// AddRelation attaches one relation to the symbol owning it.
func (b *Builder) AddRelation(owner types.SymbolID, rel types.Relation) {
	s, ok := b.symbols[owner]
	if !ok {
		s = &types.Symbol{ID: owner}
		b.symbols[owner] = s
	}
	s.Relations = append(s.Relations, rel)
}

// AddOccurrence records one occurrence of symbol at rng.
func (b *Builder) AddOccurrence(rng types.LocalSourceRange, symbol types.SymbolID) {
	b.occurrences = append(b.occurrences, rawOccurrence{Range: rng, Symbol: symbol})
}

// Finalize canonicalizes the accumulated data per spec §4.10:
//  1. build permutations sorting symbols by (id, name, kind) and ranges
//     lexicographically;
//  2. rewrite occurrence/relation indices through those permutations;
//  3. sort occurrences and each symbol's relations, dropping duplicates.
//
// Two Finalize calls over the same inputs produce byte-identical output.
func (b *Builder) Finalize() FileIndex {
	symbols := make([]types.Symbol, 0, len(b.symbols))
	for _, s := range b.symbols {
		symbols = append(symbols, *s)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbolLess(symbols[i], symbols[j]) })

	for i := range symbols {
		symbols[i].Relations = dedupRelations(symbols[i].Relations)
	}

	rangeIndex := make(map[types.LocalSourceRange]int)
	var ranges []types.LocalSourceRange
	for _, occ := range b.occurrences {
		if _, ok := rangeIndex[occ.Range]; !ok {
			rangeIndex[occ.Range] = len(ranges)
			ranges = append(ranges, occ.Range)
		}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Less(ranges[j]) })
	for i, r := range ranges {
		rangeIndex[r] = i
	}

	symbolIndex := make(map[types.SymbolID]int, len(symbols))
	for i, s := range symbols {
		symbolIndex[s.ID] = i
	}

	occSet := make(map[Occurrence]struct{})
	var occurrences []Occurrence
	for _, occ := range b.occurrences {
		o := Occurrence{RangeIdx: rangeIndex[occ.Range], SymbolIdx: symbolIndex[occ.Symbol]}
		if _, seen := occSet[o]; seen {
			continue
		}
		occSet[o] = struct{}{}
		occurrences = append(occurrences, o)
	}
	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].RangeIdx != occurrences[j].RangeIdx {
			return occurrences[i].RangeIdx < occurrences[j].RangeIdx
		}
		return occurrences[i].SymbolIdx < occurrences[j].SymbolIdx
	})

	return FileIndex{Symbols: symbols, Ranges: ranges, Occurrences: occurrences}
}

func symbolLess(a, b types.Symbol) bool {
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Kind < b.Kind
}

func dedupRelations(rels []types.Relation) []types.Relation {
	sort.Slice(rels, func(i, j int) bool { return rels[i].Less(rels[j]) })
	out := rels[:0]
	for i, r := range rels {
		if i == 0 || r != rels[i-1] {
			out = append(out, r)
		}
	}
	return out
}

// Fingerprint returns a deterministic hash of a finalized FileIndex,
// suitable for the "byte-identical indices" comparison the Header-Context
// Manager's merge fast path relies on.
func Fingerprint(idx FileIndex) uint64 {
	var buf bytes.Buffer
	for _, s := range idx.Symbols {
		binary.Write(&buf, binary.LittleEndian, uint64(s.ID))
		binary.Write(&buf, binary.LittleEndian, uint8(s.Kind))
		buf.WriteString(s.Name)
		for _, r := range s.Relations {
			binary.Write(&buf, binary.LittleEndian, uint8(r.Kind))
			binary.Write(&buf, binary.LittleEndian, uint64(r.Target))
			binary.Write(&buf, binary.LittleEndian, r.Range.Begin)
			binary.Write(&buf, binary.LittleEndian, r.Range.End)
		}
	}
	for _, r := range idx.Ranges {
		binary.Write(&buf, binary.LittleEndian, r.Begin)
		binary.Write(&buf, binary.LittleEndian, r.End)
	}
	for _, o := range idx.Occurrences {
		binary.Write(&buf, binary.LittleEndian, uint32(o.RangeIdx))
		binary.Write(&buf, binary.LittleEndian, uint32(o.SymbolIdx))
	}
	return xxhash.Sum64(buf.Bytes())
}
