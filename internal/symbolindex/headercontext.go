package symbolindex

import "github.com/standardbeagle/lcserver/internal/types"

// idAllocator hands out dense uint32 ids with a free list, so that erasing
// a translation unit reclaims its hctx_id/cctx_id allocations instead of
// leaking the id space — the dense-allocation idiom
// internal/core/dense_object_id.go applies to symbol ids, mirrored here for
// context ids per SPEC_FULL.md §4.10.
type idAllocator struct {
	next uint32
	free []uint32
}

func (a *idAllocator) alloc() uint32 {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	a.next++
	return a.next
}

func (a *idAllocator) release(id uint32) {
	a.free = append(a.free, id)
}

// cctxEntry is one canonical-context slot: the fingerprint its member
// hctx_ids produced, and ref counts per §4.10.
type cctxEntry struct {
	fingerprint uint64
	hctxRefs    int
	elementRefs int
}

// HeaderContextManager assigns hctx_id per inclusion site and folds
// byte-identical per-header indices into a shared cctx_id, per spec §4.10.
type HeaderContextManager struct {
	hctxAlloc idAllocator
	cctxAlloc idAllocator

	hctxToCctx map[uint32]uint32
	cctx       map[uint32]*cctxEntry

	// fingerprintToCctx supports the merge fast path: a new index
	// byte-identical to an existing cctx_id only increments refs.
	fingerprintToCctx map[uint64]uint32

	// dependent elements: present in some but not all contexts sharing a
	// header, tracked by the set of cctx_ids they occur in.
	dependentElements map[types.SymbolID]map[uint32]struct{}
	// independent elements: present in exactly one context, tracked by the
	// hctx_ids it occurs in (the cheap common case, per §4.10).
	independentElements map[types.SymbolID]map[uint32]struct{}

	// hctxElementContribution records, per hctx_id, how many element refs
	// that hctx_id's Merge call added to its cctx_id's elementRefs — zero
	// for a fold into an existing context, len(idx.Symbols) for the Merge
	// that first created it. Remove uses this to undo exactly what one
	// Merge call did, so add_context/remove pairs are always reversible.
	hctxElementContribution map[uint32]int
}

// NewHeaderContextManager constructs an empty manager.
func NewHeaderContextManager() *HeaderContextManager {
	return &HeaderContextManager{
		hctxToCctx:              make(map[uint32]uint32),
		cctx:                    make(map[uint32]*cctxEntry),
		fingerprintToCctx:       make(map[uint64]uint32),
		dependentElements:       make(map[types.SymbolID]map[uint32]struct{}),
		independentElements:     make(map[types.SymbolID]map[uint32]struct{}),
		hctxElementContribution: make(map[uint32]int),
	}
}

// Merge registers a freshly built FileIndex for one inclusion site, folding
// it into an existing cctx_id when byte-identical, or allocating a new one
// otherwise. Returns the assigned hctx_id and cctx_id.
func (m *HeaderContextManager) Merge(idx FileIndex) (hctxID, cctxID uint32) {
	hctxID = m.hctxAlloc.alloc()
	fp := Fingerprint(idx)

	if existing, ok := m.fingerprintToCctx[fp]; ok {
		m.hctxToCctx[hctxID] = existing
		m.cctx[existing].hctxRefs++
		m.registerElements(idx, existing, hctxID, false)
		m.hctxElementContribution[hctxID] = 0
		return hctxID, existing
	}

	cctxID = m.cctxAlloc.alloc()
	m.fingerprintToCctx[fp] = cctxID
	m.cctx[cctxID] = &cctxEntry{fingerprint: fp, hctxRefs: 1}
	m.hctxToCctx[hctxID] = cctxID
	m.registerElements(idx, cctxID, hctxID, true)
	m.hctxElementContribution[hctxID] = len(idx.Symbols)
	return hctxID, cctxID
}

func (m *HeaderContextManager) registerElements(idx FileIndex, cctxID, hctxID uint32, firstOccurrence bool) {
	for _, s := range idx.Symbols {
		if firstOccurrence {
			// A freshly allocated cctx_id starts as the element's only
			// context: independent until a later Merge proves it dependent.
			set := m.independentElements[s.ID]
			if set == nil {
				set = make(map[uint32]struct{})
				m.independentElements[s.ID] = set
			}
			set[hctxID] = struct{}{}
			m.cctx[cctxID].elementRefs++
			continue
		}
		if _, wasIndependent := m.independentElements[s.ID]; wasIndependent {
			delete(m.independentElements, s.ID)
			dep := make(map[uint32]struct{})
			dep[cctxID] = struct{}{}
			m.dependentElements[s.ID] = dep
			continue
		}
		if dep, ok := m.dependentElements[s.ID]; ok {
			dep[cctxID] = struct{}{}
		}
	}
}

// CctxFor returns the cctx_id an hctx_id was folded into.
func (m *HeaderContextManager) CctxFor(hctxID uint32) (uint32, bool) {
	id, ok := m.hctxToCctx[hctxID]
	return id, ok
}

// Erase releases one translation unit's hctx_id, decrementing ref counts
// and reclaiming ids to the free list once nothing references them.
func (m *HeaderContextManager) Erase(hctxID uint32) {
	cctxID, ok := m.hctxToCctx[hctxID]
	if !ok {
		return
	}
	delete(m.hctxToCctx, hctxID)
	m.hctxAlloc.release(hctxID)

	entry := m.cctx[cctxID]
	if entry == nil {
		return
	}
	entry.hctxRefs--
	if entry.hctxRefs <= 0 && entry.elementRefs <= 0 {
		delete(m.cctx, cctxID)
		delete(m.fingerprintToCctx, entry.fingerprint)
		m.cctxAlloc.release(cctxID)
	}
}

// DecrementElementRef decrements the contextual-element reference count
// for cctxID, reclaiming the id once both ref counts reach zero.
func (m *HeaderContextManager) DecrementElementRef(cctxID uint32) {
	entry := m.cctx[cctxID]
	if entry == nil {
		return
	}
	entry.elementRefs--
	if entry.hctxRefs <= 0 && entry.elementRefs <= 0 {
		delete(m.cctx, cctxID)
		delete(m.fingerprintToCctx, entry.fingerprint)
		m.cctxAlloc.release(cctxID)
	}
}

// Remove is the inverse of Merge for one inclusion site: it releases
// hctxID and undoes exactly the elementRefs contribution that Merge made
// when it produced hctxID, so that for any sequence of Merge(path, site)
// calls followed by Remove(path, site) for every one of them,
// HeaderContextCount and UniqueContextCount return to their values from
// before the sequence (spec §8).
func (m *HeaderContextManager) Remove(hctxID uint32) {
	cctxID, ok := m.hctxToCctx[hctxID]
	if !ok {
		return
	}
	contribution := m.hctxElementContribution[hctxID]
	delete(m.hctxElementContribution, hctxID)
	delete(m.hctxToCctx, hctxID)
	m.hctxAlloc.release(hctxID)

	entry := m.cctx[cctxID]
	if entry == nil {
		return
	}
	entry.hctxRefs--
	entry.elementRefs -= contribution
	if entry.hctxRefs <= 0 && entry.elementRefs <= 0 {
		delete(m.cctx, cctxID)
		delete(m.fingerprintToCctx, entry.fingerprint)
		m.cctxAlloc.release(cctxID)
	}
}

// HeaderContextCount returns the number of currently live hctx_ids —
// spec §8's header_context_count.
func (m *HeaderContextManager) HeaderContextCount() int {
	return len(m.hctxToCctx)
}

// UniqueContextCount returns the number of currently live cctx_ids —
// spec §8's unique_context_count.
func (m *HeaderContextManager) UniqueContextCount() int {
	return len(m.cctx)
}
