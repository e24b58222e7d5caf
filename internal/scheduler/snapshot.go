package scheduler

import (
	"context"

	"github.com/standardbeagle/lcserver/internal/compiledb"
	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/types"
)

// Snapshot is a consistent, read-only view of an open file's latest
// published build — what feature queries (internal/features) are handed
// instead of touching OpenFile's internals directly.
type Snapshot struct {
	Path    string
	Version int64
	AST     *frontend.CompilationUnit
	Diags   []frontend.Diagnostic
	PCH     types.PCHInfo
}

// Snapshot returns the most recently published AST/diagnostics for path,
// taking the shared lock per spec §4.11 step 1 ("try to acquire the AST's
// lock in shared mode"). ok is false if the file isn't open or has never
// finished an initial build.
func (s *Scheduler) Snapshot(path string) (Snapshot, bool) {
	s.mu.Lock()
	f, ok := s.files[path]
	s.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}

	f.astMu.RLock()
	defer f.astMu.RUnlock()
	if f.ast == nil {
		return Snapshot{}, false
	}

	f.mu.Lock()
	version := f.version
	f.mu.Unlock()

	return Snapshot{Path: path, Version: version, AST: f.ast, Diags: f.diags, PCH: f.pch}, true
}

// WaitForPCH blocks until path's current-generation PCH build completes or
// ctx is done, then returns a Snapshot containing the PCHInfo — the carve-
// out spec §4.11 makes for completion requests, which only need the PCH
// (for the resumed parse at the cursor) and must not wait on a full AST
// rebuild.
func (s *Scheduler) WaitForPCH(ctx context.Context, path string) (Snapshot, bool) {
	s.mu.Lock()
	f, ok := s.files[path]
	s.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}

	f.mu.Lock()
	ready := f.pchReady
	f.mu.Unlock()

	select {
	case <-ready:
	case <-ctx.Done():
		return Snapshot{}, false
	}

	f.astMu.RLock()
	defer f.astMu.RUnlock()
	f.mu.Lock()
	version := f.version
	f.mu.Unlock()
	return Snapshot{Path: path, Version: version, PCH: f.pch}, true
}

// Completion runs a dedicated Kind: KindCompletion build at pos once the
// file's PCH is ready, per spec §4.11's completion carve-out: completion
// never waits behind the full-content AST build queued for the same edit.
func (s *Scheduler) Completion(ctx context.Context, path string, offset uint32) (*frontend.CompilationUnit, error) {
	snap, ok := s.WaitForPCH(ctx, path)
	if !ok {
		return nil, context.Canceled
	}

	s.mu.Lock()
	f, ok := s.files[path]
	s.mu.Unlock()
	if !ok {
		return nil, context.Canceled
	}

	f.mu.Lock()
	content := f.content
	f.mu.Unlock()

	_, arguments, _ := s.db.Lookup(path, compiledb.LookupOptions{})

	stopFlag, stopWatch := bridgeStopFlag(ctx)
	defer stopWatch()

	return s.builder.Build(frontend.Request{
		Kind:               frontend.KindCompletion,
		MainPath:           path,
		Arguments:          arguments,
		Remapped:           map[string][]byte{path: content},
		PCHInput:           snap.PCH.OutputPath,
		CompletionPosition: &frontend.CompletionPosition{Path: path, Offset: offset},
		StopFlag:           stopFlag,
	})
}
