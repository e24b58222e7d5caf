// Package scheduler implements the Open-File Scheduler (spec §4.11): one
// OpenFile per editor-open path, single-threaded-cooperative coordination of
// its PCH and AST build tasks, and cancellation of stale work when an edit
// arrives.
//
// Grounded on internal/server/server.go's IndexServer — a long-lived,
// mutex-guarded struct with background goroutines signaled over channels —
// generalized from "one indexer for the whole workspace" into "one task
// pair per open file", per SPEC_FULL.md §4.11. Heavy work is offloaded to
// internal/workerpool (golang.org/x/sync/semaphore), and context.Context
// plays the role of the spec's cooperative stop_flag (propagated into
// internal/frontend's own StopFlag at the point a compiler invocation
// starts), the Go-native analogue of spec.md §9's "coroutines + one-shot
// events".
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lcserver/internal/compiledb"
	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/logging"
	"github.com/standardbeagle/lcserver/internal/pchcache"
	"github.com/standardbeagle/lcserver/internal/types"
	"github.com/standardbeagle/lcserver/internal/workerpool"
)

// DiagnosticsPublisher delivers one file's diagnostics for a given edit
// version. The Scheduler guarantees it is never called with diagnostics
// from a version older than one already published for the same path (spec
// §5's ordering guarantee).
type DiagnosticsPublisher func(path string, version int64, diags []frontend.Diagnostic)

// OpenFile is the mutable, Scheduler-owned state for one editor-open path
// (spec §3's OpenFile).
type OpenFile struct {
	Path string

	// bookkeeping is guarded by mu: content/version/cancel funcs/generation.
	// Query snapshots take astMu instead, so a query never blocks behind an
	// in-flight edit's bookkeeping update.
	mu         sync.Mutex
	content    []byte
	version    int64
	generation int64
	astCancel  context.CancelFunc // also guards the PCH build: both run as one task under this context
	pchReady   chan struct{}      // closed once the current generation's PCH build completes

	// astMu guards the published AST/diagnostics/PCH fields queries read.
	// RWMutex so a query can try-acquire shared mode per §4.11 step 1 while
	// a build holds it exclusively to publish a fresh unit.
	astMu sync.RWMutex
	ast   *frontend.CompilationUnit
	diags []frontend.Diagnostic
	pch   types.PCHInfo

	// buildMu serializes the two invariants from §4.11: at most one
	// outstanding PCH build task and at most one outstanding AST build task
	// for this file. A new edit's task queues behind whatever is currently
	// running here, exactly as the spec requires ("queues other ASTs on
	// this file behind it").
	buildMu sync.Mutex
}

// Scheduler owns every open file and the shared pipeline components each
// file's tasks are built against.
type Scheduler struct {
	pool     *workerpool.Pool
	builder  *frontend.Builder
	db       *compiledb.DB
	cache    *pchcache.Cache
	cacheDir string
	publish  DiagnosticsPublisher

	mu    sync.Mutex
	files map[string]*OpenFile
}

// New constructs a Scheduler. cacheDir is where PCH artifacts and cache.json
// live (spec §6); publish delivers diagnostics to the editor.
func New(pool *workerpool.Pool, builder *frontend.Builder, db *compiledb.DB, cache *pchcache.Cache, cacheDir string, publish DiagnosticsPublisher) *Scheduler {
	return &Scheduler{
		pool: pool, builder: builder, db: db, cache: cache, cacheDir: cacheDir,
		publish: publish, files: make(map[string]*OpenFile),
	}
}

func (s *Scheduler) fileFor(path string) *OpenFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[path]
	if !ok {
		f = &OpenFile{Path: path, pchReady: make(chan struct{})}
		s.files[path] = f
	}
	return f
}

// DidOpen creates (or replaces) a file's state on first editor open and
// kicks off its first AST build.
func (s *Scheduler) DidOpen(path string, content []byte, version int64) {
	f := s.fileFor(path)
	s.onEdit(f, content, version)
}

// DidChange replaces content, bumps version, cancels the in-flight PCH/AST
// tasks for this file, and starts fresh ones — step 1-2 of spec §4.11's
// "On edit" procedure.
func (s *Scheduler) DidChange(path string, content []byte, version int64) {
	f := s.fileFor(path)
	s.onEdit(f, content, version)
}

// DidSave is a no-op for the compilation pipeline: full-document sync means
// didChange already carries the authoritative content (spec §6).
func (s *Scheduler) DidSave(path string) {}

// DidClose destroys a file's state: cancels outstanding tasks, releases its
// AST, and deletes its PCH artifact from disk once its reference count
// (always 1 in this single-owner model) drops to zero (spec §3 lifecycle).
func (s *Scheduler) DidClose(path string) {
	s.mu.Lock()
	f, ok := s.files[path]
	if ok {
		delete(s.files, path)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	f.mu.Lock()
	if f.astCancel != nil {
		f.astCancel()
	}
	f.mu.Unlock()

	f.astMu.Lock()
	if f.ast != nil {
		f.ast.Close()
		f.ast = nil
	}
	pchPath := f.pch.OutputPath
	f.astMu.Unlock()

	if pchPath != "" {
		if err := os.Remove(pchPath); err != nil && !os.IsNotExist(err) {
			logging.Warnf(context.Background(), "scheduler: removing pch artifact %s: %v", pchPath, err)
		}
	}
}

// onEdit is the shared body of DidOpen/DidChange: replace content, cancel
// whatever task is in flight, and launch a fresh AST build (which itself
// awaits a fresh PCH build).
func (s *Scheduler) onEdit(f *OpenFile, content []byte, version int64) {
	f.mu.Lock()
	f.content = content
	f.version = version
	f.generation++
	gen := f.generation
	if f.astCancel != nil {
		f.astCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.astCancel = cancel
	f.pchReady = make(chan struct{})
	f.mu.Unlock()

	workerpool.Submit(ctx, s.pool, func(ctx context.Context) (struct{}, error) {
		s.runASTTask(ctx, f, gen, content, version)
		return struct{}{}, nil
	})
}

// pchArtifactPath deterministically names a file's cached PCH on disk from
// an xxhash of its path, so two open files never collide in the flat cache
// directory (spec §6's "<cache>/<basename>.pch").
func (s *Scheduler) pchArtifactPath(path string) string {
	return filepath.Join(s.cacheDir, fmt.Sprintf("%016x.pch", xxhash.Sum64String(path)))
}
