package scheduler

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/standardbeagle/lcserver/internal/compiledb"
	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/logging"
	"github.com/standardbeagle/lcserver/internal/pchcache"
	"github.com/standardbeagle/lcserver/internal/preamble"
	"github.com/standardbeagle/lcserver/internal/types"
)

// runASTTask is the body of one edit's build task: it serializes on the
// file's buildMu (so a stale in-flight build for the same path never races
// a fresh one past it), reuses or rebuilds the PCH, then runs the full
// content build and publishes diagnostics — spec §4.11's "On edit"
// procedure end to end.
func (s *Scheduler) runASTTask(ctx context.Context, f *OpenFile, gen int64, content []byte, version int64) {
	f.buildMu.Lock()
	defer f.buildMu.Unlock()

	if ctx.Err() != nil || s.stale(f, gen) {
		return
	}

	// The compile database's directory only matters for a real driver
	// resolving its own relative -I flags; frontend.Builder resolves
	// #include targets against IncludeDirs instead, so it is unused here.
	_, arguments, _ := s.db.Lookup(f.Path, compiledb.LookupOptions{})

	bound := preamble.ComputeBound(content)

	info, reused := s.cache.ReusePCH(pchcache.ReuseQuery{
		Path: f.Path, Content: content, PreambleBound: int(bound), ArgumentVector: arguments,
	})
	if !reused {
		var err error
		info, err = s.buildPCH(f, content, bound, arguments)
		if err != nil {
			logging.Warnf(ctx, "scheduler: pch build failed for %s: %v", f.Path, err)
		}
	}

	if s.stale(f, gen) {
		return
	}
	f.astMu.Lock()
	f.pch = info
	f.astMu.Unlock()
	f.mu.Lock()
	if f.generation == gen {
		close(f.pchReady)
	}
	f.mu.Unlock()

	if ctx.Err() != nil || s.stale(f, gen) {
		return
	}

	stopFlag, stopWatch := bridgeStopFlag(ctx)
	defer stopWatch()

	unit, err := s.builder.Build(frontend.Request{
		Kind:      frontend.KindContent,
		MainPath:  f.Path,
		Arguments: arguments,
		Remapped:  map[string][]byte{f.Path: content},
		StopFlag:  stopFlag,
	})
	if err != nil {
		logging.Warnf(ctx, "scheduler: ast build failed for %s: %v", f.Path, err)
		return
	}

	if s.stale(f, gen) {
		unit.Close()
		return
	}

	diags := unit.Diagnostics()
	f.astMu.Lock()
	if f.ast != nil {
		f.ast.Close()
	}
	f.ast = unit
	f.diags = diags
	f.astMu.Unlock()

	if s.publish != nil {
		s.publish(f.Path, version, diags)
	}
}

// stale reports whether gen is no longer the file's current generation,
// i.e. a newer edit has superseded the task checking this.
func (s *Scheduler) stale(f *OpenFile, gen int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation != gen
}

// buildPCH discovers the preamble's transitive #include dependencies,
// writes a placeholder PCH artifact to the cache directory (temp file +
// rename, spec §6's atomic-write idiom), and stores the resulting PCHInfo.
func (s *Scheduler) buildPCH(f *OpenFile, content []byte, bound uint32, arguments []string) (types.PCHInfo, error) {
	deps := discoverPCHDeps(s.builder, f.Path, content, bound)
	deps = append(deps, f.Path)

	outputPath := s.pchArtifactPath(f.Path)
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return types.PCHInfo{}, fmt.Errorf("scheduler: creating cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.cacheDir, "pch-*.tmp")
	if err != nil {
		return types.PCHInfo{}, fmt.Errorf("scheduler: creating pch temp file: %w", err)
	}
	tmpPath := tmp.Name()
	end := min(int(bound), len(content))
	if _, err := tmp.Write(content[:end]); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return types.PCHInfo{}, fmt.Errorf("scheduler: writing pch artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return types.PCHInfo{}, fmt.Errorf("scheduler: closing pch artifact: %w", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return types.PCHInfo{}, fmt.Errorf("scheduler: renaming pch artifact: %w", err)
	}

	info := pchcache.BuildPCHInfo(outputPath, content, int(bound), deps, arguments)
	s.cache.StorePCH(f.Path, info)
	return info, nil
}

// includeDirective is one #include line found while scanning a file's text.
type includeDirective struct {
	name   string
	angled bool
}

var includeRe = regexp.MustCompile(`(?m)^[ \t]*#[ \t]*include[ \t]+(<([^>]+)>|"([^"]+)")`)

// scanIncludes finds every #include directive in content[:limit] (or the
// whole buffer, if limit is out of range) — textual scanning only, like
// internal/preamble: no macro expansion and no #if evaluation, so a
// conditionally-compiled-out #include is still reported (internal/directive,
// which evaluates conditions, drops it).
func scanIncludes(content []byte, limit int) []includeDirective {
	if limit < 0 || limit > len(content) {
		limit = len(content)
	}
	region := content[:limit]
	var out []includeDirective
	for _, m := range includeRe.FindAllSubmatch(region, -1) {
		if len(m[2]) > 0 {
			out = append(out, includeDirective{name: string(m[2]), angled: true})
		} else {
			out = append(out, includeDirective{name: string(m[3]), angled: false})
		}
	}
	return out
}

// discoverPCHDeps walks the #include graph reachable from the preamble
// region of mainPath's content, resolving each include through builder's
// search path (spec §4.7: "dependencies of a PCH are the files transitively
// included while building it"). Resolution failures are skipped silently —
// an unresolvable include is the front end's problem to diagnose, not the
// cache's.
func discoverPCHDeps(builder *frontend.Builder, mainPath string, content []byte, bound uint32) []string {
	seen := map[string]bool{mainPath: true}
	var deps []string

	type pending struct {
		content []byte
		limit   int
	}
	queue := []pending{{content, int(bound)}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, inc := range scanIncludes(cur.content, cur.limit) {
			path, ok := builder.ResolveInclude(inc.name, inc.angled)
			if !ok || seen[path] {
				continue
			}
			seen[path] = true
			deps = append(deps, path)
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			queue = append(queue, pending{data, len(data)})
		}
	}
	return deps
}

// bridgeStopFlag returns a frontend.StopFlag that becomes set the moment ctx
// is cancelled, plus a cleanup func to stop the watcher goroutine once the
// build this flag guards has finished. frontend.CompilationUnit builders
// cooperate with the spec's stop_flag, not context.Context directly — this
// is the one place the two cancellation idioms meet.
func bridgeStopFlag(ctx context.Context) (*frontend.StopFlag, func()) {
	sf := &frontend.StopFlag{}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			sf.Set()
		case <-done:
		}
	}()
	return sf, func() { close(done) }
}
