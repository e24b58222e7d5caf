// Package pchcache implements the PCH/PCM Cache (spec §4.7): a map from
// open-file path to its cached PCHInfo, plus a map from module name to its
// PCMInfo, with a reuse predicate and atomic on-disk persistence.
//
// Grounded on internal/cache/metrics_cache.go's sync.Map-based cache —
// adapted from a TTL metrics cache into a reuse-predicate cache keyed by
// path/module name instead of content hash — persisted through
// encoding/json and a temp-file + os.Rename, the atomic-write idiom the
// teacher applies to its own on-disk state.
package pchcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lcserver/internal/types"
)

// Cache holds PCH entries by open-file path and PCM entries by module name.
// Reads are lock-free via sync.Map. Flush holds a mutex so two flushes do
// not interleave; stores do not take it, so a store made while Flush ranges
// over the maps may or may not be in that snapshot.
type Cache struct {
	pch sync.Map // path -> types.PCHInfo
	pcm sync.Map // module name -> types.PCMInfo
	mu  sync.Mutex

	dir string
}

// New constructs an empty Cache persisting to dir/cache.json.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// cacheVersion is bumped whenever diskSnapshot's shape changes incompatibly.
const cacheVersion = 1

// pchEntry is one element of cache.json's "pchs" array:
// {file, path, preamble, mtime, deps, arguments}; no "includes" field is
// written. "file" is the
// open-file path this PCH was built for; "path" is the .pch output path.
type pchEntry struct {
	File      string    `json:"file"`
	Path      string    `json:"path"`
	Preamble  []byte    `json:"preamble"`
	Mtime     time.Time `json:"mtime"`
	Deps      []string  `json:"deps"`
	Arguments []string  `json:"arguments"`
}

// pcmEntry is one element of cache.json's "pcms" array — not part of the
// spec's literal §6 shape (which only names PCH entries), extended here so
// PCM reuse survives a restart too.
type pcmEntry struct {
	Name                string   `json:"name"`
	SourcePath          string   `json:"source_path"`
	OutputPath          string   `json:"output_path"`
	InterfaceUnit       bool     `json:"interface_unit"`
	ImportedModuleNames []string `json:"imported_module_names"`
	Deps                []string `json:"deps"`
}

// diskSnapshot is the persisted shape of cache.json.
type diskSnapshot struct {
	Version int        `json:"version"`
	PCHs    []pchEntry `json:"pchs"`
	PCMs    []pcmEntry `json:"pcms"`
}

func (c *Cache) path() string { return filepath.Join(c.dir, "cache.json") }

// Load reloads the cache state from cache.json. A missing file is not an
// error — the cache simply starts empty.
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pchcache: reading cache.json: %w", err)
	}
	var snap diskSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("pchcache: parsing cache.json: %w", err)
	}
	for _, e := range snap.PCHs {
		c.pch.Store(e.File, types.PCHInfo{
			OutputPath:         e.Path,
			Mtime:              e.Mtime,
			PreambleBytePrefix: e.Preamble,
			PreambleHash:       xxhash.Sum64(e.Preamble),
			DepFiles:           e.Deps,
			ArgumentVector:     e.Arguments,
		})
	}
	for _, e := range snap.PCMs {
		c.pcm.Store(e.Name, types.PCMInfo{
			Name:                e.Name,
			SourcePath:          e.SourcePath,
			OutputPath:          e.OutputPath,
			InterfaceUnit:       e.InterfaceUnit,
			ImportedModuleNames: e.ImportedModuleNames,
			DepFiles:            e.Deps,
		})
	}
	return nil
}

// Flush persists the cache state to cache.json via a temp file + rename, so
// a crash mid-write never leaves a truncated cache.json on disk.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := diskSnapshot{Version: cacheVersion}
	c.pch.Range(func(k, v any) bool {
		info := v.(types.PCHInfo)
		snap.PCHs = append(snap.PCHs, pchEntry{
			File: k.(string), Path: info.OutputPath, Preamble: info.PreambleBytePrefix,
			Mtime: info.Mtime, Deps: info.DepFiles, Arguments: info.ArgumentVector,
		})
		return true
	})
	c.pcm.Range(func(k, v any) bool {
		info := v.(types.PCMInfo)
		snap.PCMs = append(snap.PCMs, pcmEntry{
			Name: info.Name, SourcePath: info.SourcePath, OutputPath: info.OutputPath,
			InterfaceUnit: info.InterfaceUnit, ImportedModuleNames: info.ImportedModuleNames,
			Deps: info.DepFiles,
		})
		return true
	})

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("pchcache: encoding cache.json: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("pchcache: creating cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, "cache-*.json.tmp")
	if err != nil {
		return fmt.Errorf("pchcache: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("pchcache: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("pchcache: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("pchcache: renaming into place: %w", err)
	}
	return nil
}

// HashPrefix computes the cheap xxhash check used before the byte-exact
// prefix comparison in ReusePCH.
func HashPrefix(content []byte, bound int) uint64 {
	if bound < 0 || bound > len(content) {
		bound = len(content)
	}
	return xxhash.Sum64(content[:bound])
}

// LookupPCH returns the stored PCHInfo for path, if any.
func (c *Cache) LookupPCH(path string) (types.PCHInfo, bool) {
	v, ok := c.pch.Load(path)
	if !ok {
		return types.PCHInfo{}, false
	}
	return v.(types.PCHInfo), true
}

// StorePCH records a freshly built PCH, replacing any prior entry for path.
func (c *Cache) StorePCH(path string, info types.PCHInfo) {
	c.pch.Store(path, info)
}

// LookupPCM returns the stored PCMInfo for a module name, if any.
func (c *Cache) LookupPCM(name string) (types.PCMInfo, bool) {
	v, ok := c.pcm.Load(name)
	if !ok {
		return types.PCMInfo{}, false
	}
	return v.(types.PCMInfo), true
}

// StorePCM records a freshly built PCM.
func (c *Cache) StorePCM(name string, info types.PCMInfo) {
	c.pcm.Store(name, info)
}

// ReuseQuery carries the inputs ReusePCH checks against a stored PCHInfo.
type ReuseQuery struct {
	Path           string
	Content        []byte
	PreambleBound  int
	ArgumentVector []string
}

// ReusePCH evaluates the three-part reuse predicate from spec §4.7. All
// three must hold for the stored PCH to be reusable:
//  1. prefix_of(content, bound) == stored.preamble_byte_prefix
//  2. lookup_arguments(path) == stored.argument_vector
//  3. every dep file's mtime <= stored.mtime
func (c *Cache) ReusePCH(q ReuseQuery) (types.PCHInfo, bool) {
	stored, ok := c.LookupPCH(q.Path)
	if !ok {
		return types.PCHInfo{}, false
	}

	bound := q.PreambleBound
	if bound < 0 || bound > len(q.Content) {
		bound = len(q.Content)
	}
	if HashPrefix(q.Content, bound) != stored.PreambleHash {
		return types.PCHInfo{}, false
	}
	prefix := q.Content[:bound]
	if len(prefix) != len(stored.PreambleBytePrefix) {
		return types.PCHInfo{}, false
	}
	for i := range prefix {
		if prefix[i] != stored.PreambleBytePrefix[i] {
			return types.PCHInfo{}, false
		}
	}

	if !argumentVectorsEqual(q.ArgumentVector, stored.ArgumentVector) {
		return types.PCHInfo{}, false
	}

	for _, dep := range stored.DepFiles {
		info, err := os.Stat(dep)
		if err != nil {
			return types.PCHInfo{}, false
		}
		if info.ModTime().After(stored.Mtime) {
			return types.PCHInfo{}, false
		}
	}

	return stored, true
}

func argumentVectorsEqual(a, b []string) bool {
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

// BuildPCHInfo assembles a PCHInfo for a freshly built preamble, computing
// its PreambleHash from the prefix content.
func BuildPCHInfo(outputPath string, content []byte, bound int, depFiles, argumentVector []string) types.PCHInfo {
	if bound < 0 || bound > len(content) {
		bound = len(content)
	}
	prefix := make([]byte, bound)
	copy(prefix, content[:bound])
	return types.PCHInfo{
		OutputPath:         outputPath,
		Mtime:              time.Now(),
		PreambleBytePrefix: prefix,
		PreambleHash:       xxhash.Sum64(prefix),
		DepFiles:           depFiles,
		ArgumentVector:     argumentVector,
	}
}
