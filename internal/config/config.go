// Package config is the ambient configuration layer: a typed Config loaded
// from a ".lcserver.kdl" file in the project root, the same KDL library and
// loader idiom the teacher uses for its own ".lci.kdl".
//
// Grounded on internal/config/config.go (the Config struct shape) and
// internal/config/kdl_config.go (LoadKDL/parseKDL) from the teacher module.
package config

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/lcserver/internal/posconv"
)

// Config is the full set of server-level knobs.
type Config struct {
	Project     Project
	Index       Index
	Cache       Cache
	Performance Performance
	Logging     Logging
	Encoding    posconv.Encoding
	Include     []string
	Exclude     []string
}

// Project describes the workspace this server instance is indexing.
type Project struct {
	Root string
	Name string
}

// Index controls the scan feeding the Compilation Database.
type Index struct {
	CompileCommandsPath string // defaults to "<root>/compile_commands.json"
	RespectGitignore    bool
	ResourceDir         string // counterpart of compiledb.LookupOptions.ResourceDir; no lookup is passed it
	QueryDriver         bool
}

// Cache controls the PCH/PCM Cache's on-disk layout (§6).
type Cache struct {
	Directory string // defaults to "<root>/.cache/lcserver"
}

// Performance bounds the worker pool and scheduler concurrency.
type Performance struct {
	MaxWorkers         int
	ASTBuildTimeoutSec int
}

// Logging controls the structured logger (internal/logging).
type Logging struct {
	Level string // "debug", "info", "warn", "error"
}

// Default returns a Config with every field set to a usable default, the
// way the teacher's parseKDL seeds its Config before overlaying the file.
func Default(root string) *Config {
	return &Config{
		Project: Project{Root: root},
		Index: Index{
			CompileCommandsPath: root + "/compile_commands.json",
			RespectGitignore:    true,
		},
		Cache: Cache{
			Directory: root + "/.cache/lcserver",
		},
		Performance: Performance{
			MaxWorkers:         4,
			ASTBuildTimeoutSec: 30,
		},
		Logging:  Logging{Level: "info"},
		Encoding: posconv.UTF16,
	}
}

// Matches reports whether relPath (project-root-relative, forward-slashed)
// should be indexed: Exclude patterns win over Include, and an empty
// Include list means "everything not excluded". Patterns are doublestar
// globs, the same matcher the teacher uses for its own include/exclude
// lists.
func (c *Config) Matches(relPath string) bool {
	for _, pat := range c.Exclude {
		if ok, _ := doublestar.Match(pat, relPath); ok {
			return false
		}
	}
	if len(c.Include) == 0 {
		return true
	}
	for _, pat := range c.Include {
		if ok, _ := doublestar.Match(pat, relPath); ok {
			return true
		}
	}
	return false
}
