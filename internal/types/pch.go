package types

import "time"

// PCHInfo describes a built precompiled-preamble artifact. Immutable once
// produced; reuse is governed by the predicate in the pchcache package.
type PCHInfo struct {
	OutputPath         string    `json:"output_path"`
	Mtime              time.Time `json:"mtime"`
	PreambleBytePrefix []byte    `json:"preamble_byte_prefix"` // content the preamble was built from, up to the bound
	PreambleHash       uint64    `json:"preamble_hash"`        // xxhash of PreambleBytePrefix; cheaper reuse check
	DepFiles           []string  `json:"dep_files"`
	ArgumentVector     []string  `json:"argument_vector"`
}

// PCMInfo describes a built precompiled-module-interface artifact.
type PCMInfo struct {
	Name                string   `json:"name"`
	SourcePath          string   `json:"source_path"`
	OutputPath          string   `json:"output_path"`
	InterfaceUnit       bool     `json:"interface_unit"`
	ImportedModuleNames []string `json:"imported_module_names"`
	DepFiles            []string `json:"dep_files"`
}
