// Package errors models the error kinds named in spec §7: which ones are
// surfaced as diagnostics, which trigger a quiet rebuild branch, and which
// are sentinel values rather than errors at all. Structured the way the
// teacher's own internal/errors package shapes its error types (a Kind
// field, an Underlying error, Unwrap for errors.Is/As), adapted from the
// indexing-pipeline's error taxonomy to the compilation pipeline's.
package errors

import (
	"context"
	"fmt"
	"time"

	"github.com/standardbeagle/lcserver/internal/types"
)

// Kind enumerates the error taxonomy of spec §7.
type Kind string

const (
	KindArgumentParse Kind = "argument_parse"
	KindCompileFailure Kind = "compile_failure"
	KindStaleCache    Kind = "stale_cache"
	KindIO            Kind = "io"
	KindInvalidURI    Kind = "invalid_uri"
)

// Cancelled is the sentinel error for a task whose stop flag fired. Per §7
// it is silent: no diagnostic output, no state change. context.Canceled is
// reused directly rather than a bespoke type, since the scheduler already
// propagates context.Context for cancellation.
var Cancelled = context.Canceled

// PCHReuseMiss is a sentinel value, not an error: a normal branch signaling
// that the reuse predicate failed and a rebuild is required.
var PCHReuseMiss = fmt.Errorf("pchcache: reuse predicate did not hold")

// ArgumentParseError reports a malformed compiler command vector. Surfaced
// per-file as a diagnostic at line 0; no build is attempted.
type ArgumentParseError struct {
	Path       string
	Underlying error
}

func NewArgumentParseError(path string, err error) *ArgumentParseError {
	return &ArgumentParseError{Path: path, Underlying: err}
}

func (e *ArgumentParseError) Error() string {
	return fmt.Sprintf("argument parse error for %s: %v", e.Path, e.Underlying)
}

func (e *ArgumentParseError) Unwrap() error { return e.Underlying }

// CompileFailureError reports that the front end returned before finishing.
// Diagnostics produced up to that point are still delivered by the caller;
// this error only marks that no AST is available.
type CompileFailureError struct {
	Path        string
	Diagnostics int // count of diagnostics produced before the failure
	Underlying  error
}

func NewCompileFailureError(path string, diagCount int, err error) *CompileFailureError {
	return &CompileFailureError{Path: path, Diagnostics: diagCount, Underlying: err}
}

func (e *CompileFailureError) Error() string {
	return fmt.Sprintf("compile failure for %s (%d diagnostics produced): %v", e.Path, e.Diagnostics, e.Underlying)
}

func (e *CompileFailureError) Unwrap() error { return e.Underlying }

// StaleCacheError reports that a PCHInfo's dep_files entry is newer than the
// cached PCH, forcing a rebuild. Not fatal; the scheduler reacts to it by
// rebuilding rather than surfacing it to the editor.
type StaleCacheError struct {
	Path    string
	DepFile string
}

func NewStaleCacheError(path, depFile string) *StaleCacheError {
	return &StaleCacheError{Path: path, DepFile: depFile}
}

func (e *StaleCacheError) Error() string {
	return fmt.Sprintf("stale cache for %s: dependency %s is newer than the cached PCH", e.Path, e.DepFile)
}

// IOError wraps a failed PCH write, cache.json write, or path lookup. Per
// §7 it is logged; the cache simply isn't persisted or reused for the
// affected path, and in-memory state is unaffected.
type IOError struct {
	Op         string
	Path       string
	Underlying error
	Timestamp  time.Time
}

func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Underlying: err, Timestamp: time.Now()}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error during %s for %s: %v", e.Op, e.Path, e.Underlying)
}

func (e *IOError) Unwrap() error { return e.Underlying }

// InvalidURIError reports a request whose file:// URI did not parse. The
// request is rejected with an RPC error; server state is unaffected.
type InvalidURIError struct {
	URI        string
	Underlying error
}

func NewInvalidURIError(uri string, err error) *InvalidURIError {
	return &InvalidURIError{URI: uri, Underlying: err}
}

func (e *InvalidURIError) Error() string {
	return fmt.Sprintf("invalid URI %q: %v", e.URI, e.Underlying)
}

func (e *InvalidURIError) Unwrap() error { return e.Underlying }

// BuildError wraps a failure inside the compilation pipeline that carries
// file identity, mirroring the teacher's IndexingError shape (Kind +
// FileID + FilePath + Underlying + Unwrap) but scoped to this domain's
// Kind set instead of the indexer's.
type BuildError struct {
	Kind       Kind
	FileID     types.FileID
	FilePath   string
	Underlying error
	Timestamp  time.Time
}

func NewBuildError(kind Kind, err error) *BuildError {
	return &BuildError{Kind: kind, Underlying: err, Timestamp: time.Now()}
}

func (e *BuildError) WithFile(fid types.FileID, path string) *BuildError {
	e.FileID = fid
	e.FilePath = path
	return e
}

func (e *BuildError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Kind, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s failed: %v", e.Kind, e.Underlying)
}

func (e *BuildError) Unwrap() error { return e.Underlying }

// MultiError aggregates several independent failures (e.g. several files'
// worth of ArgumentParseError from one compile_commands.json load).
type MultiError struct {
	Errors []error
}

func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
	}
}

func (e *MultiError) Unwrap() []error { return e.Errors }
