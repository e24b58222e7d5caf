// Package logging is the ambient structured-logger setup for the scheduler
// and compilation pipeline. No pack example imports a third-party
// structured-logging library for this concern — the teacher's own
// internal/debug package is a hand-rolled mutex-guarded writer, not a
// library — so this stays on the standard library's log/slog, recorded as
// a standard-library justification in DESIGN.md.
//
// Grounded on internal/debug.go's level-gated, mutex-protected writer
// selection idiom (SetDebugOutput / EnableDebug), re-expressed as an
// slog.Handler wrapping whichever io.Writer the caller configures.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Level mirrors spec §7's propagation policy: feature failures log at warn,
// IOError/PCHReuseMiss at a quieter level, fatal errors terminate without
// going through this logger at all.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	mu      sync.Mutex
	current *slog.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelInfo}))
)

// ParseLevel maps a config string ("debug"/"info"/"warn"/"error") to a Level,
// defaulting to Info for anything unrecognized.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Init installs the process-wide logger, writing level-gated structured
// records to w. Call once at startup; safe to call again in tests to
// redirect output.
func Init(w io.Writer, level Level) {
	mu.Lock()
	defer mu.Unlock()
	current = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Logger returns the process-wide logger.
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// Debugf logs a formatted message at debug level, for the hot paths (per-
// keystroke AST rebuild bookkeeping) that spec §7 never wants at info level.
func Debugf(ctx context.Context, format string, args ...any) {
	Logger().Log(ctx, LevelDebug, fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level — the level spec §7 assigns
// to failed feature queries and other non-fatal, surfaced-to-log failures.
func Warnf(ctx context.Context, format string, args ...any) {
	Logger().Log(ctx, LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at error level.
func Errorf(ctx context.Context, format string, args ...any) {
	Logger().Log(ctx, LevelError, fmt.Sprintf(format, args...))
}
