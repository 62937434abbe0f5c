// =============================================================================
// Unclaimed Funds Consolidator - Run Logger
// =============================================================================
//
// Every run writes an append-only plain-text log, mirrored to the console.
// One file per run, named Log-{timestamp}.txt, never read back and never
// rotated. The logger is acquired once at the top of a run; the returned
// close function flushes and closes the file exactly once on every exit
// path, including error unwinds.
//
// =============================================================================

package runlog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FAN-OUT HANDLER
// =============================================================================

// fanoutHandler duplicates records to the console and log-file handlers.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for idx, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		rec := record
		if idx < len(h.handlers)-1 {
			rec = record.Clone()
		}
		if err := handler.Handle(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

// =============================================================================
// LOGGER CONSTRUCTION
// =============================================================================

// FileName returns the per-run log file name for the given start time,
// pattern "Log-{timestamp}.txt".
func FileName(start time.Time) string {
	return "Log-" + start.Format("20060102_150405") + ".txt"
}

// Open creates the per-run logger writing to stdout and to a timestamped
// file in logDir. Each record carries a run_id attribute so interleaved
// console scrollback from different runs stays attributable.
//
// PARAMETERS:
//   - logDir: The directory for the log file; created if missing.
//   - level:  Minimum level as a string ("debug", "info", "warn", "error").
//
// RETURNS:
//   - The logger.
//   - The path of the log file.
//   - A close function, safe to call multiple times; only the first call
//     closes the file.
//   - An error if the directory or file cannot be created.
func Open(logDir, level string) (*slog.Logger, string, func() error, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, "", nil, err
	}

	logPath := filepath.Join(logDir, FileName(time.Now()))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, "", nil, err
	}

	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	handler := &fanoutHandler{handlers: []slog.Handler{
		slog.NewTextHandler(os.Stdout, opts),
		slog.NewTextHandler(file, opts),
	}}

	logger := slog.New(handler).With("run_id", uuid.New().String())

	var once sync.Once
	closeFn := func() error {
		var err error
		once.Do(func() {
			err = file.Close()
		})
		return err
	}

	return logger, logPath, closeFn, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
