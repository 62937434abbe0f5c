package runlog

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	start := time.Date(2026, 8, 31, 9, 30, 15, 0, time.UTC)
	assert.Equal(t, "Log-20260831_093015.txt", FileName(start))
}

func TestOpenWritesToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, logPath, closeFn, err := Open(dir, "info")
	require.NoError(t, err)

	logger.Info("processing folder", "folder", "2024 Pension Audit")
	logger.Warn("skipping file", "file", "EMPTY batch.csv")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "processing folder")
	assert.Contains(t, content, "2024 Pension Audit")
	assert.Contains(t, content, "skipping file")
	assert.Contains(t, content, "run_id=")
}

func TestOpenLevelFiltering(t *testing.T) {
	dir := t.TempDir()

	logger, logPath, closeFn, err := Open(dir, "warn")
	require.NoError(t, err)

	logger.Info("below threshold")
	logger.Error("above threshold")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "below threshold")
	assert.Contains(t, string(data), "above threshold")
}

func TestCloseIsIdempotent(t *testing.T) {
	_, _, closeFn, err := Open(t.TempDir(), "info")
	require.NoError(t, err)

	require.NoError(t, closeFn())
	require.NoError(t, closeFn())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
