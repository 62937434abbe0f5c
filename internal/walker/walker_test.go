package walker

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/config"
	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/merge"
)

// testConfig returns a config pointed at fresh temp directories.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.SourceRoot = filepath.Join(base, "source")
	cfg.OutputDir = filepath.Join(base, "output")
	cfg.LogDir = filepath.Join(base, "logs")
	cfg.CSVRetry = config.RetrySettings{Attempts: 2, Delay: config.Duration(time.Millisecond)}
	cfg.WorkbookRetry = config.RetrySettings{Attempts: 2, Delay: config.Duration(time.Millisecond)}

	for _, dir := range []string{cfg.SourceRoot, cfg.OutputDir, cfg.LogDir} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWalker(t *testing.T) (*Walker, *config.Config) {
	t.Helper()
	cfg := testConfig(t)
	log := discardLogger()
	return New(cfg, log, merge.New(cfg, log)), cfg
}

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(path, 0755))
	return path
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readOutput(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, name))
	require.NoError(t, err)
	return string(data)
}

func TestPensionSourceScenario(t *testing.T) {
	w, cfg := newTestWalker(t)

	srcDir := mkdir(t, cfg.SourceRoot, "2024 Pension Audit", "Source")
	write(t, filepath.Join(srcDir, "file1.csv"), "Account,Amount\n123,45.00\n")

	stats, err := w.Run()
	require.NoError(t, err)

	assert.Equal(t, "123,45.00\n", readOutput(t, cfg, "2024 Pension.csv"))
	assert.Equal(t, 1, stats.FoldersScanned)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.RowsWritten)
}

func TestExcludedFolderIsNeverTraversed(t *testing.T) {
	w, cfg := newTestWalker(t)

	srcDir := mkdir(t, cfg.SourceRoot, "RPS 2024", "Source")
	write(t, filepath.Join(srcDir, "file1.csv"), "123,45.00\n")

	stats, err := w.Run()
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FoldersSkipped)
	assert.Equal(t, 0, stats.FilesProcessed)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFolderBelowThresholdIsSkipped(t *testing.T) {
	w, cfg := newTestWalker(t)

	srcDir := mkdir(t, cfg.SourceRoot, "2020 Group", "Source")
	write(t, filepath.Join(srcDir, "file1.csv"), "123,45.00\n")

	stats, err := w.Run()
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FoldersSkipped)
	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFolderWithoutYearIsSkipped(t *testing.T) {
	w, cfg := newTestWalker(t)

	srcDir := mkdir(t, cfg.SourceRoot, "Pension Misc", "Source")
	write(t, filepath.Join(srcDir, "file1.csv"), "123,45.00\n")

	stats, err := w.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FoldersSkipped)
}

func TestSurvivorFileOverridesFolderCategory(t *testing.T) {
	w, cfg := newTestWalker(t)

	srcDir := mkdir(t, cfg.SourceRoot, "2024 Pension", "Source")
	write(t, filepath.Join(srcDir, "survivor list.csv"), "111,1.00\n")
	write(t, filepath.Join(srcDir, "regular.csv"), "222,2.00\n")

	_, err := w.Run()
	require.NoError(t, err)

	// The override applies to the survivor-named file only; its sibling
	// still routes to the folder-derived target.
	assert.Equal(t, "111,1.00\n", readOutput(t, cfg, "2024 Survivor.csv"))
	assert.Equal(t, "222,2.00\n", readOutput(t, cfg, "2024 Pension.csv"))
}

func TestEmptyMarkedFileIsSkipped(t *testing.T) {
	w, cfg := newTestWalker(t)

	srcDir := mkdir(t, cfg.SourceRoot, "2024 Group", "Source")
	write(t, filepath.Join(srcDir, "EMPTY batch.csv"), "123,45.00\n")

	stats, err := w.Run()
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesSkipped)
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "2024 Group.csv"))
}

func TestLooseFilesProcessedAfterSourceFolder(t *testing.T) {
	cfg := testConfig(t)
	log := discardLogger()
	rec := &recordingAppender{}
	w := New(cfg, log, rec)

	folder := mkdir(t, cfg.SourceRoot, "2024 Pension")
	srcDir := mkdir(t, folder, "Source")
	write(t, filepath.Join(folder, "loose.csv"), "1,1\n")
	write(t, filepath.Join(srcDir, "primary.csv"), "2,2\n")

	_, err := w.Run()
	require.NoError(t, err)

	require.Len(t, rec.calls, 2)
	assert.Contains(t, rec.calls[0].src, "primary.csv")
	assert.Contains(t, rec.calls[1].src, "loose.csv")
}

func TestLegacyYearWorkbookSkippedForLooseFilesOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.YearThreshold = 2011
	cfg.LegacyWorkbookYear = 2011
	log := discardLogger()
	rec := &recordingAppender{}
	w := New(cfg, log, rec)

	folder := mkdir(t, cfg.SourceRoot, "2011 Group")
	srcDir := mkdir(t, folder, "Source")
	write(t, filepath.Join(folder, "loose.xlsx"), "stub")
	write(t, filepath.Join(folder, "loose.csv"), "1,1\n")
	write(t, filepath.Join(srcDir, "primary.xlsx"), "stub")

	stats, err := w.Run()
	require.NoError(t, err)

	// The loose workbook is skipped for the legacy year; the Source-folder
	// workbook and the loose CSV still go through.
	require.Len(t, rec.calls, 2)
	assert.Contains(t, rec.calls[0].src, "primary.xlsx")
	assert.True(t, rec.calls[0].workbook)
	assert.Contains(t, rec.calls[1].src, "loose.csv")
	assert.Equal(t, 1, stats.FilesSkipped)
}

func TestExtensionMatchingIsCaseInsensitive(t *testing.T) {
	cfg := testConfig(t)
	log := discardLogger()
	rec := &recordingAppender{}
	w := New(cfg, log, rec)

	srcDir := mkdir(t, cfg.SourceRoot, "2024 Pension", "Source")
	write(t, filepath.Join(srcDir, "upper.CSV"), "1,1\n")
	write(t, filepath.Join(srcDir, "upper.XLSX"), "stub")

	_, err := w.Run()
	require.NoError(t, err)

	require.Len(t, rec.calls, 2)
}

func TestUnsupportedExtensionIsIgnored(t *testing.T) {
	w, cfg := newTestWalker(t)

	srcDir := mkdir(t, cfg.SourceRoot, "2024 Pension", "Source")
	write(t, filepath.Join(srcDir, "notes.txt"), "hello")

	stats, err := w.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "2024 Pension.csv"))
}

func TestFailedFileDoesNotAbortTraversal(t *testing.T) {
	cfg := testConfig(t)
	log := discardLogger()
	rec := &recordingAppender{failFor: "broken.csv"}
	w := New(cfg, log, rec)

	srcDir := mkdir(t, cfg.SourceRoot, "2024 Pension", "Source")
	write(t, filepath.Join(srcDir, "broken.csv"), "1,1\n")
	write(t, filepath.Join(srcDir, "works.csv"), "2,2\n")

	stats, err := w.Run()
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesFailed)
	assert.Equal(t, 1, stats.FilesProcessed)
	require.Len(t, rec.calls, 2)
}

func TestDryRunDispatchesNothing(t *testing.T) {
	cfg := testConfig(t)
	log := discardLogger()
	rec := &recordingAppender{}
	w := New(cfg, log, rec)
	w.SetDryRun(true)

	srcDir := mkdir(t, cfg.SourceRoot, "2024 Pension", "Source")
	write(t, filepath.Join(srcDir, "file1.csv"), "1,1\n")

	stats, err := w.Run()
	require.NoError(t, err)

	assert.Empty(t, rec.calls)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 0, stats.RowsWritten)
}

func TestRerunAppendsDuplicateRows(t *testing.T) {
	w, cfg := newTestWalker(t)

	srcDir := mkdir(t, cfg.SourceRoot, "2024 Pension", "Source")
	write(t, filepath.Join(srcDir, "file1.csv"), "Account,Amount\n123,45.00\n")

	_, err := w.Run()
	require.NoError(t, err)
	_, err = w.Run()
	require.NoError(t, err)

	// Two runs over the same unchanged tree double the output. This is the
	// documented behavior: no idempotence, no dedup.
	assert.Equal(t, "123,45.00\n123,45.00\n", readOutput(t, cfg, "2024 Pension.csv"))
}

// =============================================================================
// TEST DOUBLES
// =============================================================================

type appendCall struct {
	src      string
	dst      string
	workbook bool
}

// recordingAppender records dispatch order and can fail selected files.
type recordingAppender struct {
	calls   []appendCall
	failFor string
}

func (r *recordingAppender) AppendDelimited(src, dst string) (int, error) {
	r.calls = append(r.calls, appendCall{src: src, dst: dst})
	if r.failFor != "" && filepath.Base(src) == r.failFor {
		return 0, errors.New("simulated failure")
	}
	return 1, nil
}

func (r *recordingAppender) AppendWorkbook(src, dst string) (int, error) {
	r.calls = append(r.calls, appendCall{src: src, dst: dst, workbook: true})
	if r.failFor != "" && filepath.Base(src) == r.failFor {
		return 0, errors.New("simulated failure")
	}
	return 1, nil
}
