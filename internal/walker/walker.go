// =============================================================================
// Unclaimed Funds Consolidator - Directory Walker / Dispatcher
// =============================================================================
//
// This module enumerates the source tree and dispatches each source file to
// the reader/writer for its format. The tree looks like:
//
//   source_root/
//     2024 Pension Audit/
//       Source/            <- primary input files
//         file1.csv
//       loose-export.xlsx  <- also processed, after the Source files
//     2025 GROUP DMF/
//     RPS 2024/            <- excluded entirely
//
// WALK CONTRACT (per immediate child folder of the root):
//   1. Skip when the folder path contains the exclusion marker.
//   2. Skip when no year can be extracted or the year is below the
//      configured threshold.
//   3. Resolve the default output target from the folder's category + year.
//   4. Process files inside every "Source"-marked subfolder, then the
//      folder's own loose files. Loose workbook files are skipped for the
//      legacy year whose CSV exports already exist.
//
// Folders are visited in whatever order the filesystem enumerates them.
// The walker itself never retries; per-file failures are logged, counted,
// and contained so the traversal always continues.
//
// =============================================================================

package walker

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/classify"
	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/config"
)

// =============================================================================
// TYPES
// =============================================================================

// Appender appends one source file's rows into an aggregated output file.
// Implemented by merge.Merger.
type Appender interface {
	AppendDelimited(src, dst string) (int, error)
	AppendWorkbook(src, dst string) (int, error)
}

// Target is the resolved output destination for one source folder: the
// extracted year, the folder-derived category, and the default output path.
// It is passed down the walk explicitly instead of living in shared state;
// the per-file Survivor override derives a fresh path without mutating it.
type Target struct {
	Year     int
	Category classify.Category
	Path     string
}

// Stats summarizes one traversal.
type Stats struct {
	FoldersScanned int
	FoldersSkipped int
	FilesProcessed int
	FilesSkipped   int
	FilesFailed    int
	RowsWritten    int
}

// Walker drives one consolidation run over the source tree.
type Walker struct {
	cfg      *config.Config
	log      *slog.Logger
	appender Appender

	// dryRun walks and classifies but never dispatches to the appender.
	dryRun bool
}

// New creates a Walker.
func New(cfg *config.Config, log *slog.Logger, appender Appender) *Walker {
	return &Walker{cfg: cfg, log: log, appender: appender}
}

// SetDryRun toggles dry-run mode.
func (w *Walker) SetDryRun(dryRun bool) {
	w.dryRun = dryRun
}

// =============================================================================
// TRAVERSAL
// =============================================================================

// Run walks every immediate child folder of the source root and dispatches
// its files. Per-file failures are contained; only enumeration failures
// outside the reader/writer boundary abort the run.
func (w *Walker) Run() (*Stats, error) {
	entries, err := os.ReadDir(w.cfg.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read source root: %w", err)
	}

	stats := &Stats{}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if err := w.walkFolder(entry.Name(), stats); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// walkFolder handles one year folder: exclusion, year gate, target
// resolution, then Source subfolders followed by loose files.
func (w *Walker) walkFolder(name string, stats *Stats) error {
	folderPath := filepath.Join(w.cfg.SourceRoot, name)

	if strings.Contains(folderPath, w.cfg.ExclusionMarker) {
		w.log.Info("skipping excluded folder", "folder", name)
		stats.FoldersSkipped++
		return nil
	}

	year, ok := classify.ExtractYear(name)
	if !ok {
		w.log.Info("skipping folder without a year", "folder", name)
		stats.FoldersSkipped++
		return nil
	}
	if year < w.cfg.YearThreshold {
		w.log.Info("skipping folder below year threshold",
			"folder", name, "year", year, "threshold", w.cfg.YearThreshold)
		stats.FoldersSkipped++
		return nil
	}

	category := classify.FolderCategory(name)
	target := Target{
		Year:     year,
		Category: category,
		Path:     filepath.Join(w.cfg.OutputDir, classify.OutputName(year, category)),
	}

	w.log.Info("processing folder",
		"folder", name, "year", year, "category", string(target.Category))
	stats.FoldersScanned++

	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return fmt.Errorf("failed to read folder %s: %w", name, err)
	}

	// Source subfolders are fully processed before the folder's own loose
	// files.
	for _, entry := range entries {
		if !entry.IsDir() || !strings.Contains(entry.Name(), w.cfg.SourceMarker) {
			continue
		}
		if err := w.walkSourceFolder(filepath.Join(folderPath, entry.Name()), target, stats); err != nil {
			return err
		}
	}

	// Loose files directly inside the year folder. Workbooks are skipped
	// for the legacy year whose CSV exports already exist.
	legacySkip := year == w.cfg.LegacyWorkbookYear
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.dispatchFile(folderPath, entry.Name(), target, legacySkip, stats)
	}

	return nil
}

// walkSourceFolder dispatches every file directly inside a Source subfolder.
func (w *Walker) walkSourceFolder(dir string, target Target, stats *Stats) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read source folder %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.dispatchFile(dir, entry.Name(), target, false, stats)
	}

	return nil
}

// =============================================================================
// DISPATCH
// =============================================================================

// dispatchFile classifies one file and hands it to the appender for its
// format. Appender failures are contained here: logged, counted, and the
// walk moves on to the next file.
func (w *Walker) dispatchFile(dir, name string, target Target, legacySkip bool, stats *Stats) {
	if strings.Contains(name, w.cfg.EmptyMarker) {
		w.log.Info("skipping empty-marked file", "file", name)
		stats.FilesSkipped++
		return
	}

	// The Survivor override is per file; the folder target is untouched.
	outPath := target.Path
	if classify.IsSurvivorFile(name, w.cfg.SurvivorMarker) {
		outPath = filepath.Join(w.cfg.OutputDir, classify.OutputName(target.Year, classify.Survivor))
	}

	srcPath := filepath.Join(dir, name)
	ext := filepath.Ext(name)

	switch {
	case strings.EqualFold(ext, ".csv"):
		w.appendFile(srcPath, outPath, false, stats)

	case w.isWorkbookExt(ext):
		if legacySkip {
			w.log.Info("skipping legacy-year workbook", "file", name, "year", target.Year)
			stats.FilesSkipped++
			return
		}
		w.appendFile(srcPath, outPath, true, stats)

	default:
		w.log.Debug("ignoring unsupported file type", "file", name)
		stats.FilesSkipped++
	}
}

func (w *Walker) appendFile(src, dst string, workbook bool, stats *Stats) {
	if w.dryRun {
		w.log.Info("dry run: would append", "file", src, "output", dst)
		stats.FilesProcessed++
		return
	}

	var rows int
	var err error
	if workbook {
		rows, err = w.appender.AppendWorkbook(src, dst)
	} else {
		rows, err = w.appender.AppendDelimited(src, dst)
	}
	if err != nil {
		// Exhausted retries or a permanent failure; already logged by the
		// appender. The traversal continues with the next file.
		stats.FilesFailed++
		return
	}

	w.log.Info("appended file", "file", src, "output", dst, "rows", rows)
	stats.FilesProcessed++
	stats.RowsWritten += rows
}

func (w *Walker) isWorkbookExt(ext string) bool {
	for _, candidate := range w.cfg.WorkbookExtensions {
		if strings.EqualFold(ext, candidate) {
			return true
		}
	}
	return false
}
