// =============================================================================
// Unclaimed Funds Consolidator - File Manager Utility
// =============================================================================
//
// Thin file-management helpers for the pipeline: existence checks and the
// plain-text run summary report written next to the run log. The summary is
// for operators skimming a shared drive; the structured run log remains the
// authoritative record.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary describes one completed consolidation run.
type RunSummary struct {
	StartTime      time.Time
	EndTime        time.Time
	LogFile        string
	DryRun         bool
	FoldersScanned int
	FoldersSkipped int
	FilesProcessed int
	FilesSkipped   int
	FilesFailed    int
	RowsWritten    int
}

// WriteRunSummary writes a plain-text summary report into dir, named
// Summary-{timestamp}.txt using the run's start time.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteRunSummary(summary RunSummary, dir string) (string, error) {
	name := fmt.Sprintf("Summary-%s.txt", summary.StartTime.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	mode := "consolidation"
	if summary.DryRun {
		mode = "dry run"
	}

	fmt.Fprintf(writer, "Unclaimed Funds Consolidator - Run Summary\n")
	fmt.Fprintf(writer, "================================================================================\n\n")
	fmt.Fprintf(writer, "Run Information:\n")
	fmt.Fprintf(writer, "  Mode:       %s\n", mode)
	fmt.Fprintf(writer, "  Start Time: %s\n", summary.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "  End Time:   %s\n", summary.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "  Duration:   %s\n", summary.EndTime.Sub(summary.StartTime).String())
	fmt.Fprintf(writer, "  Log File:   %s\n\n", summary.LogFile)
	fmt.Fprintf(writer, "Statistics:\n")
	fmt.Fprintf(writer, "  Folders Scanned: %d\n", summary.FoldersScanned)
	fmt.Fprintf(writer, "  Folders Skipped: %d\n", summary.FoldersSkipped)
	fmt.Fprintf(writer, "  Files Processed: %d\n", summary.FilesProcessed)
	fmt.Fprintf(writer, "  Files Skipped:   %d\n", summary.FilesSkipped)
	fmt.Fprintf(writer, "  Files Failed:    %d\n", summary.FilesFailed)
	fmt.Fprintf(writer, "  Rows Written:    %d\n\n", summary.RowsWritten)
	fmt.Fprintf(writer, "================================================================================\n")
	fmt.Fprintf(writer, "End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return path, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
