// =============================================================================
// Unclaimed Funds Consolidator - Consolidate Command
// =============================================================================
//
// This file defines the 'consolidate' command, the main command of the tool.
// It orchestrates the whole pipeline for one run.
//
// COMMAND USAGE:
//   consolidator consolidate [flags]
//
// FLAGS:
//   --source   : Override the source root directory
//   --output   : Override the output directory
//   --logs     : Override the log directory
//   --dry-run  : Walk and classify without writing any output rows
//
// PIPELINE:
//   1. Load configuration, apply flag overrides, validate
//   2. Open the per-run log (console + Log-{timestamp}.txt)
//   3. Walk the source tree, dispatching each file to the reader/writer
//   4. Print the run summary table and write the summary report
//
// Processing is strictly sequential: one file at a time, in traversal order.
// A file that exhausts its retries is recorded as failed and the run moves
// on; only failures outside the reader/writer boundary abort the run. The
// log file is flushed and closed on every exit path.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/merge"
	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/runlog"
	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/walker"
	"github.com/ginjaninja78/unclaimed-funds-consolidator/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// sourceRoot overrides the configured source root when non-empty.
var sourceRoot string

// outputDir overrides the configured output directory when non-empty.
var outputDir string

// logDir overrides the configured log directory when non-empty.
var logDir string

// dryRun walks and classifies without writing output rows.
var dryRun bool

// =============================================================================
// CONSOLIDATE COMMAND DEFINITION
// =============================================================================

// consolidateCmd represents the 'consolidate' command.
var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Walk the source tree and merge every file into the aggregated CSVs",
	Long: `The consolidate command walks every year folder under the source root,
classifies folders and files by year and category, and appends all data rows
into one aggregated CSV per (year, category) pair in the output directory.

Rows are appended, never replaced: re-running over an unchanged source tree
appends every row again. Clear the output directory first when a clean
rebuild is wanted.

A source file held open by another process is retried on a fixed delay up to
the configured attempt limit, then recorded as failed; the run continues with
the next file either way.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsolidate()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(consolidateCmd)

	consolidateCmd.Flags().StringVar(
		&sourceRoot,
		"source",
		"",
		"Source root directory (overrides the configuration file)",
	)

	consolidateCmd.Flags().StringVar(
		&outputDir,
		"output",
		"",
		"Output directory (overrides the configuration file)",
	)

	consolidateCmd.Flags().StringVar(
		&logDir,
		"logs",
		"",
		"Log directory (overrides the configuration file)",
	)

	consolidateCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Walk and classify without writing any output rows",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runConsolidate drives one consolidation run end to end.
func runConsolidate() error {
	startTime := time.Now()

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	// =========================================================================
	// STEP 1: CONFIGURATION
	// =========================================================================

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if sourceRoot != "" {
		cfg.SourceRoot = sourceRoot
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if logDir != "" {
		cfg.LogDir = logDir
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// =========================================================================
	// STEP 2: RUN LOG
	// =========================================================================

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	logger, logPath, closeLog, err := runlog.Open(cfg.LogDir, level)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	// The log must be flushed and closed on every exit path, including an
	// aborted run.
	defer closeLog()

	logger.Info("starting consolidation run",
		"source_root", cfg.SourceRoot,
		"output_dir", cfg.OutputDir,
		"year_threshold", cfg.YearThreshold,
		"dry_run", dryRun)

	// =========================================================================
	// STEP 3: WALK AND DISPATCH
	// =========================================================================

	w := walker.New(cfg, logger, merge.New(cfg, logger))
	w.SetDryRun(dryRun)

	stats, runErr := w.Run()

	// =========================================================================
	// STEP 4: SUMMARY
	// =========================================================================

	if stats != nil {
		endTime := time.Now()
		printSummary(stats, endTime.Sub(startTime))

		summaryPath, err := utils.WriteRunSummary(utils.RunSummary{
			StartTime:      startTime,
			EndTime:        endTime,
			LogFile:        logPath,
			DryRun:         dryRun,
			FoldersScanned: stats.FoldersScanned,
			FoldersSkipped: stats.FoldersSkipped,
			FilesProcessed: stats.FilesProcessed,
			FilesSkipped:   stats.FilesSkipped,
			FilesFailed:    stats.FilesFailed,
			RowsWritten:    stats.RowsWritten,
		}, cfg.LogDir)
		if err != nil {
			logger.Warn("failed to write summary report", "error", err)
		} else {
			logger.Info("wrote summary report", "path", summaryPath)
		}
	}

	if runErr != nil {
		logger.Error("run aborted", "error", runErr)
		return runErr
	}

	logger.Info("run complete", "elapsed", time.Since(startTime).String())
	return nil
}

// =============================================================================
// CONSOLE SUMMARY
// =============================================================================

// printSummary renders the run statistics table to stdout.
func printSummary(stats *walker.Stats, elapsed time.Duration) {
	heading := color.New(color.FgGreen, color.Bold)
	if stats.FilesFailed > 0 {
		heading = color.New(color.FgYellow, color.Bold)
	}
	heading.Println("\n=== Consolidation Complete ===")

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Count"})
	tw.AppendRows([]table.Row{
		{"Folders scanned", stats.FoldersScanned},
		{"Folders skipped", stats.FoldersSkipped},
		{"Files processed", stats.FilesProcessed},
		{"Files skipped", stats.FilesSkipped},
		{"Files failed", stats.FilesFailed},
		{"Rows written", stats.RowsWritten},
	})
	tw.AppendFooter(table.Row{"Elapsed", elapsed.Round(time.Millisecond).String()})
	fmt.Println(tw.Render())

	if stats.FilesFailed > 0 {
		color.Red("%d file(s) could not be processed; see the run log for details.", stats.FilesFailed)
	}
}
