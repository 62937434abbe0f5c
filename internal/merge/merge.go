// =============================================================================
// Unclaimed Funds Consolidator - Retrying File Reader/Writer
// =============================================================================
//
// This module streams the rows of one source file into the aggregated output
// file for its (year, category) pair. Two source formats are handled:
//
//   - Delimited text (.csv): lines are copied verbatim, no re-parsing or
//     re-quoting. A line containing the header marker is dropped.
//   - Workbooks (.xlsx/.xlsm): every sheet is read in workbook order via
//     excelize; a row whose first cell contains the header marker is dropped,
//     every other row is re-serialized as a comma-delimited record. All
//     sheets of one workbook feed the same output file.
//
// Source files are routinely held open by the teams that produce them, so
// each append runs under a bounded fixed-delay retry loop (see retry.go).
// Output files are opened and closed per call in append mode; progress made
// before a later file fails stays on disk.
//
// =============================================================================

package merge

import (
	"log/slog"

	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/config"
)

// Merger appends source-file rows to aggregated output files with bounded
// retry on contended sources. Safe for sequential use only; the pipeline is
// single-threaded by design.
type Merger struct {
	headerMarker  string
	csvRetry      config.RetrySettings
	workbookRetry config.RetrySettings
	log           *slog.Logger
}

// New creates a Merger from the application configuration.
func New(cfg *config.Config, log *slog.Logger) *Merger {
	return &Merger{
		headerMarker:  cfg.HeaderMarker,
		csvRetry:      cfg.CSVRetry,
		workbookRetry: cfg.WorkbookRetry,
		log:           log,
	}
}
