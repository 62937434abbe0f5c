package merge

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/lockfile"
)

// AppendWorkbook streams every sheet of a spreadsheet source into dst,
// dropping header rows, with bounded retry on access conflicts.
//
// PARAMETERS:
//   - src: The source workbook (.xlsx/.xlsm).
//   - dst: The aggregated output file.
//
// RETURNS:
//   - The number of data rows appended across all sheets.
//   - An error after the retry budget is exhausted.
//
// Sheets are visited in workbook order and rows in sheet order. A row is a
// header and is dropped when its first cell contains the header marker.
// Surviving rows are re-serialized as comma-delimited records with each
// cell's default string form; quoting follows the standard rules, nothing
// more. All sheets of one workbook are concatenated into the same output.
func (m *Merger) AppendWorkbook(src, dst string) (int, error) {
	return withRetry(m.log, m.workbookRetry, src, func() (int, error) {
		return m.appendWorkbookOnce(src, dst)
	})
}

func (m *Merger) appendWorkbookOnce(src, dst string) (int, error) {
	// Stat before locking: flock would create a missing lock target.
	if _, err := os.Stat(src); err != nil {
		return 0, fmt.Errorf("failed to stat source file: %w", err)
	}

	srcLock := lockfile.New(src)
	if err := srcLock.TryShared(); err != nil {
		return 0, err
	}
	defer srcLock.Unlock()

	book, err := excelize.OpenFile(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	rows := 0
	err = lockfile.Append(dst, func(w io.Writer) error {
		writer := csv.NewWriter(w)

		for _, sheet := range book.GetSheetList() {
			sheetRows, err := book.GetRows(sheet)
			if err != nil {
				return fmt.Errorf("failed to read sheet %s: %w", sheet, err)
			}

			for _, row := range sheetRows {
				if len(row) > 0 && strings.Contains(row[0], m.headerMarker) {
					continue
				}
				if err := writer.Write(row); err != nil {
					return fmt.Errorf("failed to write row: %w", err)
				}
				rows++
			}
		}

		writer.Flush()
		return writer.Error()
	})
	if err != nil {
		return 0, err
	}

	return rows, nil
}
