package merge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/lockfile"
)

// writeWorkbook builds an xlsx fixture: one sheet per entry, rows written
// top to bottom starting at A1.
func writeWorkbook(t *testing.T, path string, sheets map[string][][]interface{}, order []string) {
	t.Helper()

	book := excelize.NewFile()
	defer book.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, book.SetSheetName("Sheet1", name))
		} else {
			_, err := book.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, book.SetSheetRow(name, cell, &row))
		}
	}

	require.NoError(t, book.SaveAs(path))
}

func TestAppendWorkbookDropsHeadersPerSheet(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "2024 export.xlsx")
	dst := filepath.Join(dir, "2024 Group.csv")

	writeWorkbook(t, src, map[string][][]interface{}{
		"Q1": {
			{"Account Number", "Amount"},
			{"123", "45.00"},
		},
		"Q2": {
			{"Account Number", "Amount"},
			{"456", "9.99"},
			{"789", "1.50"},
		},
	}, []string{"Q1", "Q2"})

	m, _ := newTestMerger(1)
	rows, err := m.AppendWorkbook(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)

	// All sheets concatenate into the same output, sheet order preserved,
	// header rows dropped in every sheet.
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "123,45.00\n456,9.99\n789,1.50\n", string(data))
}

func TestAppendWorkbookQuotesCellsWithCommas(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "2024.xlsx")
	dst := filepath.Join(dir, "2024.csv")

	writeWorkbook(t, src, map[string][][]interface{}{
		"Sheet1": {
			{"Smith, John", "45.00"},
		},
	}, []string{"Sheet1"})

	m, _ := newTestMerger(1)
	rows, err := m.AppendWorkbook(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "\"Smith, John\",45.00\n", string(data))
}

func TestAppendWorkbookHeaderChecksFirstCellOnly(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "2024.xlsx")
	dst := filepath.Join(dir, "2024.csv")

	writeWorkbook(t, src, map[string][][]interface{}{
		"Sheet1": {
			// Marker in a later cell does not make the row a header.
			{"123", "Account closed"},
			// Marker in the first cell does.
			{"Account Number", "Amount"},
		},
	}, []string{"Sheet1"})

	m, _ := newTestMerger(1)
	rows, err := m.AppendWorkbook(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "123,Account closed\n", string(data))
}

func TestAppendWorkbookRetriesOnLockedSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "2024.xlsx")
	dst := filepath.Join(dir, "2024.csv")

	writeWorkbook(t, src, map[string][][]interface{}{
		"Sheet1": {{"123", "45.00"}},
	}, []string{"Sheet1"})

	holder := lockfile.New(src)
	require.NoError(t, holder.TryExclusive())
	defer holder.Unlock()

	m, logBuf := newTestMerger(2)
	_, err := m.AppendWorkbook(src, dst)
	require.Error(t, err)
	assert.True(t, lockfile.IsBusy(err))
	assert.Contains(t, logBuf.String(), "giving up on file")
	assert.NoFileExists(t, dst)
}

func TestAppendWorkbookMalformedFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "2024.xlsx")
	dst := filepath.Join(dir, "2024.csv")
	require.NoError(t, os.WriteFile(src, []byte("not a workbook"), 0644))

	// A permanent failure is not distinguished from a transient one; it
	// consumes the retry budget and is then reported.
	m, _ := newTestMerger(2)
	_, err := m.AppendWorkbook(src, dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
}
