package merge

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/lockfile"
)

// AppendDelimited streams the lines of a delimited-text source into dst,
// dropping header lines, with bounded retry on access conflicts.
//
// PARAMETERS:
//   - src: The source .csv file.
//   - dst: The aggregated output file; created on first write, appended to
//     thereafter.
//
// RETURNS:
//   - The number of data lines appended.
//   - An error after the retry budget is exhausted.
//
// A line is a header and is dropped when it contains the header marker
// (case-sensitive). Every other line is appended verbatim: no re-parsing,
// no re-quoting, source order preserved.
func (m *Merger) AppendDelimited(src, dst string) (int, error) {
	return withRetry(m.log, m.csvRetry, src, func() (int, error) {
		return m.appendDelimitedOnce(src, dst)
	})
}

func (m *Merger) appendDelimitedOnce(src, dst string) (int, error) {
	// Stat before locking: flock would create a missing lock target.
	if _, err := os.Stat(src); err != nil {
		return 0, fmt.Errorf("failed to stat source file: %w", err)
	}

	// A shared lock suffices for reading; it fails fast when the producing
	// process still holds the file exclusively.
	srcLock := lockfile.New(src)
	if err := srcLock.TryShared(); err != nil {
		return 0, err
	}
	defer srcLock.Unlock()

	file, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer file.Close()

	rows := 0
	err = lockfile.Append(dst, func(w io.Writer) error {
		writer := bufio.NewWriter(w)

		scanner := bufio.NewScanner(bufio.NewReader(file))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if strings.Contains(line, m.headerMarker) {
				continue
			}
			if _, err := writer.WriteString(line); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
			if err := writer.WriteByte('\n'); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
			rows++
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read source file: %w", err)
		}

		return writer.Flush()
	})
	if err != nil {
		return 0, err
	}

	return rows, nil
}
