// =============================================================================
// Unclaimed Funds Consolidator - Path Classifier
// =============================================================================
//
// This module derives the reporting year and funds category from folder and
// file names. The source tree uses free-form folder names like:
//
//   "2024 Pension Audit"   -> year 2024, category Pension
//   "2025 GROUP DMF"       -> year 2025, category Group
//   "2024 Misc"            -> year 2024, unclassified
//
// CLASSIFICATION RULES:
//   - The year is the FIRST standalone four-digit token in the name. Any other
//     four-digit token appearing earlier (an account number, a batch id) wins
//     instead; this first-match behavior is deliberate and must be preserved.
//   - Category matching is a case-insensitive substring check in fixed
//     priority order: PENSION before GROUP. A name containing both tokens
//     classifies as Pension.
//   - A file whose own name contains the survivor marker routes to the
//     Survivor output regardless of its folder's category. The override is
//     per file and never persists to sibling files.
//
// =============================================================================

package classify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// CATEGORY TYPE
// =============================================================================

// Category identifies which aggregated output a folder or file feeds.
type Category string

const (
	// Pension covers pension-plan unclaimed funds batches.
	Pension Category = "Pension"

	// Group covers group-policy unclaimed funds batches.
	Group Category = "Group"

	// Survivor covers survivor-benefit batches. Only ever assigned through
	// the per-file name override, never from a folder name.
	Survivor Category = "Survivor"

	// Unclassified is the fallback when no keyword matches. Rows still flow
	// to the plain "{year}.csv" output rather than being dropped.
	Unclassified Category = ""
)

// Suffix returns the output file name suffix for the category.
// One of "", " Pension", " Group", " Survivor".
func (c Category) Suffix() string {
	if c == Unclassified {
		return ""
	}
	return " " + string(c)
}

// =============================================================================
// YEAR EXTRACTION
// =============================================================================

// yearToken matches a standalone four-digit token. Word boundaries keep
// "12024" or "20245" from matching while "2024 Pension" and "FY-2024" do.
var yearToken = regexp.MustCompile(`\b(\d{4})\b`)

// ExtractYear scans a folder or file name for the first standalone four-digit
// token and returns it as an integer.
//
// RETURNS:
//   - The year and true when a token is found.
//   - Zero and false when the name contains no four-digit token.
//
// The first match wins even when a later token is the "real" year. Folder
// names in the source tree lead with the year, so in practice this resolves
// correctly; the ambiguity is documented rather than second-guessed here.
func ExtractYear(name string) (int, bool) {
	match := yearToken.FindStringSubmatch(name)
	if match == nil {
		return 0, false
	}

	year, err := strconv.Atoi(match[1])
	if err != nil {
		// Unreachable for a \d{4} match, but don't guess on failure.
		return 0, false
	}

	return year, true
}

// =============================================================================
// CATEGORY CLASSIFICATION
// =============================================================================

// FolderCategory classifies a folder name into a funds category.
//
// MATCHING ORDER:
//  1. "PENSION" (case-insensitive substring) -> Pension
//  2. "GROUP"   (case-insensitive substring) -> Group
//  3. otherwise                              -> Unclassified
//
// The priority order matters: "2013 Pension Group" classifies as Pension.
func FolderCategory(name string) Category {
	upper := strings.ToUpper(name)

	switch {
	case strings.Contains(upper, "PENSION"):
		return Pension
	case strings.Contains(upper, "GROUP"):
		return Group
	default:
		return Unclassified
	}
}

// IsSurvivorFile reports whether a file name triggers the per-file Survivor
// override. The marker check is case-insensitive.
func IsSurvivorFile(fileName, marker string) bool {
	return strings.Contains(strings.ToUpper(fileName), strings.ToUpper(marker))
}

// =============================================================================
// OUTPUT NAMING
// =============================================================================

// OutputName builds the aggregated output file name for a (year, category)
// pair: "{year}{suffix}.csv", e.g. "2024 Pension.csv" or "2024.csv".
func OutputName(year int, cat Category) string {
	return fmt.Sprintf("%d%s.csv", year, cat.Suffix())
}
