package diffmodel

import (
	"errors"
	"fmt"
)

// ErrTotalsMismatch is returned by CheckTotals when document totals disagree
// with the per-file statistics.
var ErrTotalsMismatch = errors.New("document totals do not match file stats")

// ComputeTotals sums per-file statistics into document-level totals.
func ComputeTotals(files []FileDiff) Totals {
	totals := Totals{Files: len(files)}

	for i := range files {
		stats := files[i].Stats

		totals.Additions += stats.Additions
		totals.Deletions += stats.Deletions
		totals.Hunks += stats.Hunks

		if files[i].Binary {
			totals.BinaryFiles++
		}
	}

	return totals
}

// CheckTotals verifies that doc.Totals equals the element-wise sum of its file stats.
func CheckTotals(doc *Document) error {
	want := ComputeTotals(doc.Files)
	if doc.Totals != want {
		return fmt.Errorf("%w: have %+v, want %+v", ErrTotalsMismatch, doc.Totals, want)
	}

	return nil
}
