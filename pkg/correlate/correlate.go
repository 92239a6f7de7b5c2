// Package correlate matches the hunks of two parses of related diffs by
// stable id and content hash.
package correlate

import (
	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
)

// Kind classifies a hunk or file across two documents.
type Kind string

// Correlation kinds.
const (
	// Unchanged hunks have the same id and content hash.
	Unchanged Kind = "unchanged"
	// Changed hunks have the same id but different content.
	Changed Kind = "changed"
	// Moved hunks have a new id but content seen in the old document.
	Moved Kind = "moved"
	// Added hunks or files exist only in the new document.
	Added Kind = "added"
	// Removed hunks or files exist only in the old document.
	Removed Kind = "removed"
)

// Kinds lists every kind in report order.
var Kinds = []Kind{Unchanged, Changed, Moved, Added, Removed}

// HunkMatch is the classification of one hunk. OldID or NewID is empty when
// the hunk exists on one side only.
type HunkMatch struct {
	Kind        Kind   `json:"kind"`
	Path        string `json:"path"`
	OldID       string `json:"oldId,omitempty"`
	NewID       string `json:"newId,omitempty"`
	ContentHash string `json:"contentHash"`
}

// FileMatch is the classification of one file, matched by file id.
type FileMatch struct {
	Kind   Kind   `json:"kind"`
	FileID string `json:"fileId"`
	Path   string `json:"path"`
}

// Report lists file and hunk classifications. New-document entries come
// first in input order, followed by removed entries in old-document order.
type Report struct {
	Files  []FileMatch  `json:"files"`
	Hunks  []HunkMatch  `json:"hunks"`
	Counts map[Kind]int `json:"counts"`
}

type hunkRef struct {
	path string
	hunk *diffmodel.Hunk
	used bool
}

// Correlate classifies every hunk and file of prev and next.
func Correlate(prev, next *diffmodel.Document) *Report {
	report := &Report{
		Files:  []FileMatch{},
		Hunks:  []HunkMatch{},
		Counts: make(map[Kind]int, len(Kinds)),
	}

	oldRefs := collect(prev)
	byID := make(map[string]*hunkRef, len(oldRefs))
	byHash := make(map[string][]*hunkRef, len(oldRefs))

	for _, ref := range oldRefs {
		byID[ref.hunk.ID] = ref
		byHash[ref.hunk.ContentHash] = append(byHash[ref.hunk.ContentHash], ref)
	}

	newRefs := collect(next)
	matches := make([]HunkMatch, len(newRefs))

	// Ids first, so a hunk that kept its id is never claimed as a move target.
	for i, ref := range newRefs {
		matches[i] = HunkMatch{Path: ref.path, NewID: ref.hunk.ID, ContentHash: ref.hunk.ContentHash}

		old, ok := byID[ref.hunk.ID]
		if !ok || old.used {
			continue
		}

		old.used = true
		matches[i].OldID = old.hunk.ID

		matches[i].Kind = Changed
		if old.hunk.ContentHash == ref.hunk.ContentHash {
			matches[i].Kind = Unchanged
		}
	}

	for i := range matches {
		if matches[i].Kind != "" {
			continue
		}

		matches[i].Kind = Added

		for _, old := range byHash[matches[i].ContentHash] {
			if !old.used {
				old.used = true
				matches[i].Kind = Moved
				matches[i].OldID = old.hunk.ID

				break
			}
		}
	}

	report.Hunks = append(report.Hunks, matches...)

	for _, ref := range oldRefs {
		if !ref.used {
			report.Hunks = append(report.Hunks, HunkMatch{
				Kind:        Removed,
				Path:        ref.path,
				OldID:       ref.hunk.ID,
				ContentHash: ref.hunk.ContentHash,
			})
		}
	}

	for _, m := range report.Hunks {
		report.Counts[m.Kind]++
	}

	report.Files = correlateFiles(prev, next, report.Hunks)

	return report
}

func collect(doc *diffmodel.Document) []*hunkRef {
	if doc == nil {
		return nil
	}

	var refs []*hunkRef

	for i := range doc.Files {
		file := &doc.Files[i]

		for j := range file.Hunks {
			refs = append(refs, &hunkRef{path: file.Path(), hunk: &file.Hunks[j]})
		}
	}

	return refs
}

// correlateFiles matches files by id. A file present in both documents is
// unchanged only when all of its hunks are.
func correlateFiles(prev, next *diffmodel.Document, hunks []HunkMatch) []FileMatch {
	oldFiles := map[string]bool{}

	if prev != nil {
		for i := range prev.Files {
			oldFiles[prev.Files[i].ID] = true
		}
	}

	dirty := map[string]bool{}

	for _, m := range hunks {
		if m.Kind != Unchanged {
			dirty[m.Path] = true
		}
	}

	files := []FileMatch{}
	seen := map[string]bool{}

	if next != nil {
		for i := range next.Files {
			file := &next.Files[i]
			seen[file.ID] = true

			match := FileMatch{FileID: file.ID, Path: file.Path()}

			switch {
			case !oldFiles[file.ID]:
				match.Kind = Added
			case dirty[file.Path()]:
				match.Kind = Changed
			default:
				match.Kind = Unchanged
			}

			files = append(files, match)
		}
	}

	if prev != nil {
		for i := range prev.Files {
			file := &prev.Files[i]
			if !seen[file.ID] {
				files = append(files, FileMatch{Kind: Removed, FileID: file.ID, Path: file.Path()})
			}
		}
	}

	return files
}
