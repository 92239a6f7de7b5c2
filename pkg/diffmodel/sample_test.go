package diffmodel_test

import (
	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
)

func intPtr(v int) *int { return &v }

// sampleDocument is a modified file with one hunk and a pure rename.
func sampleDocument() *diffmodel.Document {
	files := []diffmodel.FileDiff{
		{
			ID:         "Zm9vYmFyYmF6",
			OldPath:    "src/app.go",
			NewPath:    "src/app.go",
			Status:     diffmodel.StatusModified,
			Language:   "Go",
			ModeBefore: "100644",
			ModeAfter:  "100644",
			OldObject:  "3b18e51",
			NewObject:  "a1f2c3d",
			Stats:      diffmodel.FileStats{Additions: 1, Deletions: 1, Hunks: 1},
			Hunks: []diffmodel.Hunk{{
				ID:          "aHVuay1vbmUx",
				OldStart:    2,
				OldLines:    3,
				NewStart:    2,
				NewLines:    3,
				Heading:     "package app",
				Header:      "@@ -2,3 +2,3 @@ package app",
				ContentHash: "0123456789012345",
				Lines: []diffmodel.HunkLine{
					{ID: 1, Op: diffmodel.OpContext, Text: "line2", OldLine: 2, NewLine: 2},
					{ID: 2, Op: diffmodel.OpDel, Text: "true", OldLine: 3},
					{ID: 3, Op: diffmodel.OpAdd, Text: "", NewLine: 3},
					{ID: 4, Op: diffmodel.OpContext, Text: "line4", OldLine: 4, NewLine: 4, NoNewline: true},
				},
			}},
			Raw: "diff --git a/src/app.go b/src/app.go\n...",
		},
		{
			ID:         "cmVuYW1lZDEy",
			OldPath:    "old/name.txt",
			NewPath:    "new/name.txt",
			Status:     diffmodel.StatusRenamed,
			Similarity: intPtr(100),
			Stats:      diffmodel.FileStats{},
			Hunks:      []diffmodel.Hunk{},
			Raw:        "diff --git a/old/name.txt b/new/name.txt\nsimilarity index 100%\n",
		},
	}

	return &diffmodel.Document{Totals: diffmodel.ComputeTotals(files), Files: files}
}

// sampleEnriched decorates sampleDocument with context on the first hunk.
func sampleEnriched() *diffmodel.EnrichedDocument {
	doc := diffmodel.Wrap(sampleDocument())
	doc.Files[0].Hunks[0].Context = &diffmodel.HunkContext{
		Radius: 1,
		Before: &diffmodel.ContextSlice{FirstLine: 1, Lines: []string{"line1", "line2", "true", "line4", "line5"}},
		After:  &diffmodel.ContextSlice{FirstLine: 1, Lines: []string{"line1", "line2", "", "line4"}},
	}

	return doc
}
