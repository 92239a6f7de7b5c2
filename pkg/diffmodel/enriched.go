package diffmodel

// ContextSlice is a window of whole-file content around a hunk on one side.
type ContextSlice struct {
	// FirstLine is the 1-based line number of Lines[0] in the source file.
	FirstLine int      `json:"firstLine"`
	Lines     []string `json:"lines"`

	// LinesBase64 mirrors Lines, base64-encoded, in serialized form when any
	// line is not valid UTF-8.
	LinesBase64 []string `json:"linesBase64,omitempty"`
}

// HunkContext is the optional attachment produced by the context enricher.
// A side is nil when its content could not be resolved.
type HunkContext struct {
	Radius int           `json:"radius"`
	Before *ContextSlice `json:"before,omitempty"`
	After  *ContextSlice `json:"after,omitempty"`
}

// Empty reports whether neither side was attached.
func (c *HunkContext) Empty() bool {
	return c == nil || (c.Before == nil && c.After == nil)
}

// EnrichedHunk decorates a finalized Hunk with an optional context attachment.
// The embedded Hunk is never modified, so its ID and ContentHash are preserved.
type EnrichedHunk struct {
	Hunk
	Context *HunkContext `json:"context,omitempty"`
}

// EnrichedFile decorates a FileDiff, replacing its hunk list with decorated hunks.
type EnrichedFile struct {
	FileDiff
	Hunks []EnrichedHunk `json:"hunks"`
}

// EnrichedDocument decorates a Document with per-hunk context attachments.
// It serializes to the same shape as Document plus optional "context" fields.
type EnrichedDocument struct {
	Document
	Files []EnrichedFile `json:"files"`
}

// Wrap decorates doc without attaching any context.
func Wrap(doc *Document) *EnrichedDocument {
	files := make([]EnrichedFile, len(doc.Files))

	for i := range doc.Files {
		hunks := make([]EnrichedHunk, len(doc.Files[i].Hunks))
		for j := range doc.Files[i].Hunks {
			hunks[j] = EnrichedHunk{Hunk: doc.Files[i].Hunks[j]}
		}

		file := doc.Files[i]
		file.Hunks = nil

		files[i] = EnrichedFile{FileDiff: file, Hunks: hunks}
	}

	return &EnrichedDocument{
		Document: Document{Totals: doc.Totals},
		Files:    files,
	}
}

// Unwrap returns the plain document without context attachments.
func (d *EnrichedDocument) Unwrap() *Document {
	files := make([]FileDiff, len(d.Files))

	for i := range d.Files {
		file := d.Files[i].FileDiff

		file.Hunks = make([]Hunk, len(d.Files[i].Hunks))
		for j := range d.Files[i].Hunks {
			file.Hunks[j] = d.Files[i].Hunks[j].Hunk
		}

		files[i] = file
	}

	return &Document{Totals: d.Totals, Files: files}
}

// Attached counts hunks that carry a non-empty context attachment.
func (d *EnrichedDocument) Attached() int {
	count := 0

	for i := range d.Files {
		for j := range d.Files[i].Hunks {
			if !d.Files[i].Hunks[j].Context.Empty() {
				count++
			}
		}
	}

	return count
}
