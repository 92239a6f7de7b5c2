// Package diffmodel defines the structured, serializable representation of a
// parsed unified diff: documents, per-file change blocks, hunks and lines.
//
// All values are built once by the parser and treated as immutable afterwards.
// Optional attachments (surrounding source context) are carried by the
// decorator types in enriched.go rather than by mutating these structs.
package diffmodel

// NullDevice is the path git prints for the side of a change that does not exist.
const NullDevice = "/dev/null"

// Status is the change classification of a single file block.
type Status string

// Change statuses.
const (
	StatusAdded       Status = "added"
	StatusModified    Status = "modified"
	StatusDeleted     Status = "deleted"
	StatusRenamed     Status = "renamed"
	StatusCopied      Status = "copied"
	StatusModeChanged Status = "modeChanged"
	StatusTypeChanged Status = "typeChanged"
	StatusUnmerged    Status = "unmerged"
	StatusUnknown     Status = "unknown"
)

// Statuses lists every status in schema order.
var Statuses = []Status{
	StatusAdded, StatusModified, StatusDeleted, StatusRenamed, StatusCopied,
	StatusModeChanged, StatusTypeChanged, StatusUnmerged, StatusUnknown,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAdded, StatusModified, StatusDeleted, StatusRenamed, StatusCopied,
		StatusModeChanged, StatusTypeChanged, StatusUnmerged, StatusUnknown:
		return true
	default:
		return false
	}
}

// Op is the operation of a single hunk line.
type Op string

// Line operations.
const (
	OpContext Op = "context"
	OpAdd     Op = "add"
	OpDel     Op = "del"
)

// Ops lists every line operation in schema order.
var Ops = []Op{OpContext, OpAdd, OpDel}

// Prefix returns the unified diff prefix character for the operation.
func (o Op) Prefix() byte {
	switch o {
	case OpAdd:
		return '+'
	case OpDel:
		return '-'
	default:
		return ' '
	}
}

// Document is the top-level container produced by one parse invocation.
type Document struct {
	Totals Totals     `json:"totals"`
	Files  []FileDiff `json:"files"`
}

// Totals are document-level sums over all files.
type Totals struct {
	Files       int `json:"files"`
	Additions   int `json:"additions"`
	Deletions   int `json:"deletions"`
	Hunks       int `json:"hunks"`
	BinaryFiles int `json:"binaryFiles"`
}

// FileStats are per-file counters.
type FileStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Hunks     int `json:"hunks"`
}

// FileDiff is one file's change block.
//
// OldPath and NewPath are empty when the corresponding side does not exist
// (the null-device sentinel in the input). Raw holds the verbatim block text
// and is the fallback source of truth for consumers.
//
// The *Base64 fields exist only in serialized form; see Escaped.
type FileDiff struct {
	ID            string    `json:"id"`
	OldPath       string    `json:"oldPath,omitempty"`
	OldPathBase64 string    `json:"oldPathBase64,omitempty"`
	NewPath       string    `json:"newPath,omitempty"`
	NewPathBase64 string    `json:"newPathBase64,omitempty"`
	Status        Status    `json:"status"`
	Binary        bool      `json:"binary"`
	Language      string    `json:"language,omitempty"`
	Similarity    *int      `json:"similarity,omitempty"`
	ModeBefore    string    `json:"modeBefore,omitempty"`
	ModeAfter     string    `json:"modeAfter,omitempty"`
	OldObject     string    `json:"oldObject,omitempty"`
	NewObject     string    `json:"newObject,omitempty"`
	Stats         FileStats `json:"stats"`
	Hunks         []Hunk    `json:"hunks"`
	Raw           string    `json:"raw"`
	RawBase64     string    `json:"rawBase64,omitempty"`
}

// Path returns the most descriptive path of the file: the new path, or the
// old one for deletions.
func (f *FileDiff) Path() string {
	if f.NewPath != "" {
		return f.NewPath
	}

	return f.OldPath
}

// Hunk is one contiguous changed region of a file.
type Hunk struct {
	ID            string     `json:"id"`
	OldStart      int        `json:"oldStart"`
	OldLines      int        `json:"oldLines"`
	NewStart      int        `json:"newStart"`
	NewLines      int        `json:"newLines"`
	Heading       string     `json:"heading,omitempty"`
	HeadingBase64 string     `json:"headingBase64,omitempty"`
	Header        string     `json:"header"`
	HeaderBase64  string     `json:"headerBase64,omitempty"`
	ContentHash   string     `json:"contentHash"`
	Lines         []HunkLine `json:"lines"`
}

// HunkLine is a single line inside a hunk.
//
// Context lines carry both line numbers, added lines only NewLine and deleted
// lines only OldLine. An absent number is zero (line numbers are 1-based).
type HunkLine struct {
	ID         int    `json:"id"`
	Op         Op     `json:"op"`
	Text       string `json:"text"`
	TextBase64 string `json:"textBase64,omitempty"`
	OldLine    int    `json:"oldLine,omitempty"`
	NewLine    int    `json:"newLine,omitempty"`
	NoNewline  bool   `json:"noNewline,omitempty"`
}
