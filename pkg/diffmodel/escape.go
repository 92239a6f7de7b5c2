package diffmodel

import (
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Text fields hold raw bytes: diffs of Latin-1 sources and C-quoted paths
// are not valid UTF-8, which JSON strings cannot carry. In serialized form
// such a field keeps its lossy text (invalid bytes become U+FFFD) and gains a
// "<field>Base64" sibling with the exact bytes. Decode restores the field
// from the sibling and clears it, so in memory the siblings are always empty.

// ErrBadEscape is returned when a base64 sibling field cannot be restored.
var ErrBadEscape = errors.New("invalid base64 text field")

func escapeText(s string) string {
	if utf8.ValidString(s) {
		return ""
	}

	return base64.StdEncoding.EncodeToString([]byte(s))
}

func unescapeText(dst, encoded *string, field string) error {
	if *encoded == "" {
		return nil
	}

	raw, err := base64.StdEncoding.DecodeString(*encoded)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBadEscape, field, err)
	}

	*dst = string(raw)
	*encoded = ""

	return nil
}

// Escaped returns a copy of d ready for JSON or YAML encoding, with the
// base64 sibling of every text field that is not valid UTF-8 filled in.
// d is not modified.
func (d *EnrichedDocument) Escaped() *EnrichedDocument {
	out := &EnrichedDocument{Document: d.Document}

	if d.Files != nil {
		out.Files = make([]EnrichedFile, len(d.Files))
	}

	for i := range d.Files {
		file := d.Files[i]
		file.OldPathBase64 = escapeText(file.OldPath)
		file.NewPathBase64 = escapeText(file.NewPath)
		file.RawBase64 = escapeText(file.Raw)

		if file.Hunks != nil {
			file.Hunks = make([]EnrichedHunk, len(d.Files[i].Hunks))
			for j := range d.Files[i].Hunks {
				file.Hunks[j] = escapeHunk(d.Files[i].Hunks[j])
			}
		}

		out.Files[i] = file
	}

	return out
}

func escapeHunk(hunk EnrichedHunk) EnrichedHunk {
	hunk.HeadingBase64 = escapeText(hunk.Heading)
	hunk.HeaderBase64 = escapeText(hunk.Header)

	if hunk.Lines != nil {
		lines := make([]HunkLine, len(hunk.Lines))
		for k, line := range hunk.Lines {
			line.TextBase64 = escapeText(line.Text)
			lines[k] = line
		}

		hunk.Lines = lines
	}

	if hunk.Context != nil {
		ctx := *hunk.Context
		ctx.Before = escapeSlice(ctx.Before)
		ctx.After = escapeSlice(ctx.After)
		hunk.Context = &ctx
	}

	return hunk
}

func escapeSlice(slice *ContextSlice) *ContextSlice {
	if slice == nil {
		return nil
	}

	valid := true

	for _, line := range slice.Lines {
		if !utf8.ValidString(line) {
			valid = false

			break
		}
	}

	if valid {
		return slice
	}

	out := *slice
	out.LinesBase64 = make([]string, len(slice.Lines))

	for i, line := range slice.Lines {
		out.LinesBase64[i] = base64.StdEncoding.EncodeToString([]byte(line))
	}

	return &out
}

// unescape restores every field from its base64 sibling in place.
func (d *EnrichedDocument) unescape() error {
	for i := range d.Files {
		file := &d.Files[i]

		err := errors.Join(
			unescapeText(&file.OldPath, &file.OldPathBase64, "oldPath"),
			unescapeText(&file.NewPath, &file.NewPathBase64, "newPath"),
			unescapeText(&file.Raw, &file.RawBase64, "raw"),
		)
		if err != nil {
			return err
		}

		for j := range file.Hunks {
			err = unescapeHunk(&file.Hunks[j])
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func unescapeHunk(hunk *EnrichedHunk) error {
	err := errors.Join(
		unescapeText(&hunk.Heading, &hunk.HeadingBase64, "heading"),
		unescapeText(&hunk.Header, &hunk.HeaderBase64, "header"),
	)
	if err != nil {
		return err
	}

	for k := range hunk.Lines {
		line := &hunk.Lines[k]

		err = unescapeText(&line.Text, &line.TextBase64, "text")
		if err != nil {
			return err
		}
	}

	if hunk.Context == nil {
		return nil
	}

	return errors.Join(unescapeSlice(hunk.Context.Before), unescapeSlice(hunk.Context.After))
}

func unescapeSlice(slice *ContextSlice) error {
	if slice == nil || slice.LinesBase64 == nil {
		return nil
	}

	if len(slice.LinesBase64) != len(slice.Lines) {
		return fmt.Errorf("%w: linesBase64 has %d entries for %d lines",
			ErrBadEscape, len(slice.LinesBase64), len(slice.Lines))
	}

	for i, encoded := range slice.LinesBase64 {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("%w: lines: %w", ErrBadEscape, err)
		}

		slice.Lines[i] = string(raw)
	}

	slice.LinesBase64 = nil

	return nil
}
