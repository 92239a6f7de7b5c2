package diffparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
)

// ErrInvalidHunkHeader is returned in strict mode for a malformed "@@ -" line.
var ErrInvalidHunkHeader = errors.New("invalid hunk header")

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)

// hunkBuilder collects the lines of one hunk while tracking the running
// old and new line numbers.
type hunkBuilder struct {
	header   string
	oldStart int
	oldLines int
	newStart int
	newLines int
	heading  string

	lines   []diffmodel.HunkLine
	oldNext int
	newNext int
	oldSeen int
	newSeen int
}

// parseHunkHeader decodes "@@ -a[,b] +c[,d] @@ heading". Omitted counts default to 1.
func parseHunkHeader(header string) (*hunkBuilder, error) {
	m := hunkHeaderRe.FindStringSubmatch(strings.TrimRight(header, "\r"))
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHunkHeader, header)
	}

	nums := make([]int, 4)

	for i, group := range []string{m[1], m[2], m[3], m[4]} {
		if group == "" {
			nums[i] = 1

			continue
		}

		n, err := strconv.Atoi(group)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidHunkHeader, header, err)
		}

		nums[i] = n
	}

	return &hunkBuilder{
		header:   header,
		oldStart: nums[0],
		oldLines: nums[1],
		newStart: nums[2],
		newLines: nums[3],
		heading:  strings.TrimSpace(m[5]),
		lines:    []diffmodel.HunkLine{},
		oldNext:  nums[0],
		newNext:  nums[2],
	}, nil
}

// pending reports whether the header's line counts are not yet exhausted.
func (h *hunkBuilder) pending() bool {
	return h.oldSeen < h.oldLines || h.newSeen < h.newLines
}

func (h *hunkBuilder) add(op diffmodel.Op, text string) {
	line := diffmodel.HunkLine{ID: len(h.lines) + 1, Op: op, Text: text}

	switch op {
	case diffmodel.OpAdd:
		line.NewLine = h.newNext
		h.newNext++
		h.newSeen++
	case diffmodel.OpDel:
		line.OldLine = h.oldNext
		h.oldNext++
		h.oldSeen++
	default:
		line.OldLine = h.oldNext
		line.NewLine = h.newNext
		h.oldNext++
		h.newNext++
		h.oldSeen++
		h.newSeen++
	}

	h.lines = append(h.lines, line)
}

// markNoNewline flags the most recent line. A marker with no preceding
// line is ignored.
func (h *hunkBuilder) markNoNewline() {
	if len(h.lines) > 0 {
		h.lines[len(h.lines)-1].NoNewline = true
	}
}

// consume offers one physical line to the hunk. It returns false when the
// line ends the hunk and must be handled by the file block instead.
//
// Once the header's counts are exhausted only a "\ No newline" marker still
// belongs to the hunk, so trailing text such as a mail signature ("-- ")
// stays out of the lines and is kept in the file's raw text only. While
// counts remain, path announcements are content and every other metadata
// marker ends the hunk.
func (h *hunkBuilder) consume(line physicalLine, kind lineKind, strict bool) (bool, error) {
	if kind == kindNoNewline {
		h.markNoNewline()

		return true, nil
	}

	if !h.pending() {
		return false, nil
	}

	text := line.text
	if text == "" {
		h.add(diffmodel.OpContext, "")

		return true, nil
	}

	switch text[0] {
	case ' ':
		h.add(diffmodel.OpContext, text[1:])

		return true, nil
	case '+':
		h.add(diffmodel.OpAdd, text[1:])

		return true, nil
	case '-':
		h.add(diffmodel.OpDel, text[1:])

		return true, nil
	}

	if kind.isMarker() {
		return false, nil
	}

	if strict {
		return false, fmt.Errorf("%w: line %d: %q", ErrUnexpectedLine, line.num, text)
	}

	h.add(diffmodel.OpContext, text)

	return true, nil
}

func (h *hunkBuilder) build() diffmodel.Hunk {
	return diffmodel.Hunk{
		OldStart: h.oldStart,
		OldLines: h.oldLines,
		NewStart: h.newStart,
		NewLines: h.newLines,
		Heading:  h.heading,
		Header:   h.header,
		Lines:    h.lines,
	}
}
