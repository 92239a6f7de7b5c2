package diffparse

import (
	"strconv"
	"strings"
)

// lineKind classifies a physical input line by its literal prefix.
type lineKind int

const (
	kindOther lineKind = iota
	kindFileBoundary
	kindCombinedBoundary
	kindUnmergedNotice
	kindIndex
	kindOldMode
	kindNewMode
	kindNewFileMode
	kindDeletedFileMode
	kindSimilarity
	kindDissimilarity
	kindRenameFrom
	kindRenameTo
	kindCopyFrom
	kindCopyTo
	kindOldPath
	kindNewPath
	kindBinaryNotice
	kindBinaryPatch
	kindHunkHeader
	kindNoNewline
)

type linePrefix struct {
	prefix string
	kind   lineKind
}

// linePrefixes is matched in order; no prefix is a prefix of a later one.
var linePrefixes = []linePrefix{
	{"diff --git ", kindFileBoundary},
	{"diff --cc ", kindCombinedBoundary},
	{"diff --combined ", kindCombinedBoundary},
	{"* Unmerged path ", kindUnmergedNotice},
	{"index ", kindIndex},
	{"old mode ", kindOldMode},
	{"new mode ", kindNewMode},
	{"new file mode ", kindNewFileMode},
	{"deleted file mode ", kindDeletedFileMode},
	{"similarity index ", kindSimilarity},
	{"dissimilarity index ", kindDissimilarity},
	{"rename from ", kindRenameFrom},
	{"rename to ", kindRenameTo},
	{"copy from ", kindCopyFrom},
	{"copy to ", kindCopyTo},
	{"--- ", kindOldPath},
	{"+++ ", kindNewPath},
	{"Binary files ", kindBinaryNotice},
	{"GIT binary patch", kindBinaryPatch},
	{"@@ -", kindHunkHeader},
	{`\ `, kindNoNewline},
}

// classifyLine returns the kind of line and the text following its prefix.
func classifyLine(line string) (lineKind, string) {
	for _, lp := range linePrefixes {
		if strings.HasPrefix(line, lp.prefix) {
			return lp.kind, line[len(lp.prefix):]
		}
	}

	return kindOther, line
}

// isMarker reports whether kind terminates a hunk when seen inside one.
// Path announcements are content while the hunk still expects lines.
func (k lineKind) isMarker() bool {
	return k != kindOther && k != kindNoNewline
}

// physicalLine is one input line without its terminating newline.
// start and end are byte offsets of the line in the input, end including the newline.
type physicalLine struct {
	text  string
	start int
	end   int
	num   int
}

// splitLines splits input into physical lines. A trailing newline does not
// produce an extra empty line.
func splitLines(input string) []physicalLine {
	lines := make([]physicalLine, 0, strings.Count(input, "\n")+1)
	start := 0

	for start < len(input) {
		idx := strings.IndexByte(input[start:], '\n')

		end := len(input)
		text := input[start:]

		if idx >= 0 {
			end = start + idx + 1
			text = input[start : start+idx]
		}

		lines = append(lines, physicalLine{text: text, start: start, end: end, num: len(lines) + 1})
		start = end
	}

	return lines
}

// unquotePath decodes a git C-quoted path ("a/f\303\266o"); unquoted
// values are returned unchanged.
func unquotePath(s string) string {
	if len(s) < 2 || s[0] != '"' {
		return s
	}

	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return s
	}

	return unquoted
}

// splitQuoted splits off the first path token of s, honoring git quoting.
func splitQuoted(s string) (token, rest string, ok bool) {
	if s == "" || s[0] != '"' {
		return "", s, false
	}

	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return unquotePath(s[:i+1]), strings.TrimPrefix(s[i+1:], " "), true
		}
	}

	return "", s, false
}

// parseBoundaryPaths extracts the old and new paths from the text after
// "diff --git ". Unquoted paths containing spaces are disambiguated by
// preferring a split where both sides name the same file.
func parseBoundaryPaths(rest string) (oldPath, newPath string) {
	if first, remainder, ok := splitQuoted(rest); ok {
		second := remainder
		if quoted, _, okSecond := splitQuoted(remainder); okSecond {
			second = quoted
		}

		return stripPrefix(first, "a/"), stripPrefix(second, "b/")
	}

	split := -1

	for i := 0; i+3 <= len(rest); i++ {
		if rest[i:i+3] != " b/" && !(rest[i] == ' ' && i+1 < len(rest) && rest[i+1] == '"') {
			continue
		}

		if split < 0 {
			split = i
		}

		if stripPrefix(rest[:i], "a/") == stripPrefix(unquotePath(rest[i+1:]), "b/") {
			split = i

			break
		}
	}

	if split < 0 {
		return stripPrefix(rest, "a/"), ""
	}

	return stripPrefix(rest[:split], "a/"), stripPrefix(unquotePath(rest[split+1:]), "b/")
}

// parseAnnouncedPath decodes the path of a "--- " or "+++ " line: it drops a
// trailing tab-separated timestamp, unquotes and strips the side prefix.
func parseAnnouncedPath(value, sidePrefix string) string {
	if value == "" || value[0] != '"' {
		if tab := strings.IndexByte(value, '\t'); tab >= 0 {
			value = value[:tab]
		}
	}

	value = strings.TrimRight(value, "\r")

	path := unquotePath(value)
	if path == nullDevice {
		return path
	}

	return stripPrefix(path, sidePrefix)
}

func stripPrefix(path, prefix string) string {
	if path == nullDevice {
		return path
	}

	return strings.TrimPrefix(path, prefix)
}

// parseIndex decodes "abc123..def456[ mode]". Combined-diff indexes with
// several parents ("a,b..c") yield no object ids.
func parseIndex(value string) (oldObject, newObject, mode string) {
	objects, mode, _ := strings.Cut(strings.TrimSpace(value), " ")

	before, after, ok := strings.Cut(objects, "..")
	if !ok || strings.Contains(before, ",") {
		return "", "", mode
	}

	return before, after, mode
}

// parsePercent decodes "90%" into 90.
func parsePercent(value string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(value), "%"))
	if err != nil {
		return 0, false
	}

	return n, true
}

// parseBinaryNotice decodes "a/x and b/y differ".
func parseBinaryNotice(value string) (oldPath, newPath string, ok bool) {
	value, found := strings.CutSuffix(strings.TrimRight(value, "\r"), " differ")
	if !found {
		return "", "", false
	}

	before, after, found := strings.Cut(value, " and ")
	if !found {
		return "", "", false
	}

	return stripPrefix(unquotePath(before), "a/"), stripPrefix(unquotePath(after), "b/"), true
}
