package diffparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line  string
		kind  lineKind
		value string
	}{
		{"diff --git a/x b/x", kindFileBoundary, "a/x b/x"},
		{"diff --cc x", kindCombinedBoundary, "x"},
		{"index abc..def 100644", kindIndex, "abc..def 100644"},
		{"new file mode 100644", kindNewFileMode, "100644"},
		{"new mode 100755", kindNewMode, "100755"},
		{"similarity index 97%", kindSimilarity, "97%"},
		{"rename from a", kindRenameFrom, "a"},
		{"copy to b", kindCopyTo, "b"},
		{"--- a/x", kindOldPath, "a/x"},
		{"+++ b/x", kindNewPath, "b/x"},
		{"@@ -1 +1 @@", kindHunkHeader, "1 +1 @@"},
		{`\ No newline at end of file`, kindNoNewline, "No newline at end of file"},
		{"GIT binary patch", kindBinaryPatch, ""},
		{" context", kindOther, " context"},
		{"@@@ -1 -1 +1 @@@", kindOther, "@@@ -1 -1 +1 @@@"},
	}

	for _, tt := range tests {
		kind, value := classifyLine(tt.line)
		assert.Equal(t, tt.kind, kind, tt.line)
		assert.Equal(t, tt.value, value, tt.line)
	}
}

func TestSplitLines_Offsets(t *testing.T) {
	t.Parallel()

	lines := splitLines("ab\n\ncd")

	assert.Equal(t, []physicalLine{
		{text: "ab", start: 0, end: 3, num: 1},
		{text: "", start: 3, end: 4, num: 2},
		{text: "cd", start: 4, end: 6, num: 3},
	}, lines)

	assert.Len(t, splitLines("x\n"), 1)
	assert.Empty(t, splitLines(""))
}

func TestParseBoundaryPaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rest     string
		old, new string
	}{
		{"a/x.go b/x.go", "x.go", "x.go"},
		{"a/old.go b/new.go", "old.go", "new.go"},
		{"a/dir b/x b/dir b/x", "dir b/x", "dir b/x"},
		{`"a/tab\there" "b/tab\there"`, "tab\there", "tab\there"},
		{`a/plain "b/quo\"te"`, "plain", `quo"te`},
	}

	for _, tt := range tests {
		oldPath, newPath := parseBoundaryPaths(tt.rest)
		assert.Equal(t, tt.old, oldPath, tt.rest)
		assert.Equal(t, tt.new, newPath, tt.rest)
	}
}

func TestParseAnnouncedPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "x.go", parseAnnouncedPath("a/x.go", "a/"))
	assert.Equal(t, "x.go", parseAnnouncedPath("b/x.go\t2024-01-01 10:00:00", "b/"))
	assert.Equal(t, nullDevice, parseAnnouncedPath("/dev/null", "a/"))
	assert.Equal(t, "sp ace", parseAnnouncedPath(`"a/sp ace"`, "a/"))
}

func TestParseIndex(t *testing.T) {
	t.Parallel()

	oldObject, newObject, mode := parseIndex("abc123..def456 100644")
	assert.Equal(t, "abc123", oldObject)
	assert.Equal(t, "def456", newObject)
	assert.Equal(t, "100644", mode)

	oldObject, newObject, mode = parseIndex("abc..def")
	assert.Equal(t, "abc", oldObject)
	assert.Equal(t, "def", newObject)
	assert.Empty(t, mode)

	oldObject, newObject, _ = parseIndex("a1,b2..c3")
	assert.Empty(t, oldObject)
	assert.Empty(t, newObject)
}

func TestParseBinaryNotice(t *testing.T) {
	t.Parallel()

	oldPath, newPath, ok := parseBinaryNotice("a/x.png and b/y.png differ")
	assert.True(t, ok)
	assert.Equal(t, "x.png", oldPath)
	assert.Equal(t, "y.png", newPath)

	oldPath, _, ok = parseBinaryNotice("/dev/null and b/y.png differ")
	assert.True(t, ok)
	assert.Equal(t, nullDevice, oldPath)

	_, _, ok = parseBinaryNotice("garbage")
	assert.False(t, ok)
}

func TestParseHunkHeader(t *testing.T) {
	t.Parallel()

	hunk, err := parseHunkHeader("@@ -3 +4,0 @@  func x() ")
	assert.NoError(t, err)
	assert.Equal(t, 3, hunk.oldStart)
	assert.Equal(t, 1, hunk.oldLines)
	assert.Equal(t, 4, hunk.newStart)
	assert.Equal(t, 0, hunk.newLines)
	assert.Equal(t, "func x()", hunk.heading)

	_, err = parseHunkHeader("@@ -1,2 +1,2")
	assert.ErrorIs(t, err, ErrInvalidHunkHeader)

	_, err = parseHunkHeader("@@ -99999999999999999999 +1 @@")
	assert.ErrorIs(t, err, ErrInvalidHunkHeader)
}
