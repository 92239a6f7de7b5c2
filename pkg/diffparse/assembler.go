package diffparse

import (
	"strings"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
	"github.com/Sumatoshi-tech/diffcore/pkg/identity"
)

const nullDevice = diffmodel.NullDevice

// fileBlock accumulates the metadata of one in-progress file change block.
// Paths are recorded per source and resolved when the block is finalized.
type fileBlock struct {
	start int

	boundaryOld string
	boundaryNew string

	announcedOld    string
	announcedNew    string
	hasAnnouncedOld bool
	hasAnnouncedNew bool

	binaryOld    string
	binaryNew    string
	hasBinaryOld bool

	renameFrom string
	renameTo   string
	copyFrom   string
	copyTo     string
	renamed    bool
	copied     bool

	newFile     bool
	deletedFile bool
	unmerged    bool
	binary      bool

	oldMode    string
	newMode    string
	oldObject  string
	newObject  string
	similarity *int

	hunks []diffmodel.Hunk
}

func newBoundaryBlock(start int, rest string) *fileBlock {
	oldPath, newPath := parseBoundaryPaths(strings.TrimRight(rest, "\r"))

	return &fileBlock{start: start, boundaryOld: oldPath, boundaryNew: newPath}
}

// newUnmergedBlock starts a block for "diff --cc <path>" or "* Unmerged path <path>".
func newUnmergedBlock(start int, rest string) *fileBlock {
	p := unquotePath(strings.TrimRight(rest, "\r"))

	return &fileBlock{start: start, boundaryOld: p, boundaryNew: p, unmerged: true}
}

// applyMetadata records a metadata line. It reports false for lines that
// carry no file metadata.
func (b *fileBlock) applyMetadata(kind lineKind, value string) bool {
	value = strings.TrimRight(value, "\r")

	switch kind {
	case kindIndex:
		oldObject, newObject, mode := parseIndex(value)
		b.oldObject, b.newObject = oldObject, newObject

		if mode != "" {
			if b.oldMode == "" {
				b.oldMode = mode
			}

			if b.newMode == "" {
				b.newMode = mode
			}
		}
	case kindOldMode:
		b.oldMode = value
	case kindNewMode:
		b.newMode = value
	case kindNewFileMode:
		b.newFile = true
		b.newMode = value
	case kindDeletedFileMode:
		b.deletedFile = true
		b.oldMode = value
	case kindSimilarity, kindDissimilarity:
		if n, ok := parsePercent(value); ok {
			b.similarity = &n
		}
	case kindRenameFrom:
		b.renamed = true
		b.renameFrom = unquotePath(value)
	case kindRenameTo:
		b.renamed = true
		b.renameTo = unquotePath(value)
	case kindCopyFrom:
		b.copied = true
		b.copyFrom = unquotePath(value)
	case kindCopyTo:
		b.copied = true
		b.copyTo = unquotePath(value)
	case kindOldPath:
		b.announcedOld = parseAnnouncedPath(value, "a/")
		b.hasAnnouncedOld = true
	case kindNewPath:
		b.announcedNew = parseAnnouncedPath(value, "b/")
		b.hasAnnouncedNew = true
	case kindBinaryNotice:
		b.binary = true

		if oldPath, newPath, ok := parseBinaryNotice(value); ok {
			b.binaryOld, b.binaryNew = oldPath, newPath
			b.hasBinaryOld = true
		}
	case kindBinaryPatch:
		b.binary = true
	default:
		return false
	}

	return true
}

// resolvePaths picks the old and new path by source priority: rename/copy
// markers, then path announcements, then the binary notice, then the
// boundary line. The null-device sentinel is kept.
func (b *fileBlock) resolvePaths() (oldPath, newPath string) {
	oldPath, newPath = b.boundaryOld, b.boundaryNew

	if b.hasBinaryOld {
		oldPath, newPath = b.binaryOld, b.binaryNew
	}

	if b.hasAnnouncedOld {
		oldPath = b.announcedOld
	}

	if b.hasAnnouncedNew {
		newPath = b.announcedNew
	}

	if b.renameFrom != "" {
		oldPath = b.renameFrom
	} else if b.copyFrom != "" {
		oldPath = b.copyFrom
	}

	if b.renameTo != "" {
		newPath = b.renameTo
	} else if b.copyTo != "" {
		newPath = b.copyTo
	}

	return oldPath, newPath
}

// finalize turns the block into an immutable FileDiff covering input[b.start:end].
func (b *fileBlock) finalize(input string, end int, ids identity.Generator) diffmodel.FileDiff {
	rawOld, rawNew := b.resolvePaths()
	status := classifyStatus(b, rawOld, rawNew)

	oldPath, newPath := rawOld, rawNew
	if status == diffmodel.StatusAdded || oldPath == nullDevice {
		oldPath = ""
	}

	if status == diffmodel.StatusDeleted || newPath == nullDevice {
		newPath = ""
	}

	modeBefore, modeAfter := b.oldMode, b.newMode
	if status == diffmodel.StatusAdded {
		modeBefore = ""
	}

	if status == diffmodel.StatusDeleted {
		modeAfter = ""
	}

	file := diffmodel.FileDiff{
		ID: ids.FileID(identity.FileKey{
			OldPath:    oldPath,
			NewPath:    newPath,
			Status:     string(status),
			ModeBefore: modeBefore,
			ModeAfter:  modeAfter,
		}),
		OldPath:    oldPath,
		NewPath:    newPath,
		Status:     status,
		Binary:     b.binary,
		Similarity: b.similarity,
		ModeBefore: modeBefore,
		ModeAfter:  modeAfter,
		OldObject:  b.oldObject,
		NewObject:  b.newObject,
		Hunks:      make([]diffmodel.Hunk, 0, len(b.hunks)),
		Raw:        input[b.start:end],
	}

	file.Language = detectLanguage(file.Path())

	for index, hunk := range b.hunks {
		hunk.ID = ids.HunkID(identity.HunkKey{
			OldPath:  oldPath,
			NewPath:  newPath,
			Index:    index,
			OldStart: hunk.OldStart,
			OldLines: hunk.OldLines,
			NewStart: hunk.NewStart,
			NewLines: hunk.NewLines,
			Heading:  hunk.Heading,
		})
		hunk.ContentHash = identity.ContentHash(&hunk)

		for i := range hunk.Lines {
			switch hunk.Lines[i].Op {
			case diffmodel.OpAdd:
				file.Stats.Additions++
			case diffmodel.OpDel:
				file.Stats.Deletions++
			case diffmodel.OpContext:
			}
		}

		file.Hunks = append(file.Hunks, hunk)
	}

	file.Stats.Hunks = len(file.Hunks)

	return file
}
