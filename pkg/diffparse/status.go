package diffparse

import (
	"strconv"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
)

const (
	modeTypeShift = 12
	modePermMask  = 0o7777
)

// classifyStatus infers the change status of a finished block. Precedence:
// renamed, copied, unmerged, added, deleted, then mode-based refinements of
// modified. oldPath and newPath still carry the null-device sentinel here.
func classifyStatus(b *fileBlock, oldPath, newPath string) diffmodel.Status {
	switch {
	case b.renamed:
		return diffmodel.StatusRenamed
	case b.copied:
		return diffmodel.StatusCopied
	case b.unmerged:
		return diffmodel.StatusUnmerged
	case oldPath == nullDevice || b.newFile:
		return diffmodel.StatusAdded
	case newPath == nullDevice || b.deletedFile:
		return diffmodel.StatusDeleted
	}

	if b.oldMode == "" || b.newMode == "" || b.oldMode == b.newMode {
		return diffmodel.StatusModified
	}

	before, errBefore := strconv.ParseUint(b.oldMode, 8, 32)
	after, errAfter := strconv.ParseUint(b.newMode, 8, 32)

	if errBefore != nil || errAfter != nil {
		return diffmodel.StatusModified
	}

	if before>>modeTypeShift != after>>modeTypeShift {
		return diffmodel.StatusTypeChanged
	}

	if len(b.hunks) == 0 && !b.binary && before&modePermMask != after&modePermMask {
		return diffmodel.StatusModeChanged
	}

	return diffmodel.StatusModified
}
