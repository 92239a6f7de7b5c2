// Package gitlib reads file content from a git object database through libgit2.
package gitlib

import (
	"strings"

	git2go "github.com/libgit2/git2go/v34"
)

const (
	// MinObjectIDLength is the shortest abbreviation git accepts.
	MinObjectIDLength = 4
	// MaxObjectIDLength is the length of a full SHA-1 object name.
	MaxObjectIDLength = 40
)

// ObjectID is a full or abbreviated hex object name, as printed on the
// "index" line of a diff.
type ObjectID string

// ObjectIDFromOid converts a libgit2 Oid to its full hex name.
func ObjectIDFromOid(oid *git2go.Oid) ObjectID {
	return ObjectID(oid.String())
}

// IsZero reports whether id is empty or all zeros. Git prints a zero id for
// the missing side of an added or deleted file.
func (id ObjectID) IsZero() bool {
	return strings.Trim(string(id), "0") == ""
}

// Valid reports whether id is a hex string of acceptable length.
func (id ObjectID) Valid() bool {
	if len(id) < MinObjectIDLength || len(id) > MaxObjectIDLength {
		return false
	}

	for _, c := range []byte(id) {
		isDigit := c >= '0' && c <= '9'
		isHex := (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')

		if !isDigit && !isHex {
			return false
		}
	}

	return true
}

// String returns the hex name.
func (id ObjectID) String() string {
	return string(id)
}
