// Package identity derives deterministic identifiers for parsed diff entities.
//
// Stable ids are truncated, URL-safe SHA-256 digests of a pipe-joined string of
// the entity's identifying fields, with '\' and '|' backslash-escaped inside
// each field. They depend on nothing but those fields, so two independent
// parses of textually identical input always agree.
package identity

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultLength is the default number of characters in a stable id.
	DefaultLength = 12
	// MaxLength is the length of an untruncated id (unpadded base64 of 32 bytes).
	MaxLength = 43

	fieldSep = "|"
)

// fieldEscaper keeps the joined form injective: "a|b"+"c" and "a"+"b|c"
// produce different keys.
var fieldEscaper = strings.NewReplacer(`\`, `\\`, fieldSep, `\`+fieldSep)

func joinFields(fields ...string) string {
	for i, f := range fields {
		fields[i] = fieldEscaper.Replace(f)
	}

	return strings.Join(fields, fieldSep)
}

// ErrInvalidLength is returned for an id length outside [1, MaxLength].
var ErrInvalidLength = errors.New("invalid id length")

// FileKey holds the identifying fields of a file block.
type FileKey struct {
	OldPath    string
	NewPath    string
	Status     string
	ModeBefore string
	ModeAfter  string
}

// String returns the canonical pipe-joined form hashed into the file id.
func (k FileKey) String() string {
	return joinFields(k.OldPath, k.NewPath, k.Status, k.ModeBefore, k.ModeAfter)
}

// HunkKey holds the identifying fields of a hunk. Index is the 0-based
// ordinal of the hunk within its file.
type HunkKey struct {
	OldPath  string
	NewPath  string
	Index    int
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Heading  string
}

// String returns the canonical pipe-joined form hashed into the hunk id.
func (k HunkKey) String() string {
	return joinFields(
		k.OldPath,
		k.NewPath,
		strconv.Itoa(k.Index),
		strconv.Itoa(k.OldStart),
		strconv.Itoa(k.OldLines),
		strconv.Itoa(k.NewStart),
		strconv.Itoa(k.NewLines),
		k.Heading,
	)
}

// Generator produces stable ids of a fixed length.
type Generator struct {
	length int
}

// NewGenerator creates a Generator. Longer ids lower the collision
// probability on very large diffs.
func NewGenerator(length int) (Generator, error) {
	if length < 1 || length > MaxLength {
		return Generator{}, fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidLength, length, MaxLength)
	}

	return Generator{length: length}, nil
}

// Default returns a Generator producing DefaultLength ids.
func Default() Generator {
	return Generator{length: DefaultLength}
}

// Length returns the id length.
func (g Generator) Length() int {
	if g.length == 0 {
		return DefaultLength
	}

	return g.length
}

// FileID returns the stable id of a file block.
func (g Generator) FileID(key FileKey) string {
	return g.digest(key.String())
}

// HunkID returns the stable id of a hunk.
func (g Generator) HunkID(key HunkKey) string {
	return g.digest(key.String())
}

func (g Generator) digest(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))

	return base64.RawURLEncoding.EncodeToString(sum[:])[:g.Length()]
}
