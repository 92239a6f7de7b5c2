// Package textutil provides byte-level helpers for file content: binary
// detection and line splitting.
package textutil

import (
	"bytes"
	"strings"
)

// BinarySniffLength is the number of leading bytes scanned for a NUL byte,
// the same window git uses.
const BinarySniffLength = 8000

// IsBinary reports whether data has a NUL byte within its first
// BinarySniffLength bytes. Empty data is text.
func IsBinary(data []byte) bool {
	sniff := data[:min(len(data), BinarySniffLength)]

	return bytes.IndexByte(sniff, 0) >= 0
}

// SplitLines splits data into lines without their newline characters.
// A trailing newline does not produce an empty final element.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return []string{}
	}

	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
