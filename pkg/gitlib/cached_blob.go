package gitlib

import (
	"github.com/Sumatoshi-tech/diffcore/pkg/textutil"
)

// CachedBlob is blob content copied out of libgit2 memory.
type CachedBlob struct {
	hash ObjectID
	// Data is the read contents of the blob object.
	Data []byte
}

// NewCachedBlob wraps data read from another source, such as the working tree.
func NewCachedBlob(hash ObjectID, data []byte) *CachedBlob {
	return &CachedBlob{hash: hash, Data: data}
}

// Hash returns the blob's object id, or "" when it was not read from git.
func (b *CachedBlob) Hash() ObjectID {
	return b.hash
}

// Size returns the content length in bytes.
func (b *CachedBlob) Size() int64 {
	return int64(len(b.Data))
}

// IsBinary returns true if the blob appears to be binary.
func (b *CachedBlob) IsBinary() bool {
	return textutil.IsBinary(b.Data)
}

// Lines splits the content into lines without their newline characters.
func (b *CachedBlob) Lines() []string {
	return textutil.SplitLines(b.Data)
}

// Clone returns a copy that shares no memory with b.
func (b *CachedBlob) Clone() *CachedBlob {
	return &CachedBlob{hash: b.hash, Data: append([]byte(nil), b.Data...)}
}
