package enrich

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Sumatoshi-tech/diffcore/pkg/cache"
	"github.com/Sumatoshi-tech/diffcore/pkg/gitlib"
)

// ErrOutsideWorktree is returned for paths that would escape the worktree root.
var ErrOutsideWorktree = errors.New("path escapes worktree")

// ContentSource looks up whole-file content in an object database.
// *gitlib.Repository implements it.
type ContentSource interface {
	ReadObject(ctx context.Context, id gitlib.ObjectID) (*gitlib.CachedBlob, error)
	ReadAt(ctx context.Context, revision, path string) (*gitlib.CachedBlob, error)
}

// FileReader reads a file from a checked-out working tree.
type FileReader interface {
	ReadFile(ctx context.Context, path string) (*gitlib.CachedBlob, error)
}

// Worktree reads files below a root directory.
type Worktree struct {
	root string
}

// NewWorktree returns a reader rooted at dir.
func NewWorktree(dir string) *Worktree {
	return &Worktree{root: dir}
}

// ReadFile reads the slash-separated repository path from disk.
// A missing file is reported as gitlib.ErrNotFound.
func (w *Worktree) ReadFile(ctx context.Context, path string) (*gitlib.CachedBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	local := filepath.FromSlash(path)
	if !filepath.IsLocal(local) {
		return nil, fmt.Errorf("%w: %q", ErrOutsideWorktree, path)
	}

	data, err := os.ReadFile(filepath.Join(w.root, local))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", gitlib.ErrNotFound, path)
	}

	if err != nil {
		return nil, fmt.Errorf("read worktree file: %w", err)
	}

	return gitlib.NewCachedBlob("", data), nil
}

// CachedSource memoizes lookups of another ContentSource in an LRU cache.
// Failed lookups are not cached.
type CachedSource struct {
	source ContentSource
	cache  *cache.BlobCache

	mu       sync.Mutex
	reported cache.Stats
}

// NewCachedSource wraps source with a cache of at most maxBytes.
func NewCachedSource(source ContentSource, maxBytes int64) *CachedSource {
	return &CachedSource{source: source, cache: cache.New(maxBytes)}
}

// ReadObject implements ContentSource.
func (s *CachedSource) ReadObject(ctx context.Context, id gitlib.ObjectID) (*gitlib.CachedBlob, error) {
	return s.lookup("object:"+id.String(), func() (*gitlib.CachedBlob, error) {
		return s.source.ReadObject(ctx, id)
	})
}

// ReadAt implements ContentSource.
func (s *CachedSource) ReadAt(ctx context.Context, revision, path string) (*gitlib.CachedBlob, error) {
	return s.lookup("rev:"+revision+":"+path, func() (*gitlib.CachedBlob, error) {
		return s.source.ReadAt(ctx, revision, path)
	})
}

// Unreported returns the hits and misses since the previous call, so a source
// shared by several Enrich calls feeds each lookup to the metrics once.
// Entries, Bytes and MaxBytes are current values.
func (s *CachedSource) Unreported() cache.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cache.Stats()
	delta := now
	delta.Hits -= s.reported.Hits
	delta.Misses -= s.reported.Misses
	s.reported = now

	return delta
}

func (s *CachedSource) lookup(key string, fetch func() (*gitlib.CachedBlob, error)) (*gitlib.CachedBlob, error) {
	if blob := s.cache.Get(key); blob != nil {
		return blob, nil
	}

	blob, err := fetch()
	if err != nil {
		return nil, err
	}

	s.cache.Put(key, blob)

	return blob, nil
}
