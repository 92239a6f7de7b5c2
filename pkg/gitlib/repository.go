package gitlib

import (
	"context"
	"errors"
	"fmt"
	"sync"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrNotFound is returned when a revision, path or object does not exist.
var ErrNotFound = errors.New("object not found")

// ErrNotBlob is returned when a revspec resolves to something other than file content.
var ErrNotBlob = errors.New("object is not a blob")

// Repository wraps a libgit2 repository.
//
// libgit2 objects are not safe for concurrent use, so every lookup is
// serialized through mu. Callers may share one Repository across goroutines.
type Repository struct {
	mu   sync.Mutex
	repo *git2go.Repository
	path string
}

// OpenRepository opens the git repository containing path, searching parent
// directories like the git command does.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepositoryExtended(path, 0, "")
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the path the repository was opened from.
func (r *Repository) Path() string {
	return r.path
}

// Workdir returns the working tree root, or "" for a bare repository.
func (r *Repository) Workdir() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return ""
	}

	return r.repo.Workdir()
}

// Free releases the repository resources.
func (r *Repository) Free() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// LookupBlob resolves revspec to a blob. revspec is anything git rev-parse
// accepts that names file content: a full or abbreviated object id, or
// "<revision>:<path>". The caller must Free the returned blob.
func (r *Repository) LookupBlob(ctx context.Context, revspec string) (*Blob, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return nil, fmt.Errorf("lookup %s: repository is closed", revspec)
	}

	obj, err := r.repo.RevparseSingle(revspec)
	if err != nil {
		if git2go.IsErrorCode(err, git2go.ErrorCodeNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, revspec)
		}

		return nil, fmt.Errorf("lookup %s: %w", revspec, err)
	}
	defer obj.Free()

	blob, err := obj.AsBlob()
	if err != nil {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotBlob, revspec, obj.Type())
	}

	return &Blob{blob: blob}, nil
}

// ReadBlob returns a copy of the content named by revspec.
func (r *Repository) ReadBlob(ctx context.Context, revspec string) (*CachedBlob, error) {
	blob, err := r.LookupBlob(ctx, revspec)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	cached := &CachedBlob{hash: blob.Hash(), Data: append([]byte(nil), blob.Contents()...)}
	blob.Free()
	r.mu.Unlock()

	return cached, nil
}

// ReadObject returns the content of the object with the given id.
func (r *Repository) ReadObject(ctx context.Context, id ObjectID) (*CachedBlob, error) {
	if !id.Valid() || id.IsZero() {
		return nil, fmt.Errorf("%w: invalid object id %q", ErrNotFound, id)
	}

	return r.ReadBlob(ctx, id.String())
}

// ReadAt returns the content of path at revision.
func (r *Repository) ReadAt(ctx context.Context, revision, path string) (*CachedBlob, error) {
	return r.ReadBlob(ctx, revision+":"+path)
}
