package gitlib_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/diffcore/pkg/gitlib"
	"github.com/Sumatoshi-tech/diffcore/pkg/gitlib/gitlibtest"
)

func openRepo(t *testing.T, path string) *gitlib.Repository {
	t.Helper()

	repo, err := gitlib.OpenRepository(path)
	require.NoError(t, err)
	t.Cleanup(repo.Free)

	return repo
}

func TestOpenRepository_NotARepo(t *testing.T) {
	t.Parallel()

	_, err := gitlib.OpenRepository(t.TempDir())
	require.Error(t, err)
}

func TestOpenRepository_FromSubdirectory(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.WriteFile("pkg/a.go", "package pkg\n")
	fixture.Commit("init")

	repo := openRepo(t, filepath.Join(fixture.Path, "pkg"))

	resolved, err := filepath.EvalSymlinks(filepath.Clean(repo.Workdir()))
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(fixture.Path)
	require.NoError(t, err)

	assert.Equal(t, want, resolved)
}

func TestReadAt(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.WriteFile("a.txt", "one\ntwo\n")
	first := fixture.Commit("first")
	fixture.WriteFile("a.txt", "one\ntwo\nthree\n")
	fixture.Commit("second")

	repo := openRepo(t, fixture.Path)
	ctx := context.Background()

	head, err := repo.ReadAt(ctx, "HEAD", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\n", string(head.Data))
	assert.Equal(t, []string{"one", "two", "three"}, head.Lines())
	assert.Len(t, head.Hash().String(), gitlib.MaxObjectIDLength)

	old, err := repo.ReadAt(ctx, first, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(old.Data))

	_, err = repo.ReadAt(ctx, "HEAD", "missing.txt")
	require.ErrorIs(t, err, gitlib.ErrNotFound)
}

func TestReadObject(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	id := fixture.BlobID("hello\n")

	repo := openRepo(t, fixture.Path)
	ctx := context.Background()

	full, err := repo.ReadObject(ctx, gitlib.ObjectID(id))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(full.Data))
	assert.False(t, full.IsBinary())

	short, err := repo.ReadObject(ctx, gitlib.ObjectID(id[:7]))
	require.NoError(t, err)
	assert.Equal(t, full.Data, short.Data)

	_, err = repo.ReadObject(ctx, "0000000")
	require.ErrorIs(t, err, gitlib.ErrNotFound)

	_, err = repo.ReadObject(ctx, "not-hex")
	require.ErrorIs(t, err, gitlib.ErrNotFound)
}

func TestLookupBlob_RejectsTrees(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.WriteFile("dir/file.txt", "x\n")
	fixture.Commit("init")

	repo := openRepo(t, fixture.Path)

	_, err := repo.LookupBlob(context.Background(), "HEAD:dir")
	require.ErrorIs(t, err, gitlib.ErrNotBlob)
}

func TestLookupBlob_CanceledContext(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	repo := openRepo(t, fixture.Path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.LookupBlob(ctx, "HEAD")
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadBlob_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.WriteFile("a.txt", "content\n")
	fixture.Commit("init")

	repo := openRepo(t, fixture.Path)

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			blob, err := repo.ReadAt(context.Background(), "HEAD", "a.txt")
			assert.NoError(t, err)
			assert.Equal(t, "content\n", string(blob.Data))
		}()
	}

	wg.Wait()
}

func TestCachedBlob_Clone(t *testing.T) {
	t.Parallel()

	blob := gitlib.NewCachedBlob("abc1", []byte("data"))
	clone := blob.Clone()

	clone.Data[0] = 'D'

	assert.Equal(t, "data", string(blob.Data))
	assert.Equal(t, gitlib.ObjectID("abc1"), clone.Hash())
	assert.Equal(t, int64(4), clone.Size())
}
