package cache_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/diffcore/pkg/cache"
	"github.com/Sumatoshi-tech/diffcore/pkg/gitlib"
)

func blobOf(s string) *gitlib.CachedBlob {
	return gitlib.NewCachedBlob("", []byte(s))
}

func TestBlobCache_Miss(t *testing.T) {
	t.Parallel()

	c := cache.New(1024)

	assert.Nil(t, c.Get("rev:HEAD:a.go"))
	assert.Equal(t, int64(1), c.Stats().Misses)
	assert.Zero(t, c.Stats().HitRate())
}

func TestBlobCache_PutGet(t *testing.T) {
	t.Parallel()

	c := cache.New(1024)
	c.Put("rev:HEAD:a.go", blobOf("package a\n"))

	got := c.Get("rev:HEAD:a.go")
	require.NotNil(t, got)
	assert.Equal(t, "package a\n", string(got.Data))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(10), stats.Bytes)
	assert.InDelta(t, 1.0, stats.HitRate(), 0.001)
}

func TestBlobCache_StoresCopy(t *testing.T) {
	t.Parallel()

	c := cache.New(1024)
	blob := blobOf("abc")
	c.Put("k", blob)

	blob.Data[0] = 'X'

	assert.Equal(t, "abc", string(c.Get("k").Data))
}

func TestBlobCache_SkipsOversized(t *testing.T) {
	t.Parallel()

	c := cache.New(4)
	c.Put("big", blobOf("too large"))
	c.Put("nil", nil)

	assert.Equal(t, 0, c.Stats().Entries)
}

func TestBlobCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := cache.New(30)
	ten := strings.Repeat("x", 10)

	for i := range 3 {
		c.Put(fmt.Sprintf("k%d", i), blobOf(ten))
	}

	require.NotNil(t, c.Get("k0"))

	c.Put("k3", blobOf(ten))
	c.Put("k4", blobOf(ten))

	stats := c.Stats()
	assert.Equal(t, int64(30), stats.Bytes)
	assert.Equal(t, 3, stats.Entries)
	assert.NotNil(t, c.Get("k0"))
	assert.Nil(t, c.Get("k1"))
	assert.Nil(t, c.Get("k2"))
	assert.NotNil(t, c.Get("k4"))
}

func TestBlobCache_DefaultSize(t *testing.T) {
	t.Parallel()

	c := cache.New(0)
	c.Put("k", blobOf("v"))

	assert.Equal(t, int64(1), c.Stats().Bytes)
	assert.Equal(t, int64(cache.DefaultMaxBytes), c.Stats().MaxBytes)
}

func TestBlobCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := cache.New(1 << 20)

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			key := fmt.Sprintf("k%d", i%4)
			c.Put(key, blobOf(key))
			_ = c.Get(key)
		}()
	}

	wg.Wait()

	assert.Equal(t, 4, c.Stats().Entries)
}
