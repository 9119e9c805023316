// internal/cache/cache_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) Cache {
	t.Helper()
	c := NewMemoryCache(DefaultConfig(), zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCacheSetGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", map[string]string{"a": "b"}, time.Minute))

	var got map[string]string
	assert.True(t, GetJSON(ctx, c, "k1", &got))
	assert.Equal(t, "b", got["a"])

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)
}

func TestMemoryCacheRawBytesPassthrough(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "raw", []byte("not json"), time.Minute))
	got, ok := c.Get(ctx, "raw")
	require.True(t, ok)
	assert.Equal(t, []byte("not json"), got)
}

func TestMemoryCacheDeletePattern(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"files:root:a", "files:root:b", "versions:f1"} {
		require.NoError(t, c.Set(ctx, key, []byte("v"), time.Minute))
	}

	require.NoError(t, c.DeletePattern(ctx, "files:*"))

	_, ok := c.Get(ctx, "files:root:a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "files:root:b")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "versions:f1")
	assert.True(t, ok)
}

func TestMemoryCacheEviction(t *testing.T) {
	config := DefaultConfig()
	config.MaxKeys = 2
	c := NewMemoryCache(config, zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
	time.Sleep(2 * time.Millisecond)

	// Touch "a" so "b" is least recently used.
	_, ok := c.Get(ctx, "a")
	require.True(t, ok)
	time.Sleep(2 * time.Millisecond)

	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Minute))

	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		key     string
		pattern string
		want    bool
	}{
		{"files:root", "*", true},
		{"files:root", "files:*", true},
		{"files:root", "versions:*", false},
		{"versions:f1", "versions:f1", true},
		{"versions:f1", "versions:f2", false},
		{"files:recent:20", "files:*:20", true},
		{"files:recent:10", "files:*:20", false},
		{"afiles:root", "files:*", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPattern(tt.key, tt.pattern), "key=%s pattern=%s", tt.key, tt.pattern)
	}
}
