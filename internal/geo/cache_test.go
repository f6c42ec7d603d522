package geo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey([]string{"https://a", "https://b"})
	b := CacheKey([]string{"https://b", "https://a"})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, CacheKey([]string{"https://a", "https://b"}))
	assert.Contains(t, a, "access:boundary:")
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	data, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), data)

	now = now.Add(2 * time.Hour)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "forever", []byte("x"), 0))
	now = now.Add(1000 * time.Hour)
	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)
}
