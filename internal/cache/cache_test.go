package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "notifications:unread:u1", Key("notifications", "unread", "u1"))
}

func TestMemoryCacheRoundtrip(t *testing.T) {
	c := NewInMemory(16)

	type counter struct {
		Count int64 `json:"count"`
	}

	var target counter
	hit, err := c.Get("missing", &target)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set("k", counter{Count: 42}, 0))
	hit, err = c.Get("k", &target)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, int64(42), target.Count)

	require.NoError(t, c.Invalidate("k"))
	hit, err = c.Get("k", &target)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryCacheTTL(t *testing.T) {
	c := NewInMemory(16)
	require.NoError(t, c.Set("k", "v", 10*time.Millisecond))

	var v string
	hit, err := c.Get("k", &v)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "v", v)

	time.Sleep(20 * time.Millisecond)
	hit, err = c.Get("k", &v)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNopCache(t *testing.T) {
	c := NopCache{}
	require.NoError(t, c.Set("k", "v", 0))
	var v string
	hit, err := c.Get("k", &v)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, c.Invalidate("k"))
}
