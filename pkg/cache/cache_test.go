package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/internal/config"
)

func TestFingerprintKeyIgnoresHeaderOrder(t *testing.T) {
	a := FingerprintKey("hello", "/x", "GET", map[string]string{"A": "1", "B": "2"})
	b := FingerprintKey("hello", "/x", "GET", map[string]string{"B": "2", "A": "1"})
	assert.Equal(t, a, b)

	c := FingerprintKey("hello", "/x", "POST", map[string]string{"A": "1", "B": "2"})
	assert.NotEqual(t, a, c)
}

func TestMemoryCacheGetSetAndTTL(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.SetWithTTL(ctx, "k", "v", 1)
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	time.Sleep(1100 * time.Millisecond)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "entry should have expired")
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := config.CacheConfig{
		Host:           mr.Host(),
		Port:           mr.Port(),
		ConnectTimeout: time.Second,
		CommandTimeout: time.Second,
	}
	rc, err := NewRedis(cfg, zap.NewNop())
	require.NoError(t, err)
	defer rc.Close()

	ctx := context.Background()
	_, ok := rc.Get(ctx, "missing")
	assert.False(t, ok)

	rc.SetWithTTL(ctx, "k", "v", 60)
	v, ok := rc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestNewFallsBackWhenDisabled(t *testing.T) {
	c := New(config.CacheConfig{Disabled: true}, zap.NewNop())
	_, isMemory := c.(*MemoryCache)
	assert.True(t, isMemory)
}

func TestNewFallsBackOnUnreachableRedis(t *testing.T) {
	c := New(config.CacheConfig{Host: "127.0.0.1", Port: "1", ConnectTimeout: 50 * time.Millisecond}, zap.NewNop())
	_, isMemory := c.(*MemoryCache)
	assert.True(t, isMemory)
}
