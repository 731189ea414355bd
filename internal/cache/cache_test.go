package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, found, err := c.Get(ctx, Key(KeyMenu, "en", "missing"))
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, Key(KeyMenu, "en", "a"), []byte("menu-a"), time.Minute))
	require.NoError(t, c.Set(ctx, Key(KeyMenu, "zh", "a"), []byte("menu-b"), time.Minute))
	require.NoError(t, c.Set(ctx, Key("other", "a"), []byte("other"), time.Minute))

	v, found, err := c.Get(ctx, Key(KeyMenu, "en", "a"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("menu-a"), v)

	require.NoError(t, c.Clear(ctx, KeyMenu))
	_, found, _ = c.Get(ctx, Key(KeyMenu, "en", "a"))
	assert.False(t, found)
	_, found, _ = c.Get(ctx, Key(KeyMenu, "zh", "a"))
	assert.False(t, found)
	v, found, _ = c.Get(ctx, Key("other", "a"))
	assert.True(t, found)
	assert.Equal(t, []byte("other"), v)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "menu:en:http://x", Key(KeyMenu, "en", "http://x"))
	assert.Equal(t, "menu", Key(KeyMenu))
}

func TestMemory(t *testing.T) {
	m, err := NewMemory(100)
	require.NoError(t, err)
	defer m.Close()
	exerciseCache(t, m)
}

func TestMemoryTTL(t *testing.T) {
	m, err := NewMemory(10)
	require.NoError(t, err)
	defer m.Close()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, found, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, Noop{}.Set(ctx, "k", []byte("v"), time.Minute))
	_, found, err := Noop{}.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping redis test. Set REDIS_ADDR to run")
	}
	r, err := NewRedis(context.Background(), RedisConf{Addr: addr, Namespace: "scriptsmgr-test"})
	require.NoError(t, err)
	defer r.Close()
	exerciseCache(t, r)
}
