package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Amount string `json:"amount"`
}

func newRedisCache(t *testing.T) (*JSONCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewJSONCache(client, "test", time.Minute), mr
}

func countingLoader(calls *int, value string) func(context.Context) (any, error) {
	return func(context.Context) (any, error) {
		*calls++
		return payload{Amount: value}, nil
	}
}

func TestJSONCacheFetchMemoises(t *testing.T) {
	for name, c := range map[string]*JSONCache{
		"redis":  func() *JSONCache { c, _ := newRedisCache(t); return c }(),
		"memory": NewJSONCache(nil, "test", time.Minute),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key, err := c.BuildKey(ctx, "sess-1", "remaining", "10")
			require.NoError(t, err)
			assert.Equal(t, "test:sess-1:1:remaining:10", key)

			calls := 0
			var got payload
			require.NoError(t, c.FetchJSON(ctx, key, &got, countingLoader(&calls, "550000")))
			require.NoError(t, c.FetchJSON(ctx, key, &got, countingLoader(&calls, "0")))
			assert.Equal(t, 1, calls)
			assert.Equal(t, "550000", got.Amount)

			var peek payload
			ok, err := c.Lookup(ctx, key, &peek)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestJSONCacheBumpInvalidatesNamespace(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "sess-1", "remaining", "10")
	require.NoError(t, err)
	other, err := c.BuildKey(ctx, "sess-2", "remaining", "10")
	require.NoError(t, err)

	calls := 0
	var got payload
	require.NoError(t, c.FetchJSON(ctx, key, &got, countingLoader(&calls, "1")))
	require.NoError(t, c.FetchJSON(ctx, other, &got, countingLoader(&calls, "1")))
	require.NoError(t, c.Bump(ctx, "sess-1"))

	bumped, err := c.BuildKey(ctx, "sess-1", "remaining", "10")
	require.NoError(t, err)
	assert.NotEqual(t, key, bumped)
	unchanged, err := c.BuildKey(ctx, "sess-2", "remaining", "10")
	require.NoError(t, err)
	assert.Equal(t, other, unchanged)

	require.NoError(t, c.FetchJSON(ctx, bumped, &got, countingLoader(&calls, "2")))
	assert.Equal(t, 3, calls)
	assert.Equal(t, "2", got.Amount)
}

func TestJSONCacheLoaderErrorNotCached(t *testing.T) {
	c := NewJSONCache(nil, "test", time.Minute)
	ctx := context.Background()
	boom := errors.New("backend down")

	var got payload
	err := c.FetchJSON(ctx, "k", &got, func(context.Context) (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	calls := 0
	require.NoError(t, c.FetchJSON(ctx, "k", &got, countingLoader(&calls, "ok")))
	assert.Equal(t, 1, calls)
}

func TestJSONCacheMemoryExpiry(t *testing.T) {
	c := NewJSONCache(nil, "test", time.Minute)
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	calls := 0
	var got payload
	require.NoError(t, c.FetchJSON(ctx, "k", &got, countingLoader(&calls, "a")))
	now = now.Add(2 * time.Minute)
	require.NoError(t, c.FetchJSON(ctx, "k", &got, countingLoader(&calls, "b")))
	assert.Equal(t, 2, calls)
	assert.Equal(t, "b", got.Amount)
}

func TestJSONCacheMemorySweepsExpiredState(t *testing.T) {
	c := NewJSONCache(nil, "test", time.Minute)
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	var got payload
	for i := 0; i < 50; i++ {
		ns := fmt.Sprintf("customer-%d", i)
		key, err := c.BuildKey(ctx, ns, "outstanding")
		require.NoError(t, err)
		calls := 0
		require.NoError(t, c.FetchJSON(ctx, key, &got, countingLoader(&calls, "x")))
	}
	assert.Len(t, c.entries, 50)
	assert.Len(t, c.versions, 50)

	now = now.Add(2 * time.Minute)
	key, err := c.BuildKey(ctx, "fresh", "outstanding")
	require.NoError(t, err)
	calls := 0
	require.NoError(t, c.FetchJSON(ctx, key, &got, countingLoader(&calls, "y")))

	assert.Len(t, c.entries, 1)
	assert.Len(t, c.versions, 1)
	assert.Contains(t, c.entries, key)
}

func TestJSONCacheMemoryBumpDropsNamespaceEntries(t *testing.T) {
	c := NewJSONCache(nil, "test", time.Minute)
	ctx := context.Background()

	var got payload
	calls := 0
	for _, ns := range []string{"debt", "debt-archive"} {
		key, err := c.BuildKey(ctx, ns, "supplier", "7")
		require.NoError(t, err)
		require.NoError(t, c.FetchJSON(ctx, key, &got, countingLoader(&calls, ns)))
	}
	require.Len(t, c.entries, 2)

	require.NoError(t, c.Bump(ctx, "debt"))
	assert.Len(t, c.entries, 1)
	assert.Contains(t, c.entries, "test:debt-archive:1:supplier:7")

	ver, err := c.Version(ctx, "debt")
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)
}

func TestJSONCacheMemoryCapsEntriesWithoutTTL(t *testing.T) {
	c := NewJSONCache(nil, "test", 0)
	ctx := context.Background()

	var got payload
	calls := 0
	for i := 0; i < maxLocalEntries+25; i++ {
		require.NoError(t, c.FetchJSON(ctx, fmt.Sprintf("k:%d", i), &got, countingLoader(&calls, "v")))
	}
	assert.Len(t, c.entries, maxLocalEntries)
}

func TestJSONCacheRequiresLoader(t *testing.T) {
	c := NewJSONCache(nil, "test", time.Minute)
	var got payload
	assert.Error(t, c.FetchJSON(context.Background(), "k", &got, nil))
}
