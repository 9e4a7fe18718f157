package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("rahasia")

	client, err := New(context.Background(), Options{Addr: mr.Addr(), Password: "rahasia", DB: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.DB(2).Exists("k"))
}

func TestNewFailsOnBadAuthOrAddress(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("rahasia")

	_, err := New(context.Background(), Options{Addr: mr.Addr(), Password: "salah"})
	assert.ErrorContains(t, err, "platform/cache: ping")

	_, err = New(context.Background(), Options{})
	assert.Error(t, err)
}
