package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 5*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheDeleteByPrefix(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "userAddresses::u1", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "userAddresses::u2", []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, "address::1", []byte("c"), time.Minute))

	require.NoError(t, c.DeleteByPrefix(ctx, "userAddresses::"))

	_, err := c.Get(ctx, "userAddresses::u1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "userAddresses::u2")
	assert.ErrorIs(t, err, ErrCacheMiss)

	got, err := c.Get(ctx, "address::1")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), got)
}

func TestMemoryCacheFlushDB(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))

	require.NoError(t, c.FlushDB(ctx))

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheStoppedAfterClose(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Close())
	require.NoError(t, c.Close()) // closing twice is fine

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrStoreStopped)
	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v"), time.Minute), ErrStoreStopped)
	assert.ErrorIs(t, c.FlushDB(ctx), ErrStoreStopped)
	assert.ErrorIs(t, c.DeleteByPrefix(ctx, "p"), ErrStoreStopped)
}

func TestClearNamespace(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, AddressKey("1"), []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, AllAddressesKey(), []byte("all"), time.Minute))
	require.NoError(t, c.Set(ctx, UserAddressesKey("u1"), []byte("list"), time.Minute))

	// The all-addresses namespace holds a single constant key; clearing
	// it must not touch the single-entity namespace that shares the
	// "address" prefix.
	require.NoError(t, ClearNamespace(ctx, c, NamespaceAddresses))
	_, err := c.Get(ctx, AllAddressesKey())
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, AddressKey("1"))
	require.NoError(t, err)

	require.NoError(t, ClearNamespace(ctx, c, NamespaceUserAddresses))
	_, err = c.Get(ctx, UserAddressesKey("u1"))
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, ClearNamespace(ctx, c, NamespaceAddress))
	_, err = c.Get(ctx, AddressKey("1"))
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNamespaceKeys(t *testing.T) {
	assert.Equal(t, "address::42", AddressKey("42"))
	assert.Equal(t, "addresses", AllAddressesKey())
	assert.Equal(t, "userAddresses::u1", UserAddressesKey("u1"))
	assert.Equal(t, []string{"address", "addresses", "userAddresses"}, Namespaces())
}
