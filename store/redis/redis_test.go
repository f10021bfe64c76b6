package redis

import (
	"context"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/blobcache/store"
	"github.com/unkn0wn-root/blobcache/store/storetest"
)

// Set BLOBCACHE_REDIS_ADDR (e.g. localhost:6379) to run against a live server.
func newTestClient(t *testing.T) goredis.UniversalClient {
	t.Helper()
	addr := os.Getenv("BLOBCACHE_REDIS_ADDR")
	if addr == "" {
		t.Skip("BLOBCACHE_REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `cache:a\*b\?\[x\]:`, escapeGlob("cache:a*b?[x]:"))
}

func TestColonNamesAreRejected(t *testing.T) {
	// never dialled: both calls fail before touching the server
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = rdb.Close() })
	s, err := New(Config{Client: rdb})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Namespace(ctx, "cache", "a:b")
	assert.ErrorIs(t, err, store.ErrInvalidName)

	ns, err := s.Namespace(ctx, "cache", "a")
	require.NoError(t, err)
	_, err = ns.Create(ctx, "b:c")
	assert.ErrorIs(t, err, store.ErrInvalidName)
	_, err = ns.Stat(ctx, "b:c")
	assert.ErrorIs(t, err, store.ErrNotExist)
	assert.NoError(t, ns.Delete(ctx, "b:c"))
}

func TestRedisConformance(t *testing.T) {
	rdb := newTestClient(t)
	root := "blobcache-test:" + t.Name()
	t.Cleanup(func() {
		ctx := context.Background()
		it := rdb.Scan(ctx, 0, escapeGlob(root)+"*", 256).Iterator()
		for it.Next(ctx) {
			_ = rdb.Del(ctx, it.Val()).Err()
		}
	})

	s, err := New(Config{Client: rdb})
	require.NoError(t, err)
	storetest.TestStore(t, s, root)
	storetest.TestNestedNamespaces(t, s, root+":nested", func(root, name string) string {
		return root + ":" + name
	})
}
