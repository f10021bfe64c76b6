package bigcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/blobcache/clock"
	"github.com/unkn0wn-root/blobcache/store/storetest"
)

func newTestStore(t *testing.T, clk clock.Clock) *Store {
	t.Helper()
	s, err := New(context.Background(), Config{LifeWindow: time.Hour, MaxEntriesInWindow: 1024, MaxEntrySize: 256, Clock: clk})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.TestStore(t, newTestStore(t, nil), "cache")
}

func TestNestedNamespaces(t *testing.T) {
	storetest.TestNestedNamespaces(t, newTestStore(t, nil), "cache", func(root, name string) string {
		return root + "/" + name
	})
}

func TestModTimeComesFromFrame(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFake(start)
	s := newTestStore(t, clk)

	ns, err := s.Namespace(context.Background(), "cache", "images")
	require.NoError(t, err)
	storetest.Put(t, ns, "a.png", []byte("png"))
	clk.Advance(time.Minute)

	st, err := ns.Stat(context.Background(), "a.png")
	require.NoError(t, err)
	assert.True(t, st.ModTime.Equal(start), "got %v", st.ModTime)

	list, err := ns.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].ModTime.Equal(start))
}
