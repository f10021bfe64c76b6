package store_test

import (
	"context"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/blobcache/clock"
	"github.com/unkn0wn-root/blobcache/store"
	"github.com/unkn0wn-root/blobcache/store/storetest"
)

func TestMemoryConformance(t *testing.T) {
	storetest.TestStore(t, store.NewMemory(nil), "root")
}

func TestMemoryNestedNamespaces(t *testing.T) {
	storetest.TestNestedNamespaces(t, store.NewMemory(nil), "root", func(root, name string) string {
		return path.Join(root, name)
	})
}

func TestMemoryStampsWithClock(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFake(start)
	s := store.NewMemory(clk)

	ns, err := s.Namespace(context.Background(), "root", "images")
	require.NoError(t, err)

	info := storetest.Put(t, ns, "a.png", []byte("png"))
	assert.Equal(t, start, info.ModTime)

	clk.Advance(time.Hour)
	info = storetest.Put(t, ns, "a.png", []byte("png2"))
	assert.Equal(t, start.Add(time.Hour), info.ModTime)

	st, err := ns.Stat(context.Background(), "a.png")
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour), st.ModTime)
}

func TestMemoryNamespacesAreIsolated(t *testing.T) {
	s := store.NewMemory(nil)
	a, err := s.Namespace(context.Background(), "root", "a")
	require.NoError(t, err)
	b, err := s.Namespace(context.Background(), "root", "b")
	require.NoError(t, err)

	storetest.Put(t, a, "k", []byte("x"))
	list, err := b.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestValidName(t *testing.T) {
	cases := map[string]bool{
		"a.png":                true,
		"img_1234":             true,
		"":                     false,
		".":                    false,
		"..":                   false,
		"dir/file":             false,
		`dir\file`:             false,
		store.TempPrefix + "a": false,
	}
	for name, want := range cases {
		assert.Equal(t, want, store.ValidName(name), "ValidName(%q)", name)
	}
}
