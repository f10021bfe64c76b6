package fsstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/blobcache/store"
	"github.com/unkn0wn-root/blobcache/store/storetest"
)

func TestMemoryConformance(t *testing.T) {
	storetest.TestStore(t, NewMemory(Config{}), "cache")
}

func TestOSConformance(t *testing.T) {
	storetest.TestStore(t, NewOS(Config{}), t.TempDir())
}

func TestNestedNamespaces(t *testing.T) {
	join := func(root, name string) string { return filepath.Join(root, name) }
	t.Run("Memory", func(t *testing.T) {
		storetest.TestNestedNamespaces(t, NewMemory(Config{}), "cache", join)
	})
	t.Run("OS", func(t *testing.T) {
		storetest.TestNestedNamespaces(t, NewOS(Config{}), t.TempDir(), join)
	})
}

func TestOSLayoutIsPlainFiles(t *testing.T) {
	root := t.TempDir()
	s := NewOS(Config{})

	ns, err := s.Namespace(context.Background(), root, "images")
	require.NoError(t, err)
	storetest.Put(t, ns, "a.png", []byte("png-bytes"))

	b, err := os.ReadFile(filepath.Join(root, "images", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), b)
}

func TestAbortLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	s := NewOS(Config{})
	ns, err := s.Namespace(context.Background(), root, "images")
	require.NoError(t, err)

	w, err := ns.Create(context.Background(), "a.png")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	entries, err := os.ReadDir(filepath.Join(root, "images"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), store.TempPrefix), "leftover temp file %q", e.Name())
	}
	assert.Empty(t, entries)
}

func TestNamespaceRejectsInvalidName(t *testing.T) {
	_, err := NewMemory(Config{}).Namespace(context.Background(), "cache", "../escape")
	assert.ErrorIs(t, err, store.ErrInvalidName)
}
