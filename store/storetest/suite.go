// Package storetest is a conformance suite for store.Store implementations.
package storetest

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/blobcache/store"
)

// TestStore runs every contract check against s. Each subtest works in its
// own namespace under root, so s may be shared.
func TestStore(t *testing.T, s store.Store, root string) {
	t.Run("OpenIfExists", func(t *testing.T) { testOpenIfExists(t, s, root) })
	t.Run("MissingBlob", func(t *testing.T) { testMissingBlob(t, s, root) })
	t.Run("CommitPublishes", func(t *testing.T) { testCommitPublishes(t, s, root) })
	t.Run("ReplaceExisting", func(t *testing.T) { testReplaceExisting(t, s, root) })
	t.Run("AbortDiscards", func(t *testing.T) { testAbortDiscards(t, s, root) })
	t.Run("FinishedWriter", func(t *testing.T) { testFinishedWriter(t, s, root) })
	t.Run("DeleteIdempotent", func(t *testing.T) { testDeleteIdempotent(t, s, root) })
	t.Run("InvalidName", func(t *testing.T) { testInvalidName(t, s, root) })
	t.Run("ListSkipsStaging", func(t *testing.T) { testListSkipsStaging(t, s, root) })
}

// TestNestedNamespaces checks that a namespace whose root sits inside
// another namespace stays invisible to the outer one. join builds the root
// a backend uses for a namespace nested under (root, name).
func TestNestedNamespaces(t *testing.T, s store.Store, root string, join func(root, name string) string) {
	ctx := context.Background()
	outer := namespace(t, s, root, "outer")
	inner := namespace(t, s, join(root, "outer"), "inner")
	Put(t, outer, "own", []byte("outer"))
	Put(t, inner, "nested", []byte("inner"))

	list, err := outer.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "own", list[0].Name)

	for _, bi := range list {
		require.NoError(t, outer.Delete(ctx, bi.Name))
	}
	assert.Equal(t, []byte("inner"), Read(t, inner, "nested"))
}

func namespace(t *testing.T, s store.Store, root, name string) store.Namespace {
	t.Helper()
	ns, err := s.Namespace(context.Background(), root, name)
	require.NoError(t, err, "Namespace(%q, %q)", root, name)
	return ns
}

// Put writes and commits data under name.
func Put(t *testing.T, ns store.Namespace, name string, data []byte) store.BlobInfo {
	t.Helper()
	w, err := ns.Create(context.Background(), name)
	require.NoError(t, err, "Create(%q)", name)
	_, err = w.Write(data)
	require.NoError(t, err, "Write(%q)", name)
	info, err := w.Commit()
	require.NoError(t, err, "Commit(%q)", name)
	return info
}

// Read returns the full contents of name.
func Read(t *testing.T, ns store.Namespace, name string) []byte {
	t.Helper()
	rc, err := ns.Open(context.Background(), name)
	require.NoError(t, err, "Open(%q)", name)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err, "ReadAll(%q)", name)
	return b
}

func testOpenIfExists(t *testing.T, s store.Store, root string) {
	a := namespace(t, s, root, "open-if-exists")
	Put(t, a, "blob", []byte("shared"))

	b := namespace(t, s, root, "open-if-exists")
	assert.Equal(t, a.Name(), b.Name())
	assert.Equal(t, []byte("shared"), Read(t, b, "blob"))
}

func testMissingBlob(t *testing.T, s store.Store, root string) {
	ns := namespace(t, s, root, "missing")
	ctx := context.Background()

	_, err := ns.Stat(ctx, "nope")
	assert.True(t, errors.Is(err, store.ErrNotExist), "Stat: got %v", err)

	_, err = ns.Open(ctx, "nope")
	assert.True(t, errors.Is(err, store.ErrNotExist), "Open: got %v", err)
}

func testCommitPublishes(t *testing.T, s store.Store, root string) {
	ns := namespace(t, s, root, "commit")
	ctx := context.Background()

	w, err := ns.Create(ctx, "a.png")
	require.NoError(t, err)
	_, err = w.Write([]byte("hel"))
	require.NoError(t, err)
	_, err = w.Write([]byte("lo"))
	require.NoError(t, err)

	_, err = ns.Stat(ctx, "a.png")
	assert.True(t, errors.Is(err, store.ErrNotExist), "staged blob must not be visible, got %v", err)

	info, err := w.Commit()
	require.NoError(t, err)
	assert.Equal(t, "a.png", info.Name)
	assert.EqualValues(t, 5, info.Size)
	assert.False(t, info.ModTime.IsZero())

	st, err := ns.Stat(ctx, "a.png")
	require.NoError(t, err)
	assert.EqualValues(t, 5, st.Size)
	assert.Equal(t, []byte("hello"), Read(t, ns, "a.png"))

	list, err := ns.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a.png", list[0].Name)
}

func testReplaceExisting(t *testing.T, s store.Store, root string) {
	ns := namespace(t, s, root, "replace")
	Put(t, ns, "k", []byte("first version"))
	Put(t, ns, "k", []byte("v2"))

	assert.Equal(t, []byte("v2"), Read(t, ns, "k"))
	list, err := ns.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testAbortDiscards(t *testing.T, s store.Store, root string) {
	ns := namespace(t, s, root, "abort")
	ctx := context.Background()

	w, err := ns.Create(ctx, "k")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	_, err = ns.Stat(ctx, "k")
	assert.True(t, errors.Is(err, store.ErrNotExist), "aborted blob visible: %v", err)

	// abort of a replacement keeps the old blob
	Put(t, ns, "k", []byte("kept"))
	w, err = ns.Create(ctx, "k")
	require.NoError(t, err)
	_, err = w.Write([]byte("dropped"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())
	assert.Equal(t, []byte("kept"), Read(t, ns, "k"))
}

func testFinishedWriter(t *testing.T, s store.Store, root string) {
	ns := namespace(t, s, root, "finished")
	w, err := ns.Create(context.Background(), "k")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	_, err = w.Commit()
	require.NoError(t, err)

	_, err = w.Write([]byte("y"))
	assert.True(t, errors.Is(err, store.ErrCommitted), "Write after Commit: %v", err)
	_, err = w.Commit()
	assert.True(t, errors.Is(err, store.ErrCommitted), "second Commit: %v", err)
	assert.NoError(t, w.Abort(), "Abort after Commit must be a no-op")
	assert.Equal(t, []byte("x"), Read(t, ns, "k"))
}

func testDeleteIdempotent(t *testing.T, s store.Store, root string) {
	ns := namespace(t, s, root, "delete")
	ctx := context.Background()
	Put(t, ns, "k", []byte("x"))

	require.NoError(t, ns.Delete(ctx, "k"))
	require.NoError(t, ns.Delete(ctx, "k"))
	_, err := ns.Stat(ctx, "k")
	assert.True(t, errors.Is(err, store.ErrNotExist))
}

func testInvalidName(t *testing.T, s store.Store, root string) {
	ns := namespace(t, s, root, "invalid")
	for _, name := range []string{"", "..", "a/b", store.TempPrefix + "x"} {
		_, err := ns.Create(context.Background(), name)
		assert.True(t, errors.Is(err, store.ErrInvalidName), "Create(%q): %v", name, err)
	}
}

func testListSkipsStaging(t *testing.T, s store.Store, root string) {
	ns := namespace(t, s, root, "staging")
	ctx := context.Background()
	Put(t, ns, "done", []byte("x"))

	w, err := ns.Create(ctx, "pending")
	require.NoError(t, err)
	_, err = w.Write([]byte("y"))
	require.NoError(t, err)
	defer w.Abort()

	list, err := ns.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "done", list[0].Name)
}
