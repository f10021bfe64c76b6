// Package store defines the persistent blob storage used by blobcache.
//
// A Store hands out Namespaces; a Namespace holds named blobs together with
// the time each blob was last published. blobcache keeps no metadata of its
// own: staleness is decided purely from BlobInfo.ModTime.
//
// Implementations MUST publish atomically: a reader either sees the previous
// blob or the complete new one, never a partial write. Writers stage data and
// only make it visible on Commit; Abort discards everything staged.
package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

var (
	// ErrNotExist is returned by Stat and Open for a missing blob.
	ErrNotExist = errors.New("store: blob does not exist")
	// ErrInvalidName is returned for names that cannot be stored.
	ErrInvalidName = errors.New("store: invalid blob name")
	// ErrCommitted is returned by Writer methods after Commit or Abort.
	ErrCommitted = errors.New("store: writer already finished")
)

// BlobInfo describes a published blob.
type BlobInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Store opens namespaces. Opening an existing namespace returns it as is.
type Store interface {
	Namespace(ctx context.Context, root, name string) (Namespace, error)
}

// Namespace is a flat set of named blobs. Must be safe for concurrent use.
type Namespace interface {
	// Name returns the namespace path as understood by the backend.
	Name() string

	// Stat returns ErrNotExist when the blob is missing.
	Stat(ctx context.Context, name string) (BlobInfo, error)

	// Open returns the blob contents. Caller closes the reader.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Create starts a write that replaces any existing blob on Commit.
	Create(ctx context.Context, name string) (Writer, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all published blobs.
	List(ctx context.Context) ([]BlobInfo, error)
}

// Writer stages blob bytes until Commit publishes them.
type Writer interface {
	io.Writer
	// Commit publishes the staged bytes and reports the resulting blob.
	Commit() (BlobInfo, error)
	// Abort discards staged bytes. Safe to call after Commit (no-op).
	Abort() error
}

// ValidName reports whether name can be used as a blob name in every backend.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return !strings.HasPrefix(name, TempPrefix)
}

// TempPrefix marks staging entries that List must skip.
const TempPrefix = ".tmp-"
