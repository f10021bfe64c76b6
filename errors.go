package blobcache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned for keys that are not valid blob names.
	ErrInvalidKey = errors.New("blobcache: invalid key")
	// ErrAlreadyInitialized is returned by Init when the namespace already
	// exists under a different root or folder.
	ErrAlreadyInitialized = errors.New("blobcache: already initialized")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("blobcache: closed")
)

// InitError reports a failure to resolve or create the store namespace.
type InitError struct {
	Root   string
	Folder string
	Err    error
}

func (e *InitError) Error() string {
	switch {
	case e.Root == "":
		return fmt.Sprintf("blobcache: resolve cache root: %v", e.Err)
	default:
		return fmt.Sprintf("blobcache: open namespace %q under %q: %v", e.Folder, e.Root, e.Err)
	}
}

func (e *InitError) Unwrap() error { return e.Err }
