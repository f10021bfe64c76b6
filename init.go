package blobcache

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/blobcache/store"
)

type namespaceState struct {
	ns     store.Namespace
	root   string
	folder string
}

func (c *cache[T]) Init(ctx context.Context, root, folder string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	root = coalesce(root, c.root)
	folder = coalesce(folder, c.folder)
	if folder != "" && !store.ValidName(folder) {
		return fmt.Errorf("%w: folder %q", store.ErrInvalidName, folder)
	}
	_, err := c.openNamespace(ctx, root, folder, true)
	return err
}

// namespace returns the store namespace, creating it on first use.
// Once created it is read without synchronization.
func (c *cache[T]) namespace(ctx context.Context) (store.Namespace, error) {
	if st := c.ns.Load(); st != nil {
		return st.ns, nil
	}
	st, err := c.openNamespace(ctx, c.root, c.folder, false)
	if err != nil {
		return nil, err
	}
	return st.ns, nil
}

// openNamespace serializes namespace creation. A failed attempt leaves
// nothing behind, so the next caller tries again.
func (c *cache[T]) openNamespace(ctx context.Context, root, folder string, explicit bool) (*namespaceState, error) {
	select {
	case c.initSem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.initSem }()

	if root == "" {
		r, err := defaultRoot()
		if err != nil {
			return nil, &InitError{Folder: folder, Err: err}
		}
		root = r
	}
	if folder == "" {
		folder = folderFor[T]()
	}

	if st := c.ns.Load(); st != nil {
		if explicit && (st.root != root || st.folder != folder) {
			return nil, fmt.Errorf("%w: namespace %q under %q", ErrAlreadyInitialized, st.folder, st.root)
		}
		return st, nil
	}

	ns, err := c.store.Namespace(ctx, root, folder)
	if err != nil {
		return nil, &InitError{Root: root, Folder: folder, Err: err}
	}
	st := &namespaceState{ns: ns, root: root, folder: folder}
	c.ns.Store(st)
	c.log.Info("cache namespace ready", Fields{"root": root, "folder": folder})
	return st, nil
}
