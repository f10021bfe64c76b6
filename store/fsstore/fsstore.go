// Package fsstore stores blobs as files on a go-billy filesystem.
//
// Each namespace is a directory. Writes are staged in a temp file inside the
// namespace directory and renamed over the destination on Commit, so readers
// never observe a partially written blob.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/unkn0wn-root/blobcache/clock"
	"github.com/unkn0wn-root/blobcache/store"
)

type Store struct {
	fs  billy.Filesystem
	clk clock.Clock
}

var _ store.Store = (*Store)(nil)

type Config struct {
	// Clock stamps published blobs when the filesystem supports Chtimes.
	// nil => the filesystem's own modification time is used as is.
	Clock clock.Clock
}

// New wraps an existing billy filesystem. Namespace roots are resolved
// relative to fs.
func New(fs billy.Filesystem, cfg Config) *Store {
	return &Store{fs: fs, clk: cfg.Clock}
}

// NewOS stores blobs on the local disk. Roots passed to Namespace are
// resolved against the filesystem root, so absolute paths work as expected.
func NewOS(cfg Config) *Store {
	return New(osfs.New("/"), cfg)
}

// NewMemory stores blobs in a go-billy memfs.
func NewMemory(cfg Config) *Store {
	return New(memfs.New(), cfg)
}

func (s *Store) Namespace(ctx context.Context, root, name string) (store.Namespace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !store.ValidName(name) {
		return nil, fmt.Errorf("%w: namespace %q", store.ErrInvalidName, name)
	}
	dir := s.fs.Join(root, name)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create namespace directory %q: %w", dir, err)
	}
	sub, err := s.fs.Chroot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to chroot into %q: %w", dir, err)
	}
	return &namespace{fs: sub, dir: dir, clk: s.clk}, nil
}

type namespace struct {
	fs  billy.Filesystem
	dir string
	clk clock.Clock

	// renames over an existing file are serialized per namespace so the
	// remove+rename fallback cannot interleave with another publish
	publishMu sync.Mutex
}

func (n *namespace) Name() string { return n.dir }

func (n *namespace) Stat(ctx context.Context, name string) (store.BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return store.BlobInfo{}, err
	}
	if !store.ValidName(name) {
		return store.BlobInfo{}, store.ErrNotExist
	}
	fi, err := n.fs.Stat(name)
	if err != nil {
		return store.BlobInfo{}, mapErr(err)
	}
	if fi.IsDir() {
		return store.BlobInfo{}, store.ErrNotExist
	}
	return info(fi), nil
}

func (n *namespace) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !store.ValidName(name) {
		return nil, store.ErrNotExist
	}
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, mapErr(err)
	}
	return f, nil
}

func (n *namespace) Create(ctx context.Context, name string) (store.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !store.ValidName(name) {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidName, name)
	}
	f, err := n.fs.TempFile("", store.TempPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file for %q: %w", name, err)
	}
	return &writer{ns: n, name: name, f: f}, nil
}

func (n *namespace) Delete(_ context.Context, name string) error {
	if !store.ValidName(name) {
		return nil
	}
	if err := n.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %q: %w", name, err)
	}
	return nil
}

func (n *namespace) List(ctx context.Context) ([]store.BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := n.fs.ReadDir("")
	if err != nil {
		return nil, fmt.Errorf("failed to read namespace %q: %w", n.dir, err)
	}
	out := make([]store.BlobInfo, 0, len(entries))
	for _, fi := range entries {
		if fi.IsDir() || strings.HasPrefix(fi.Name(), store.TempPrefix) {
			continue
		}
		out = append(out, info(fi))
	}
	return out, nil
}

func (n *namespace) publish(tmp, name string) (store.BlobInfo, error) {
	n.publishMu.Lock()
	defer n.publishMu.Unlock()

	if err := n.fs.Rename(tmp, name); err != nil {
		// some backends refuse to rename over an existing file
		if _, statErr := n.fs.Stat(name); statErr != nil {
			return store.BlobInfo{}, fmt.Errorf("failed to rename temp file to %q: %w", name, err)
		}
		if rmErr := n.fs.Remove(name); rmErr != nil {
			return store.BlobInfo{}, fmt.Errorf("failed to replace %q: %w", name, rmErr)
		}
		if err := n.fs.Rename(tmp, name); err != nil {
			return store.BlobInfo{}, fmt.Errorf("failed to rename temp file to %q: %w", name, err)
		}
	}

	if n.clk != nil {
		if ch, ok := n.fs.(billy.Change); ok {
			now := n.clk.Now()
			if err := ch.Chtimes(name, now, now); err != nil && !errors.Is(err, billy.ErrNotSupported) {
				return store.BlobInfo{}, fmt.Errorf("failed to stamp %q: %w", name, err)
			}
		}
	}

	fi, err := n.fs.Stat(name)
	if err != nil {
		return store.BlobInfo{}, mapErr(err)
	}
	return info(fi), nil
}

type writer struct {
	ns   *namespace
	name string
	f    billy.File
	done bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, store.ErrCommitted
	}
	return w.f.Write(p)
}

func (w *writer) Commit() (store.BlobInfo, error) {
	if w.done {
		return store.BlobInfo{}, store.ErrCommitted
	}
	w.done = true
	tmp := w.f.Name()
	if err := w.f.Close(); err != nil {
		_ = w.ns.fs.Remove(tmp)
		return store.BlobInfo{}, fmt.Errorf("failed to close temp file for %q: %w", w.name, err)
	}
	bi, err := w.ns.publish(tmp, w.name)
	if err != nil {
		_ = w.ns.fs.Remove(tmp)
		return store.BlobInfo{}, err
	}
	return bi, nil
}

func (w *writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	tmp := w.f.Name()
	_ = w.f.Close()
	if err := w.ns.fs.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove temp file %q: %w", tmp, err)
	}
	return nil
}

func info(fi os.FileInfo) store.BlobInfo {
	return store.BlobInfo{Name: fi.Name(), Size: fi.Size(), ModTime: fi.ModTime()}
}

func mapErr(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return store.ErrNotExist
	}
	return err
}
