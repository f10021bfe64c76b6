// Package bigcache is a volatile blob store on top of allegro/bigcache.
// Blobs may disappear under memory pressure or after LifeWindow; blobcache
// treats that as a miss and refetches.
package bigcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/blobcache/clock"
	"github.com/unkn0wn-root/blobcache/internal/wire"
	"github.com/unkn0wn-root/blobcache/store"
)

type Store struct {
	c   *bc.BigCache
	clk clock.Clock
}

var _ store.Store = (*Store)(nil)

type Config struct {
	LifeWindow         time.Duration // 0 => 24h
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
	Clock              clock.Clock
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	life := cfg.LifeWindow
	if life <= 0 {
		life = 24 * time.Hour
	}
	conf := bc.DefaultConfig(life)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Store{c: c, clk: clock.Or(cfg.Clock)}, nil
}

func (s *Store) Close() error { return s.c.Close() }

func (s *Store) Namespace(_ context.Context, root, name string) (store.Namespace, error) {
	if !store.ValidName(name) {
		return nil, fmt.Errorf("%w: namespace %q", store.ErrInvalidName, name)
	}
	return &namespace{s: s, prefix: root + "/" + name + "/"}, nil
}

type namespace struct {
	s      *Store
	prefix string
}

func (n *namespace) Name() string { return strings.TrimSuffix(n.prefix, "/") }

func (n *namespace) get(name string) (time.Time, []byte, error) {
	b, err := n.s.c.Get(n.prefix + name)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return time.Time{}, nil, store.ErrNotExist
	}
	if err != nil {
		return time.Time{}, nil, err
	}
	mt, payload, err := wire.Decode(b)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("bigcache store: %q: %w", name, err)
	}
	return mt, payload, nil
}

func (n *namespace) Stat(_ context.Context, name string) (store.BlobInfo, error) {
	mt, payload, err := n.get(name)
	if err != nil {
		return store.BlobInfo{}, err
	}
	return store.BlobInfo{Name: name, Size: int64(len(payload)), ModTime: mt}, nil
}

func (n *namespace) Open(_ context.Context, name string) (io.ReadCloser, error) {
	_, payload, err := n.get(name)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (n *namespace) Create(_ context.Context, name string) (store.Writer, error) {
	if !store.ValidName(name) {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidName, name)
	}
	return &writer{ns: n, name: name}, nil
}

func (n *namespace) Delete(_ context.Context, name string) error {
	err := n.s.c.Delete(n.prefix + name)
	if err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return err
	}
	return nil
}

func (n *namespace) List(ctx context.Context) ([]store.BlobInfo, error) {
	var out []store.BlobInfo
	it := n.s.c.Iterator()
	for it.SetNext() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := it.Value()
		if err != nil {
			continue // entry evicted while iterating
		}
		name, ok := strings.CutPrefix(e.Key(), n.prefix)
		if !ok || strings.Contains(name, "/") {
			continue
		}
		mt, payload, err := wire.Decode(e.Value())
		if err != nil {
			continue
		}
		out = append(out, store.BlobInfo{Name: name, Size: int64(len(payload)), ModTime: mt})
	}
	return out, nil
}

type writer struct {
	ns   *namespace
	name string
	buf  bytes.Buffer
	done bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, store.ErrCommitted
	}
	return w.buf.Write(p)
}

func (w *writer) Commit() (store.BlobInfo, error) {
	if w.done {
		return store.BlobInfo{}, store.ErrCommitted
	}
	w.done = true
	now := w.ns.s.clk.Now()
	if err := w.ns.s.c.Set(w.ns.prefix+w.name, wire.Encode(now, w.buf.Bytes())); err != nil {
		return store.BlobInfo{}, err
	}
	return store.BlobInfo{Name: w.name, Size: int64(w.buf.Len()), ModTime: now}, nil
}

func (w *writer) Abort() error {
	w.done = true
	w.buf.Reset()
	return nil
}
