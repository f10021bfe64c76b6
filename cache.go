package blobcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/blobcache/clock"
	"github.com/unkn0wn-root/blobcache/fetch"
	"github.com/unkn0wn-root/blobcache/internal/flight"
	"github.com/unkn0wn-root/blobcache/internal/wire"
	"github.com/unkn0wn-root/blobcache/materialize"
	"github.com/unkn0wn-root/blobcache/memory"
	"github.com/unkn0wn-root/blobcache/store"
)

type cache[T any] struct {
	store   store.Store
	fetcher fetch.Fetcher
	mat     materialize.Materializer[T]
	mem     memory.Layer[T]
	clk     clock.Clock
	log     Logger
	hooks   Hooks

	root   string
	folder string
	ttl    atomic.Int64

	flights flight.Group[T]

	// namespace, created lazily
	ns      atomic.Pointer[namespaceState]
	initSem chan struct{}

	sweepMaxAge time.Duration
	stopCh      chan struct{}
	closeWg     sync.WaitGroup
	closeOnce   sync.Once
	closed      atomic.Bool
}

func newCache[T any](opts Options[T]) (*cache[T], error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("blobcache: store is required")
	}
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("blobcache: fetcher is required")
	}
	if opts.TTL < 0 {
		return nil, fmt.Errorf("blobcache: negative TTL %s", opts.TTL)
	}
	if opts.MaxItemCount < 0 {
		return nil, fmt.Errorf("blobcache: negative MaxItemCount %d", opts.MaxItemCount)
	}
	if opts.Folder != "" && !store.ValidName(opts.Folder) {
		return nil, fmt.Errorf("%w: folder %q", store.ErrInvalidName, opts.Folder)
	}

	c := &cache[T]{
		store:   opts.Store,
		fetcher: opts.Fetcher,
		root:    opts.Root,
		folder:  opts.Folder,
		initSem: make(chan struct{}, 1),
	}

	// defaults
	c.clk = clock.Or(opts.Clock)
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.ttl.Store(int64(coalesce(opts.TTL, defaultTTL)))
	c.sweepMaxAge = opts.SweepMaxAge

	if opts.Materializer != nil {
		c.mat = opts.Materializer
	} else {
		c.mat = materialize.Nop[T]{}
	}
	if opts.Memory != nil {
		c.mem = opts.Memory
	} else {
		c.mem = memory.New[T](opts.MaxItemCount, c.clk)
	}

	if opts.SweepInterval > 0 {
		c.startJanitor(opts.SweepInterval)
	}
	return c, nil
}

func (c *cache[T]) TTL() time.Duration { return time.Duration(c.ttl.Load()) }

func (c *cache[T]) SetTTL(d time.Duration) {
	if d <= 0 {
		d = defaultTTL
	}
	c.ttl.Store(int64(d))
}

func (c *cache[T]) Get(ctx context.Context, uri, key string, opts ...GetOption) (T, error) {
	var zero T
	if c.closed.Load() {
		return zero, ErrClosed
	}
	if !store.ValidName(key) {
		return zero, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	res, call, err := c.flights.Do(ctx, key, o.preCacheOnly,
		func(ctx context.Context, preCacheOnly bool) (flight.Result[T], error) {
			return c.fill(ctx, uri, key, preCacheOnly)
		})
	if call.Upgraded {
		c.hooks.PreCacheUpgraded(key)
	}
	if err != nil {
		if o.quiet {
			c.log.Warn("get failed; returning zero value", Fields{"key": key, "uri": uri, "err": err})
			return zero, nil
		}
		return zero, err
	}
	return res.Value, nil
}

func (c *cache[T]) PreCache(ctx context.Context, uri, key string) error {
	_, err := c.Get(ctx, uri, key, PreCacheOnly())
	return err
}

func (c *cache[T]) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.stopCh != nil {
			close(c.stopCh)
		}
	})

	done := make(chan struct{})
	go func() {
		c.closeWg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if cl, ok := c.mem.(interface{ Close() }); ok {
		cl.Close()
	}
	return nil
}

// fill runs once per flight and reports a failure once, whichever phase it
// came from.
func (c *cache[T]) fill(ctx context.Context, uri, key string, preCacheOnly bool) (flight.Result[T], error) {
	res, err := c.fillOnce(ctx, uri, key, preCacheOnly)
	if err != nil {
		c.hooks.FillFailed(key, err)
	}
	return res, err
}

// fillOnce never returns a value older than the TTL: a stale blob is
// re-fetched before anything is materialized from it.
func (c *cache[T]) fillOnce(ctx context.Context, uri, key string, preCacheOnly bool) (flight.Result[T], error) {
	ttl := c.TTL()
	if v, ok := c.mem.Lookup(key, ttl); ok {
		c.hooks.MemoryHit(key)
		return flight.Result[T]{Value: v}, nil
	}

	ns, err := c.namespace(ctx)
	if err != nil {
		return flight.Result[T]{}, err
	}

	info, err := ns.Stat(ctx, key)
	if errors.Is(err, wire.ErrCorrupt) {
		c.discard(ctx, ns, key, err)
		err = store.ErrNotExist
	}
	switch {
	case err == nil && memory.Fresh(info.ModTime, c.clk.Now(), ttl):
		c.hooks.StoreHit(key)
		if preCacheOnly {
			return flight.Result[T]{Skipped: true}, nil
		}
		v, err := c.fromBlob(ctx, ns, key)
		if err != nil {
			c.discard(ctx, ns, key, err)
			return flight.Result[T]{}, err
		}
		c.remember(key, v, info.ModTime)
		return flight.Result[T]{Value: v}, nil

	case err != nil && !errors.Is(err, store.ErrNotExist):
		return flight.Result[T]{}, err
	}

	v, ok, info, err := c.download(ctx, ns, uri, key, preCacheOnly)
	if err != nil {
		return flight.Result[T]{}, err
	}
	if preCacheOnly {
		return flight.Result[T]{Skipped: true}, nil
	}
	if !ok {
		if v, err = c.fromBlob(ctx, ns, key); err != nil {
			c.discard(ctx, ns, key, err)
			return flight.Result[T]{}, err
		}
	}
	c.remember(key, v, info.ModTime)
	return flight.Result[T]{Value: v}, nil
}

// download fetches uri into a pending blob, teeing the bytes through the
// stream materializer unless preCacheOnly. Any failure aborts the blob and
// returns the original error.
func (c *cache[T]) download(ctx context.Context, ns store.Namespace, uri, key string, preCacheOnly bool,
) (v T, ok bool, info store.BlobInfo, err error) {
	start := time.Now()

	w, err := ns.Create(ctx, key)
	if err != nil {
		return v, false, info, err
	}
	defer func() {
		if err == nil {
			return
		}
		if abortErr := w.Abort(); abortErr != nil {
			c.log.Warn("abort pending blob failed", Fields{"key": key, "err": abortErr})
		}
	}()

	body, err := c.fetcher.Fetch(ctx, uri)
	if err != nil {
		return v, false, info, err
	}
	defer body.Close()

	cw := &countingWriter{w: w}
	src := io.TeeReader(body, cw)
	if !preCacheOnly {
		if v, ok, err = c.mat.FromStream(ctx, src); err != nil {
			return v, false, info, err
		}
	}
	// whatever the materializer left unread still belongs to the blob
	if _, err = io.Copy(io.Discard, src); err != nil {
		return v, false, info, err
	}
	if info, err = w.Commit(); err != nil {
		return v, false, info, err
	}

	took := time.Since(start)
	c.hooks.Fetched(key, cw.n, took)
	c.log.Debug("blob fetched", Fields{"key": key, "uri": uri, "size": sizeField(cw.n), "took": took})
	return v, ok, info, nil
}

func (c *cache[T]) fromBlob(ctx context.Context, ns store.Namespace, key string) (T, error) {
	rc, err := ns.Open(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	defer rc.Close()
	return c.mat.FromBlob(ctx, rc)
}

// discard deletes a blob that could not be read back, so the next fill
// fetches it again instead of failing until the TTL runs out.
func (c *cache[T]) discard(ctx context.Context, ns store.Namespace, key string, cause error) {
	c.log.Warn("dropping unreadable blob", Fields{"key": key, "err": cause})
	if err := ns.Delete(ctx, key); err != nil {
		c.log.Warn("delete unreadable blob failed", Fields{"key": key, "err": err})
	}
}

func (c *cache[T]) remember(key string, v T, modTime time.Time) {
	c.mem.Upsert(memory.Entry[T]{Key: key, Value: v, LastModified: modTime})
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
