package blobcache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/blobcache/clock"
	"github.com/unkn0wn-root/blobcache/fetch"
	"github.com/unkn0wn-root/blobcache/materialize"
	"github.com/unkn0wn-root/blobcache/memory"
	"github.com/unkn0wn-root/blobcache/store"
)

// Cache is a read-through cache of T values backed by persisted blobs.
// All methods are safe for concurrent use.
type Cache[T any] interface {
	// Init creates the store namespace now, under root/folder. Empty values
	// fall back to Options and then to defaults. Calling Init after the
	// namespace exists is a no-op when root/folder match, ErrAlreadyInitialized
	// otherwise.
	Init(ctx context.Context, root, folder string) error

	// Get returns the value for key, filling it from uri when missing or stale.
	Get(ctx context.Context, uri, key string, opts ...GetOption) (T, error)

	// PreCache persists the blob for key without materializing it.
	PreCache(ctx context.Context, uri, key string) error

	// Clear deletes every blob and every remembered value.
	Clear(ctx context.Context) error

	// ClearOlderThan deletes blobs (and values) last modified more than maxAge ago.
	ClearOlderThan(ctx context.Context, maxAge time.Duration) error

	TTL() time.Duration
	// SetTTL changes the cache duration for subsequent lookups; d <= 0 restores the default.
	SetTTL(d time.Duration)

	Close(ctx context.Context) error
}

// Options configure a Cache. Only Store and Fetcher are required.
type Options[T any] struct {
	// Required
	Store   store.Store
	Fetcher fetch.Fetcher

	Materializer materialize.Materializer[T] // nil => materialize.Nop[T]

	Root   string        // namespace parent; "" => per-user cache dir
	Folder string        // namespace name; "" => derived from T
	TTL    time.Duration // 0 => 24h

	// MaxItemCount bounds the in-memory layer; 0 disables it.
	MaxItemCount int
	// Memory replaces the built-in LRU layer (e.g. memory/ristretto).
	Memory memory.Layer[T]

	// SweepInterval > 0 starts a janitor that runs ClearOlderThan(SweepMaxAge).
	SweepInterval time.Duration
	SweepMaxAge   time.Duration // 0 => TTL at sweep time

	Clock  clock.Clock // nil => wall clock
	Logger Logger      // nil => NopLogger
	Hooks  Hooks       // nil => NopHooks
}

func New[T any](opts Options[T]) (Cache[T], error) {
	return newCache[T](opts)
}

// GetOption tunes a single Get.
type GetOption func(*getOptions)

type getOptions struct {
	quiet        bool
	preCacheOnly bool
}

// Quiet swallows fill failures: Get logs them and returns the zero T with a
// nil error.
func Quiet() GetOption { return func(o *getOptions) { o.quiet = true } }

// PreCacheOnly persists the blob but skips materialization; Get returns the
// zero T unless it joined a fill that produced a value.
func PreCacheOnly() GetOption { return func(o *getOptions) { o.preCacheOnly = true } }
