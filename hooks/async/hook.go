// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    HitEvery: 100, // sample hit logs: ~every 100th hit
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := blobcache.New[[]byte](blobcache.Options[[]byte]{
//	    Store:        fsstore.NewOS(fsstore.Config{}),
//	    Fetcher:      fetch.NewHTTP(fetch.HTTPConfig{}),
//	    Materializer: materialize.Bytes{},
//	    Hooks:        hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/blobcache"
)

// Hooks forwards events to inner on background workers. Events are dropped
// when the queue is full; Dropped reports how many.
type Hooks struct {
	inner   blobcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ blobcache.Hooks = (*Hooks)(nil)

func New(inner blobcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after
// Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) MemoryHit(k string) { h.try(func() { h.inner.MemoryHit(k) }) }
func (h *Hooks) StoreHit(k string)  { h.try(func() { h.inner.StoreHit(k) }) }
func (h *Hooks) Fetched(k string, n int64, took time.Duration) {
	h.try(func() { h.inner.Fetched(k, n, took) })
}
func (h *Hooks) FillFailed(k string, err error) { h.try(func() { h.inner.FillFailed(k, err) }) }
func (h *Hooks) PreCacheUpgraded(k string)      { h.try(func() { h.inner.PreCacheUpgraded(k) }) }
func (h *Hooks) SweepDeleteFailed(name string, err error) {
	h.try(func() { h.inner.SweepDeleteFailed(name, err) })
}
func (h *Hooks) Swept(n int) { h.try(func() { h.inner.Swept(n) }) }
