// Package ristretto backs the memory layer with dgraph-io/ristretto.
//
// Each entry costs 1, so MaxItems bounds the entry count. Ristretto admits
// entries probabilistically (TinyLFU), so a fresh Upsert may be dropped under
// pressure; that only costs a re-read from the store.
package ristretto

import (
	"errors"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/blobcache/clock"
	"github.com/unkn0wn-root/blobcache/memory"
)

type Layer[T any] struct {
	c   *rc.Cache
	clk clock.Clock
	mu  sync.Mutex // serializes Upsert's compare and Set
}

var _ memory.Layer[struct{}] = (*Layer[struct{}])(nil)

type Config struct {
	MaxItems    int64
	NumCounters int64 // 0 => 10 * MaxItems
	BufferItems int64 // 0 => 64
	Clock       clock.Clock
}

func New[T any](cfg Config) (*Layer[T], error) {
	if cfg.MaxItems <= 0 {
		return nil, errors.New("ristretto: MaxItems must be positive")
	}
	counters := cfg.NumCounters
	if counters <= 0 {
		counters = 10 * cfg.MaxItems
	}
	buffer := cfg.BufferItems
	if buffer <= 0 {
		buffer = 64
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters:        counters,
		MaxCost:            cfg.MaxItems,
		BufferItems:        buffer,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Layer[T]{c: c, clk: clock.Or(cfg.Clock)}, nil
}

func (l *Layer[T]) Lookup(key string, ttl time.Duration) (T, bool) {
	var zero T
	v, ok := l.c.Get(key)
	if !ok {
		return zero, false
	}
	e, ok := v.(memory.Entry[T])
	if !ok {
		// self-heal: drop unexpected entry shape
		l.c.Del(key)
		return zero, false
	}
	if !memory.Fresh(e.LastModified, l.clk.Now(), ttl) {
		l.c.Del(key)
		return zero, false
	}
	return e.Value, true
}

func (l *Layer[T]) Upsert(e memory.Entry[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.c.Get(e.Key); ok {
		// a slower fill must not overwrite a newer blob's value
		if cur, ok := v.(memory.Entry[T]); ok && e.LastModified.Before(cur.LastModified) {
			return
		}
	}
	l.c.Set(e.Key, e, 1)
	// Set is buffered; make the write visible to the next Lookup
	l.c.Wait()
}

// Purge clears everything: ristretto cannot be iterated by age.
func (l *Layer[T]) Purge(time.Time) { l.c.Clear() }

// Len is approximate; explicit deletions are not tracked by ristretto metrics.
func (l *Layer[T]) Len() int {
	m := l.c.Metrics
	added, evicted := m.KeysAdded(), m.KeysEvicted()
	if evicted > added {
		return 0
	}
	return int(added - evicted)
}

func (l *Layer[T]) Close() {
	l.c.Wait()
	l.c.Close()
}

// Helper to expose metrics if desired by the application.
func (l *Layer[T]) Metrics() *rc.Metrics { return l.c.Metrics }
