// Package memory is the in-process layer of materialized values.
//
// Entries carry the modification time of the blob they were materialized
// from, so memory and store agree on staleness: an entry is served only while
// now < LastModified + ttl, regardless of capacity.
package memory

import (
	"container/list"
	"sync"
	"time"

	"github.com/unkn0wn-root/blobcache/clock"
)

// Entry is one materialized value.
type Entry[T any] struct {
	Key          string
	Value        T
	LastModified time.Time
}

// Layer holds materialized values. Must be safe for concurrent use.
type Layer[T any] interface {
	// Lookup returns the value for key if present and fresh under ttl.
	Lookup(key string, ttl time.Duration) (T, bool)
	// Upsert inserts or replaces the entry for e.Key.
	Upsert(e Entry[T])
	// Purge drops entries last modified before olderThan; zero time drops all.
	Purge(olderThan time.Time)
	Len() int
}

// Fresh reports whether lastModified is still inside ttl at now.
func Fresh(lastModified, now time.Time, ttl time.Duration) bool {
	return now.Before(lastModified.Add(ttl))
}

// Disabled is a no-op layer used when the item limit is zero.
type Disabled[T any] struct{}

func (Disabled[T]) Lookup(string, time.Duration) (T, bool) {
	var zero T
	return zero, false
}
func (Disabled[T]) Upsert(Entry[T]) {}
func (Disabled[T]) Purge(time.Time) {}
func (Disabled[T]) Len() int        { return 0 }

// LRU bounds the layer by entry count and evicts the least recently used.
type LRU[T any] struct {
	max int
	clk clock.Clock

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List // front = most recently used
}

// New returns an LRU holding at most maxItems entries, or a Disabled layer
// when maxItems <= 0.
func New[T any](maxItems int, clk clock.Clock) Layer[T] {
	if maxItems <= 0 {
		return Disabled[T]{}
	}
	return NewLRU[T](maxItems, clk)
}

func NewLRU[T any](maxItems int, clk clock.Clock) *LRU[T] {
	if maxItems < 1 {
		maxItems = 1
	}
	return &LRU[T]{
		max:   maxItems,
		clk:   clock.Or(clk),
		items: make(map[string]*list.Element, maxItems),
		order: list.New(),
	}
}

func (l *LRU[T]) Lookup(key string, ttl time.Duration) (T, bool) {
	var zero T
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	el, ok := l.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*Entry[T])
	if !Fresh(e.LastModified, now, ttl) {
		l.removeElement(el)
		return zero, false
	}
	l.order.MoveToFront(el)
	return e.Value, true
}

func (l *LRU[T]) Upsert(e Entry[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.items[e.Key]; ok {
		cur := el.Value.(*Entry[T])
		// a slower fill must not overwrite a newer blob's value
		if e.LastModified.Before(cur.LastModified) {
			return
		}
		*cur = e
		l.order.MoveToFront(el)
		return
	}
	for l.order.Len() >= l.max {
		l.removeElement(l.order.Back())
	}
	ent := e
	l.items[e.Key] = l.order.PushFront(&ent)
}

func (l *LRU[T]) Purge(olderThan time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if olderThan.IsZero() {
		l.items = make(map[string]*list.Element, l.max)
		l.order.Init()
		return
	}
	for el := l.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*Entry[T]).LastModified.Before(olderThan) {
			l.removeElement(el)
		}
		el = next
	}
}

func (l *LRU[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

func (l *LRU[T]) removeElement(el *list.Element) {
	l.order.Remove(el)
	delete(l.items, el.Value.(*Entry[T]).Key)
}
