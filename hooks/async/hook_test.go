package asynchook

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/unkn0wn-root/blobcache"
)

type recorder struct {
	blobcache.NopHooks
	mu     sync.Mutex
	events []string
	gate   chan struct{}
}

func (r *recorder) add(ev string) {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) MemoryHit(k string)                         { r.add("mem:" + k) }
func (r *recorder) Fetched(k string, _ int64, _ time.Duration) { r.add("fetched:" + k) }

func TestForwardsAndDrains(t *testing.T) {
	rec := &recorder{}
	h := New(rec, 1, 16)
	h.MemoryHit("a")
	h.Fetched("b", 10, time.Millisecond)
	h.Close()

	assert.Equal(t, []string{"mem:a", "fetched:b"}, rec.events)
	assert.Zero(t, h.Dropped())
}

func TestDropsWhenFullOrClosed(t *testing.T) {
	rec := &recorder{gate: make(chan struct{})}
	h := New(rec, 1, 1)

	// one event blocks the worker, one fills the queue, the rest drop
	for i := 0; i < 5; i++ {
		h.MemoryHit("k")
	}
	assert.GreaterOrEqual(t, h.Dropped(), uint64(3))

	close(rec.gate)
	h.Close()
	before := h.Dropped()
	h.Swept(1)
	assert.Equal(t, before+1, h.Dropped())
}
