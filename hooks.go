package blobcache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// A fill was answered from the memory layer.
	MemoryHit(key string)

	// A fill found a fresh blob and materialized it from the store.
	StoreHit(key string)

	// A blob was fetched and committed.
	Fetched(key string, bytes int64, took time.Duration)

	// A fill failed in any phase: namespace init, fetch, persist or
	// materialize. Reported once per fill, not once per waiting caller.
	FillFailed(key string, err error)

	// A caller rejected a joined pre-cache result and waited for a second fill.
	PreCacheUpgraded(key string)

	// A blob could not be deleted during Clear/ClearOlderThan; the sweep went on.
	SweepDeleteFailed(name string, err error)

	// A sweep finished having deleted n blobs.
	Swept(deleted int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) MemoryHit(string)                     {}
func (NopHooks) StoreHit(string)                      {}
func (NopHooks) Fetched(string, int64, time.Duration) {}
func (NopHooks) FillFailed(string, error)             {}
func (NopHooks) PreCacheUpgraded(string)              {}
func (NopHooks) SweepDeleteFailed(string, error)      {}
func (NopHooks) Swept(int)                            {}
