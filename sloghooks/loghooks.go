package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/blobcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery   uint64
	FetchEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr   atomic.Uint64
	fetchCtr atomic.Uint64
}

var _ blobcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) MemoryHit(key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("blobcache.memory_hit", "key", h.redact(key))
}

func (h *Hooks) StoreHit(key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("blobcache.store_hit", "key", h.redact(key))
}

func (h *Hooks) Fetched(key string, bytes int64, took time.Duration) {
	if h.l == nil || !sample(h.opts.FetchEvery, &h.fetchCtr) {
		return
	}
	h.l.Info("blobcache.fetched",
		"key", h.redact(key),
		"bytes", bytes,
		"took", took)
}

func (h *Hooks) FillFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("blobcache.fill_failed",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) PreCacheUpgraded(key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("blobcache.precache_upgraded", "key", h.redact(key))
}

func (h *Hooks) SweepDeleteFailed(name string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("blobcache.sweep_delete_failed",
		"key", h.redact(name),
		"err", err)
}

func (h *Hooks) Swept(deleted int) {
	if h.l == nil || deleted == 0 {
		return
	}
	h.l.Info("blobcache.swept", "deleted", deleted)
}
