// Package blobcache is a two-tier, read-through cache for remote resources.
//
// A Cache[T] fetches bytes from a URI, persists them as a named blob with a
// TTL, and materializes them into a T. Materialized values are optionally
// kept in a bounded in-memory layer so repeated reads skip decoding.
//
// Components:
//   - store.Store: durable named blobs with modification times (go-billy
//     filesystem, Redis, BigCache or in-process).
//   - fetch.Fetcher: URI -> byte stream (HTTP by default).
//   - materialize.Materializer[T]: bytes -> T, from the live stream or the
//     persisted blob.
//   - memory.Layer[T]: bounded, TTL-aware layer of materialized values.
//
// Fill protocol for Get(ctx, uri, key):
//
//	memory hit (fresh)      -> return
//	blob fresh in the store -> materialize from blob -> remember in memory
//	blob missing or stale   -> fetch -> persist (tee through materializer)
//	                         -> commit atomically -> remember in memory
//
// Concurrent Gets for one key share a single fill. A pre-cache fill
// (PreCache or PreCacheOnly()) persists bytes without materializing; callers
// that need a value and happen to join such a fill start a second one rather
// than accept an empty result.
//
// The store namespace is created lazily on first use, exactly once per cache.
package blobcache
