// Package flight coalesces concurrent fills of the same key.
//
// It wraps singleflight with two additions: a flight can finish "skipped"
// (a pre-cache fill that persisted bytes but produced no value), and callers
// that need a real value never accept a skipped result they merely joined.
package flight

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Result is what one fill produced.
type Result[T any] struct {
	Value T
	// Skipped marks a pre-cache fill that did not materialize a value.
	Skipped bool
}

// Call describes how a caller ended up with its result.
type Call struct {
	// Shared is true when the result came from a flight another caller owned.
	Shared bool
	// Upgraded is true when a joined pre-cache result was rejected and a
	// second flight was awaited instead.
	Upgraded bool
}

// Group dedupes fills per key. The zero value is ready to use.
type Group[T any] struct {
	g singleflight.Group
}

// Do runs fn once per key among concurrent callers.
//
// fn runs on a context detached from ctx's cancellation: a caller giving up
// returns ctx.Err() while the fill completes for everybody else. The key is
// released as soon as fn returns, whatever the outcome, so a failed fill is
// never replayed to later callers.
//
// When preCacheOnly is false and the joined flight turned out to be a skipped
// pre-cache fill, Do starts (or joins) a fresh flight and waits for it.
func (g *Group[T]) Do(ctx context.Context, key string, preCacheOnly bool,
	fn func(ctx context.Context, preCacheOnly bool) (Result[T], error),
) (Result[T], Call, error) {
	var call Call
	fillCtx := context.WithoutCancel(ctx)
	for {
		ch := g.g.DoChan(key, func() (any, error) {
			return fn(fillCtx, preCacheOnly)
		})

		var res singleflight.Result
		select {
		case res = <-ch:
		case <-ctx.Done():
			return Result[T]{}, call, ctx.Err()
		}
		call.Shared = call.Shared || res.Shared
		if res.Err != nil {
			return Result[T]{}, call, res.Err
		}
		out, ok := res.Val.(Result[T])
		if !ok {
			return Result[T]{}, call, fmt.Errorf("flight: unexpected result type %T", res.Val)
		}
		if out.Skipped && !preCacheOnly {
			call.Upgraded = true
			continue
		}
		return out, call, nil
	}
}

