// Package materialize turns fetched or persisted bytes into typed values.
package materialize

import (
	"context"
	"io"
)

// Materializer builds a T from raw bytes.
//
// FromStream sees the bytes while they are being fetched (and persisted in
// parallel). It may return ok=false to defer: the cache then calls FromBlob
// on the persisted copy once it is complete. FromBlob is also used whenever a
// fresh blob is served from the store.
type Materializer[T any] interface {
	FromStream(ctx context.Context, r io.Reader) (v T, ok bool, err error)
	FromBlob(ctx context.Context, r io.Reader) (T, error)
}

// Nop never reads and always yields the zero T. It suits caches that only
// persist bytes for other consumers.
type Nop[T any] struct{}

func (Nop[T]) FromStream(context.Context, io.Reader) (T, bool, error) {
	var zero T
	return zero, true, nil
}

func (Nop[T]) FromBlob(context.Context, io.Reader) (T, error) {
	var zero T
	return zero, nil
}

// Func uses the same decode function for streams and blobs.
type Func[T any] func(ctx context.Context, r io.Reader) (T, error)

func (f Func[T]) FromStream(ctx context.Context, r io.Reader) (T, bool, error) {
	v, err := f(ctx, r)
	return v, err == nil, err
}

func (f Func[T]) FromBlob(ctx context.Context, r io.Reader) (T, error) { return f(ctx, r) }

// Deferred always materializes from the persisted blob, never the live stream.
// Use it for decoders that need the complete, durable copy.
type Deferred[T any] struct {
	Inner Materializer[T]
}

func (d Deferred[T]) FromStream(context.Context, io.Reader) (T, bool, error) {
	var zero T
	return zero, false, nil
}

func (d Deferred[T]) FromBlob(ctx context.Context, r io.Reader) (T, error) {
	return d.Inner.FromBlob(ctx, r)
}
