package materialize

import (
	"context"
	"fmt"
	"io"
)

// Limit wraps another materializer and fails once more than MaxBytes are
// read. If MaxBytes <= 0, size limiting is disabled.
//
// Typical use: protect against oversized/malicious payloads from an origin.
type Limit[T any] struct {
	Inner    Materializer[T]
	MaxBytes int64
}

// TooLargeError reports a payload over the configured limit.
type TooLargeError struct {
	Max int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("payload too large: more than %d bytes", e.Max)
}

func (l Limit[T]) wrap(r io.Reader) io.Reader {
	if l.MaxBytes <= 0 {
		return r
	}
	return &limitedReader{r: r, left: l.MaxBytes, max: l.MaxBytes}
}

func (l Limit[T]) FromStream(ctx context.Context, r io.Reader) (T, bool, error) {
	return l.Inner.FromStream(ctx, l.wrap(r))
}

func (l Limit[T]) FromBlob(ctx context.Context, r io.Reader) (T, error) {
	return l.Inner.FromBlob(ctx, l.wrap(r))
}

type limitedReader struct {
	r    io.Reader
	left int64
	max  int64
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.left < 0 {
		return 0, &TooLargeError{Max: lr.max}
	}
	// allow one byte past the limit to detect overflow
	if int64(len(p)) > lr.left+1 {
		p = p[:lr.left+1]
	}
	n, err := lr.r.Read(p)
	lr.left -= int64(n)
	if lr.left < 0 {
		return n - int(-lr.left), &TooLargeError{Max: lr.max}
	}
	return n, err
}
