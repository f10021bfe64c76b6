package materialize

import (
	"context"
	"io"
)

// Bytes is the identity materializer for []byte values.
type Bytes struct{}

func (Bytes) FromStream(_ context.Context, r io.Reader) ([]byte, bool, error) {
	b, err := io.ReadAll(r)
	return b, err == nil, err
}

func (Bytes) FromBlob(_ context.Context, r io.Reader) ([]byte, error) { return io.ReadAll(r) }

// String reads the bytes as a Go string. By convention this assumes UTF-8 and
// performs no validation.
type String struct{}

func (String) FromStream(_ context.Context, r io.Reader) (string, bool, error) {
	b, err := io.ReadAll(r)
	return string(b), err == nil, err
}

func (String) FromBlob(_ context.Context, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	return string(b), err
}
