package materialize

import (
	"context"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// CBOR decodes values using fxamacker/cbor.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
type CBOR[T any] struct {
	dec cbor.DecMode
}

var _ Materializer[struct{}] = CBOR[struct{}]{}

// NewCBOR builds a decoder. maxNestedLevels <= 0 keeps the library default;
// lower it when blobs come from untrusted origins.
func NewCBOR[T any](maxNestedLevels int) (CBOR[T], error) {
	opts := cbor.DecOptions{}
	if maxNestedLevels > 0 {
		opts.MaxNestedLevels = maxNestedLevels
	}
	dm, err := opts.DecMode()
	if err != nil {
		return CBOR[T]{}, err
	}
	return CBOR[T]{dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error.
// Handy for package-level variables in tests/examples.
func MustCBOR[T any](maxNestedLevels int) CBOR[T] {
	c, err := NewCBOR[T](maxNestedLevels)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[T]) decode(r io.Reader) (T, error) {
	var v T
	err := c.dec.NewDecoder(r).Decode(&v)
	return v, err
}

func (c CBOR[T]) FromStream(_ context.Context, r io.Reader) (T, bool, error) {
	v, err := c.decode(r)
	return v, err == nil, err
}

func (c CBOR[T]) FromBlob(_ context.Context, r io.Reader) (T, error) { return c.decode(r) }
