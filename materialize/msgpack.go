package materialize

import (
	"context"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack decodes values using vmihailenco/msgpack/v5.
// The zero value is ready to use.
//
// Be mindful of struct tag differences vs JSON.
// Use `msgpack:"fieldName"` tags if you need explicit control.
type Msgpack[T any] struct{}

func (Msgpack[T]) decode(r io.Reader) (T, error) {
	var v T
	err := msgpack.NewDecoder(r).Decode(&v)
	return v, err
}

func (m Msgpack[T]) FromStream(_ context.Context, r io.Reader) (T, bool, error) {
	v, err := m.decode(r)
	return v, err == nil, err
}

func (m Msgpack[T]) FromBlob(_ context.Context, r io.Reader) (T, error) { return m.decode(r) }
