package materialize

import (
	"context"
	"encoding/json"
	"io"
)

// JSON decodes one JSON document from the stream.
type JSON[T any] struct{}

func (JSON[T]) decode(r io.Reader) (T, error) {
	var v T
	err := json.NewDecoder(r).Decode(&v)
	return v, err
}

func (j JSON[T]) FromStream(_ context.Context, r io.Reader) (T, bool, error) {
	v, err := j.decode(r)
	return v, err == nil, err
}

func (j JSON[T]) FromBlob(_ context.Context, r io.Reader) (T, error) { return j.decode(r) }
