package materialize

import (
	"context"
	"io"

	"google.golang.org/protobuf/proto"
)

// Protobuf unmarshals a whole blob into a fresh message. Protobuf has no
// framing, so the stream is read to EOF first.
type Protobuf[T proto.Message] struct {
	new func() T // constructor for a concrete message (e.g., func() *mypb.Image { return &mypb.Image{} })
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (p Protobuf[T]) decode(r io.Reader) (T, error) {
	m := p.new()
	b, err := io.ReadAll(r)
	if err != nil {
		return m, err
	}
	err = proto.Unmarshal(b, m)
	return m, err
}

func (p Protobuf[T]) FromStream(_ context.Context, r io.Reader) (T, bool, error) {
	v, err := p.decode(r)
	return v, err == nil, err
}

func (p Protobuf[T]) FromBlob(_ context.Context, r io.Reader) (T, error) { return p.decode(r) }
