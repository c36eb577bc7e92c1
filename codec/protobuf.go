package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Protobuf stores generated protobuf messages, for callers that cache typed
// results instead of raw JSON objects.
type Protobuf[T proto.Message] struct {
	new func() T // e.g. func() *mypb.User { return &mypb.User{} }
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}

// Struct encodes JSON-shaped responses as google.protobuf.Struct.
// Only JSON value types survive (numbers become float64); anything else
// fails to encode.
type Struct struct{}

var _ Codec[map[string]any] = Struct{}

func (Struct) Encode(v map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func (Struct) Decode(b []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}
