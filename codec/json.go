package codec

import "encoding/json"

// JSON is the default codec. Responses arrive as JSON from the transport, so
// a JSON round trip preserves them exactly (numbers decode as float64).
type JSON[V any] struct{}

var _ Codec[map[string]any] = JSON[map[string]any]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
