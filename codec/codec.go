// Package codec turns cached GraphQL responses into bytes and back.
//
// The store keeps payloads opaque: whatever a Codec produces is framed by the
// store and handed back unchanged on read. Because every write goes through
// Encode and every read through Decode, a value read from the cache never
// shares memory with the value that was written.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
