// Package codec converts values to and from bytes for storage. Store and
// Value use the native souris format; CBOR, Msgpack, JSON and Protobuf map a
// Store onto those formats for interop. LimitCodec and Compressed wrap any
// codec.
package codec

import "errors"

var (
	ErrTooLarge           = errors.New("codec: payload too large")
	ErrUnsupported        = errors.New("codec: unsupported value")
	ErrBadFrame           = errors.New("codec: malformed compression frame")
	ErrUnknownCompression = errors.New("codec: unknown compression")
)

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
