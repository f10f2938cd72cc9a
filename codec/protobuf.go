package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/souris"
)

// Protobuf maps a *souris.Store onto google.protobuf.Value. Integers within
// ±2^53 become numbers and wider ones decimal strings; binary values become
// base64 strings.
type Protobuf struct{}

var _ Codec[*souris.Store] = Protobuf{}

func (Protobuf) Encode(s *souris.Store) ([]byte, error) {
	m, err := Protobuf{}.Message(s)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(m)
}

func (Protobuf) Decode(b []byte) (*souris.Store, error) {
	var m structpb.Value
	if err := proto.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return storeFromNative(m.AsInterface())
}

// Message returns s as a structpb.Value for embedding in other messages.
func (Protobuf) Message(s *souris.Store) (*structpb.Value, error) {
	return structpb.NewValue(nativeStore(s, flavorFloat))
}
