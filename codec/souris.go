package codec

import "github.com/unkn0wn-root/souris"

// Store is the native codec for *souris.Store. The zero value is ready to
// use.
type Store struct{}

var _ Codec[*souris.Store] = Store{}

func (Store) Encode(s *souris.Store) ([]byte, error) { return s.MarshalBinary() }
func (Store) Decode(b []byte) (*souris.Store, error) { return souris.Unmarshal(b) }

// Value is the native codec for a single souris.Value. The whole payload is
// one value span.
type Value struct{}

var _ Codec[souris.Value] = Value{}

func (Value) Encode(v souris.Value) ([]byte, error) { return v.MarshalBinary() }
func (Value) Decode(b []byte) (souris.Value, error) { return souris.UnmarshalValue(b) }
