package codec

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/unkn0wn-root/souris"
)

// Msgpack is an interop Codec for *souris.Store built on
// vmihailenco/msgpack/v5. The zero value is ready to use.
//
// Characters become one-rune strings and integers beyond 64 bits become
// decimal strings, so those do not survive a round trip as their original
// kind.
type Msgpack struct{}

var _ Codec[*souris.Store] = Msgpack{}

func (Msgpack) Encode(s *souris.Store) ([]byte, error) {
	return msgpack.Marshal(nativeStore(s, flavorText))
}

func (Msgpack) Decode(b []byte) (*souris.Store, error) {
	var x any
	if err := msgpack.Unmarshal(b, &x); err != nil {
		return nil, err
	}
	return storeFromNative(x)
}
