package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/unkn0wn-root/souris"
)

// CharTag is the CBOR tag number wrapping a character ("SR").
const CharTag = 0x5352

// CBOR is a lossless interop Codec for *souris.Store built on
// fxamacker/cbor. Characters are written under CharTag, integers beyond
// 64 bits as bignums.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[*souris.Store] = CBOR{}

// NewCBOR constructs a CBOR codec.
//   - deterministic true uses CoreDetEncOptions (RFC 8949), so equal stores
//     encode to identical bytes.
//   - Otherwise uses PreferredUnsortedEncOptions (smaller/faster defaults).
func NewCBOR(deterministic bool) (CBOR, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	eo.NilContainers = cbor.NilContainerAsEmpty

	tags := cbor.NewTagSet()
	if err := tags.Add(
		cbor.TagOptions{EncTag: cbor.EncTagRequired, DecTag: cbor.DecTagRequired},
		reflect.TypeOf(Char(0)),
		CharTag,
	); err != nil {
		return CBOR{}, err
	}

	em, err := eo.EncModeWithTags(tags)
	if err != nil {
		return CBOR{}, err
	}
	do := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}
	dm, err := do.DecModeWithTags(tags)
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error.
// Handy for package-level variables in tests.
func MustCBOR(deterministic bool) CBOR {
	c, err := NewCBOR(deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR) Encode(s *souris.Store) ([]byte, error) {
	return c.enc.Marshal(nativeStore(s, flavorLossless))
}

func (c CBOR) Decode(b []byte) (*souris.Store, error) {
	var x any
	if err := c.dec.Unmarshal(b, &x); err != nil {
		return nil, err
	}
	return storeFromNative(x)
}
