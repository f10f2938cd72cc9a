package souris

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/unkn0wn-root/souris/integer"
)

// Kind is the 3-bit type tag of a Value.
type Kind uint8

const (
	KindChar   Kind = 0b000
	KindString Kind = 0b001
	KindBinary Kind = 0b010
	KindBool   Kind = 0b011
	KindInt    Kind = 0b100
	KindStore  Kind = 0b101
)

func (k Kind) String() string {
	switch k {
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindStore:
		return "store"
	default:
		return fmt.Sprintf("kind(%#b)", uint8(k))
	}
}

func (k Kind) valid() bool { return k <= KindStore }

const (
	tagShift  = 5
	nicheMask = 0b0001_1111
)

func tagByte(k Kind, niche byte) byte { return byte(k)<<tagShift | niche&nicheMask }

func splitTag(b byte) (Kind, byte) { return Kind(b >> tagShift), b & nicheMask }

// Value is one entry of a Store. Construct it with Char, String, Binary,
// Bool, Int or Nested. The zero Value is the NUL character.
//
// A nested Store is held by reference; use Clone for an independent copy.
type Value struct {
	kind Kind
	ch   rune
	str  string
	bin  []byte
	b    bool
	i    integer.Integer
	st   *Store
}

func Char(r rune) Value           { return Value{kind: KindChar, ch: r} }
func String(s string) Value       { return Value{kind: KindString, str: s} }
func Bool(b bool) Value           { return Value{kind: KindBool, b: b} }
func Int(i integer.Integer) Value { return Value{kind: KindInt, i: i} }
func Int64(v int64) Value         { return Int(integer.FromInt64(v)) }
func Uint64(v uint64) Value       { return Int(integer.FromUint64(v)) }

// Binary copies b into a new binary Value.
func Binary(b []byte) Value {
	return Value{kind: KindBinary, bin: append([]byte{}, b...)}
}

// Nested wraps s. A nil s becomes an empty Map.
func Nested(s *Store) Value {
	if s == nil {
		s = New()
	}
	return Value{kind: KindStore, st: s}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsChar() (rune, bool)           { return v.ch, v.kind == KindChar }
func (v Value) AsString() (string, bool)       { return v.str, v.kind == KindString }
func (v Value) AsBool() (bool, bool)           { return v.b, v.kind == KindBool }
func (v Value) AsInt() (integer.Integer, bool) { return v.i, v.kind == KindInt }
func (v Value) AsStore() (*Store, bool)        { return v.st, v.kind == KindStore }

// AsBinary returns the content of a binary Value. The slice is shared with
// the Value and must not be modified.
func (v Value) AsBinary() ([]byte, bool) { return v.bin, v.kind == KindBinary }

// Equal reports deep equality, descending into nested stores.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindChar:
		return v.ch == o.ch
	case KindString:
		return v.str == o.str
	case KindBinary:
		return bytes.Equal(v.bin, o.bin)
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i.Equal(o.i)
	case KindStore:
		return v.st.Equal(o.st)
	}
	return false
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	switch v.kind {
	case KindBinary:
		v.bin = slices.Clone(v.bin)
	case KindStore:
		v.st = v.st.Clone()
	}
	return v
}

func (v Value) String() string {
	switch v.kind {
	case KindChar:
		return fmt.Sprintf("%q", v.ch)
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindBinary:
		return hexArray(v.bin)
	case KindBool:
		return fmt.Sprint(v.b)
	case KindInt:
		return v.i.String()
	case KindStore:
		return v.st.String()
	}
	return "<invalid>"
}

// GoString renders the value with its kind, for %#v.
func (v Value) GoString() string {
	return fmt.Sprintf("souris.Value{kind: %s, content: %s}", v.kind, v)
}

func hexArray(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, x := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%02X", x)
	}
	sb.WriteByte(']')
	return sb.String()
}

// niche reports the niche bits of variants whose whole state fits the tag
// byte. Only bool qualifies today.
func (v Value) niche() (byte, bool) {
	switch v.kind {
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// MarshalBinary returns the framed encoding of v.
func (v Value) MarshalBinary() ([]byte, error) {
	return v.AppendBinary(nil)
}

// AppendBinary appends the framed encoding of v to dst.
func (v Value) AppendBinary(dst []byte) ([]byte, error) {
	if n, ok := v.niche(); ok {
		return append(dst, tagByte(v.kind, n)), nil
	}

	dst = append(dst, tagByte(v.kind, 0))
	switch v.kind {
	case KindChar:
		if !utf8.ValidRune(v.ch) {
			return nil, fmt.Errorf("%w: %U", ErrInvalidCharacter, v.ch)
		}
		return integer.FromUint32(uint32(v.ch)).Append(dst), nil
	case KindString:
		return append(dst, v.str...), nil
	case KindBinary:
		return append(dst, v.bin...), nil
	case KindInt:
		return v.i.Append(dst), nil
	case KindStore:
		return v.st.AppendBinary(dst)
	case KindBool:
		panic("souris: bool reached content encoding")
	}
	return nil, &InvalidTypeError{Bits: byte(v.kind)}
}
