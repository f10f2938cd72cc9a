// Package integer implements the signed, minimal-width integer codec used by
// the souris store format.
//
// An Integer is a sign plus an unsigned 128-bit magnitude, wide enough for
// every 8/16/32/64/128-bit signed and unsigned machine integer. The magnitude
// is encoded big-endian in the smallest width of a fixed ladder:
//
//	1, 2, 4, 8, 16 bytes
//
// The sign and width travel out of band. Callers either pack them into an
// enclosing niche, or use the inline form which prefixes a single header byte:
//
//	+------+-----------+-------------+
//	| sign | 0 0 0 0   | width index |
//	| bit7 | bits 6..3 | bits 2..0   |
//	+------+-----------+-------------+
//
// Decoding accepts only the encoding Append itself would produce: a magnitude
// padded to a wider rung of the ladder, a negative zero, or a header with
// reserved bits set is rejected.
package integer

import (
	"encoding/binary"
	"math/big"
	"strconv"
)

// Sign of an Integer. Zero is always Positive.
type Sign uint8

const (
	Positive Sign = 0
	Negative Sign = 1
)

func (s Sign) String() string {
	switch s {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "sign(" + strconv.Itoa(int(s)) + ")"
	}
}

// Widths is the ladder of magnitude widths in bytes.
var Widths = [...]int{1, 2, 4, 8, 16}

// MaxEncodedLen is the longest inline encoding: header plus a 16-byte magnitude.
const MaxEncodedLen = 1 + 16

// Integer is an immutable signed integer with a 128-bit magnitude.
// The zero value is 0.
type Integer struct {
	sign   Sign
	hi, lo uint64
}

func magnitude(s Sign, hi, lo uint64) Integer {
	if hi == 0 && lo == 0 {
		s = Positive
	}
	return Integer{sign: s, hi: hi, lo: lo}
}

func FromInt8(v int8) Integer   { return FromInt64(int64(v)) }
func FromInt16(v int16) Integer { return FromInt64(int64(v)) }
func FromInt32(v int32) Integer { return FromInt64(int64(v)) }
func FromInt(v int) Integer     { return FromInt64(int64(v)) }

func FromInt64(v int64) Integer {
	if v < 0 {
		// two's complement negation; correct for math.MinInt64 as well
		return Integer{sign: Negative, lo: ^uint64(v) + 1}
	}
	return Integer{lo: uint64(v)}
}

func FromUint8(v uint8) Integer     { return FromUint64(uint64(v)) }
func FromUint16(v uint16) Integer   { return FromUint64(uint64(v)) }
func FromUint32(v uint32) Integer   { return FromUint64(uint64(v)) }
func FromUint(v uint) Integer       { return FromUint64(uint64(v)) }
func FromUintptr(v uintptr) Integer { return FromUint64(uint64(v)) }
func FromUint64(v uint64) Integer   { return Integer{lo: v} }

// FromUint128 builds an Integer from the high and low halves of an unsigned
// 128-bit value.
func FromUint128(hi, lo uint64) Integer { return Integer{hi: hi, lo: lo} }

// FromInt128 builds an Integer from a two's complement 128-bit value split
// into its high (signed) and low halves.
func FromInt128(hi int64, lo uint64) Integer {
	if hi >= 0 {
		return Integer{hi: uint64(hi), lo: lo}
	}
	mhi, mlo := negate128(uint64(hi), lo)
	return magnitude(Negative, mhi, mlo)
}

// FromBig converts b. It fails with a *RangeError when |b| needs more than
// 128 bits.
func FromBig(b *big.Int) (Integer, error) {
	abs := new(big.Int).Abs(b)
	if abs.BitLen() > 128 {
		return Integer{}, &RangeError{Target: "int128 magnitude", Value: b.String(), Err: ErrOverflow}
	}
	lo := new(big.Int).And(abs, new(big.Int).SetUint64(^uint64(0))).Uint64()
	hi := new(big.Int).Rsh(abs, 64).Uint64()
	s := Positive
	if b.Sign() < 0 {
		s = Negative
	}
	return magnitude(s, hi, lo), nil
}

func negate128(hi, lo uint64) (uint64, uint64) {
	nlo := ^lo + 1
	nhi := ^hi
	if lo == 0 {
		nhi++
	}
	return nhi, nlo
}

// Sign reports the sign; zero is Positive.
func (i Integer) Sign() Sign { return i.sign }

// IsZero reports whether i == 0.
func (i Integer) IsZero() bool { return i.hi == 0 && i.lo == 0 }

// Magnitude returns the absolute value as high and low 64-bit halves.
func (i Integer) Magnitude() (hi, lo uint64) { return i.hi, i.lo }

// Equal reports whether i and o hold the same value.
func (i Integer) Equal(o Integer) bool { return i == o }

// Compare returns -1, 0 or +1.
func (i Integer) Compare(o Integer) int {
	if i.sign != o.sign {
		if i.sign == Negative {
			return -1
		}
		return 1
	}
	c := cmpMag(i, o)
	if i.sign == Negative {
		return -c
	}
	return c
}

func cmpMag(a, b Integer) int {
	switch {
	case a.hi < b.hi:
		return -1
	case a.hi > b.hi:
		return 1
	case a.lo < b.lo:
		return -1
	case a.lo > b.lo:
		return 1
	}
	return 0
}

// Big returns i as a new big.Int.
func (i Integer) Big() *big.Int {
	b := new(big.Int).SetUint64(i.hi)
	b.Lsh(b, 64)
	b.Or(b, new(big.Int).SetUint64(i.lo))
	if i.sign == Negative {
		b.Neg(b)
	}
	return b
}

func (i Integer) String() string {
	if i.hi == 0 {
		s := strconv.FormatUint(i.lo, 10)
		if i.sign == Negative {
			return "-" + s
		}
		return s
	}
	return i.Big().String()
}

// Width returns the canonical magnitude width in bytes.
func (i Integer) Width() int {
	switch {
	case i.hi != 0:
		return 16
	case i.lo <= 0xFF:
		return 1
	case i.lo <= 0xFFFF:
		return 2
	case i.lo <= 0xFFFF_FFFF:
		return 4
	default:
		return 8
	}
}

// Ser returns the sign and the big-endian magnitude in its canonical width.
func (i Integer) Ser() (Sign, []byte) {
	w := i.Width()
	return i.sign, putMagnitude(make([]byte, w), i.hi, i.lo)
}

func putMagnitude(buf []byte, hi, lo uint64) []byte {
	switch len(buf) {
	case 1:
		buf[0] = byte(lo)
	case 2:
		binary.BigEndian.PutUint16(buf, uint16(lo))
	case 4:
		binary.BigEndian.PutUint32(buf, uint32(lo))
	case 8:
		binary.BigEndian.PutUint64(buf, lo)
	case 16:
		binary.BigEndian.PutUint64(buf[:8], hi)
		binary.BigEndian.PutUint64(buf[8:], lo)
	default:
		panic("integer: width off the ladder")
	}
	return buf
}

// EncodedLen returns the length of the inline encoding.
func (i Integer) EncodedLen() int { return 1 + i.Width() }

// Append appends the inline encoding (header byte + magnitude) to dst.
func (i Integer) Append(dst []byte) []byte {
	s, mag := i.Ser()
	h, err := Header(s, len(mag))
	if err != nil {
		panic(err) // Ser only produces ladder widths
	}
	dst = append(dst, h)
	return append(dst, mag...)
}

// MarshalBinary returns the inline encoding.
func (i Integer) MarshalBinary() ([]byte, error) {
	return i.Append(make([]byte, 0, i.EncodedLen())), nil
}

func widthIndex(w int) (int, bool) {
	for idx, lw := range Widths {
		if lw == w {
			return idx, true
		}
	}
	return 0, false
}
