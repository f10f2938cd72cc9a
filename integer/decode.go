package integer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/unkn0wn-root/souris/cursor"
)

const (
	signBit      = 0b1000_0000
	reservedBits = 0b0111_1000
	indexBits    = 0b0000_0111
)

// Header packs a sign and a ladder width into the inline header byte.
func Header(s Sign, width int) (byte, error) {
	if s != Positive && s != Negative {
		return 0, fmt.Errorf("%w: %v", ErrBadHeader, s)
	}
	idx, ok := widthIndex(width)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrBadWidth, width)
	}
	return byte(s)<<7 | byte(idx), nil
}

// ParseHeader splits an inline header byte into sign and width.
func ParseHeader(h byte) (Sign, int, error) {
	if h&reservedBits != 0 {
		return 0, 0, fmt.Errorf("%w: %#08b", ErrBadHeader, h)
	}
	idx := int(h & indexBits)
	if idx >= len(Widths) {
		return 0, 0, fmt.Errorf("%w: index %d", ErrBadWidth, idx)
	}
	return Sign(h >> 7), Widths[idx], nil
}

// Decode reads one inline-encoded Integer from c.
func Decode(c *cursor.Cursor) (Integer, error) {
	h, err := c.Next()
	if err != nil {
		return Integer{}, err
	}
	s, w, err := ParseHeader(h)
	if err != nil {
		return Integer{}, err
	}
	return DecodeMagnitude(s, w, c)
}

// DecodeMagnitude reads a width-byte big-endian magnitude from c. The sign
// and width were recovered by the caller from an earlier header or niche.
func DecodeMagnitude(s Sign, width int, c *cursor.Cursor) (Integer, error) {
	if s != Positive && s != Negative {
		return Integer{}, fmt.Errorf("%w: %v", ErrBadHeader, s)
	}
	if _, ok := widthIndex(width); !ok {
		return Integer{}, fmt.Errorf("%w: %d", ErrBadWidth, width)
	}
	b, err := c.Read(width)
	if err != nil {
		return Integer{}, err
	}

	var hi, lo uint64
	switch width {
	case 1:
		lo = uint64(b[0])
	case 2:
		lo = uint64(binary.BigEndian.Uint16(b))
	case 4:
		lo = uint64(binary.BigEndian.Uint32(b))
	case 8:
		lo = binary.BigEndian.Uint64(b)
	case 16:
		hi = binary.BigEndian.Uint64(b[:8])
		lo = binary.BigEndian.Uint64(b[8:])
	}

	v := Integer{sign: s, hi: hi, lo: lo}
	if v.Width() != width {
		return Integer{}, fmt.Errorf("%w: %s in %d bytes, want %d", ErrNonCanonical, v, width, v.Width())
	}
	if v.IsZero() && s == Negative {
		return Integer{}, fmt.Errorf("%w: negative zero", ErrNonCanonical)
	}
	return v, nil
}

// DecodeLen reads an inline Integer and narrows it to a non-negative int.
// Counts and lengths in the store framing use it.
func DecodeLen(c *cursor.Cursor) (int, error) {
	v, err := Decode(c)
	if err != nil {
		return 0, err
	}
	u, err := v.toUnsigned(math.MaxInt, "length")
	return int(u), err
}

// AppendLen appends n as a positive inline Integer.
func AppendLen(dst []byte, n int) []byte {
	return FromInt(n).Append(dst)
}
