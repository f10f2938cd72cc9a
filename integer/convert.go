package integer

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrOverflow         = errors.New("integer: value out of range")
	ErrNegativeUnsigned = errors.New("integer: negative value for unsigned target")
	ErrBadWidth         = errors.New("integer: width not on the ladder")
	ErrBadHeader        = errors.New("integer: malformed header")
	ErrNonCanonical     = errors.New("integer: non-canonical encoding")
)

// RangeError reports a narrowing conversion that does not fit its target.
type RangeError struct {
	Target string
	Value  string
	Err    error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("integer: %s does not fit %s: %v", e.Value, e.Target, e.Err)
}

func (e *RangeError) Unwrap() error { return e.Err }

func (i Integer) rangeErr(target string, err error) error {
	return &RangeError{Target: target, Value: i.String(), Err: err}
}

func (i Integer) toUnsigned(limit uint64, target string) (uint64, error) {
	if i.sign == Negative {
		return 0, i.rangeErr(target, ErrNegativeUnsigned)
	}
	if i.hi != 0 || i.lo > limit {
		return 0, i.rangeErr(target, ErrOverflow)
	}
	return i.lo, nil
}

func (i Integer) toSigned(limit uint64, target string) (int64, error) {
	if i.hi != 0 {
		return 0, i.rangeErr(target, ErrOverflow)
	}
	if i.sign == Negative {
		// one more on the negative side: |MinIntN| == MaxIntN+1
		if i.lo > limit+1 {
			return 0, i.rangeErr(target, ErrOverflow)
		}
		return int64(^i.lo + 1), nil
	}
	if i.lo > limit {
		return 0, i.rangeErr(target, ErrOverflow)
	}
	return int64(i.lo), nil
}

func (i Integer) Int8() (int8, error) {
	v, err := i.toSigned(math.MaxInt8, "int8")
	return int8(v), err
}

func (i Integer) Int16() (int16, error) {
	v, err := i.toSigned(math.MaxInt16, "int16")
	return int16(v), err
}

func (i Integer) Int32() (int32, error) {
	v, err := i.toSigned(math.MaxInt32, "int32")
	return int32(v), err
}

func (i Integer) Int64() (int64, error) {
	return i.toSigned(math.MaxInt64, "int64")
}

func (i Integer) Int() (int, error) {
	v, err := i.toSigned(math.MaxInt, "int")
	return int(v), err
}

func (i Integer) Uint8() (uint8, error) {
	v, err := i.toUnsigned(math.MaxUint8, "uint8")
	return uint8(v), err
}

func (i Integer) Uint16() (uint16, error) {
	v, err := i.toUnsigned(math.MaxUint16, "uint16")
	return uint16(v), err
}

func (i Integer) Uint32() (uint32, error) {
	v, err := i.toUnsigned(math.MaxUint32, "uint32")
	return uint32(v), err
}

func (i Integer) Uint64() (uint64, error) {
	return i.toUnsigned(math.MaxUint64, "uint64")
}

func (i Integer) Uint() (uint, error) {
	v, err := i.toUnsigned(math.MaxUint, "uint")
	return uint(v), err
}

func (i Integer) Uintptr() (uintptr, error) {
	v, err := i.toUnsigned(uint64(^uintptr(0)), "uintptr")
	return uintptr(v), err
}

// Uint128 returns the value as unsigned high and low halves.
func (i Integer) Uint128() (hi, lo uint64, err error) {
	if i.sign == Negative {
		return 0, 0, i.rangeErr("uint128", ErrNegativeUnsigned)
	}
	return i.hi, i.lo, nil
}

// Int128 returns the value as a two's complement 128-bit integer split into
// a signed high half and an unsigned low half.
func (i Integer) Int128() (hi int64, lo uint64, err error) {
	const top = uint64(1) << 63
	if i.sign == Positive {
		if i.hi >= top {
			return 0, 0, i.rangeErr("int128", ErrOverflow)
		}
		return int64(i.hi), i.lo, nil
	}
	if i.hi > top || (i.hi == top && i.lo != 0) {
		return 0, 0, i.rangeErr("int128", ErrOverflow)
	}
	nhi, nlo := negate128(i.hi, i.lo)
	return int64(nhi), nlo, nil
}
