package souris

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty             = errors.New("souris: empty value span")
	ErrInvalidCharacter  = errors.New("souris: invalid character")
	ErrNonUTF8           = errors.New("souris: text is not valid UTF-8")
	ErrReservedBits      = errors.New("souris: reserved niche bits set")
	ErrUnexpectedContent = errors.New("souris: niche value followed by content")
	ErrLengthMismatch    = errors.New("souris: value length does not match framing")
	ErrInvalidVersion    = errors.New("souris: invalid version")
	ErrBadMagic          = errors.New("souris: bad magic")
	ErrTrailingBytes     = errors.New("souris: trailing bytes after store")
	ErrDuplicateKey      = errors.New("souris: duplicate key")
	ErrLegacyKey         = errors.New("souris: legacy store key is not a string")
	ErrArrayKeyNotArray  = fmt.Errorf("souris: key %q must hold an array store", ArrayKey)
	ErrKeyNotFound       = errors.New("souris: key not found")
	ErrJSONNull          = errors.New("souris: json null has no value representation")
	ErrTooDeep           = errors.New("souris: stores nested too deep")
)

// InvalidTypeError reports a type tag outside the known set.
type InvalidTypeError struct {
	Bits byte
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("souris: invalid type discriminant %#b", e.Bits)
}

// VersionError reports a version tag this package cannot decode.
type VersionError struct {
	Tag []byte
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("souris: invalid version %q", e.Tag)
}

func (e *VersionError) Unwrap() error { return ErrInvalidVersion }

// DecodeError wraps any decode failure with the operation that failed and the
// cursor offset at which it was detected.
type DecodeError struct {
	Op     string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("souris: decode %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// decodeErr wraps err unless an inner decoder already attached a position.
func decodeErr(op string, off int, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Op: op, Offset: off, Err: err}
}
