package souris

import (
	"unicode/utf8"

	"github.com/unkn0wn-root/souris/cursor"
	"github.com/unkn0wn-root/souris/integer"
)

// decodeState tracks progress through one framed value.
type decodeState uint8

const (
	stateStart          decodeState = iota // nothing read yet
	stateFoundType                         // tag byte read, no content yet
	stateFindingContent                    // accumulating raw content
)

type valueDecoder struct {
	c     *cursor.Cursor
	n     int
	start int
	depth int // nesting depth of the enclosing store

	state   decodeState
	kind    Kind
	niche   byte
	content []byte
}

// DecodeValue decodes exactly n bytes from c as one framed value. The span
// length comes from the enclosing framing: string and binary content runs to
// the end of the span, while char, int and store content is self-delimiting
// and must end exactly on it. A span longer than the unread input fails with
// cursor.ErrNotEnoughBytes before anything is consumed.
func DecodeValue(c *cursor.Cursor, n int) (Value, error) {
	return decodeValue(c, n, 0)
}

func decodeValue(c *cursor.Cursor, n, depth int) (Value, error) {
	if n < 0 || n > c.Remaining() {
		return Value{}, decodeErr("value", c.Pos(), cursor.ErrNotEnoughBytes)
	}
	d := valueDecoder{c: c, n: n, start: c.Pos(), depth: depth}
	for c.Pos()-d.start < n {
		b, err := c.Next()
		if err != nil {
			return Value{}, decodeErr("value", c.Pos(), err)
		}
		switch d.state {
		case stateStart:
			v, done, err := d.onStart(b)
			if err != nil {
				return Value{}, err
			}
			if done {
				return v, nil
			}
		case stateFoundType:
			d.content = make([]byte, 0, n-(c.Pos()-d.start)+1)
			d.content = append(d.content, b)
			d.state = stateFindingContent
		case stateFindingContent:
			d.content = append(d.content, b)
		}
	}
	return d.finish()
}

// UnmarshalValue decodes b as a single framed value spanning all of b.
func UnmarshalValue(b []byte) (Value, error) {
	c, err := cursor.New(b)
	if err != nil {
		return Value{}, decodeErr("value", 0, err)
	}
	return DecodeValue(c, len(b))
}

func (d *valueDecoder) fail(err error) error {
	return decodeErr("value", d.start, err)
}

func (d *valueDecoder) onStart(b byte) (Value, bool, error) {
	k, niche := splitTag(b)
	if !k.valid() {
		return Value{}, false, d.fail(&InvalidTypeError{Bits: byte(k)})
	}
	if k != KindBool && niche != 0 {
		return Value{}, false, d.fail(ErrReservedBits)
	}
	d.kind, d.niche = k, niche

	switch k {
	case KindChar, KindInt, KindStore:
		v, err := d.selfDelimited()
		if err != nil {
			return Value{}, false, err
		}
		if used := d.c.Pos() - d.start; used != d.n {
			return Value{}, false, d.fail(ErrLengthMismatch)
		}
		return v, true, nil
	}
	d.state = stateFoundType
	return Value{}, false, nil
}

func (d *valueDecoder) selfDelimited() (Value, error) {
	switch d.kind {
	case KindChar:
		i, err := integer.Decode(d.c)
		if err != nil {
			return Value{}, d.fail(err)
		}
		u, err := i.Uint32()
		if err != nil || !utf8.ValidRune(rune(u)) {
			return Value{}, d.fail(ErrInvalidCharacter)
		}
		return Char(rune(u)), nil
	case KindInt:
		i, err := integer.Decode(d.c)
		if err != nil {
			return Value{}, d.fail(err)
		}
		return Int(i), nil
	default:
		s, err := decodeStore(d.c, d.depth+1)
		if err != nil {
			return Value{}, d.fail(err)
		}
		return Nested(s), nil
	}
}

func (d *valueDecoder) finish() (Value, error) {
	switch d.state {
	case stateStart:
		return Value{}, d.fail(ErrEmpty)
	case stateFoundType:
		switch d.kind {
		case KindBool:
			return Bool(d.niche > 0), nil
		case KindString:
			return String(""), nil
		case KindBinary:
			return Value{kind: KindBinary, bin: []byte{}}, nil
		}
	case stateFindingContent:
		switch d.kind {
		case KindString:
			if !utf8.Valid(d.content) {
				return Value{}, d.fail(ErrNonUTF8)
			}
			return String(string(d.content)), nil
		case KindBinary:
			return Value{kind: KindBinary, bin: d.content}, nil
		case KindBool:
			return Value{}, d.fail(ErrUnexpectedContent)
		}
	}
	panic("souris: unreachable decode state for " + d.kind.String())
}
