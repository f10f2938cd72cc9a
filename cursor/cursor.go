// Package cursor provides a bounds-checked, forward-only reader over an
// in-memory byte slice. Every read is fallible: running past the end of the
// buffer returns ErrNotEnoughBytes instead of panicking, and no read ever
// returns fewer bytes than requested.
package cursor

import (
	"bytes"
	"errors"
	"fmt"
)

// MaxLen is the largest buffer a Cursor will wrap. Lengths and counts in the
// store format are narrowed to int, so anything longer could not be
// addressed consistently on 32-bit platforms.
const MaxLen = 1<<31 - 1

var (
	ErrNotEnoughBytes = errors.New("cursor: not enough bytes")
	ErrFileTooLong    = errors.New("cursor: buffer exceeds addressable length")
	ErrUnexpected     = errors.New("cursor: unexpected bytes")
)

// Cursor is a read position over an immutable byte slice.
// Slices returned by Read alias the underlying buffer.
type Cursor struct {
	b   []byte
	pos int
}

// New wraps b. It fails with ErrFileTooLong if len(b) > MaxLen.
func New(b []byte) (*Cursor, error) {
	return NewWithLimit(b, MaxLen)
}

// NewWithLimit is like New with a caller supplied limit. A non-positive limit
// falls back to MaxLen.
func NewWithLimit(b []byte, limit int) (*Cursor, error) {
	if limit <= 0 || limit > MaxLen {
		limit = MaxLen
	}
	if len(b) > limit {
		return nil, fmt.Errorf("%w: %d > %d", ErrFileTooLong, len(b), limit)
	}
	return &Cursor{b: b}, nil
}

// Pos returns the number of bytes consumed so far.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the length of the wrapped buffer.
func (c *Cursor) Len() int { return len(c.b) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.b) - c.pos }

// Read returns the next n bytes and advances past them.
func (c *Cursor) Read(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, ErrNotEnoughBytes
	}
	out := c.b[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return out, nil
}

// Seek advances the position by n bytes without returning them.
// It never moves past the end of the buffer.
func (c *Cursor) Seek(n int) error {
	if n < 0 || n > c.Remaining() {
		return ErrNotEnoughBytes
	}
	c.pos += n
	return nil
}

// Next returns the next byte and advances.
func (c *Cursor) Next() (byte, error) {
	if c.pos >= len(c.b) {
		return 0, ErrNotEnoughBytes
	}
	b := c.b[c.pos]
	c.pos++
	return b, nil
}

// Peek returns the next byte without advancing.
func (c *Cursor) Peek() (byte, error) {
	if c.pos >= len(c.b) {
		return 0, ErrNotEnoughBytes
	}
	return c.b[c.pos], nil
}

// Expect consumes len(lit) bytes and checks that they equal lit.
// On mismatch the position is still advanced.
func (c *Cursor) Expect(lit []byte) error {
	got, err := c.Read(len(lit))
	if err != nil {
		return err
	}
	if !bytes.Equal(got, lit) {
		return fmt.Errorf("%w: got %q want %q", ErrUnexpected, got, lit)
	}
	return nil
}
