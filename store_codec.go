package souris

import (
	"fmt"
	"unicode/utf8"

	"github.com/unkn0wn-root/souris/cursor"
	"github.com/unkn0wn-root/souris/integer"
)

// MarshalBinary returns the versioned encoding of s.
func (s *Store) MarshalBinary() ([]byte, error) {
	return s.AppendBinary(nil)
}

// AppendBinary appends the versioned encoding of s to dst. Map keys are
// written in sorted order, so equal stores encode to equal bytes.
func (s *Store) AppendBinary(dst []byte) ([]byte, error) {
	dst = appendHeader(dst, versionOf(s))

	if s.shape == ShapeArray {
		dst = integer.AppendLen(dst, len(s.arr))
		var enc []byte
		for i, v := range s.arr {
			var err error
			if enc, err = v.AppendBinary(enc[:0]); err != nil {
				return nil, fmt.Errorf("souris: encode array entry %d: %w", i, err)
			}
			dst = integer.AppendLen(dst, len(enc))
			dst = append(dst, enc...)
		}
		return dst, nil
	}

	dst = append(dst, sizeLabel...)
	dst = append(dst, 0)
	dst = integer.AppendLen(dst, len(s.kvs))
	dst = append(dst, 0)

	var values []byte
	for _, k := range s.Keys() {
		if !utf8.ValidString(k) {
			return nil, fmt.Errorf("souris: encode key %q: %w", k, ErrNonUTF8)
		}
		before := len(values)
		var err error
		if values, err = s.kvs[k].AppendBinary(values); err != nil {
			return nil, fmt.Errorf("souris: encode key %q: %w", k, err)
		}
		dst = integer.AppendLen(dst, len(k))
		dst = integer.AppendLen(dst, len(values)-before)
		dst = append(dst, k...)
	}
	return append(dst, values...), nil
}

// Unmarshal decodes a complete store from b. Bytes left over after the
// store are an error.
func Unmarshal(b []byte) (*Store, error) {
	c, err := cursor.New(b)
	if err != nil {
		return nil, decodeErr("store", 0, err)
	}
	s, err := DecodeStore(c)
	if err != nil {
		return nil, err
	}
	if c.Remaining() != 0 {
		return nil, decodeErr("store", c.Pos(), ErrTrailingBytes)
	}
	return s, nil
}

// UnmarshalBinary replaces s with the store decoded from b. On error s is
// left unchanged.
func (s *Store) UnmarshalBinary(b []byte) error {
	dec, err := Unmarshal(b)
	if err != nil {
		return err
	}
	*s = *dec
	return nil
}

// MaxDepth bounds how deeply stores may nest in decoded input.
const MaxDepth = 1024

// DecodeStore decodes one store starting at the cursor position and leaves
// the cursor just past it.
func DecodeStore(c *cursor.Cursor) (*Store, error) {
	return decodeStore(c, 0)
}

func decodeStore(c *cursor.Cursor, depth int) (*Store, error) {
	if depth > MaxDepth {
		return nil, decodeErr("store", c.Pos(), ErrTooDeep)
	}
	v, err := readHeader(c)
	if err != nil {
		return nil, err
	}
	switch v {
	case VersionArray:
		return decodeArray(c, depth)
	case VersionLegacy:
		return decodeLegacy(c)
	default:
		return decodeMap(c, depth)
	}
}

// decodeCount reads a length or count and caps the capacity it implies by
// what is left in the buffer, so a forged count cannot force a large
// allocation.
func decodeCount(c *cursor.Cursor, op string) (n, capHint int, err error) {
	off := c.Pos()
	n, err = integer.DecodeLen(c)
	if err != nil {
		return 0, 0, decodeErr(op, off, err)
	}
	return n, min(n, c.Remaining()), nil
}

type pendingKey struct {
	key  string
	vlen int
}

func readSizeBlock(c *cursor.Cursor) (int, int, error) {
	if err := c.Expect(sizeLabel); err != nil {
		return 0, 0, decodeErr("size", c.Pos(), err)
	}
	if err := c.Expect(sep); err != nil {
		return 0, 0, decodeErr("size", c.Pos(), err)
	}
	n, capHint, err := decodeCount(c, "size")
	if err != nil {
		return 0, 0, err
	}
	if err := c.Expect(sep); err != nil {
		return 0, 0, decodeErr("size", c.Pos(), err)
	}
	return n, capHint, nil
}

func decodeMap(c *cursor.Cursor, depth int) (*Store, error) {
	n, capHint, err := readSizeBlock(c)
	if err != nil {
		return nil, err
	}

	keys := make([]pendingKey, 0, capHint)
	seen := make(map[string]struct{}, capHint)
	for range n {
		off := c.Pos()
		klen, err := integer.DecodeLen(c)
		if err != nil {
			return nil, decodeErr("key length", off, err)
		}
		vlen, err := integer.DecodeLen(c)
		if err != nil {
			return nil, decodeErr("value length", off, err)
		}
		kb, err := c.Read(klen)
		if err != nil {
			return nil, decodeErr("key", c.Pos(), err)
		}
		if !utf8.Valid(kb) {
			return nil, decodeErr("key", off, ErrNonUTF8)
		}
		k := string(kb)
		if _, dup := seen[k]; dup {
			return nil, decodeErr("key", off, fmt.Errorf("%w: %q", ErrDuplicateKey, k))
		}
		seen[k] = struct{}{}
		keys = append(keys, pendingKey{key: k, vlen: vlen})
	}

	s := &Store{shape: ShapeMap, kvs: make(map[string]Value, len(keys))}
	for _, p := range keys {
		v, err := decodeValue(c, p.vlen, depth)
		if err != nil {
			return nil, err
		}
		s.kvs[p.key] = v
	}
	if v, ok := s.kvs[ArrayKey]; ok && !isArrayStore(v) {
		return nil, decodeErr("store", c.Pos(), ErrArrayKeyNotArray)
	}
	return s, nil
}

func decodeArray(c *cursor.Cursor, depth int) (*Store, error) {
	n, capHint, err := decodeCount(c, "count")
	if err != nil {
		return nil, err
	}
	s := &Store{shape: ShapeArray, arr: make([]Value, 0, capHint)}
	for range n {
		vlen, _, err := decodeCount(c, "value length")
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(c, vlen, depth)
		if err != nil {
			return nil, err
		}
		s.arr = append(s.arr, v)
	}
	return s, nil
}

// decodeLegacy reads the earlier flat format. Keys there are framed values
// that must be strings, and nested stores did not exist yet.
func decodeLegacy(c *cursor.Cursor) (*Store, error) {
	n, capHint, err := readSizeBlock(c)
	if err != nil {
		return nil, err
	}

	keys := make([]pendingKey, 0, capHint)
	seen := make(map[string]struct{}, capHint)
	for range n {
		off := c.Pos()
		klen, err := integer.DecodeLen(c)
		if err != nil {
			return nil, decodeErr("key length", off, err)
		}
		vlen, err := integer.DecodeLen(c)
		if err != nil {
			return nil, decodeErr("value length", off, err)
		}
		kv, err := DecodeValue(c, klen)
		if err != nil {
			return nil, err
		}
		k, ok := kv.AsString()
		if !ok {
			return nil, decodeErr("key", off, fmt.Errorf("%w: got %s", ErrLegacyKey, kv.kind))
		}
		if _, dup := seen[k]; dup {
			return nil, decodeErr("key", off, fmt.Errorf("%w: %q", ErrDuplicateKey, k))
		}
		seen[k] = struct{}{}
		keys = append(keys, pendingKey{key: k, vlen: vlen})
	}

	s := &Store{shape: ShapeMap, kvs: make(map[string]Value, len(keys))}
	for _, p := range keys {
		off := c.Pos()
		if b, err := c.Peek(); err == nil && Kind(b>>tagShift) == KindStore {
			return nil, decodeErr("value", off, &InvalidTypeError{Bits: byte(KindStore)})
		}
		v, err := DecodeValue(c, p.vlen)
		if err != nil {
			return nil, err
		}
		s.kvs[p.key] = v
	}
	if _, ok := s.kvs[ArrayKey]; ok {
		return nil, decodeErr("store", c.Pos(), ErrArrayKeyNotArray)
	}
	return s, nil
}
