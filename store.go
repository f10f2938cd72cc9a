package souris

import (
	"iter"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// ArrayKey is the reserved Map key. Its value is always an Array-shaped
// Store; Push on a Map appends to it.
const ArrayKey = "Array"

// Shape distinguishes the two Store layouts. It never changes after a Store
// is created.
type Shape uint8

const (
	ShapeMap Shape = iota
	ShapeArray
)

func (s Shape) String() string {
	if s == ShapeArray {
		return "array"
	}
	return "map"
}

// Store is a recursive key/value container. The zero Store is an empty Map.
type Store struct {
	shape Shape
	kvs   map[string]Value
	arr   []Value
}

// New returns an empty Map-shaped Store.
func New() *Store {
	return &Store{shape: ShapeMap, kvs: make(map[string]Value)}
}

// NewArray returns an Array-shaped Store holding vs.
func NewArray(vs ...Value) *Store {
	return &Store{shape: ShapeArray, arr: slices.Clone(vs)}
}

// NewMap returns a Map-shaped Store holding a copy of kvs. It fails with
// ErrArrayKeyNotArray when the reserved key, at any depth, holds anything
// but an Array-shaped Store.
func NewMap(kvs map[string]Value) (*Store, error) {
	s := &Store{shape: ShapeMap, kvs: maps.Clone(kvs)}
	if s.kvs == nil {
		s.kvs = make(map[string]Value)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) validate() error {
	if s.shape == ShapeMap {
		if v, ok := s.kvs[ArrayKey]; ok && !isArrayStore(v) {
			return ErrArrayKeyNotArray
		}
	}
	for _, v := range s.All() {
		if v.kind == KindStore {
			if err := v.st.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func isArrayStore(v Value) bool {
	return v.kind == KindStore && v.st != nil && v.st.shape == ShapeArray
}

func (s *Store) Shape() Shape { return s.shape }

func (s *Store) Len() int {
	if s.shape == ShapeArray {
		return len(s.arr)
	}
	return len(s.kvs)
}

func (s *Store) IsEmpty() bool { return s.Len() == 0 }

// Insert stores v under k. On an Array the key is ignored and v is appended.
// On a Map, inserting under ArrayKey appends to the reserved array instead of
// replacing it; an Array-shaped v is spliced in element by element.
func (s *Store) Insert(k string, v Value) {
	if s.shape == ShapeArray {
		s.arr = append(s.arr, v)
		return
	}
	if k == ArrayKey {
		s.pushArray(v, true)
		return
	}
	if s.kvs == nil {
		s.kvs = make(map[string]Value)
	}
	s.kvs[k] = v
}

// Push appends v. On a Map it goes to the reserved array, which is created
// on first use.
func (s *Store) Push(v Value) {
	if s.shape == ShapeArray {
		s.arr = append(s.arr, v)
		return
	}
	s.pushArray(v, false)
}

func (s *Store) pushArray(v Value, splice bool) {
	inner := s.reservedArray()
	if splice && isArrayStore(v) {
		inner.arr = append(inner.arr, v.st.arr...)
		return
	}
	inner.arr = append(inner.arr, v)
}

func (s *Store) reservedArray() *Store {
	if s.kvs == nil {
		s.kvs = make(map[string]Value)
	}
	cur, ok := s.kvs[ArrayKey]
	if !ok {
		inner := &Store{shape: ShapeArray}
		s.kvs[ArrayKey] = Nested(inner)
		return inner
	}
	if !isArrayStore(cur) {
		panic("souris: reserved key holds " + cur.kind.String())
	}
	return cur.st
}

// Get returns the value under k. Arrays have no keyed access and always
// report false; use Values or All.
func (s *Store) Get(k string) (Value, bool) {
	if s.shape == ShapeArray {
		return Value{}, false
	}
	v, ok := s.kvs[k]
	return v, ok
}

// Update applies fn to the value under k in place. Arrays have no keyed
// access and always report ErrKeyNotFound. A change that would leave the
// reserved key without an Array is discarded with ErrArrayKeyNotArray.
func (s *Store) Update(k string, fn func(v *Value)) error {
	if s.shape == ShapeArray {
		return ErrKeyNotFound
	}
	v, ok := s.kvs[k]
	if !ok {
		return ErrKeyNotFound
	}
	fn(&v)
	if k == ArrayKey && !isArrayStore(v) {
		return ErrArrayKeyNotArray
	}
	if v.kind == KindStore {
		if err := v.st.validate(); err != nil {
			return err
		}
	}
	s.kvs[k] = v
	return nil
}

// Remove deletes and returns the value under k. On an Array it is a no-op.
func (s *Store) Remove(k string) (Value, bool) {
	if s.shape == ShapeArray {
		return Value{}, false
	}
	v, ok := s.kvs[k]
	if ok {
		delete(s.kvs, k)
	}
	return v, ok
}

// Clear removes all entries and keeps the shape.
func (s *Store) Clear() {
	clear(s.kvs)
	s.arr = s.arr[:0]
}

// Keys returns Map keys in sorted order, or the decimal indices of an Array.
func (s *Store) Keys() []string {
	if s.shape == ShapeArray {
		keys := make([]string, len(s.arr))
		for i := range s.arr {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	}
	return slices.Sorted(maps.Keys(s.kvs))
}

// Values returns the values in Keys order.
func (s *Store) Values() []Value {
	if s.shape == ShapeArray {
		return slices.Clone(s.arr)
	}
	out := make([]Value, 0, len(s.kvs))
	for _, k := range s.Keys() {
		out = append(out, s.kvs[k])
	}
	return out
}

// All iterates over entries in Keys order.
func (s *Store) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if s.shape == ShapeArray {
			for i, v := range s.arr {
				if !yield(strconv.Itoa(i), v) {
					return
				}
			}
			return
		}
		for _, k := range s.Keys() {
			if !yield(k, s.kvs[k]) {
				return
			}
		}
	}
}

// Equal reports deep equality. Stores of different shape are never equal.
func (s *Store) Equal(o *Store) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.shape != o.shape || s.Len() != o.Len() {
		return false
	}
	if s.shape == ShapeArray {
		return slices.EqualFunc(s.arr, o.arr, Value.Equal)
	}
	for k, v := range s.kvs {
		ov, ok := o.kvs[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	if s == nil {
		return nil
	}
	out := &Store{shape: s.shape}
	if s.shape == ShapeArray {
		out.arr = make([]Value, len(s.arr))
		for i, v := range s.arr {
			out.arr[i] = v.Clone()
		}
		return out
	}
	out.kvs = make(map[string]Value, len(s.kvs))
	for k, v := range s.kvs {
		out.kvs[k] = v.Clone()
	}
	return out
}

func (s *Store) String() string {
	if s == nil {
		return "<nil>"
	}
	var sb strings.Builder
	if s.shape == ShapeArray {
		sb.WriteByte('[')
		for i, v := range s.arr {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(v.String())
		}
		sb.WriteByte(']')
		return sb.String()
	}
	sb.WriteByte('{')
	for i, k := range s.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(s.kvs[k].String())
	}
	sb.WriteByte('}')
	return sb.String()
}
