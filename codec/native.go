package codec

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/unkn0wn-root/souris"
	"github.com/unkn0wn-root/souris/integer"
)

// Char marks a character in the native mapping so it survives formats that
// can tag it. Other formats carry it as a one-rune string.
type Char rune

// flavor selects how kinds without a direct counterpart are rendered.
type flavor uint8

const (
	flavorLossless flavor = iota // chars tagged, wide ints as *big.Int
	flavorText                   // chars as strings, wide ints as decimal strings
	flavorFloat                  // numbers as float64 within ±2^53, otherwise decimal strings
)

const maxSafeInt = 1 << 53

// nativeStore maps a Map to map[string]any and an Array to []any.
func nativeStore(s *souris.Store, f flavor) any {
	if s.Shape() == souris.ShapeArray {
		out := make([]any, 0, s.Len())
		for _, v := range s.All() {
			out = append(out, nativeValue(v, f))
		}
		return out
	}
	out := make(map[string]any, s.Len())
	for k, v := range s.All() {
		out[k] = nativeValue(v, f)
	}
	return out
}

func nativeValue(v souris.Value, f flavor) any {
	switch v.Kind() {
	case souris.KindChar:
		r, _ := v.AsChar()
		if f == flavorLossless {
			return Char(r)
		}
		return string(r)
	case souris.KindString:
		s, _ := v.AsString()
		return s
	case souris.KindBinary:
		b, _ := v.AsBinary()
		return b
	case souris.KindBool:
		b, _ := v.AsBool()
		return b
	case souris.KindInt:
		i, _ := v.AsInt()
		return nativeInt(i, f)
	case souris.KindStore:
		st, _ := v.AsStore()
		return nativeStore(st, f)
	}
	return nil
}

func nativeInt(i integer.Integer, f flavor) any {
	if f == flavorFloat {
		if n, err := i.Int64(); err == nil && n >= -maxSafeInt && n <= maxSafeInt {
			return float64(n)
		}
		return i.String()
	}
	if n, err := i.Int64(); err == nil {
		return n
	}
	if n, err := i.Uint64(); err == nil {
		return n
	}
	if f == flavorLossless {
		return i.Big()
	}
	return i.String()
}

// storeFromNative is the inverse of nativeStore. A bare scalar is kept under
// souris.JSONScalarKey, matching souris.FromJSON.
func storeFromNative(x any) (*souris.Store, error) {
	switch t := x.(type) {
	case map[string]any:
		return mapFromNative(t)
	case map[any]any:
		m, err := stringKeys(t)
		if err != nil {
			return nil, err
		}
		return mapFromNative(m)
	case []any:
		return arrayFromNative(t)
	}
	v, err := valueFromNative(x)
	if err != nil {
		return nil, err
	}
	return souris.NewMap(map[string]souris.Value{souris.JSONScalarKey: v})
}

// stringKeys renders non-string keys with fmt.Sprint. Two keys rendering to
// the same string fail with ErrUnsupported.
func stringKeys(m map[any]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		sk := fmt.Sprint(k)
		if _, dup := out[sk]; dup {
			return nil, fmt.Errorf("%w: map keys collide as %q", ErrUnsupported, sk)
		}
		out[sk] = v
	}
	return out, nil
}

func mapFromNative(m map[string]any) (*souris.Store, error) {
	kvs := make(map[string]souris.Value, len(m))
	for k, x := range m {
		v, err := valueFromNative(x)
		if err != nil {
			return nil, fmt.Errorf("codec: key %q: %w", k, err)
		}
		kvs[k] = v
	}
	return souris.NewMap(kvs)
}

func arrayFromNative(xs []any) (*souris.Store, error) {
	vs := make([]souris.Value, 0, len(xs))
	for i, x := range xs {
		v, err := valueFromNative(x)
		if err != nil {
			return nil, fmt.Errorf("codec: index %d: %w", i, err)
		}
		vs = append(vs, v)
	}
	return souris.NewArray(vs...), nil
}

func valueFromNative(x any) (souris.Value, error) {
	switch t := x.(type) {
	case Char:
		return souris.Char(rune(t)), nil
	case string:
		return souris.String(t), nil
	case []byte:
		return souris.Binary(t), nil
	case bool:
		return souris.Bool(t), nil
	case int:
		return souris.Int64(int64(t)), nil
	case int8:
		return souris.Int64(int64(t)), nil
	case int16:
		return souris.Int64(int64(t)), nil
	case int32:
		return souris.Int64(int64(t)), nil
	case int64:
		return souris.Int64(t), nil
	case uint:
		return souris.Uint64(uint64(t)), nil
	case uint8:
		return souris.Uint64(uint64(t)), nil
	case uint16:
		return souris.Uint64(uint64(t)), nil
	case uint32:
		return souris.Uint64(uint64(t)), nil
	case uint64:
		return souris.Uint64(t), nil
	case big.Int:
		return bigValue(&t)
	case *big.Int:
		return bigValue(t)
	case float32:
		return floatValue(float64(t)), nil
	case float64:
		return floatValue(t), nil
	case map[string]any, map[any]any, []any:
		st, err := storeFromNative(t)
		if err != nil {
			return souris.Value{}, err
		}
		return souris.Nested(st), nil
	}
	return souris.Value{}, fmt.Errorf("%w: %T", ErrUnsupported, x)
}

func bigValue(b *big.Int) (souris.Value, error) {
	i, err := integer.FromBig(b)
	if err != nil {
		return souris.Value{}, err
	}
	return souris.Int(i), nil
}

// floatValue keeps integral floats as integers and renders the rest as their
// shortest decimal literal.
func floatValue(f float64) souris.Value {
	if f == math.Trunc(f) && math.Abs(f) <= maxSafeInt {
		return souris.Int64(int64(f))
	}
	return souris.String(strconv.FormatFloat(f, 'g', -1, 64))
}
