package souris

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/tidwall/jsonc"

	"github.com/unkn0wn-root/souris/integer"
)

// JSONScalarKey holds a top-level JSON scalar imported by FromJSON.
const JSONScalarKey = "JSON Array"

// FromJSON builds a Store from a JSON document. Comments and trailing commas
// are accepted. Objects become Maps and arrays become Arrays. A top-level
// scalar is stored under JSONScalarKey in a one-entry Map.
//
// Integral numbers become Int values and must fit 128 bits of magnitude.
// Other numbers are kept verbatim as String values. null has no
// representation and fails with ErrJSONNull. Nesting deeper than MaxDepth
// fails with ErrTooDeep.
func FromJSON(b []byte) (*Store, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(b)))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("souris: parse json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("souris: parse json: %w", ErrTrailingBytes)
	}

	switch t := doc.(type) {
	case map[string]any:
		return storeFromObject(t, 0)
	case []any:
		return storeFromArray(t, 0)
	default:
		v, err := valueFromJSON(doc, 0)
		if err != nil {
			return nil, err
		}
		return NewMap(map[string]Value{JSONScalarKey: v})
	}
}

func storeFromObject(obj map[string]any, depth int) (*Store, error) {
	kvs := make(map[string]Value, len(obj))
	for k, raw := range obj {
		v, err := valueFromJSON(raw, depth)
		if err != nil {
			return nil, fmt.Errorf("souris: json key %q: %w", k, err)
		}
		kvs[k] = v
	}
	return NewMap(kvs)
}

func storeFromArray(arr []any, depth int) (*Store, error) {
	vs := make([]Value, 0, len(arr))
	for i, raw := range arr {
		v, err := valueFromJSON(raw, depth)
		if err != nil {
			return nil, fmt.Errorf("souris: json index %d: %w", i, err)
		}
		vs = append(vs, v)
	}
	return NewArray(vs...), nil
}

// valueFromJSON converts raw, found inside a store at the given depth.
func valueFromJSON(raw any, depth int) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Value{}, ErrJSONNull
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		n, ok := new(big.Int).SetString(t.String(), 10)
		if !ok {
			return String(t.String()), nil
		}
		i, err := integer.FromBig(n)
		if err != nil {
			return Value{}, err
		}
		return Int(i), nil
	case map[string]any:
		if depth+1 > MaxDepth {
			return Value{}, ErrTooDeep
		}
		s, err := storeFromObject(t, depth+1)
		if err != nil {
			return Value{}, err
		}
		return Nested(s), nil
	case []any:
		if depth+1 > MaxDepth {
			return Value{}, ErrTooDeep
		}
		s, err := storeFromArray(t, depth+1)
		if err != nil {
			return Value{}, err
		}
		return Nested(s), nil
	}
	return Value{}, fmt.Errorf("souris: unsupported json value %T", raw)
}
