package souris

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/unkn0wn-root/souris/integer"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad big literal %q", s)
	}
	return n
}

func TestFromJSONObject(t *testing.T) {
	in := []byte(`{
		// comments and trailing commas are fine
		"name": "souris",
		"count": 3,
		"neg": -170141183460469231731687303715884105727,
		"ratio": 1.5,
		"ok": true,
		"tags": ["a", 1, false],
		"inner": {"Array": [1, 2]},
	}`)
	s, err := FromJSON(in)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	neg, err := integer.FromBig(mustBig(t, "-170141183460469231731687303715884105727"))
	if err != nil {
		t.Fatalf("FromBig: %v", err)
	}
	want := mustMap(t, map[string]Value{
		"name":  String("souris"),
		"count": Int64(3),
		"neg":   Int(neg),
		"ratio": String("1.5"),
		"ok":    Bool(true),
		"tags":  Nested(NewArray(String("a"), Int64(1), Bool(false))),
		"inner": Nested(mustMap(t, map[string]Value{ArrayKey: Nested(NewArray(Int64(1), Int64(2)))})),
	})
	if !s.Equal(want) {
		t.Fatalf("got %s\nwant %s", s, want)
	}
	if _, err := Unmarshal(mustMarshal(t, s)); err != nil {
		t.Fatalf("imported store does not round trip: %v", err)
	}
}

func TestFromJSONTopLevel(t *testing.T) {
	s, err := FromJSON([]byte(`[1, "x"]`))
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	if !s.Equal(NewArray(Int64(1), String("x"))) {
		t.Fatalf("array = %s", s)
	}

	s, err = FromJSON([]byte(`"solo"`))
	if err != nil {
		t.Fatalf("scalar: %v", err)
	}
	if v, ok := s.Get(JSONScalarKey); !ok || !v.Equal(String("solo")) {
		t.Fatalf("scalar = %s", s)
	}
}

func TestFromJSONRejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"null value", `{"a": null}`, ErrJSONNull},
		{"null top level", `null`, ErrJSONNull},
		{"reserved key", `{"Array": 1}`, ErrArrayKeyNotArray},
		{"int too wide", `{"a": 340282366920938463463374607431768211456}`, integer.ErrOverflow},
		{"trailing document", `{} {}`, ErrTrailingBytes},
	}
	for _, tc := range cases {
		if _, err := FromJSON([]byte(tc.in)); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
	if _, err := FromJSON([]byte(`{"a": `)); err == nil {
		t.Fatalf("malformed json accepted")
	}
}

func TestFromJSONNestingLimit(t *testing.T) {
	nest := func(n int) []byte {
		return []byte(strings.Repeat("[", n) + strings.Repeat("]", n))
	}
	s, err := FromJSON(nest(MaxDepth + 1))
	if err != nil {
		t.Fatalf("nesting at the limit: %v", err)
	}
	b, err := s.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if _, err := Unmarshal(b); err != nil {
		t.Fatalf("decode at the limit: %v", err)
	}
	if _, err := FromJSON(nest(MaxDepth + 2)); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("err = %v, want ErrTooDeep", err)
	}
}
