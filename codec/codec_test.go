package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/unkn0wn-root/souris"
	"github.com/unkn0wn-root/souris/integer"
)

func mustMap(t *testing.T, kvs map[string]souris.Value) *souris.Store {
	t.Helper()
	s, err := souris.NewMap(kvs)
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	return s
}

// portable holds only kinds every interop format carries unchanged.
func portable(t *testing.T) *souris.Store {
	t.Helper()
	s := mustMap(t, map[string]souris.Value{
		"name":  souris.String("souris"),
		"n":     souris.Int64(-42),
		"u":     souris.Int64(1 << 40),
		"ok":    souris.Bool(true),
		"list":  souris.Nested(souris.NewArray(souris.Int64(1), souris.String("two"), souris.Bool(false))),
		"inner": souris.Nested(mustMap(t, map[string]souris.Value{"x": souris.Int64(0)})),
	})
	s.Push(souris.String("pushed"))
	return s
}

func full(t *testing.T) *souris.Store {
	t.Helper()
	s := portable(t)
	s.Insert("char", souris.Char('ж'))
	s.Insert("bin", souris.Binary([]byte{0, 1, 2, 0xFF}))
	s.Insert("max", souris.Uint64(math.MaxUint64))
	s.Insert("huge", souris.Int(integer.FromUint128(7, 9)))
	s.Insert("tiny", souris.Int(integer.FromInt128(-2, 0)))
	return s
}

func TestNativeCodecs(t *testing.T) {
	s := full(t)
	b, err := Store{}.Encode(s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Store{}.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Equal(s) {
		t.Fatalf("store round trip:\n got %s\nwant %s", got, s)
	}

	v := souris.Char('λ')
	vb, err := Value{}.Encode(v)
	if err != nil {
		t.Fatalf("Value.Encode: %v", err)
	}
	if back, err := (Value{}).Decode(vb); err != nil || !back.Equal(v) {
		t.Fatalf("value round trip = %s, %v", back, err)
	}
}

func TestCBORLossless(t *testing.T) {
	for _, det := range []bool{true, false} {
		c := MustCBOR(det)
		s := full(t)
		b, err := c.Encode(s)
		if err != nil {
			t.Fatalf("det=%v Encode: %v", det, err)
		}
		got, err := c.Decode(b)
		if err != nil {
			t.Fatalf("det=%v Decode: %v", det, err)
		}
		if !got.Equal(s) {
			t.Fatalf("det=%v round trip:\n got %s\nwant %s", det, got, s)
		}
	}
}

func TestCBORDeterministic(t *testing.T) {
	c := MustCBOR(true)
	a, err := c.Encode(full(t))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for range 5 {
		b, err := c.Encode(full(t))
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if !bytes.Equal(a, b) {
			t.Fatalf("deterministic CBOR differs between runs")
		}
	}
}

func TestInteropRoundTrip(t *testing.T) {
	codecs := map[string]Codec[*souris.Store]{
		"msgpack":  Msgpack{},
		"json":     JSON{},
		"protobuf": Protobuf{},
	}
	for name, c := range codecs {
		s := portable(t)
		b, err := c.Encode(s)
		if err != nil {
			t.Fatalf("%s: Encode: %v", name, err)
		}
		got, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%s: Decode: %v", name, err)
		}
		if !got.Equal(s) {
			t.Fatalf("%s: round trip:\n got %s\nwant %s", name, got, s)
		}
	}
}

func TestInteropLossyKinds(t *testing.T) {
	s := mustMap(t, map[string]souris.Value{
		"c":    souris.Char('q'),
		"huge": souris.Int(integer.FromUint128(1, 0)),
	})
	want := mustMap(t, map[string]souris.Value{
		"c":    souris.String("q"),
		"huge": souris.String("18446744073709551616"),
	})
	for name, c := range map[string]Codec[*souris.Store]{"msgpack": Msgpack{}, "protobuf": Protobuf{}} {
		b, err := c.Encode(s)
		if err != nil {
			t.Fatalf("%s: Encode: %v", name, err)
		}
		got, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%s: Decode: %v", name, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%s: got %s want %s", name, got, want)
		}
	}
}

func TestJSONExport(t *testing.T) {
	s := mustMap(t, map[string]souris.Value{
		"bin":  souris.Binary([]byte("hi")),
		"char": souris.Char('z'),
		"big":  souris.Uint64(math.MaxUint64),
	})
	b, err := JSON{}.Encode(s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"big":18446744073709551615,"bin":"aGk=","char":"z"}`
	if string(b) != want {
		t.Fatalf("json = %s, want %s", b, want)
	}
}

func TestProtobufSafeIntegers(t *testing.T) {
	s := mustMap(t, map[string]souris.Value{
		"edge": souris.Int64(1 << 53),
		"over": souris.Int64(1<<53 + 1),
	})
	m, err := Protobuf{}.Message(s)
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	fields := m.GetStructValue().GetFields()
	if fields["edge"].GetNumberValue() != 1<<53 {
		t.Fatalf("edge = %v", fields["edge"])
	}
	if fields["over"].GetStringValue() != "9007199254740993" {
		t.Fatalf("over = %v", fields["over"])
	}
}

func TestValueFromNativeRejects(t *testing.T) {
	if _, err := valueFromNative(nil); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("nil err = %v", err)
	}
	if _, err := valueFromNative(struct{}{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("struct err = %v", err)
	}
	if _, err := storeFromNative(map[string]any{souris.ArrayKey: "x"}); !errors.Is(err, souris.ErrArrayKeyNotArray) {
		t.Fatalf("reserved key err = %v", err)
	}
	if _, err := storeFromNative(map[any]any{uint64(1): "a", "1": "b"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("colliding keys err = %v", err)
	}
	st, err := storeFromNative(map[any]any{uint64(1): "a", "x": true})
	if err != nil {
		t.Fatalf("non-string key: %v", err)
	}
	if v, ok := st.Get("1"); !ok || !v.Equal(souris.String("a")) {
		t.Fatalf("key 1 = %s, %v", v, ok)
	}
	if v := floatValue(2.5); !v.Equal(souris.String("2.5")) {
		t.Fatalf("floatValue(2.5) = %s", v)
	}
	if v := floatValue(-7); !v.Equal(souris.Int64(-7)) {
		t.Fatalf("floatValue(-7) = %s", v)
	}
}

func TestLimitCodec(t *testing.T) {
	small := souris.New()
	c := LimitCodec[*souris.Store]{Inner: Store{}, MaxDecode: 40}
	b, err := c.Encode(small)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := c.Decode(b); err != nil {
		t.Fatalf("Decode small: %v", err)
	}
	big := souris.New()
	big.Insert("k", souris.String(strings.Repeat("x", 100)))
	b, _ = c.Encode(big)
	if _, err := c.Decode(b); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Decode big err = %v", err)
	}
}

func newCompressed(t *testing.T, algo Compression, maxDecoded int) *Compressed[*souris.Store] {
	t.Helper()
	c, err := NewCompressed[*souris.Store](Store{}, CompressOptions{Algorithm: algo, MaxDecoded: maxDecoded})
	if err != nil {
		t.Fatalf("NewCompressed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func repetitive() *souris.Store {
	s := souris.NewArray()
	for i := range 200 {
		s.Push(souris.String(strings.Repeat("souris ", 4)))
		s.Push(souris.Int64(int64(i % 3)))
	}
	return s
}

func TestCompressedRoundTrip(t *testing.T) {
	for _, algo := range []Compression{CompressionNone, CompressionSnappy, CompressionZstd, CompressionLZ4} {
		c := newCompressed(t, algo, 0)
		s := repetitive()
		b, err := c.Encode(s)
		if err != nil {
			t.Fatalf("%s: Encode: %v", algo, err)
		}
		if Compression(b[0]) != algo {
			t.Fatalf("%s: frame marker %s", algo, Compression(b[0]))
		}
		plain, _ := s.MarshalBinary()
		if algo != CompressionNone && len(b) >= len(plain)*3/4 {
			t.Fatalf("%s: %d bytes from %d", algo, len(b), len(plain))
		}
		got, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%s: Decode: %v", algo, err)
		}
		if !got.Equal(s) {
			t.Fatalf("%s: round trip mismatch", algo)
		}
	}
}

func TestCompressedSkipsSmallAndIncompressible(t *testing.T) {
	c := newCompressed(t, CompressionZstd, 0)
	b, err := c.Encode(souris.New())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if Compression(b[0]) != CompressionNone {
		t.Fatalf("small payload compressed with %s", Compression(b[0]))
	}

	noise := make([]byte, 512)
	x := uint32(2463534242)
	for i := range noise {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		noise[i] = byte(x)
	}
	s := souris.NewArray(souris.Binary(noise))
	b, err = c.Encode(s)
	if err != nil {
		t.Fatalf("Encode noise: %v", err)
	}
	if Compression(b[0]) != CompressionNone {
		t.Fatalf("noise compressed with %s", Compression(b[0]))
	}
	if got, err := c.Decode(b); err != nil || !got.Equal(s) {
		t.Fatalf("noise round trip: %v", err)
	}
}

func TestCompressedReadsAnyAlgorithm(t *testing.T) {
	writer := newCompressed(t, CompressionLZ4, 0)
	reader := newCompressed(t, CompressionSnappy, 0)
	b, err := writer.Encode(repetitive())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := reader.Decode(b); err != nil {
		t.Fatalf("cross-algorithm Decode: %v", err)
	}
}

func TestCompressedRejects(t *testing.T) {
	c := newCompressed(t, CompressionSnappy, 0)
	if _, err := c.Decode(nil); !errors.Is(err, ErrBadFrame) {
		t.Fatalf("empty err = %v", err)
	}
	if _, err := c.Decode([]byte{9, 0}); !errors.Is(err, ErrUnknownCompression) {
		t.Fatalf("unknown err = %v", err)
	}
	b, err := c.Encode(repetitive())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := c.Decode(b[:len(b)-3]); !errors.Is(err, ErrBadFrame) {
		t.Fatalf("truncated err = %v", err)
	}

	limited := newCompressed(t, CompressionSnappy, 100)
	if _, err := limited.Decode(b); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("limit err = %v", err)
	}
	huge := 1<<31 - 2
	forged := integer.AppendLen([]byte{byte(CompressionSnappy)}, huge)
	forged = binary.AppendUvarint(forged, uint64(huge))
	forged = append(forged, 0x00)
	if _, err := c.Decode(forged); !errors.Is(err, ErrBadFrame) {
		t.Fatalf("forged snappy length err = %v", err)
	}
	if _, err := NewCompressed[*souris.Store](Store{}, CompressOptions{Algorithm: 42}); !errors.Is(err, ErrUnknownCompression) {
		t.Fatalf("bad algorithm err = %v", err)
	}
	if c, err := ParseCompression("zstd"); err != nil || c != CompressionZstd {
		t.Fatalf("ParseCompression = %v, %v", c, err)
	}
}
