package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
)

func mustDecodeDB(t *testing.T, b []byte) (uint64, []byte) {
	t.Helper()
	gen, p, err := DecodeDB(b)
	if err != nil {
		t.Fatalf("DecodeDB error: %v", err)
	}
	return gen, p
}

func mustEncodeIndex(t *testing.T, names []string) []byte {
	t.Helper()
	b, err := EncodeIndex(names)
	if err != nil {
		t.Fatalf("EncodeIndex error: %v", err)
	}
	return b
}

func TestDBRoundTripEmptyAndNonEmpty(t *testing.T) {
	cases := []struct {
		gen     uint64
		payload []byte
	}{
		{0, nil},
		{42, []byte("hello")},
		{math.MaxUint64, []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		enc := EncodeDB(tc.gen, tc.payload)
		gen, p := mustDecodeDB(t, enc)
		if gen != tc.gen {
			t.Fatalf("gen mismatch: got %d want %d", gen, tc.gen)
		}
		if !bytes.Equal(p, tc.payload) {
			t.Fatalf("payload mismatch: got %x want %x", p, tc.payload)
		}
	}
}

func TestDBRejectsTrailingBytes(t *testing.T) {
	enc := EncodeDB(7, []byte("x"))
	enc = append(enc, 0xDE, 0xAD)
	if _, _, err := DecodeDB(enc); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("trailing bytes err = %v", err)
	}
}

func TestDBCorruptHeadersAndLengths(t *testing.T) {
	enc := EncodeDB(1, []byte("abc"))

	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, _, err := DecodeDB(badMagic); err == nil {
		t.Fatalf("expected error on bad magic")
	}

	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, _, err := DecodeDB(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	badKind := append([]byte(nil), enc...)
	badKind[5] = kindIndex
	if _, _, err := DecodeDB(badKind); err == nil {
		t.Fatalf("expected error on bad kind")
	}

	// vlen is at offset 22..25 (4 magic +1 ver +1 kind +8 gen +8 sum)
	tooLong := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(tooLong[22:26], uint32(len("abc")+1))
	if _, _, err := DecodeDB(tooLong); err == nil {
		t.Fatalf("expected error on vlen beyond buffer")
	}

	if _, _, err := DecodeDB(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error on truncated buffer")
	}
}

func TestDBChecksum(t *testing.T) {
	enc := EncodeDB(3, []byte("payload"))
	flipped := append([]byte(nil), enc...)
	flipped[len(flipped)-1] ^= 0x01
	if _, _, err := DecodeDB(flipped); !errors.Is(err, ErrChecksum) || !errors.Is(err, ErrCorrupt) {
		t.Fatalf("flipped payload err = %v", err)
	}
}

func TestDBZeroCopyPayload(t *testing.T) {
	enc := EncodeDB(1, []byte("Z"))
	_, p := mustDecodeDB(t, enc)
	if &p[0] != &enc[len(enc)-1] {
		t.Fatalf("expected payload to alias the envelope")
	}
}

func TestIndexRoundTrip(t *testing.T) {
	cases := [][]string{
		nil,
		{"a"},
		{"alpha", "beta", "gamma"},
		{strings.Repeat("n", MaxNameLen)},
	}
	for _, names := range cases {
		got, err := DecodeIndex(mustEncodeIndex(t, names))
		if err != nil {
			t.Fatalf("DecodeIndex: %v", err)
		}
		if len(got) != len(names) {
			t.Fatalf("len mismatch: got %d want %d", len(got), len(names))
		}
		for i := range names {
			if got[i] != names[i] {
				t.Fatalf("name %d: got %q want %q", i, got[i], names[i])
			}
		}
	}
}

func TestIndexNameValidation(t *testing.T) {
	if _, err := EncodeIndex([]string{""}); !errors.Is(err, ErrName) {
		t.Fatalf("empty name err = %v", err)
	}
	if _, err := EncodeIndex([]string{strings.Repeat("a", MaxNameLen+1)}); !errors.Is(err, ErrName) {
		t.Fatalf("long name err = %v", err)
	}
}

// reseal recomputes the checksum so structural checks are reached.
func reseal(b []byte) []byte {
	out := append([]byte(nil), b...)
	binary.BigEndian.PutUint64(out[6:14], xxhash.Sum64(out[14:]))
	return out
}

func TestIndexCorrupt(t *testing.T) {
	enc := mustEncodeIndex(t, []string{"db"})

	if _, err := DecodeIndex(append(append([]byte(nil), enc...), 0)); !errors.Is(err, ErrChecksum) {
		t.Fatalf("unsealed trailing err = %v", err)
	}
	if _, err := DecodeIndex(reseal(append(append([]byte(nil), enc...), 0))); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("trailing err = %v", err)
	}

	bogusN := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(bogusN[14:18], math.MaxUint32)
	if _, err := DecodeIndex(reseal(bogusN)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("bogus n err = %v", err)
	}

	badLen := append([]byte(nil), enc...)
	binary.BigEndian.PutUint16(badLen[18:20], 5)
	if _, err := DecodeIndex(reseal(badLen)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("name length beyond buffer err = %v", err)
	}

	if _, err := DecodeIndex(EncodeDB(1, nil)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("db envelope read as index err = %v", err)
	}
}
