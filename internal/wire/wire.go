package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

const (
	version   byte = 1
	kindDB    byte = 1
	kindIndex byte = 2

	// MaxNameLen bounds database names so they fit the u16 index length.
	MaxNameLen = 0xFFFF
)

var (
	ErrCorrupt  = errors.New("wire: corrupt entry")
	ErrChecksum = fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	ErrName     = errors.New("wire: invalid database name")
	magic4      = [...]byte{'S', 'R', 'S', 'C'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// DB: magic(4) | ver(1) | kind(1=db) | gen(u64 be) | sum(u64 be) | vlen(u32 be) | payload(vlen)
//
// sum is xxhash64 of payload.
func EncodeDB(gen uint64, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 8 + 8 + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindDB)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], xxhash.Sum64(payload))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeDB validates an envelope written by EncodeDB. The returned payload
// aliases b.
func DecodeDB(b []byte) (gen uint64, payload []byte, err error) {
	const hdr = 4 + 1 + 1 + 8 + 8 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindDB {
		return 0, nil, ErrCorrupt
	}

	off := 6
	gen = binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	sum := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off { // exact: no trailing bytes
		return 0, nil, ErrCorrupt
	}

	payload = b[off:]
	if xxhash.Sum64(payload) != sum {
		return 0, nil, ErrChecksum
	}
	return gen, payload, nil
}

// Index:
//
//	magic(4) | ver(1) | kind(2=index) | sum(u64 be) | n(u32 be)
//	nameLen(u16 be) | name(nameLen) * n
//
// sum is xxhash64 of everything after it.
func EncodeIndex(names []string) ([]byte, error) {
	total := 4 + 1 + 1 + 8 + 4
	for _, n := range names {
		if l := len(n); l == 0 || l > MaxNameLen {
			return nil, fmt.Errorf("%w: length %d", ErrName, l)
		}
		total += 2 + len(n)
	}

	buf := make([]byte, 0, total)
	buf = append(buf, magic4[:]...)
	buf = append(buf, version, kindIndex)
	buf = append(buf, make([]byte, 8)...) // sum, filled below
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(names)))
	for _, n := range names {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(n)))
		buf = append(buf, n...)
	}
	binary.BigEndian.PutUint64(buf[6:14], xxhash.Sum64(buf[14:]))
	return buf, nil
}

func DecodeIndex(b []byte) ([]string, error) {
	const hdr = 4 + 1 + 1 + 8 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindIndex {
		return nil, ErrCorrupt
	}
	if xxhash.Sum64(b[14:]) != binary.BigEndian.Uint64(b[6:14]) {
		return nil, ErrChecksum
	}

	off := 14
	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4

	// each name needs at least 3 bytes; never trust n for preallocation
	names := make([]string, 0, min(n, (len(b)-off)/3))
	for i := 0; i < n; i++ {
		if off+2 > len(b) {
			return nil, ErrCorrupt
		}
		l := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if l == 0 || l > len(b)-off {
			return nil, ErrCorrupt
		}
		names = append(names, string(b[off:off+l]))
		off += l
	}
	if off != len(b) {
		return nil, ErrCorrupt
	}
	return names, nil
}
