package souris

import (
	"bytes"

	"github.com/unkn0wn-root/souris/cursor"
)

const (
	magicLen = 10
	tagLen   = 6
)

var (
	magic       = []byte("SOURISSTOR")
	legacyMagic = []byte("DADDYSTORE")
	sizeLabel   = []byte("SIZE")
	sep         = []byte{0}
)

// Version identifies a store layout on the wire.
type Version uint8

const (
	VersionMap    Version = iota + 1 // "MAP_01"
	VersionArray                     // "ARR_01"
	VersionLegacy                    // "V0_1_0", decode only
)

var versionTags = map[Version]string{
	VersionMap:    "MAP_01",
	VersionArray:  "ARR_01",
	VersionLegacy: "V0_1_0",
}

func (v Version) String() string {
	if t, ok := versionTags[v]; ok {
		return t
	}
	return "unknown"
}

// Tag returns the 6-byte version tag written after the magic.
func (v Version) Tag() []byte { return []byte(versionTags[v]) }

func (v Version) magic() []byte {
	if v == VersionLegacy {
		return legacyMagic
	}
	return magic
}

// ParseVersion maps a version tag to its Version.
func ParseVersion(tag []byte) (Version, error) {
	for v, t := range versionTags {
		if string(tag) == t {
			return v, nil
		}
	}
	return 0, &VersionError{Tag: bytes.Clone(tag)}
}

func versionOf(s *Store) Version {
	if s.shape == ShapeArray {
		return VersionArray
	}
	return VersionMap
}

func appendHeader(dst []byte, v Version) []byte {
	dst = append(dst, v.magic()...)
	dst = append(dst, 0)
	dst = append(dst, v.Tag()...)
	return append(dst, 0)
}

// readHeader consumes the magic and version tag. The tag selects the decode
// routine, so it is validated before the magic.
func readHeader(c *cursor.Cursor) (Version, error) {
	start := c.Pos()
	m, err := c.Read(magicLen)
	if err != nil {
		return 0, decodeErr("header", start, err)
	}
	if err := c.Expect(sep); err != nil {
		return 0, decodeErr("header", c.Pos(), err)
	}
	tag, err := c.Read(tagLen)
	if err != nil {
		return 0, decodeErr("header", c.Pos(), err)
	}
	v, err := ParseVersion(tag)
	if err != nil {
		return 0, decodeErr("header", start+magicLen+1, err)
	}
	if !bytes.Equal(m, v.magic()) {
		return 0, decodeErr("header", start, ErrBadMagic)
	}
	if err := c.Expect(sep); err != nil {
		return 0, decodeErr("header", c.Pos(), err)
	}
	return v, nil
}
