package codec

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/unkn0wn-root/souris/cursor"
	"github.com/unkn0wn-root/souris/integer"
)

// Compression identifies the algorithm of a compressed frame. The values are
// written to storage and must not change.
type Compression uint8

const (
	CompressionNone   Compression = 0
	CompressionSnappy Compression = 1
	CompressionZstd   Compression = 2
	CompressionLZ4    Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses the String form of a Compression.
func ParseCompression(name string) (Compression, error) {
	for c := CompressionNone; c <= CompressionLZ4; c++ {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
}

// CompressOptions configures Compressed.
type CompressOptions struct {
	// Algorithm used for new frames. Frames written with any algorithm can
	// be read regardless of this setting.
	Algorithm Compression
	// MinSize is the smallest encoded payload worth compressing.
	// Default: 64 bytes.
	MinSize int
	// MaxDecoded caps the uncompressed size accepted on Decode.
	// Default: cursor.MaxLen.
	MaxDecoded int
}

// Compressed wraps Inner so that payloads are stored as
//
//	algorithm (1 byte) | body                         for CompressionNone
//	algorithm (1 byte) | raw length (integer) | body  otherwise
//
// A payload is only kept compressed when that saves at least a quarter of
// its size. Construct with NewCompressed and Close it when done.
type Compressed[V any] struct {
	inner Codec[V]
	opts  CompressOptions
	zenc  *zstd.Encoder
	zdec  *zstd.Decoder
}

var _ Codec[[]byte] = (*Compressed[[]byte])(nil)

func NewCompressed[V any](inner Codec[V], opts CompressOptions) (*Compressed[V], error) {
	if inner == nil {
		return nil, fmt.Errorf("codec: compressed: inner codec is nil")
	}
	if opts.Algorithm > CompressionLZ4 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, opts.Algorithm)
	}
	if opts.MinSize <= 0 {
		opts.MinSize = 64
	}
	c := &Compressed[V]{inner: inner, opts: opts}

	var err error
	if c.zenc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)); err != nil {
		return nil, fmt.Errorf("codec: zstd encoder: %w", err)
	}
	c.zdec, err = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(uint64(c.decodeLimit())),
	)
	if err != nil {
		c.zenc.Close()
		return nil, fmt.Errorf("codec: zstd decoder: %w", err)
	}
	return c, nil
}

// Close releases the zstd state.
func (c *Compressed[V]) Close() error {
	c.zdec.Close()
	return c.zenc.Close()
}

func (c *Compressed[V]) Encode(v V) ([]byte, error) {
	raw, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.opts.Algorithm == CompressionNone || len(raw) < c.opts.MinSize {
		return c.plain(raw), nil
	}

	var body []byte
	switch c.opts.Algorithm {
	case CompressionSnappy:
		body = snappy.Encode(nil, raw)
	case CompressionZstd:
		body = c.zenc.EncodeAll(raw, nil)
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("codec: lz4 compress: %w", err)
		}
		if n == 0 {
			return c.plain(raw), nil
		}
		body = dst[:n]
	}

	out := make([]byte, 0, 1+integer.MaxEncodedLen+len(body))
	out = append(out, byte(c.opts.Algorithm))
	out = integer.AppendLen(out, len(raw))
	if len(out)+len(body) >= len(raw)+1-len(raw)/4 {
		return c.plain(raw), nil
	}
	return append(out, body...), nil
}

func (c *Compressed[V]) plain(raw []byte) []byte {
	out := make([]byte, 0, len(raw)+1)
	out = append(out, byte(CompressionNone))
	return append(out, raw...)
}

func (c *Compressed[V]) Decode(b []byte) (V, error) {
	var zero V
	raw, err := c.decompress(b)
	if err != nil {
		return zero, err
	}
	return c.inner.Decode(raw)
}

const (
	lz4MaxRatio    = 255 // an lz4 block expands at most about 255x
	snappyMaxRatio = 22  // a 3-byte snappy copy emits at most 64 bytes
	zstdPrealloc   = 1 << 20
)

func (c *Compressed[V]) decodeLimit() int {
	if c.opts.MaxDecoded > 0 {
		return c.opts.MaxDecoded
	}
	return cursor.MaxLen
}

func (c *Compressed[V]) decompress(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadFrame)
	}
	algo := Compression(b[0])
	if algo == CompressionNone {
		return b[1:], nil
	}
	if algo > CompressionLZ4 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, b[0])
	}

	cur, err := cursor.New(b[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	n, err := integer.DecodeLen(cur)
	if err != nil {
		return nil, fmt.Errorf("%w: raw length: %v", ErrBadFrame, err)
	}
	if limit := c.decodeLimit(); n > limit {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, n, limit)
	}
	body := b[1+cur.Pos():]

	var raw []byte
	switch algo {
	case CompressionSnappy:
		if n > snappyMaxRatio*len(body) {
			return nil, fmt.Errorf("%w: snappy length %d from %d bytes", ErrBadFrame, n, len(body))
		}
		if dl, err := snappy.DecodedLen(body); err != nil || dl != n {
			return nil, fmt.Errorf("%w: snappy length %d, want %d", ErrBadFrame, dl, n)
		}
		raw, err = snappy.Decode(make([]byte, n), body)
	case CompressionZstd:
		raw, err = c.zdec.DecodeAll(body, make([]byte, 0, min(n, zstdPrealloc)))
	case CompressionLZ4:
		if n > lz4MaxRatio*len(body)+lz4MaxRatio {
			return nil, fmt.Errorf("%w: lz4 length %d from %d bytes", ErrBadFrame, n, len(body))
		}
		raw = make([]byte, n)
		var m int
		m, err = lz4.UncompressBlock(body, raw)
		raw = raw[:m]
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadFrame, algo, err)
	}
	if len(raw) != n {
		return nil, fmt.Errorf("%w: %s produced %d bytes, want %d", ErrBadFrame, algo, len(raw), n)
	}
	return raw, nil
}
