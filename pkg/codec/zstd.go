package codec

import (
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// ZstdCodec decodes and encodes zstandard streams.
type ZstdCodec struct {
	level zstd.EncoderLevel
}

// Zstd returns a zstd codec with the default compression level.
func Zstd() *ZstdCodec {
	return &ZstdCodec{level: zstd.SpeedDefault}
}

// ZstdLevel returns a zstd codec with the given compression level. The level
// applies to Encode only.
func ZstdLevel(level zstd.EncoderLevel) *ZstdCodec {
	return &ZstdCodec{level: level}
}

func (c *ZstdCodec) Name() string { return "zstd" }

func (c *ZstdCodec) Decode(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open zstd reader")
	}

	return zr.IOReadCloser(), nil
}

func (c *ZstdCodec) Encode(w io.Writer) (io.WriteCloser, error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(c.level))
	if err != nil {
		return nil, errors.Wrap(err, "unable to open zstd writer")
	}

	return zw, nil
}

var (
	_ Decoder = (*ZstdCodec)(nil)
	_ Encoder = (*ZstdCodec)(nil)
)
