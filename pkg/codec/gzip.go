package codec

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// GzipCodec decodes and encodes gzip streams.
type GzipCodec struct {
	level int
}

// Gzip returns a gzip codec with the default compression level.
func Gzip() *GzipCodec {
	return &GzipCodec{level: gzip.DefaultCompression}
}

// GzipLevel returns a gzip codec with the given compression level. The level
// applies to Encode only.
func GzipLevel(level int) *GzipCodec {
	return &GzipCodec{level: level}
}

func (c *GzipCodec) Name() string { return "gzip" }

func (c *GzipCodec) Decode(r io.Reader) (io.ReadCloser, error) {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open gzip reader")
	}

	return gzr, nil
}

func (c *GzipCodec) Encode(w io.Writer) (io.WriteCloser, error) {
	gzw, err := gzip.NewWriterLevel(w, c.level)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open gzip writer")
	}

	return gzw, nil
}

var (
	_ Decoder = (*GzipCodec)(nil)
	_ Encoder = (*GzipCodec)(nil)
)
