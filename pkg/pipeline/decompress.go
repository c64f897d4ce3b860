package pipeline

import (
	"context"
	"io"

	"github.com/askiada/go-chunkpipe/pkg/codec"
)

// Decompress runs a pipeline over the decoded view of r and commits the
// ordered result to w. The decoder runs sequentially in the source stage;
// only the decoded bytes are processed in parallel.
func Decompress(ctx context.Context, dec codec.Decoder, r io.Reader, w io.Writer, opts ...Option) error {
	opts = append([]Option{WithDecoder(dec)}, opts...)

	pipe, err := New(opts...)
	if err != nil {
		return err
	}

	return pipe.Run(ctx, r, w)
}
