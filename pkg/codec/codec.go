// Package codec defines the compression collaborators of the pipeline: a
// sequential stream decoder and its encoding counterpart. The pipeline treats
// both as opaque; it never seeks into the compressed representation.
package codec

import "io"

// Decoder wraps a compressed stream with its decoded view.
type Decoder interface {
	// Name returns the name of the underlying format.
	Name() string
	// Decode returns a reader producing the decoded bytes of r. The caller
	// is responsible for closing it.
	Decode(r io.Reader) (io.ReadCloser, error)
}

// Encoder wraps a writer so that bytes written to the returned WriteCloser
// are compressed into w. Closing the WriteCloser flushes the codec footer;
// it does not close w.
type Encoder interface {
	// Name returns the name of the underlying format.
	Name() string
	// Encode returns a writer compressing into w.
	Encode(w io.Writer) (io.WriteCloser, error)
}
