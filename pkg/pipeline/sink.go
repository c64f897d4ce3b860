package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
)

// Sink is the sequential, ordered byte consumer at the end of a run.
type Sink interface {
	io.Writer
	Flush() error
	Close() error
}

type writerSink struct {
	w io.Writer
}

func (ws *writerSink) Write(data []byte) (int, error) {
	return ws.w.Write(data)
}

func (ws *writerSink) Flush() error {
	if f, ok := ws.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}

	return nil
}

func (ws *writerSink) Close() error {
	if c, ok := ws.w.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// NewWriterSink adapts an io.Writer into a Sink. Flush and Close are
// forwarded when the writer supports them and are no-ops otherwise.
func NewWriterSink(w io.Writer) Sink {
	if s, ok := w.(Sink); ok {
		return s
	}

	return &writerSink{w: w}
}

// runSink is the single consumer of the write queue. It restores the original
// chunk order with a pending buffer keyed by sequence number and commits the
// payloads to the sink. It stops after observing one terminal chunk per
// worker, or as soon as the run is cancelled, then flushes and closes the
// sink in every case.
func (p *Pipeline) runSink(ctx context.Context, in *queue[*chunk], sink Sink, run *run) error {
	var retErr error

	var expectedSeq uint64
	pending := make(map[uint64]*chunk)
	terminalsReceived := 0

outer:
	for terminalsReceived < p.workerCount {
		takeStart := time.Now()
		elem, err := in.take(ctx)
		if err != nil {
			// cancelled run, the pending buffer is discarded
			retErr = err

			break outer
		}
		waitDuration := time.Since(takeStart)

		if elem.terminal {
			terminalsReceived++

			continue
		}

		pending[elem.seq] = elem

		writeStart := time.Now()
		written := 0
		for {
			next, ok := pending[expectedSeq]
			if !ok {
				break
			}
			delete(pending, expectedSeq)

			if _, err := sink.Write(next.payload); err != nil {
				err = errors.Wrap(err, "unable to write to sink")
				run.slot.capture(run.sinkInfo.kind, err)
				retErr = err

				break outer
			}
			written += len(next.payload)
			expectedSeq++
		}

		if optErr := p.onStageOutput(run.sinkInfo.parent, run.sinkInfo.stage, waitDuration, time.Since(writeStart), written); optErr != nil {
			run.slot.capture(run.sinkInfo.kind, optErr)
			retErr = optErr

			break outer
		}
	}

	if err := sink.Flush(); err != nil {
		err = errors.Wrap(err, "unable to flush sink")
		run.slot.capture(run.sinkInfo.kind, err)
		if retErr == nil {
			retErr = err
		}
	}
	if err := sink.Close(); err != nil {
		err = errors.Wrap(err, "unable to close sink")
		run.slot.capture(run.sinkInfo.kind, err)
		if retErr == nil {
			retErr = err
		}
	}

	p.state.Store(int32(StateClosed))

	for _, opt := range p.opts {
		if err := opt.AfterSink(run.sinkInfo.stage, time.Since(run.startTime)); err != nil && retErr == nil {
			retErr = errors.Wrap(err, "unable to run after sink option")
		}
	}

	return retErr
}
