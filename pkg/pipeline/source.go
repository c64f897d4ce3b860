package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
)

// runSource sequentially slices the decoded stream into chunks of chunkSize
// bytes, assigns sequence numbers starting at 0 and pushes them onto the read
// queue. The terminal chunk is pushed in every exit path, including failures,
// so the workers never block on a producer that has already stopped.
func (p *Pipeline) runSource(ctx context.Context, rd io.Reader, out *queue[*chunk], run *run) error {
	var seq uint64

	for {
		buf := make([]byte, p.chunkSize)
		readStart := time.Now()
		n, err := io.ReadFull(rd, buf)
		readDuration := time.Since(readStart)

		if n > 0 {
			putStart := time.Now()
			if putErr := out.put(ctx, newChunk(seq, buf[:n])); putErr != nil {
				return putErr
			}
			seq++

			if optErr := p.onStageOutput(run.sourceInfo.parent, run.sourceInfo.stage, time.Since(putStart), readDuration, n); optErr != nil {
				run.slot.capture(run.sourceInfo.kind, optErr)
				_ = out.put(ctx, terminalChunk())

				return optErr
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			p.transition(StateRunning, StateDraining)
			// the terminal is sent with best effort, a cancelled run no
			// longer needs it to unblock the workers
			_ = out.put(ctx, terminalChunk())

			return nil
		default:
			err = errors.Wrap(err, "unable to read input")
			run.slot.capture(run.sourceInfo.kind, err)
			_ = out.put(ctx, terminalChunk())

			return err
		}
	}
}
