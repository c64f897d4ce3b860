package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// runWorkers starts workerCount concurrent consumers of the read queue. Each
// worker applies the transform and forwards the result, with its original
// sequence number, to the write queue. Completion order between workers is
// arbitrary; the sink restores the original order.
func (p *Pipeline) runWorkers(ctx context.Context, in, out *queue[*chunk], run *run) error {
	errGrp := &errgroup.Group{}
	for goIdx := 0; goIdx < p.workerCount; goIdx++ {
		localGoIdx := goIdx
		errGrp.Go(func() error {
			return p.runWorker(ctx, localGoIdx, in, out, run)
		})
	}

	return errGrp.Wait()
}

func (p *Pipeline) runWorker(ctx context.Context, goIdx int, in, out *queue[*chunk], run *run) error {
	for {
		takeStart := time.Now()
		elem, err := in.take(ctx)
		if err != nil {
			return errors.Wrapf(err, "go routine %d:", goIdx)
		}
		waitDuration := time.Since(takeStart)

		if elem.terminal {
			// hand the marker back so the sibling workers observe it too,
			// then signal this worker's own completion downstream
			if err := in.put(ctx, elem); err != nil {
				return errors.Wrapf(err, "go routine %d:", goIdx)
			}
			if err := out.put(ctx, terminalChunk()); err != nil {
				return errors.Wrapf(err, "go routine %d:", goIdx)
			}

			return nil
		}

		workStart := time.Now()
		payload, err := p.transform(ctx, elem.payload)
		if err != nil {
			err = errors.Wrapf(err, "go routine %d:", goIdx)
			// the error is latched before the terminal marker goes out, so
			// the sink can still account for this worker
			run.slot.capture(run.workerInfo.kind, err)
			_ = out.put(ctx, terminalChunk())

			return err
		}
		workDuration := time.Since(workStart)

		if err := out.put(ctx, newChunk(elem.seq, payload)); err != nil {
			return errors.Wrapf(err, "go routine %d:", goIdx)
		}

		if optErr := p.onStageOutput(run.workerInfo.parent, run.workerInfo.stage, waitDuration, workDuration, len(payload)); optErr != nil {
			run.slot.capture(run.workerInfo.kind, optErr)
			_ = out.put(ctx, terminalChunk())

			return optErr
		}
	}
}
