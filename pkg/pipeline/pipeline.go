package pipeline

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-chunkpipe/internal/logging"
	"github.com/askiada/go-chunkpipe/pkg/codec"
	"github.com/askiada/go-chunkpipe/pkg/pipeline/model"
)

// TransformFunc is the per-chunk transformation applied by the workers. The
// payload is owned by the callee; the returned slice may alias it.
type TransformFunc func(ctx context.Context, payload []byte) ([]byte, error)

// RunState is the lifecycle state of a pipeline run.
type RunState int32

const (
	StateIdle RunState = iota
	StateRunning
	// StateDraining is entered when the source has emitted its terminal
	// chunk normally and the downstream stages are finishing inflight work.
	StateDraining
	// StateFailing is entered when the error slot is first written.
	StateFailing
	StateClosed
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateFailing:
		return "failing"
	case StateClosed:
		return "closed"
	}

	return "unknown"
}

// Pipeline reads a sequential stream, fans the chunks out to concurrent
// workers and commits the transformed chunks to a sink in their original
// order. A Pipeline must not be shared by concurrent runs.
type Pipeline struct {
	transform       TransformFunc
	decoder         codec.Decoder
	log             *zap.Logger
	opts            []model.RunOption
	chunkSize       int
	queueCapacity   int
	workerCount     int
	shutdownTimeout time.Duration
	state           atomic.Int32
}

// New creates a new pipeline.
func New(opts ...Option) (*Pipeline, error) {
	pipe := &Pipeline{
		chunkSize:       DefaultChunkSize,
		queueCapacity:   DefaultQueueCapacity,
		workerCount:     DefaultWorkerCount(),
		shutdownTimeout: DefaultShutdownTimeout,
		transform:       passThrough,
		log:             logging.NewNop().Logger,
	}

	for _, opt := range opts {
		opt(pipe)
	}

	switch {
	case pipe.chunkSize < 1:
		return nil, ErrChunkSize
	case pipe.queueCapacity < 1:
		return nil, ErrQueueCapacity
	case pipe.workerCount < 1:
		return nil, ErrWorkerCount
	}

	return pipe, nil
}

func passThrough(_ context.Context, payload []byte) ([]byte, error) {
	return payload, nil
}

// State returns the lifecycle state of the current run.
func (p *Pipeline) State() RunState {
	return RunState(p.state.Load())
}

func (p *Pipeline) transition(from, to RunState) bool {
	return p.state.CompareAndSwap(int32(from), int32(to))
}

// stageRef bundles the metadata a stage needs to report to the run options.
type stageRef struct {
	parent *model.StageInfo
	stage  *model.StageInfo
	kind   model.StageKind
}

// run holds the state shared by the stages of a single Run call.
type run struct {
	id         string
	slot       *errorSlot
	errcs      *errorChans
	sourceInfo stageRef
	workerInfo stageRef
	sinkInfo   stageRef
	startTime  time.Time
}

func (p *Pipeline) newRun(cancel context.CancelFunc) *run {
	sourceStage := &model.StageInfo{Kind: model.SourceStageKind, Name: "source", Concurrent: 1}
	workerStage := &model.StageInfo{Kind: model.WorkerStageKind, Name: "workers", Concurrent: p.workerCount}
	sinkStage := &model.StageInfo{Kind: model.SinkStageKind, Name: "sink", Concurrent: 1}

	newRun := &run{
		id:         uuid.NewString(),
		errcs:      &errorChans{},
		startTime:  time.Now(),
		sourceInfo: stageRef{parent: model.StartStage, stage: sourceStage, kind: model.SourceStageKind},
		workerInfo: stageRef{parent: sourceStage, stage: workerStage, kind: model.WorkerStageKind},
		sinkInfo:   stageRef{parent: workerStage, stage: sinkStage, kind: model.SinkStageKind},
	}
	newRun.slot = newErrorSlot(cancel, func() {
		if !p.transition(StateRunning, StateFailing) {
			p.transition(StateDraining, StateFailing)
		}
	})

	return newRun
}

// Run starts the pipeline over input and waits for it to finish. Exactly one
// error is returned per run: the first one latched by any stage.
func (p *Pipeline) Run(ctx context.Context, input io.Reader, output io.Writer) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}
	if input == nil {
		return ErrInputMustBeSet
	}
	if output == nil {
		return ErrOutputMustBeSet
	}

	dCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	currRun := p.newRun(cancel)

	err := p.prepareRun(currRun)
	if err != nil {
		return err
	}

	reader := input
	if p.decoder != nil {
		decoded, decErr := p.decoder.Decode(input)
		if decErr != nil {
			return errors.Wrap(decErr, "unable to open decoder")
		}
		defer decoded.Close()
		reader = decoded
	}

	readQueue := newQueue[*chunk]("read queue", p.queueCapacity)
	writeQueue := newQueue[*chunk]("write queue", p.queueCapacity)
	sink := NewWriterSink(output)

	p.state.Store(int32(StateRunning))
	p.log.Info("run started",
		zap.String("run_id", currRun.id),
		zap.Int("chunk_size", p.chunkSize),
		zap.Int("queue_capacity", p.queueCapacity),
		zap.Int("worker_count", p.workerCount),
	)

	p.goStage(currRun, currRun.sourceInfo, func() error {
		return p.runSource(dCtx, reader, readQueue, currRun)
	})
	p.goStage(currRun, currRun.workerInfo, func() error {
		return p.runWorkers(dCtx, readQueue, writeQueue, currRun)
	})
	p.goStage(currRun, currRun.sinkInfo, func() error {
		return p.runSink(dCtx, writeQueue, sink, currRun)
	})

	joinErr := p.waitForRun(dCtx, currRun)

	runErr := error(nil)
	if stageErr := currRun.slot.get(); stageErr != nil {
		runErr = stageErr
	} else if joinErr != nil {
		runErr = joinErr
	}

	if finishErr := p.finishRun(); finishErr != nil && runErr == nil {
		runErr = finishErr
	}

	p.log.Info("run finished",
		zap.String("run_id", currRun.id),
		zap.Duration("elapsed", time.Since(currRun.startTime)),
		zap.Stringer("state", p.State()),
		zap.Error(runErr),
	)

	return runErr
}

func (p *Pipeline) prepareRun(currRun *run) error {
	for _, opt := range p.opts {
		err := opt.New()
		if err != nil {
			return errors.Wrap(err, "unable to apply run option")
		}
		for _, ref := range []stageRef{currRun.sourceInfo, currRun.workerInfo, currRun.sinkInfo} {
			err = opt.PrepareStage(ref.parent, ref.stage)
			if err != nil {
				return errors.Wrap(err, "unable to prepare stage")
			}
		}
	}

	return nil
}

func (p *Pipeline) finishRun() error {
	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish run option")
		}
	}

	return nil
}

// goStage runs fn in its own goroutine and reports its completion on a named
// error channel, so waitForRun can join all stages.
func (p *Pipeline) goStage(currRun *run, ref stageRef, fn func() error) {
	errC := make(chan error, 1)
	currRun.errcs.add(newErrorChan(ref.stage.Name, errC))

	go func() {
		defer close(errC)
		err := fn()
		if err != nil {
			currRun.slot.capture(ref.kind, err)
			p.log.Error("stage failed",
				zap.String("run_id", currRun.id),
				zap.String("stage", ref.stage.Name),
				zap.Error(err),
			)
			errC <- err
		}
		for _, opt := range p.opts {
			if optErr := opt.OnStageDone(ref.stage, err); optErr != nil {
				p.log.Warn("stage done option failed",
					zap.String("run_id", currRun.id),
					zap.String("stage", ref.stage.Name),
					zap.Error(optErr),
				)
			}
		}
	}()
}

// waitForRun waits for all stage error channels to close. Once the run
// context is cancelled, the remaining join is bounded by the shutdown
// timeout.
func (p *Pipeline) waitForRun(ctx context.Context, currRun *run) error {
	merged := mergeErrors(currRun.errcs.list...)
	cancelled := ctx.Done()

	var timeoutC <-chan time.Time
	for {
		select {
		case _, ok := <-merged:
			if !ok {
				return nil
			}
		case <-cancelled:
			timer := time.NewTimer(p.shutdownTimeout)
			defer timer.Stop()
			timeoutC = timer.C
			cancelled = nil
		case <-timeoutC:
			return ErrShutdownTimeout
		}
	}
}

func (p *Pipeline) onStageOutput(parentStage, stage *model.StageInfo, waitDuration, workDuration time.Duration, payloadSize int) error {
	for _, opt := range p.opts {
		err := opt.OnStageOutput(parentStage, stage, waitDuration, workDuration, payloadSize)
		if err != nil {
			return errors.Wrap(err, "unable to run stage output option")
		}
	}

	return nil
}
