package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/askiada/go-chunkpipe/pkg/pipeline/model"
)

var (
	ErrPipelineMustBeSet = errors.New("p must be set")
	ErrInputMustBeSet    = errors.New("input must be set")
	ErrOutputMustBeSet   = errors.New("output must be set")
	ErrChunkSize         = errors.New("chunk size must be greater than 0")
	ErrQueueCapacity     = errors.New("queue capacity must be greater than 0")
	ErrWorkerCount       = errors.New("worker count must be greater than 0")
	ErrCancelled         = errors.New("run cancelled")
	ErrShutdownTimeout   = errors.New("stages failed to stop before the shutdown timeout")
)

// StageError is the failure captured by the error slot, annotated with the
// stage it originated from.
type StageError struct {
	Err   error
	Stage model.StageKind
}

func (e *StageError) Error() string {
	return string(e.Stage) + " stage: " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

// errorSlot is a single-assignment cell holding the first failure of a run.
// Every capture cancels the run context so that all blocked puts and takes
// return promptly; only the first capture is kept.
type errorSlot struct {
	first   atomic.Pointer[StageError]
	cancel  context.CancelFunc
	onFirst func()
}

func newErrorSlot(cancel context.CancelFunc, onFirst func()) *errorSlot {
	return &errorSlot{cancel: cancel, onFirst: onFirst}
}

// capture records err with first-error-wins semantics and reports whether err
// is the error kept in the slot.
func (s *errorSlot) capture(stage model.StageKind, err error) bool {
	if err == nil {
		return false
	}

	stageErr := &StageError{Stage: stage, Err: err}
	won := s.first.CompareAndSwap(nil, stageErr)
	if won && s.onFirst != nil {
		s.onFirst()
	}
	s.cancel()

	return won
}

func (s *errorSlot) get() *StageError {
	return s.first.Load()
}

type errorChans struct {
	mu   sync.Mutex
	list []*errorChan
}

func (ec *errorChans) add(errChan *errorChan) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.list = append(ec.list, errChan)
}

type errorChan struct {
	c    <-chan error
	name string
}

func newErrorChan(name string, c <-chan error) *errorChan {
	return &errorChan{
		c:    c,
		name: name,
	}
}

// mergeErrors merges multiple channels of errors.
// Based on https://blog.golang.org/pipelines.
func mergeErrors(cs ...*errorChan) <-chan error {
	var wg sync.WaitGroup
	// The output channel has the capacity to hold as many errors as there are
	// error channels, so it never blocks even if the caller stops reading.
	out := make(chan error, len(cs))

	output := func(c *errorChan) {
		defer wg.Done()
		if c.c == nil {
			return
		}
		for n := range c.c {
			out <- errors.Wrap(n, c.name)
		}
	}
	wg.Add(len(cs))
	for _, c := range cs {
		go output(c)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
