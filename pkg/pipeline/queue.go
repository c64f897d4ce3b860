package pipeline

import (
	"context"

	"github.com/pkg/errors"
)

// queue is a fixed-capacity FIFO with blocking put and take. Both unblock and
// return ErrCancelled as soon as the run context is cancelled. FIFO order is
// guaranteed only between a single producer and a single consumer sharing the
// queue instance.
type queue[T any] struct {
	name string
	ch   chan T
}

func newQueue[T any](name string, capacity int) *queue[T] {
	return &queue[T]{name: name, ch: make(chan T, capacity)}
}

func (q *queue[T]) put(ctx context.Context, elem T) error {
	// we check the context first so that cancellation wins over a free slot
	select {
	case <-ctx.Done():
		return errors.Wrap(ErrCancelled, q.name)
	default:
	}

	select {
	case <-ctx.Done():
		return errors.Wrap(ErrCancelled, q.name)
	case q.ch <- elem:
		return nil
	}
}

func (q *queue[T]) take(ctx context.Context) (T, error) {
	var zero T

	// same as put, cancellation wins over buffered elements
	select {
	case <-ctx.Done():
		return zero, errors.Wrap(ErrCancelled, q.name)
	default:
	}

	select {
	case <-ctx.Done():
		return zero, errors.Wrap(ErrCancelled, q.name)
	case elem := <-q.ch:
		return elem, nil
	}
}
