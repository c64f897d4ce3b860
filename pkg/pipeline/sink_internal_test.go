package pipeline

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkReordersAndCountsTerminals(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := New(WithWorkerCount(3))
	require.NoError(t, err)
	currRun := pipe.newRun(cancel)

	writeQueue := newQueue[*chunk]("write queue", 16)
	var got bytes.Buffer

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pipe.runSink(ctx, writeQueue, NewWriterSink(&got), currRun)
	}()

	// chunks arrive in arbitrary completion order
	require.NoError(t, writeQueue.put(ctx, newChunk(1, []byte("b"))))
	require.NoError(t, writeQueue.put(ctx, newChunk(2, []byte("c"))))
	require.NoError(t, writeQueue.put(ctx, newChunk(0, []byte("a"))))
	require.NoError(t, writeQueue.put(ctx, terminalChunk()))
	require.NoError(t, writeQueue.put(ctx, terminalChunk()))

	select {
	case <-done:
		t.Fatal("sink stopped before one terminal chunk per worker")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, writeQueue.put(ctx, terminalChunk()))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sink did not stop after the last terminal chunk")
	}

	assert.Equal(t, "abc", got.String())
	assert.Equal(t, StateClosed, pipe.State())
	assert.Nil(t, currRun.slot.get())
}

type flushCloseRecorder struct {
	bytes.Buffer
	flushed bool
	closed  bool
}

func (fcr *flushCloseRecorder) Flush() error {
	fcr.flushed = true

	return nil
}

func (fcr *flushCloseRecorder) Close() error {
	fcr.closed = true

	return nil
}

func TestSinkFlushesAndClosesOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	pipe, err := New(WithWorkerCount(2))
	require.NoError(t, err)
	currRun := pipe.newRun(cancel)

	writeQueue := newQueue[*chunk]("write queue", 4)
	rec := &flushCloseRecorder{}

	done := make(chan error, 1)
	go func() {
		done <- pipe.runSink(ctx, writeQueue, NewWriterSink(rec), currRun)
	}()

	cancel()

	select {
	case sinkErr := <-done:
		assert.ErrorIs(t, sinkErr, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("sink did not stop after cancellation")
	}

	assert.True(t, rec.flushed)
	assert.True(t, rec.closed)
	assert.Equal(t, StateClosed, pipe.State())
}

func TestSinkWriteErrorLatches(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := New(WithWorkerCount(1))
	require.NoError(t, err)
	currRun := pipe.newRun(cancel)

	writeQueue := newQueue[*chunk]("write queue", 4)
	require.NoError(t, writeQueue.put(ctx, newChunk(0, []byte("x"))))

	sinkErr := pipe.runSink(ctx, writeQueue, NewWriterSink(&flakySinkWriter{err: assert.AnError}), currRun)
	require.Error(t, sinkErr)
	assert.ErrorIs(t, sinkErr, assert.AnError)
	require.NotNil(t, currRun.slot.get())
}

type flakySinkWriter struct {
	err error
}

func (fsw *flakySinkWriter) Write(_ []byte) (int, error) {
	return 0, fsw.err
}
