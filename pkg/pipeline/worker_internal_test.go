package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-chunkpipe/pkg/pipeline/model"
)

func TestWorkerForwardsAndReinjectsTerminal(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := New(WithWorkerCount(2))
	require.NoError(t, err)
	currRun := pipe.newRun(cancel)

	in := newQueue[*chunk]("read queue", 4)
	out := newQueue[*chunk]("write queue", 4)

	require.NoError(t, in.put(ctx, newChunk(0, []byte("x"))))
	require.NoError(t, in.put(ctx, terminalChunk()))

	err = pipe.runWorker(ctx, 0, in, out, currRun)
	require.NoError(t, err)

	// the sibling worker still finds a terminal marker on the read queue
	err = pipe.runWorker(ctx, 1, in, out, currRun)
	require.NoError(t, err)

	elem, err := out.take(ctx)
	require.NoError(t, err)
	assert.False(t, elem.terminal)
	assert.Equal(t, uint64(0), elem.seq)
	assert.Equal(t, "x", string(elem.payload))

	for i := 0; i < 2; i++ {
		elem, err = out.take(ctx)
		require.NoError(t, err)
		assert.True(t, elem.terminal)
	}
}

func TestWorkerOutOfOrderKeepsSequenceNumbers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := New(WithWorkerCount(1), WithTransform(func(_ context.Context, payload []byte) ([]byte, error) {
		doubled := append([]byte{}, payload...)
		return append(doubled, payload...), nil
	}))
	require.NoError(t, err)
	currRun := pipe.newRun(cancel)

	in := newQueue[*chunk]("read queue", 4)
	out := newQueue[*chunk]("write queue", 4)

	require.NoError(t, in.put(ctx, newChunk(7, []byte("ab"))))
	require.NoError(t, in.put(ctx, terminalChunk()))

	err = pipe.runWorker(ctx, 0, in, out, currRun)
	require.NoError(t, err)

	elem, err := out.take(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), elem.seq)
	assert.Equal(t, "abab", string(elem.payload))
}

func TestWorkerTransformErrorLatches(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := New(WithWorkerCount(1), WithTransform(func(_ context.Context, _ []byte) ([]byte, error) {
		return nil, assert.AnError
	}))
	require.NoError(t, err)
	currRun := pipe.newRun(cancel)

	in := newQueue[*chunk]("read queue", 4)
	out := newQueue[*chunk]("write queue", 4)
	require.NoError(t, in.put(ctx, newChunk(0, []byte("x"))))

	err = pipe.runWorker(ctx, 0, in, out, currRun)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	latched := currRun.slot.get()
	require.NotNil(t, latched)
	assert.Equal(t, model.WorkerStageKind, latched.Stage)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
