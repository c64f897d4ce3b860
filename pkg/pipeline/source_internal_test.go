package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-chunkpipe/pkg/pipeline/model"
)

func TestSourceChunking(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := New(WithChunkSize(4))
	require.NoError(t, err)
	currRun := pipe.newRun(cancel)

	readQueue := newQueue[*chunk]("read queue", 16)
	err = pipe.runSource(ctx, bytes.NewReader([]byte("0123456789")), readQueue, currRun)
	require.NoError(t, err)

	wantPayloads := []string{"0123", "4567", "89"}
	for seq, want := range wantPayloads {
		elem, takeErr := readQueue.take(ctx)
		require.NoError(t, takeErr)
		assert.False(t, elem.terminal)
		assert.Equal(t, uint64(seq), elem.seq)
		assert.Equal(t, want, string(elem.payload))
	}

	elem, err := readQueue.take(ctx)
	require.NoError(t, err)
	assert.True(t, elem.terminal)
	assert.Empty(t, elem.payload)
}

type shortReader struct {
	data []byte
	err  error
}

func (sr *shortReader) Read(p []byte) (int, error) {
	if len(sr.data) == 0 {
		return 0, sr.err
	}
	n := copy(p, sr.data)
	sr.data = sr.data[n:]

	return n, nil
}

func TestSourceErrorLatchesAndUnblocksConsumers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := New(WithChunkSize(4))
	require.NoError(t, err)
	currRun := pipe.newRun(cancel)

	readQueue := newQueue[*chunk]("read queue", 16)
	err = pipe.runSource(ctx, &shortReader{data: []byte("01"), err: assert.AnError}, readQueue, currRun)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	latched := currRun.slot.get()
	require.NotNil(t, latched)
	assert.Equal(t, model.SourceStageKind, latched.Stage)

	// the run is cancelled, a consumer of the read queue cannot deadlock
	_, err = readQueue.take(ctx)
	assert.ErrorIs(t, err, ErrCancelled)
}
