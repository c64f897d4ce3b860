package pipeline_test

import (
	"math/rand"
	"sync/atomic"
	"testing"
	"time"
)

func randomPayload(t *testing.T, total int) []byte {
	t.Helper()
	rnd := rand.New(rand.NewSource(42)) //nolint:gosec //test data only
	payload := make([]byte, total)
	_, _ = rnd.Read(payload)

	return payload
}

// countingReader counts the bytes handed out so a test can observe the
// progress of the source stage.
type countingReader struct {
	inner interface {
		Read(p []byte) (int, error)
	}
	bytesRead atomic.Int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.inner.Read(p)
	cr.bytesRead.Add(int64(n))

	return n, err
}

// gateWriter blocks every write until the gate is released.
type gateWriter struct {
	gate    chan struct{}
	written []byte
}

func (gw *gateWriter) Write(p []byte) (int, error) {
	<-gw.gate
	gw.written = append(gw.written, p...)

	return len(p), nil
}

// flakyWriter fails after a fixed number of writes.
type flakyWriter struct {
	failAfter int
	writes    int
	err       error
}

func (fw *flakyWriter) Write(p []byte) (int, error) {
	fw.writes++
	if fw.writes > fw.failAfter {
		return 0, fw.err
	}

	return len(p), nil
}

// flakyReader fails once the budget is exhausted.
type flakyReader struct {
	budget int
	err    error
}

func (fr *flakyReader) Read(p []byte) (int, error) {
	if fr.budget <= 0 {
		return 0, fr.err
	}
	n := len(p)
	if n > fr.budget {
		n = fr.budget
	}
	fr.budget -= n

	return n, nil
}

func waitOrFail(t *testing.T, done <-chan struct{}, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal(msg)
	}
}
