package pipeline

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/askiada/go-chunkpipe/pkg/codec"
	"github.com/askiada/go-chunkpipe/pkg/pipeline/model"
)

const (
	// DefaultChunkSize is the number of decoded bytes per unit of work.
	DefaultChunkSize = 1 << 20
	// DefaultQueueCapacity bounds the read and write queues.
	DefaultQueueCapacity = 10
	// DefaultShutdownTimeout bounds the stage join once a run is cancelled.
	DefaultShutdownTimeout = 30 * time.Second
)

// DefaultWorkerCount returns the default parallelism degree.
func DefaultWorkerCount() int {
	return runtime.NumCPU()
}

type Option func(p *Pipeline)

// WithChunkSize sets the number of bytes per chunk.
func WithChunkSize(chunkSize int) Option {
	return func(p *Pipeline) {
		p.chunkSize = chunkSize
	}
}

// WithQueueCapacity sets the capacity of the read and write queues.
func WithQueueCapacity(queueCapacity int) Option {
	return func(p *Pipeline) {
		p.queueCapacity = queueCapacity
	}
}

// WithWorkerCount sets the number of concurrent workers.
func WithWorkerCount(workerCount int) Option {
	return func(p *Pipeline) {
		p.workerCount = workerCount
	}
}

// WithShutdownTimeout bounds the stage join once a run is cancelled.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		p.shutdownTimeout = timeout
	}
}

// WithTransform sets the per-chunk transformation applied by the workers.
// The default is a pass-through.
func WithTransform(transform TransformFunc) Option {
	return func(p *Pipeline) {
		p.transform = transform
	}
}

// WithDecoder runs the source stage over the decoded view of the input
// instead of the raw bytes.
func WithDecoder(decoder codec.Decoder) Option {
	return func(p *Pipeline) {
		p.decoder = decoder
	}
}

// WithLogger sets the logger of the pipeline.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithRunOptions attaches observers, such as measures and drawers, to every
// run of the pipeline.
func WithRunOptions(opts ...model.RunOption) Option {
	return func(p *Pipeline) {
		p.opts = append(p.opts, opts...)
	}
}
