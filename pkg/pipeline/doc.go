// Package pipeline provides a bounded-queue parallel transform pipeline.
//
// A run is a classic fan-out/fan-in: a single source stage slices a
// sequential stream into ordered chunks, a pool of workers transforms the
// chunks concurrently and out of order, and a single sink stage reassembles
// the results into their original order before committing them to the output.
// The queues between the stages are bounded, so a slow consumer applies
// backpressure all the way up to the source.
//
// The pipeline stops on the first encountered error. Every stage that fails
// latches its error into a single-assignment slot and still emits the
// terminal markers the downstream stages wait for, so a failing run converges
// instead of hanging. The caller receives exactly one error per run,
// regardless of how many stages subsequently stopped due to cancellation.
package pipeline
