package model

import "time"

// RunOption defines the interface for observers of a pipeline run.
type RunOption interface {
	// New initialises the run option.
	New() error

	// PrepareStage runs once per stage before the run starts.
	PrepareStage(parentStage, stage *StageInfo) error

	// OnStageOutput runs everytime a stage pushes a chunk downstream.
	// waitDuration is the time spent blocked on the input queue,
	// workDuration the time spent transforming the chunk.
	OnStageOutput(parentStage, stage *StageInfo, waitDuration, workDuration time.Duration, payloadSize int) error

	// OnStageDone runs when a stage exits, with the error that stopped it, if any.
	OnStageDone(stage *StageInfo, err error) error

	// AfterSink runs once the sink has been flushed and closed.
	AfterSink(stage *StageInfo, totalDuration time.Duration) error

	// Finish runs after the run is finished.
	Finish() error
}
