package model

type StageKind string

const (
	SourceStageKind StageKind = "source"
	WorkerStageKind StageKind = "worker"
	SinkStageKind   StageKind = "sink"
)

// StageInfo describes a single stage of a pipeline run.
type StageInfo struct {
	Kind       StageKind
	Name       string
	Concurrent int
}

var (
	StartStage = &StageInfo{Name: "start"}
	EndStage   = &StageInfo{Name: "end"}
)
