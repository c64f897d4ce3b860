package measure

import (
	"time"

	"github.com/askiada/go-chunkpipe/pkg/pipeline/model"
)

type runMeasure struct {
	Measure
}

func (rm *runMeasure) New() error {
	rm.AddMetric(model.StartStage.Name, 1)
	rm.AddMetric(model.EndStage.Name, 1)

	return nil
}

func (rm *runMeasure) PrepareStage(parentStage, stage *model.StageInfo) error {
	rm.AddMetric(stage.Name, stage.Concurrent)

	return nil
}

func (rm *runMeasure) OnStageOutput(parentStage, stage *model.StageInfo, waitDuration, workDuration time.Duration, payloadSize int) error {
	mt := rm.GetMetric(stage.Name)
	mt.AddDuration(workDuration)
	mt.AddTransportDuration(parentStage.Name, waitDuration)
	mt.AddBytes(int64(payloadSize))

	return nil
}

func (rm *runMeasure) OnStageDone(stage *model.StageInfo, err error) error {
	return nil
}

func (rm *runMeasure) AfterSink(stage *model.StageInfo, totalDuration time.Duration) error {
	rm.GetMetric(stage.Name).SetTotalDuration(totalDuration)

	return nil
}

func (rm *runMeasure) Finish() error {
	return nil
}

// RunMeasure attaches a measure to every stage of a pipeline run.
func RunMeasure(measure Measure) model.RunOption {
	return &runMeasure{measure}
}
