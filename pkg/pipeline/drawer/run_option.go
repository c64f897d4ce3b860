package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-chunkpipe/pkg/pipeline/measure"
	"github.com/askiada/go-chunkpipe/pkg/pipeline/model"
)

type runDrawer struct {
	Drawer
	m         measure.Measure
	startTime time.Time
}

func (rd *runDrawer) New() error {
	err := rd.AddStage(model.StartStage.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add start stage to drawer")
	}
	err = rd.AddStage(model.EndStage.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add end stage to drawer")
	}

	return nil
}

func (rd *runDrawer) PrepareStage(parentStage, stage *model.StageInfo) error {
	err := rd.AddStage(stage.Name)
	if err != nil {
		return err
	}
	err = rd.AddLink(parentStage.Name, stage.Name)
	if err != nil {
		return err
	}

	if stage.Kind == model.SinkStageKind {
		err = rd.AddLink(stage.Name, model.EndStage.Name)
		if err != nil {
			return err
		}
	}

	return nil
}

func (rd *runDrawer) OnStageOutput(parentStage, stage *model.StageInfo, waitDuration, workDuration time.Duration, payloadSize int) error {
	return nil
}

func (rd *runDrawer) OnStageDone(stage *model.StageInfo, err error) error {
	return nil
}

func (rd *runDrawer) AfterSink(stage *model.StageInfo, totalDuration time.Duration) error {
	return nil
}

func (rd *runDrawer) Finish() error {
	if rd.m != nil {
		err := rd.SetTotalTime(model.EndStage.Name, rd.startTime)
		if err != nil {
			return errors.Wrap(err, "unable to set total time")
		}
		err = rd.AddMeasure(rd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := rd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw stage graph")
	}

	return nil
}

// RunDrawer draws the stage graph of a pipeline run. When a measure is
// provided, the graph is decorated with the collected metrics.
func RunDrawer(drawer Drawer, measure measure.Measure) model.RunOption {
	return &runDrawer{drawer, measure, time.Now()}
}
