package drawer

import (
	"time"

	"github.com/askiada/go-chunkpipe/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing the stage graph
// of a pipeline run.
type Drawer interface {
	// AddStage adds a stage to the graph.
	AddStage(stageName string) error
	// AddLink adds a link between a parent stage and a child stage.
	AddLink(parentStageName, childStageName string) error
	// Draw creates a file with the stage graph.
	Draw() error
	// SetTotalTime sets the total run time on a stage.
	SetTotalTime(stageName string, startTime time.Time) error
	// AddMeasure decorates the graph with the collected measures.
	AddMeasure(measure measure.Measure) error
}
