package domain

import "time"

// StageID identifies one phase of the build pipeline.
type StageID string

const (
	StageQueued     StageID = "queued"
	StagePlanning   StageID = "planning"
	StageBuilding   StageID = "building"
	StageValidating StageID = "validating"
	StageTesting    StageID = "testing"
	StageComplete   StageID = "complete"
)

// StageOrder is the fixed order in which a build moves through its stages.
var StageOrder = []StageID{
	StageQueued,
	StagePlanning,
	StageBuilding,
	StageValidating,
	StageTesting,
	StageComplete,
}

var stageLabels = map[StageID]string{
	StageQueued:     "Queued",
	StagePlanning:   "Planning",
	StageBuilding:   "Building",
	StageValidating: "Validating",
	StageTesting:    "Testing",
	StageComplete:   "Complete",
}

// Label returns the human-readable name of the stage.
func (id StageID) Label() string {
	if l, ok := stageLabels[id]; ok {
		return l
	}
	return string(id)
}

// Index returns the position of the stage in StageOrder, or -1 when the id is unknown.
func (id StageID) Index() int {
	for i, s := range StageOrder {
		if s == id {
			return i
		}
	}
	return -1
}

// StageStatus is the progress state of a single stage.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageActive    StageStatus = "active"
	StageCompleted StageStatus = "complete"
	StageFailed    StageStatus = "failed"
)

// Stage is one phase of the build pipeline as shown to the user.
// A zero StartedAt or CompletedAt means the timestamp has not been recorded yet.
type Stage struct {
	ID          StageID
	Label       string
	Status      StageStatus
	StartedAt   time.Time
	CompletedAt time.Time
}
