// Package pipeline models the ordered build stages of a job and the rules
// that map backend signals onto them.
package pipeline

import (
	"time"

	"github.com/waabox/vibedeck/internal/domain"
)

// Tracker is an immutable model of the build pipeline.
// Every mutation returns a new Tracker and leaves the receiver untouched, so a
// caller always observes either the previous or the next state, never a mix.
type Tracker struct {
	stages []domain.Stage
}

// NewTracker returns the initial pipeline: queued is active since now, every
// other stage is pending.
func NewTracker(now time.Time) Tracker {
	stages := make([]domain.Stage, len(domain.StageOrder))
	for i, id := range domain.StageOrder {
		stages[i] = domain.Stage{ID: id, Label: id.Label(), Status: domain.StagePending}
	}
	stages[0].Status = domain.StageActive
	stages[0].StartedAt = now
	return Tracker{stages: stages}
}

// Stages returns a copy of the stages in pipeline order.
func (t Tracker) Stages() []domain.Stage {
	return t.clone()
}

// Reached returns the index of the furthest stage that is active or
// complete, or -1 when there is none. Failed stages do not count, so a later
// signal can move the pipeline onto them again.
func (t Tracker) Reached() int {
	reached := -1
	for i, s := range t.stages {
		if s.Status == domain.StageActive || s.Status == domain.StageCompleted {
			reached = i
		}
	}
	return reached
}

// Active returns the stage currently in progress.
func (t Tracker) Active() (domain.Stage, bool) {
	for _, s := range t.stages {
		if s.Status == domain.StageActive {
			return s, true
		}
	}
	return domain.Stage{}, false
}

// Failed reports whether any stage has failed.
func (t Tracker) Failed() bool {
	for _, s := range t.stages {
		if s.Status == domain.StageFailed {
			return true
		}
	}
	return false
}

// AdvanceTo moves the pipeline forward to the given stage.
// Every earlier stage is completed and the target becomes active. A target at
// or behind the furthest stage reached, or an unknown id, leaves the tracker
// unchanged: progress never moves backwards.
func (t Tracker) AdvanceTo(id domain.StageID, at time.Time) Tracker {
	target := id.Index()
	if target < 0 || target >= len(t.stages) || target <= t.Reached() {
		return t
	}
	stages := t.clone()
	for i := 0; i < target; i++ {
		stages[i].Status = domain.StageCompleted
		setOnce(&stages[i].StartedAt, at)
		setOnce(&stages[i].CompletedAt, at)
	}
	stages[target].Status = domain.StageActive
	setOnce(&stages[target].StartedAt, at)
	// A stage that failed earlier runs again until it completes.
	stages[target].CompletedAt = time.Time{}
	return Tracker{stages: stages}
}

// CompleteAll marks every stage complete, filling in missing timestamps.
func (t Tracker) CompleteAll(at time.Time) Tracker {
	stages := t.clone()
	for i := range stages {
		stages[i].Status = domain.StageCompleted
		setOnce(&stages[i].StartedAt, at)
		setOnce(&stages[i].CompletedAt, at)
	}
	return Tracker{stages: stages}
}

// FailCurrent marks the active stage as failed. Other stages keep their
// status. Without an active stage it is a no-op.
func (t Tracker) FailCurrent(at time.Time) Tracker {
	if _, ok := t.Active(); !ok {
		return t
	}
	stages := t.clone()
	for i := range stages {
		if stages[i].Status == domain.StageActive {
			stages[i].Status = domain.StageFailed
			setOnce(&stages[i].CompletedAt, at)
		}
	}
	return Tracker{stages: stages}
}

// TotalElapsed returns the time from the first stage start until the last
// stage completion when terminal, or until now while the build is live.
func (t Tracker) TotalElapsed(now time.Time, terminal bool) time.Duration {
	var first time.Time
	for _, s := range t.stages {
		if !s.StartedAt.IsZero() {
			first = s.StartedAt
			break
		}
	}
	if first.IsZero() {
		return 0
	}
	end := now
	if terminal {
		for i := len(t.stages) - 1; i >= 0; i-- {
			if !t.stages[i].CompletedAt.IsZero() {
				end = t.stages[i].CompletedAt
				break
			}
		}
	}
	return end.Sub(first)
}

// StageElapsed returns how long a stage ran, or has been running when active.
// ok is false for stages that have not started.
func StageElapsed(s domain.Stage, now time.Time) (d time.Duration, ok bool) {
	if s.StartedAt.IsZero() {
		return 0, false
	}
	if s.Status == domain.StageActive {
		return now.Sub(s.StartedAt), true
	}
	if !s.CompletedAt.IsZero() {
		return s.CompletedAt.Sub(s.StartedAt), true
	}
	return 0, false
}

func (t Tracker) clone() []domain.Stage {
	stages := make([]domain.Stage, len(t.stages))
	copy(stages, t.stages)
	return stages
}

func setOnce(dst *time.Time, v time.Time) {
	if dst.IsZero() {
		*dst = v
	}
}
