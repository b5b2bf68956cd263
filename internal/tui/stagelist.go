package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/pipeline"
	"github.com/waabox/vibedeck/internal/printer"
)

// StageListModel is an immutable model for the pipeline tracker panel.
type StageListModel struct {
	stages []domain.Stage
	now    time.Time
}

// NewStageListModel creates a stage list model. now is the clock reading
// used for the elapsed time of the active stage.
func NewStageListModel(stages []domain.Stage, now time.Time) StageListModel {
	return StageListModel{stages: stages, now: now}
}

// Stages returns the full stage slice.
func (m StageListModel) Stages() []domain.Stage {
	return m.stages
}

// View renders one line per stage: icon, label and elapsed time.
func (m StageListModel) View() string {
	if len(m.stages) == 0 {
		return "No stages."
	}
	var sb strings.Builder
	for _, s := range m.stages {
		elapsed := ""
		if d, ok := pipeline.StageElapsed(s, m.now); ok {
			elapsed = printer.FormatElapsed(d)
		}
		sb.WriteString(fmt.Sprintf("  %s %-12s %s\n",
			stageIcon(s.Status),
			stageLabel(s),
			dimStyle.Render(elapsed),
		))
	}
	return sb.String()
}

func stageLabel(s domain.Stage) string {
	if s.Status == domain.StageActive {
		return activeStyle.Render(fmt.Sprintf("%-12s", s.Label))
	}
	return s.Label
}

func stageIcon(s domain.StageStatus) string {
	switch s {
	case domain.StageCompleted:
		return successStyle.Render("✓")
	case domain.StageFailed:
		return errorStyle.Render("✗")
	case domain.StageActive:
		return activeStyle.Render("●")
	default:
		return dimStyle.Render("○")
	}
}
