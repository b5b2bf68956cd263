package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/printer"
)

// JobListModel is an immutable Bubbletea-compatible model for the job list panel.
type JobListModel struct {
	jobs   []domain.Job
	cursor int
	now    func() time.Time
}

// NewJobListModel creates a job list model with the given jobs.
func NewJobListModel(jobs []domain.Job) JobListModel {
	return JobListModel{jobs: jobs, cursor: 0, now: time.Now}
}

// MoveDown returns a new model with the cursor moved down by one.
func (m JobListModel) MoveDown() JobListModel {
	if m.cursor < len(m.jobs)-1 {
		m.cursor++
	}
	return m
}

// MoveUp returns a new model with the cursor moved up by one.
func (m JobListModel) MoveUp() JobListModel {
	if m.cursor > 0 {
		m.cursor--
	}
	return m
}

// SelectedIndex returns the current cursor position.
func (m JobListModel) SelectedIndex() int {
	return m.cursor
}

// Jobs returns the full job slice.
func (m JobListModel) Jobs() []domain.Job {
	return m.jobs
}

// SelectedJob returns the currently highlighted job.
// Returns zero-value Job if the list is empty.
func (m JobListModel) SelectedJob() domain.Job {
	if len(m.jobs) == 0 {
		return domain.Job{}
	}
	return m.jobs[m.cursor]
}

// UpdateJobs replaces the job list and keeps the cursor on the same job when
// it is still present, otherwise clamps it to the new list.
func (m JobListModel) UpdateJobs(jobs []domain.Job) JobListModel {
	selected := m.SelectedJob().ID
	m.jobs = jobs
	m.cursor = 0
	for i, j := range jobs {
		if j.ID == selected {
			m.cursor = i
			return m
		}
	}
	return m
}

// View renders the job list as a string.
func (m JobListModel) View() string {
	if len(m.jobs) == 0 {
		return "No jobs found."
	}
	now := m.now()
	var sb strings.Builder
	for i, j := range m.jobs {
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		sb.WriteString(fmt.Sprintf("%s%s %-12s %-10s %-40s %s\n",
			prefix,
			stateIcon(j.State),
			printer.Truncate(string(j.ID), 12),
			j.State,
			printer.Truncate(j.Prompt, 40),
			printer.TimeAgo(j.InitiatedAt, now),
		))
	}
	return sb.String()
}

func stateIcon(s domain.ExecutionState) string {
	switch s {
	case domain.ExecCompleted:
		return "✓"
	case domain.ExecFailed:
		return "✗"
	case domain.ExecQueued:
		return "↷"
	case "":
		return "?"
	default:
		return "●"
	}
}

// anyRunning reports whether any job in the list can still change state.
func anyRunning(jobs []domain.Job) bool {
	for _, j := range jobs {
		if !j.State.IsTerminal() {
			return true
		}
	}
	return false
}
