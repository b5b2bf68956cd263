package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/printer"
)

// JobSummaryModel is an immutable model for the final result panel of a job.
type JobSummaryModel struct {
	job       domain.Job
	succeeded bool
	total     time.Duration
}

// NewJobSummaryModel creates a job summary model.
func NewJobSummaryModel(job domain.Job, succeeded bool, total time.Duration) JobSummaryModel {
	return JobSummaryModel{job: job, succeeded: succeeded, total: total}
}

// View renders the result, the links produced by the job and its usage.
func (m JobSummaryModel) View() string {
	var sb strings.Builder
	if m.succeeded {
		sb.WriteString(" " + successStyle.Render("Build completed") + " in " + printer.FormatElapsed(m.total) + "\n")
	} else {
		sb.WriteString(" " + errorStyle.Render("Build failed") + " after " + printer.FormatElapsed(m.total) + "\n")
	}
	if m.job.PullRequestLink != "" {
		sb.WriteString(fmt.Sprintf(" Pull request: %s\n", linkStyle.Render(m.job.PullRequestLink)))
	}
	if m.job.PreviewURL != "" {
		sb.WriteString(fmt.Sprintf(" Preview:      %s\n", linkStyle.Render(m.job.PreviewURL)))
	}
	if m.job.TargetBranch != "" {
		sb.WriteString(fmt.Sprintf(" Branch:       %s → %s\n", m.job.BaseBranch, m.job.TargetBranch))
	}
	if m.job.FilesChanged > 0 || m.job.TotalTokens > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf(" %d files changed, %d tokens", m.job.FilesChanged, m.job.TotalTokens)) + "\n")
	}
	return sb.String()
}
