package printer

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/waabox/vibedeck/internal/domain"
)

var (
	infoColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	stageColor   = color.New(color.FgCyan, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
	linkColor    = color.New(color.FgCyan, color.Underline)
)

// LinePrinter prints job progress as plain appended lines, for pipes and CI logs.
type LinePrinter struct {
	writer io.Writer
}

// Ensure LinePrinter implements WatchPrinter.
var _ WatchPrinter = (*LinePrinter)(nil)

// NewLinePrinter creates a new line printer. Colors follow color.NoColor.
func NewLinePrinter(w io.Writer) *LinePrinter {
	return &LinePrinter{writer: w}
}

func severityColor(s domain.Severity) *color.Color {
	switch s {
	case domain.SeveritySuccess:
		return successColor
	case domain.SeverityWarning:
		return warningColor
	case domain.SeverityError:
		return errorColor
	default:
		return infoColor
	}
}

// PrintLog prints one build log line: time, severity label and message.
func (l *LinePrinter) PrintLog(entry domain.LogEntry) error {
	_, err := fmt.Fprintf(l.writer, "%s %s %s\n",
		dimColor.Sprint(FormatClock(entry.Time)),
		severityColor(entry.Severity).Sprint(SeverityLabel(entry.Severity)),
		entry.Message,
	)
	return err
}

// PrintStage prints a stage transition.
func (l *LinePrinter) PrintStage(stage domain.Stage, elapsed time.Duration) error {
	var err error
	switch stage.Status {
	case domain.StageActive:
		_, err = stageColor.Fprintf(l.writer, "==> %s\n", stage.Label)
	case domain.StageCompleted:
		_, err = fmt.Fprintf(l.writer, "%s %s %s\n", successColor.Sprint("✓"), stage.Label, dimColor.Sprintf("(%s)", FormatElapsed(elapsed)))
	case domain.StageFailed:
		_, err = fmt.Fprintf(l.writer, "%s %s failed %s\n", errorColor.Sprint("✗"), stage.Label, dimColor.Sprintf("(%s)", FormatElapsed(elapsed)))
	}
	return err
}

// PrintNotice prints a warning about the watch itself, not the build.
func (l *LinePrinter) PrintNotice(msg string) error {
	_, err := warningColor.Fprintf(l.writer, "! %s\n", msg)
	return err
}

// PrintSummary prints the final result of the job.
func (l *LinePrinter) PrintSummary(job domain.Job, succeeded bool, total time.Duration) error {
	if succeeded {
		successColor.Fprintf(l.writer, "Build completed in %s\n", FormatElapsed(total))
	} else {
		errorColor.Fprintf(l.writer, "Build failed after %s\n", FormatElapsed(total))
	}
	if job.PullRequestLink != "" {
		fmt.Fprintf(l.writer, "Pull request: %s\n", linkColor.Sprint(job.PullRequestLink))
	}
	if job.PreviewURL != "" {
		fmt.Fprintf(l.writer, "Preview:      %s\n", linkColor.Sprint(job.PreviewURL))
	}
	return nil
}
