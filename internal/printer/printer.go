package printer

import (
	"time"

	"github.com/waabox/vibedeck/internal/domain"
)

// WatchPrinter knows how to print the progress of a watched job.
type WatchPrinter interface {
	PrintLog(entry domain.LogEntry) error
	PrintStage(stage domain.Stage, elapsed time.Duration) error
	PrintNotice(msg string) error
	PrintSummary(job domain.Job, succeeded bool, total time.Duration) error
}

// SeverityLabel returns the fixed-width console label of a log severity.
func SeverityLabel(s domain.Severity) string {
	switch s {
	case domain.SeveritySuccess:
		return "DONE"
	case domain.SeverityWarning:
		return "WARN"
	case domain.SeverityError:
		return "ERR!"
	default:
		return "INFO"
	}
}
