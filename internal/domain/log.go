package domain

import "time"

// Severity classifies a line of build output.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// LogEntry is one line of build output received from the log stream.
type LogEntry struct {
	// Seq is the position of the entry in the viewing session, starting at 1.
	Seq      int
	ID       string
	Time     time.Time
	Severity Severity
	Message  string
}
