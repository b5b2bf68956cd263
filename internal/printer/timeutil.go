package printer

import (
	"fmt"
	"time"
)

// FormatElapsed returns a compact duration for stage timers.
// Examples: "<1s", "42s", "3m 5s".
func FormatElapsed(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	seconds := int(d / time.Second)
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// FormatClock returns the local wall-clock time of a log line, "15:04:05".
// A zero time renders as blanks so columns stay aligned.
func FormatClock(t time.Time) string {
	if t.IsZero() {
		return "--:--:--"
	}
	return t.Local().Format("15:04:05")
}

// TimeAgo returns a short relative time: "just now", "5m ago", "3h ago", "2d ago".
func TimeAgo(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
}
