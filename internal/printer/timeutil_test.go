package printer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/waabox/vibedeck/internal/printer"
)

func TestFormatElapsed(t *testing.T) {
	tests := map[string]struct {
		d   time.Duration
		exp string
	}{
		"zero is under a second": {
			d:   0,
			exp: "<1s",
		},
		"sub second": {
			d:   999 * time.Millisecond,
			exp: "<1s",
		},
		"seconds are truncated": {
			d:   42*time.Second + 900*time.Millisecond,
			exp: "42s",
		},
		"one minute": {
			d:   60 * time.Second,
			exp: "1m 0s",
		},
		"minutes and seconds": {
			d:   3*time.Minute + 5*time.Second,
			exp: "3m 5s",
		},
		"over an hour stays in minutes": {
			d:   75 * time.Minute,
			exp: "75m 0s",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.FormatElapsed(test.d))
		})
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		t   time.Time
		exp string
	}{
		"unknown":     {t: time.Time{}, exp: "-"},
		"seconds ago": {t: now.Add(-30 * time.Second), exp: "just now"},
		"minutes ago": {t: now.Add(-45 * time.Minute), exp: "45m ago"},
		"hours ago":   {t: now.Add(-5 * time.Hour), exp: "5h ago"},
		"days ago":    {t: now.Add(-7 * 24 * time.Hour), exp: "7d ago"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.TimeAgo(test.t, now))
		})
	}
}
