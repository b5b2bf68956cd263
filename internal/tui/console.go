package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/printer"
)

// ConsoleModel is an immutable model for the build log console. It follows
// the tail of the log until the user scrolls up.
type ConsoleModel struct {
	offset int
	follow bool
	height int
}

// NewConsoleModel creates a console showing height lines, following the tail.
func NewConsoleModel(height int) ConsoleModel {
	if height < 1 {
		height = 1
	}
	return ConsoleModel{follow: true, height: height}
}

// Following reports whether the console sticks to the newest line.
func (m ConsoleModel) Following() bool {
	return m.follow
}

// Resize returns a console showing height lines.
func (m ConsoleModel) Resize(height int) ConsoleModel {
	if height < 1 {
		height = 1
	}
	m.height = height
	return m
}

func (m ConsoleModel) maxOffset(total int) int {
	if total <= m.height {
		return 0
	}
	return total - m.height
}

func (m ConsoleModel) start(total int) int {
	if m.follow {
		return m.maxOffset(total)
	}
	if m.offset > m.maxOffset(total) {
		return m.maxOffset(total)
	}
	return m.offset
}

// ScrollUp moves the window n lines towards older output and stops following.
func (m ConsoleModel) ScrollUp(n, total int) ConsoleModel {
	m.offset = m.start(total) - n
	if m.offset < 0 {
		m.offset = 0
	}
	m.follow = false
	return m
}

// ScrollDown moves the window n lines towards newer output. Reaching the
// bottom resumes following.
func (m ConsoleModel) ScrollDown(n, total int) ConsoleModel {
	m.offset = m.start(total) + n
	if m.offset >= m.maxOffset(total) {
		m.offset = 0
		m.follow = true
	}
	return m
}

// Top jumps to the first line.
func (m ConsoleModel) Top() ConsoleModel {
	m.offset = 0
	m.follow = false
	return m
}

// Bottom jumps to the newest line and resumes following.
func (m ConsoleModel) Bottom() ConsoleModel {
	m.offset = 0
	m.follow = true
	return m
}

// View renders the visible window of logs.
func (m ConsoleModel) View(logs []domain.LogEntry) string {
	if len(logs) == 0 {
		return dimStyle.Render("  Waiting for build output...") + "\n"
	}
	start := m.start(len(logs))
	end := start + m.height
	if end > len(logs) {
		end = len(logs)
	}
	var sb strings.Builder
	for _, e := range logs[start:end] {
		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			dimStyle.Render(printer.FormatClock(e.Time)),
			severityStyle(e.Severity).Render(printer.SeverityLabel(e.Severity)),
			e.Message,
		))
	}
	return sb.String()
}

func severityStyle(s domain.Severity) lipgloss.Style {
	switch s {
	case domain.SeveritySuccess:
		return successStyle
	case domain.SeverityWarning:
		return warningStyle
	case domain.SeverityError:
		return errorStyle
	default:
		return infoStyle
	}
}
