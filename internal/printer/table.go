package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/waabox/vibedeck/internal/domain"
)

const maxPromptWidth = 50

// TablePrinter prints jobs and projects in a table format.
type TablePrinter struct {
	writer io.Writer
	now    func() time.Time
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w, now: time.Now}
}

// PrintJobs prints jobs in a table format.
func (t *TablePrinter) PrintJobs(jobs []domain.Job) error {
	if len(jobs) == 0 {
		return t.PrintMessage("No jobs found.")
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tSTATE\tSTARTED\tPROMPT")
	now := t.now()
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.ID, j.State, TimeAgo(j.InitiatedAt, now), Truncate(j.Prompt, maxPromptWidth))
	}
	return nil
}

// PrintProjects prints projects in a table format.
func (t *TablePrinter) PrintProjects(projects []domain.Project) error {
	if len(projects) == 0 {
		return t.PrintMessage("No projects found.")
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tNAME\tREPOSITORY")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.RepositoryURL)
	}
	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}

// Truncate shortens s to at most width runes on a single line, marking the cut with "...".
func Truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
