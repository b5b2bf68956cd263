package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/log"
	"github.com/waabox/vibedeck/internal/reconcile"
)

const (
	fastRefresh = 5 * time.Second
	slowRefresh = 30 * time.Second
)

// JobsLoadedMsg is sent when jobs have been fetched from the backend.
// It is exported so that tests can inject it directly into AppModel.Update.
type JobsLoadedMsg struct {
	Jobs []domain.Job
	Err  error
}

// tickMsg is sent by the auto-refresh ticker.
type tickMsg struct{}

// viewState indicates the current navigation level.
type viewState int

const (
	viewJobs viewState = iota
	viewBuild
)

// AppConfig configures the job browser.
type AppConfig struct {
	Build BuildConfig
	// ProjectID restricts the list to one project when set.
	ProjectID string
	JobLimit  int
}

// AppModel is the root Bubbletea model for vibedeck: a job browser that
// opens a live build view for the selected job.
type AppModel struct {
	cfg    AppConfig
	svc    domain.JobService
	logger log.Logger
	// Navigation
	view viewState
	// Job list level
	list JobListModel
	// Build level; gen grows every time a build view is opened.
	build BuildModel
	gen   int
	// General state
	loading bool
	err     error
	width   int
	height  int
}

// NewAppModel creates the root application model.
func NewAppModel(cfg AppConfig) AppModel {
	cfg.Build = cfg.Build.withDefaults()
	return AppModel{
		cfg:     cfg,
		svc:     cfg.Build.Service,
		logger:  cfg.Build.Logger.WithValues(log.Kv{"svc": "tui.app"}),
		list:    NewJobListModel(nil),
		loading: true,
	}
}

// Init triggers the initial job load.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.loadJobs(), tickEvery(fastRefresh))
}

func (m AppModel) loadJobs() tea.Cmd {
	svc, projectID, limit := m.svc, m.cfg.ProjectID, m.cfg.JobLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		var jobs []domain.Job
		var err error
		if projectID != "" {
			jobs, err = svc.ListProjectJobs(ctx, projectID)
		} else {
			jobs, err = svc.ListJobs(ctx)
		}
		return JobsLoadedMsg{Jobs: domain.NewestFirst(jobs, limit), Err: err}
	}
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Build returns the current build view.
func (m AppModel) Build() BuildModel {
	return m.build
}

// Update handles all incoming messages and key events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.delegate(msg)

	case JobsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.logger.Warningf("Could not load jobs: %s", msg.Err)
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.list = m.list.UpdateJobs(msg.Jobs)

	case tickMsg:
		interval := slowRefresh
		if anyRunning(m.list.Jobs()) {
			interval = fastRefresh
		}
		// The list is not visible while a build is open; keep the ticker alive only.
		if m.view == viewBuild {
			return m, tickEvery(interval)
		}
		return m, tea.Batch(m.loadJobs(), tickEvery(interval))

	// Build messages always go to the build view, which drops other generations.
	case BuildEventMsg, StreamOpenedMsg, frameSkippedMsg, pollDueMsg:
		return m.delegate(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.build.Close()
			return m, tea.Quit
		}
		switch m.view {
		case viewJobs:
			return m.updateJobs(msg)
		case viewBuild:
			return m.updateBuild(msg)
		}
	}
	return m, nil
}

func (m AppModel) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.build.Update(msg)
	m.build = updated.(BuildModel)
	return m, cmd
}

func (m AppModel) updateJobs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.list = m.list.MoveDown()
	case "up":
		m.list = m.list.MoveUp()
	case "ctrl+r":
		m.loading = true
		return m, m.loadJobs()
	case "enter":
		if len(m.list.Jobs()) > 0 {
			return m.openBuild(m.list.SelectedJob().ID)
		}
	}
	return m, nil
}

func (m AppModel) openBuild(id domain.JobID) (tea.Model, tea.Cmd) {
	m.build.Close()
	m.gen++
	m.build = NewBuildModel(m.cfg.Build, id, m.gen)
	m.view = viewBuild
	cmds := []tea.Cmd{m.build.Init()}
	if m.width > 0 {
		updated, cmd := m.build.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		m.build = updated.(BuildModel)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m AppModel) updateBuild(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.build.Close()
		m.build = BuildModel{}
		m.view = viewJobs
		m.loading = true
		return m, m.loadJobs()
	}
	return m.delegate(msg)
}

// View renders the full TUI.
func (m AppModel) View() string {
	if m.view == viewBuild {
		return m.build.View()
	}
	if m.loading {
		return "Loading jobs...\n"
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'ctrl+r' to retry or 'q' to quit.\n", m.err)
	}

	scope := "all projects"
	if m.cfg.ProjectID != "" {
		scope = "project " + m.cfg.ProjectID
	}
	header := fmt.Sprintf(" %s | %s\n", titleStyle.Render("vibedeck"), scope)
	title := " Jobs\n"
	selected := m.list.SelectedJob()
	statusBar := "\n"
	if selected.ID != "" {
		statusBar = fmt.Sprintf(" %s on %s\n", selected.ID, orDash(selected.TargetBranch))
	}
	footer := " ↑/↓: navigate   enter: watch   ctrl+r: refresh   q: quit\n"
	return header + separator + title + m.list.View() + "\n" + separator + statusBar + separator + footer
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RunDashboard starts the job browser and blocks until the user quits or ctx is done.
func RunDashboard(ctx context.Context, cfg AppConfig) error {
	p := tea.NewProgram(NewAppModel(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if m, ok := final.(AppModel); ok {
		m.build.Close()
	}
	return err
}

// RunBuild follows one job full screen and returns its last reconciled state.
func RunBuild(ctx context.Context, cfg BuildConfig, id domain.JobID) (reconcile.Session, error) {
	if err := id.Validate(); err != nil {
		return reconcile.Session{}, err
	}
	model := NewBuildModel(cfg, id, 1).Standalone()
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if m, ok := final.(BuildModel); ok {
		m.Close()
		return m.Session(), err
	}
	model.Close()
	return model.Session(), err
}
