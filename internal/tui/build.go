package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/log"
	"github.com/waabox/vibedeck/internal/printer"
	"github.com/waabox/vibedeck/internal/reconcile"
)

var errStreamEnded = errors.New("log stream ended without a completion marker")

const finalFetchTimeout = 5 * time.Second

// BuildConfig configures the live view of a job.
type BuildConfig struct {
	Service      domain.JobService
	Logger       log.Logger
	PollInterval time.Duration
	TickInterval time.Duration
	// Now is the clock used to timestamp transitions, time.Now by default.
	Now func() time.Time
}

func (c BuildConfig) withDefaults() BuildConfig {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// BuildEventMsg carries one reconciler message produced by the stream
// reader, the poll loop or the clock of a build view.
// It is exported so that tests can inject it directly into BuildModel.Update.
type BuildEventMsg struct {
	Gen     int
	Message reconcile.Message
}

// StreamOpenedMsg is sent when the log stream subscription has been set up.
type StreamOpenedMsg struct {
	Gen    int
	Stream domain.LogStream
	Err    error
}

// frameSkippedMsg re-arms the stream reader after a malformed payload.
type frameSkippedMsg struct {
	gen int
}

// pollDueMsg triggers the next status poll.
type pollDueMsg struct {
	gen int
}

// BuildModel is the Bubbletea model that follows one job live: it opens the
// log stream, polls the job status and ticks the elapsed-time clock, feeding
// everything through a single reconcile.Session.
type BuildModel struct {
	cfg     BuildConfig
	gen     int
	session reconcile.Session
	logger  log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	stream domain.LogStream

	console ConsoleModel
	// standalone models quit the program on q; embedded ones leave it to the parent.
	standalone bool
	width      int
	height     int
}

// NewBuildModel creates the live view of a job. gen identifies this view
// among the ones a parent opens over time; messages of other generations are
// ignored.
func NewBuildModel(cfg BuildConfig, id domain.JobID, gen int) BuildModel {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return BuildModel{
		cfg:     cfg,
		gen:     gen,
		session: reconcile.New(id, cfg.Now()),
		logger:  cfg.Logger.WithValues(log.Kv{"job-id": id, "gen": gen}),
		ctx:     ctx,
		cancel:  cancel,
		console: NewConsoleModel(10),
	}
}

// Standalone returns a copy that quits the program on q and ctrl+c.
func (m BuildModel) Standalone() BuildModel {
	m.standalone = true
	return m
}

// Session returns the reconciled state of the job.
func (m BuildModel) Session() reconcile.Session {
	return m.session
}

// Gen returns the generation of this view.
func (m BuildModel) Gen() int {
	return m.gen
}

// Close tears down the stream and every pending request of this view.
// It is safe to call more than once.
func (m BuildModel) Close() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.stream != nil {
		_ = m.stream.Close()
	}
}

func (m BuildModel) closed() bool {
	return m.ctx == nil || m.ctx.Err() != nil
}

// Init opens the log stream, fetches the first snapshot and starts the clock.
func (m BuildModel) Init() tea.Cmd {
	return tea.Batch(m.openStream(), m.fetchJob(m.ctx), m.scheduleTick())
}

func (m BuildModel) openStream() tea.Cmd {
	ctx, svc, id, gen := m.ctx, m.cfg.Service, m.session.JobID, m.gen
	return func() tea.Msg {
		stream, err := svc.OpenLogStream(ctx, id)
		return StreamOpenedMsg{Gen: gen, Stream: stream, Err: err}
	}
}

func (m BuildModel) readFrame() tea.Cmd {
	stream, id, gen, logger := m.stream, m.session.JobID, m.gen, m.logger
	return func() tea.Msg {
		frame, ok := <-stream.Frames()
		if !ok {
			err := stream.Err()
			if err == nil {
				err = errStreamEnded
			}
			return BuildEventMsg{Gen: gen, Message: reconcile.Message{
				Source: reconcile.SourceStream, JobID: id, Event: reconcile.StreamLost{Err: err},
			}}
		}
		ev, err := reconcile.Decode(frame)
		if err != nil {
			logger.Debugf("Ignoring malformed log event: %s", err)
			return frameSkippedMsg{gen: gen}
		}
		return BuildEventMsg{Gen: gen, Message: reconcile.Message{
			Source: reconcile.SourceStream, JobID: id, Event: ev,
		}}
	}
}

func (m BuildModel) fetchJob(ctx context.Context) tea.Cmd {
	svc, id, gen := m.cfg.Service, m.session.JobID, m.gen
	return func() tea.Msg {
		job, err := svc.GetJob(ctx, id)
		var ev reconcile.Event = reconcile.SnapshotReceived{Job: job}
		if err != nil {
			ev = reconcile.PollFailed{Err: err}
		}
		return BuildEventMsg{Gen: gen, Message: reconcile.Message{Source: reconcile.SourcePoll, JobID: id, Event: ev}}
	}
}

func (m BuildModel) fetchFinalJob() tea.Cmd {
	ctx, cancel := context.WithTimeout(context.Background(), finalFetchTimeout)
	fetch := m.fetchJob(ctx)
	return func() tea.Msg {
		defer cancel()
		return fetch()
	}
}

func (m BuildModel) schedulePoll() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.cfg.PollInterval, func(time.Time) tea.Msg {
		return pollDueMsg{gen: gen}
	})
}

func (m BuildModel) scheduleTick() tea.Cmd {
	id, gen := m.session.JobID, m.gen
	return tea.Tick(m.cfg.TickInterval, func(time.Time) tea.Msg {
		return BuildEventMsg{Gen: gen, Message: reconcile.Message{
			Source: reconcile.SourceClock, JobID: id, Event: reconcile.ClockTicked{},
		}}
	})
}

// Update applies one message to the session and re-arms the sources that
// are still alive.
func (m BuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.console = m.console.Resize(m.consoleHeight())

	case StreamOpenedMsg:
		if msg.Gen != m.gen || m.closed() {
			if msg.Stream != nil {
				_ = msg.Stream.Close()
			}
			return m, nil
		}
		if msg.Err != nil {
			m.logger.Warningf("Could not open log stream: %s", msg.Err)
			return m.apply(reconcile.Message{Source: reconcile.SourceStream, JobID: m.session.JobID, Event: reconcile.StreamLost{Err: msg.Err}})
		}
		m.stream = msg.Stream
		if m.session.StreamClosed {
			_ = m.stream.Close()
			return m, nil
		}
		return m, m.readFrame()

	case frameSkippedMsg:
		if msg.gen != m.gen || m.session.StreamClosed || m.stream == nil {
			return m, nil
		}
		return m, m.readFrame()

	case pollDueMsg:
		if msg.gen != m.gen || !m.session.Polling {
			return m, nil
		}
		return m, m.fetchJob(m.ctx)

	case BuildEventMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		return m.apply(msg.Message)

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m BuildModel) apply(msg reconcile.Message) (tea.Model, tea.Cmd) {
	wasTerminal := m.session.Terminal
	wasPolling := m.session.Polling
	m.session = m.session.Apply(msg, m.cfg.Now())

	var cmds []tea.Cmd
	switch msg.Source {
	case reconcile.SourceStream:
		if lost, ok := msg.Event.(reconcile.StreamLost); ok {
			m.logger.Warningf("Log stream lost: %v", lost.Err)
		} else if !m.session.StreamClosed && m.stream != nil {
			cmds = append(cmds, m.readFrame())
		}
	case reconcile.SourcePoll:
		if m.session.Polling {
			cmds = append(cmds, m.schedulePoll())
		} else if wasPolling && !m.session.Terminal {
			m.logger.Warningf("%s", m.session.PollNotice)
		}
	case reconcile.SourceClock:
		if !m.session.Terminal {
			cmds = append(cmds, m.scheduleTick())
		}
	}

	if m.session.Terminal && !wasTerminal {
		m.logger.Infof("Job finished with state %q", m.session.FinalState)
		// Stop the stream and the poll loop; the final fetch runs on its own context.
		m.Close()
		if !m.session.HasJob || m.session.Job.PullRequestLink == "" {
			cmds = append(cmds, m.fetchFinalJob())
		}
	}
	return m, tea.Batch(cmds...)
}

func (m BuildModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	total := len(m.session.Logs)
	switch msg.String() {
	case "q", "ctrl+c":
		if m.standalone {
			m.Close()
			return m, tea.Quit
		}
	case "up":
		m.console = m.console.ScrollUp(1, total)
	case "down":
		m.console = m.console.ScrollDown(1, total)
	case "pgup":
		m.console = m.console.ScrollUp(m.consoleHeight(), total)
	case "pgdown":
		m.console = m.console.ScrollDown(m.consoleHeight(), total)
	case "g":
		m.console = m.console.Top()
	case "G":
		m.console = m.console.Bottom()
	case "c":
		return m.apply(reconcile.Message{Source: reconcile.SourceUser, JobID: m.session.JobID, Event: reconcile.LogsCleared{}})
	}
	return m, nil
}

// consoleHeight is the number of log lines that fit under the tracker.
func (m BuildModel) consoleHeight() int {
	// header, separators, stage list, console title, notices, summary and footer.
	lines := m.height - 22
	if lines < 5 {
		return 5
	}
	return lines
}

func (m BuildModel) badge() string {
	switch {
	case m.session.Terminal && m.session.Succeeded():
		return doneBadge.Render(" DONE ")
	case m.session.Terminal:
		return failBadge.Render(" FAIL ")
	case m.session.Phase() == reconcile.PhaseLive:
		return liveBadge.Render(" LIVE ")
	default:
		return dimStyle.Render("connecting...")
	}
}

// View renders the pipeline tracker, the log console and, once the job is
// over, the summary.
func (m BuildModel) View() string {
	s := m.session
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(" %s | job %s  %s  %s\n",
		titleStyle.Render("vibedeck"), s.JobID, m.badge(), printer.FormatElapsed(s.TotalElapsed())))
	if s.HasJob && s.Job.Prompt != "" {
		sb.WriteString(" " + dimStyle.Render(printer.Truncate(s.Job.Prompt, 70)) + "\n")
	}
	sb.WriteString(separator)

	sb.WriteString(" Pipeline\n")
	sb.WriteString(NewStageListModel(s.Tracker.Stages(), s.Now).View())
	sb.WriteString(separator)

	follow := ""
	if !m.console.Following() {
		follow = dimStyle.Render(" (scrolled)")
	}
	sb.WriteString(fmt.Sprintf(" Build log%s\n", follow))
	sb.WriteString(m.console.View(s.Logs))
	if s.StreamNotice != "" {
		sb.WriteString(" " + warningStyle.Render("! "+s.StreamNotice) + "\n")
	}
	if s.PollNotice != "" {
		sb.WriteString(" " + warningStyle.Render("! "+s.PollNotice) + "\n")
	}
	if s.Stalled() {
		sb.WriteString(" " + errorStyle.Render("! No signal source left, the status shown may be stale") + "\n")
	}

	if s.Terminal {
		sb.WriteString(separator)
		sb.WriteString(NewJobSummaryModel(s.Job, s.Succeeded(), s.TotalElapsed()).View())
	}

	sb.WriteString(separator)
	footer := " ↑/↓: scroll   PgUp/PgDn: page   g/G: top/bottom   c: clear log"
	if m.standalone {
		footer += "   q: quit\n"
	} else {
		footer += "   esc: back   q: quit\n"
	}
	sb.WriteString(footer)
	return sb.String()
}
