package reconcile

import (
	"fmt"
	"slices"
	"time"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/pipeline"
)

// StreamLostNotice is shown when the log stream drops before the job ends.
const StreamLostNotice = "Connection to log stream lost"

// Phase is the lifecycle position of a watch session.
type Phase string

const (
	PhaseConnecting Phase = "connecting"
	PhaseLive       Phase = "live"
	PhaseTerminal   Phase = "terminal"
)

// Session is the reconciled state of one job being watched.
//
// Session is a value: Apply returns the next state and never mutates the
// receiver's pipeline, so every message is applied as one discrete transition.
// Only one goroutine may own and apply messages to a session.
type Session struct {
	JobID   domain.JobID
	Tracker pipeline.Tracker
	Logs    []domain.LogEntry

	// Job is the latest polled snapshot; valid when HasJob is set.
	Job    domain.Job
	HasJob bool

	Terminal   bool
	FinalState string

	// StreamClosed and Polling tell the driver which sources must stay alive.
	StreamClosed bool
	Polling      bool

	StreamNotice string
	PollNotice   string

	// Now is the clock reading of the last applied message.
	Now time.Time

	live bool
	seq  int
}

// New returns the initial session for a job: queued stage active, stream
// expected open, polling enabled.
func New(id domain.JobID, now time.Time) Session {
	return Session{
		JobID:   id,
		Tracker: pipeline.NewTracker(now),
		Polling: true,
		Now:     now,
	}
}

// Phase returns where the session is in its lifecycle.
func (s Session) Phase() Phase {
	switch {
	case s.Terminal:
		return PhaseTerminal
	case s.live:
		return PhaseLive
	default:
		return PhaseConnecting
	}
}

// Succeeded reports whether the job ended in the completed state.
func (s Session) Succeeded() bool {
	return s.Terminal && s.FinalState == string(domain.ExecCompleted)
}

// Stalled reports whether both signal sources are gone while the job has not
// reached a terminal state.
func (s Session) Stalled() bool {
	return !s.Terminal && s.StreamClosed && !s.Polling
}

// TotalElapsed is the wall time of the build so far, frozen once terminal.
func (s Session) TotalElapsed() time.Duration {
	return s.Tracker.TotalElapsed(s.Now, s.Terminal)
}

// Apply reduces one message into the session. Messages addressed to another
// job are dropped, so a stale subscription can never touch a new session.
func (s Session) Apply(msg Message, at time.Time) Session {
	if msg.JobID != s.JobID {
		return s
	}
	s.Now = at

	switch ev := msg.Event.(type) {
	case LogReceived:
		if s.StreamClosed {
			return s
		}
		s.live = true
		return s.applyLog(ev, at)

	case StreamCompleted:
		if s.StreamClosed {
			return s
		}
		if ev.Status != "" {
			s = s.applyStatus(ev.Status, at)
		}
		if ev.State == string(domain.ExecCompleted) {
			s.Tracker = s.Tracker.CompleteAll(at)
		} else {
			s.Tracker = s.Tracker.FailCurrent(at)
		}
		return s.enterTerminal(ev.State)

	case StreamLost:
		if s.StreamClosed {
			return s
		}
		s.StreamClosed = true
		s.StreamNotice = StreamLostNotice
		return s

	case SnapshotReceived:
		s.Job = ev.Job
		s.HasJob = true
		if s.Terminal {
			return s
		}
		s.live = true
		return s.applySnapshot(ev.Job.State, at)

	case PollFailed:
		if !s.Polling {
			return s
		}
		s.Polling = false
		s.PollNotice = fmt.Sprintf("Status polling stopped: %v", ev.Err)
		return s

	case LogsCleared:
		s.Logs = nil
		return s
	}

	return s
}

func (s Session) applyLog(ev LogReceived, at time.Time) Session {
	if ev.Status != "" {
		s = s.applyStatus(ev.Status, at)
	}
	if ev.Entry.Message == "" {
		return s
	}

	s.seq++
	entry := ev.Entry
	entry.Seq = s.seq
	// The previous session may share the backing array.
	s.Logs = append(slices.Clip(s.Logs), entry)

	if ev.Status == "" {
		if stage, ok := pipeline.DetectStage(entry.Message); ok {
			s.Tracker = s.Tracker.AdvanceTo(stage, at)
		}
	}
	return s
}

func (s Session) applyStatus(status string, at time.Time) Session {
	switch status {
	case "failed":
		s.Tracker = s.Tracker.FailCurrent(at)
	case "complete", "completed":
		s.Tracker = s.Tracker.CompleteAll(at)
	default:
		s.Tracker = s.Tracker.AdvanceTo(domain.StageID(status), at)
	}
	return s
}

func (s Session) applySnapshot(state domain.ExecutionState, at time.Time) Session {
	if stage, ok := pipeline.MapExecutionState(state); ok {
		s.Tracker = s.Tracker.AdvanceTo(stage, at)
	}
	switch state {
	case domain.ExecCompleted:
		s.Tracker = s.Tracker.CompleteAll(at)
		return s.enterTerminal(string(state))
	case domain.ExecFailed:
		s.Tracker = s.Tracker.FailCurrent(at)
		return s.enterTerminal(string(state))
	}
	return s
}

func (s Session) enterTerminal(state string) Session {
	s.Terminal = true
	s.FinalState = state
	s.StreamClosed = true
	s.Polling = false
	return s
}
