// Package watch follows a single job without a terminal UI, printing log
// lines and stage transitions as they are reconciled.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/run"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/log"
	"github.com/waabox/vibedeck/internal/pipeline"
	"github.com/waabox/vibedeck/internal/printer"
	"github.com/waabox/vibedeck/internal/reconcile"
)

// ErrSourcesExhausted is returned when both the log stream and the status
// poll are gone before the job reached a terminal state.
var ErrSourcesExhausted = errors.New("lost both log stream and status polling before the job finished")

var errStreamEnded = errors.New("log stream ended without a completion marker")

const finalFetchTimeout = 5 * time.Second

// Config is the configuration of a Watcher.
type Config struct {
	Service      domain.JobService
	Printer      printer.WatchPrinter
	Logger       log.Logger
	PollInterval time.Duration
	// Now is the clock used to timestamp transitions, time.Now by default.
	Now func() time.Time
}

func (c *Config) defaults() error {
	if c.Service == nil {
		return fmt.Errorf("job service is required")
	}
	if c.Printer == nil {
		return fmt.Errorf("printer is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return nil
}

// Watcher runs one watch session: a reducer, a stream pump and a poll loop
// exchanging messages over a single channel.
type Watcher struct {
	cfg Config
}

// New returns a new Watcher.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid watcher configuration: %w", err)
	}
	return &Watcher{cfg: cfg}, nil
}

// Watch follows the job until it is terminal, ctx is cancelled, or both
// signal sources are gone. The returned session is the last reconciled state.
func (w *Watcher) Watch(ctx context.Context, id domain.JobID) (reconcile.Session, error) {
	if err := id.Validate(); err != nil {
		return reconcile.Session{}, err
	}
	logger := w.cfg.Logger.WithValues(log.Kv{"job-id": id})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs := make(chan reconcile.Message)
	send := func(m reconcile.Message) {
		m.JobID = id
		select {
		case msgs <- m:
		case <-ctx.Done():
		}
	}

	session := reconcile.New(id, w.cfg.Now())
	var g run.Group

	// Reducer.
	{
		g.Add(
			func() error {
				w.printStages(reconcile.Session{}, session)
				for {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case m := <-msgs:
						next := session.Apply(m, w.cfg.Now())
						w.printDiff(session, next)
						session = next
					}
					if session.Terminal {
						session = w.finish(ctx, session, logger)
						return nil
					}
					if session.Stalled() {
						return ErrSourcesExhausted
					}
				}
			},
			func(_ error) {
				cancel()
			},
		)
	}

	// Log stream pump.
	{
		g.Add(
			func() error {
				w.pumpStream(ctx, id, send, logger)
				<-ctx.Done()
				return ctx.Err()
			},
			func(_ error) {
				cancel()
			},
		)
	}

	// Status poll loop.
	{
		g.Add(
			func() error {
				w.pollLoop(ctx, id, send, logger)
				<-ctx.Done()
				return ctx.Err()
			},
			func(_ error) {
				cancel()
			},
		)
	}

	err := g.Run()
	return session, err
}

func (w *Watcher) pumpStream(ctx context.Context, id domain.JobID, send func(reconcile.Message), logger log.Logger) {
	stream, err := w.cfg.Service.OpenLogStream(ctx, id)
	if err != nil {
		logger.Warningf("Could not open log stream: %s", err)
		send(reconcile.Message{Source: reconcile.SourceStream, Event: reconcile.StreamLost{Err: err}})
		return
	}
	defer stream.Close()

	frames := stream.Frames()
	for {
		var frame []byte
		var ok bool
		select {
		case <-ctx.Done():
			return
		case frame, ok = <-frames:
		}
		if !ok {
			break
		}
		ev, err := reconcile.Decode(frame)
		if err != nil {
			logger.Debugf("Ignoring malformed log event: %s", err)
			continue
		}
		send(reconcile.Message{Source: reconcile.SourceStream, Event: ev})
		if _, ok := ev.(reconcile.StreamCompleted); ok {
			return
		}
	}
	if ctx.Err() != nil {
		return
	}

	err = stream.Err()
	if err == nil {
		err = errStreamEnded
	}
	logger.Warningf("Log stream lost: %s", err)
	send(reconcile.Message{Source: reconcile.SourceStream, Event: reconcile.StreamLost{Err: err}})
}

func (w *Watcher) pollLoop(ctx context.Context, id domain.JobID, send func(reconcile.Message), logger log.Logger) {
	// The delay runs from the end of each request.
	t := time.NewTimer(w.cfg.PollInterval)
	t.Stop()
	defer t.Stop()

	for {
		job, err := w.cfg.Service.GetJob(ctx, id)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warningf("Status polling stopped: %s", err)
			send(reconcile.Message{Source: reconcile.SourcePoll, Event: reconcile.PollFailed{Err: err}})
			return
		}
		send(reconcile.Message{Source: reconcile.SourcePoll, Event: reconcile.SnapshotReceived{Job: job}})
		if job.State.IsTerminal() {
			return
		}

		t.Reset(w.cfg.PollInterval)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// finish fetches the job once more when the stream ended the session before
// any snapshot carried the pull request link, then prints the summary.
func (w *Watcher) finish(ctx context.Context, s reconcile.Session, logger log.Logger) reconcile.Session {
	if !s.HasJob || s.Job.PullRequestLink == "" {
		ctx, cancel := context.WithTimeout(ctx, finalFetchTimeout)
		defer cancel()
		job, err := w.cfg.Service.GetJob(ctx, s.JobID)
		if err != nil {
			logger.Debugf("Could not fetch final job snapshot: %s", err)
		} else {
			s = s.Apply(reconcile.Message{Source: reconcile.SourcePoll, JobID: s.JobID, Event: reconcile.SnapshotReceived{Job: job}}, s.Now)
		}
	}
	_ = w.cfg.Printer.PrintSummary(s.Job, s.Succeeded(), s.TotalElapsed())
	return s
}

func (w *Watcher) printDiff(prev, next reconcile.Session) {
	if len(next.Logs) > len(prev.Logs) {
		for _, e := range next.Logs[len(prev.Logs):] {
			_ = w.cfg.Printer.PrintLog(e)
		}
	}
	w.printStages(prev, next)
	if next.StreamNotice != "" && next.StreamNotice != prev.StreamNotice {
		_ = w.cfg.Printer.PrintNotice(next.StreamNotice)
	}
	if next.PollNotice != "" && next.PollNotice != prev.PollNotice {
		_ = w.cfg.Printer.PrintNotice(next.PollNotice)
	}
}

func (w *Watcher) printStages(prev, next reconcile.Session) {
	before := prev.Tracker.Stages()
	for i, st := range next.Tracker.Stages() {
		if i < len(before) && before[i].Status == st.Status {
			continue
		}
		elapsed, _ := pipeline.StageElapsed(st, next.Now)
		_ = w.cfg.Printer.PrintStage(st, elapsed)
	}
}
