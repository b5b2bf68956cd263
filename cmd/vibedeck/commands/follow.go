package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/waabox/vibedeck/internal/config"
	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/printer"
	"github.com/waabox/vibedeck/internal/reconcile"
	"github.com/waabox/vibedeck/internal/tui"
	"github.com/waabox/vibedeck/internal/watch"
)

// ErrJobFailed is returned when a followed job ends in the failed state.
var ErrJobFailed = errors.New("job failed")

func buildConfig(root *RootCommand, svc domain.JobService, cfg config.Config) tui.BuildConfig {
	return tui.BuildConfig{
		Service:      svc,
		Logger:       root.Logger,
		PollInterval: cfg.PollIntervalOrDefault(),
		TickInterval: cfg.TickIntervalOrDefault(),
	}
}

// follow tracks a job until it ends, full screen when interactive and as
// plain lines otherwise.
func follow(ctx context.Context, root *RootCommand, svc domain.JobService, cfg config.Config, id domain.JobID, interactive bool) error {
	var (
		session reconcile.Session
		err     error
	)
	if interactive {
		session, err = tui.RunBuild(ctx, buildConfig(root, svc, cfg), id)
	} else {
		if root.NoColor {
			color.NoColor = true
		}
		var w *watch.Watcher
		w, err = watch.New(watch.Config{
			Service:      svc,
			Printer:      printer.NewLinePrinter(root.Stdout),
			Logger:       root.Logger,
			PollInterval: cfg.PollIntervalOrDefault(),
		})
		if err != nil {
			return fmt.Errorf("could not create watcher: %w", err)
		}
		session, err = w.Watch(ctx, id)
	}
	return outcome(session, err)
}

// outcome turns the last state of a followed job into the command result.
func outcome(s reconcile.Session, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return nil
	case err != nil:
		return err
	case !s.Terminal:
		// The user left before the job ended.
		return nil
	case !s.Succeeded():
		return fmt.Errorf("%w: job %s ended in state %q", ErrJobFailed, s.JobID, s.FinalState)
	}
	return nil
}
