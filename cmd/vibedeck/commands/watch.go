package commands

import (
	"context"

	"github.com/alecthomas/kingpin/v2"

	"github.com/waabox/vibedeck/internal/domain"
)

// WatchCommand follows one job until it ends.
type WatchCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	jobID string
	plain bool
}

// NewWatchCommand returns the watch command.
func NewWatchCommand(rootCmd *RootCommand, app *kingpin.Application) *WatchCommand {
	c := &WatchCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("watch", "Follow the build pipeline of a job.")
	c.Cmd.Arg("job-id", "Job to follow.").Required().StringVar(&c.jobID)
	c.Cmd.Flag("plain", "Print log lines instead of the full screen view (default when stdout is not a terminal).").BoolVar(&c.plain)

	return c
}

func (c WatchCommand) Name() string { return c.Cmd.FullCommand() }

func (c WatchCommand) Interactive() bool { return !c.plain && c.rootCmd.IsTerminal() }

func (c WatchCommand) Run(ctx context.Context) error {
	id := domain.JobID(c.jobID)
	if err := id.Validate(); err != nil {
		return err
	}

	cfg, err := c.rootCmd.LoadConfig()
	if err != nil {
		return err
	}
	svc, err := c.rootCmd.NewService(cfg)
	if err != nil {
		return err
	}

	return follow(ctx, c.rootCmd, svc, cfg, id, c.Interactive())
}
