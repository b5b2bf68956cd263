package commands

import (
	"context"

	"github.com/alecthomas/kingpin/v2"

	"github.com/waabox/vibedeck/internal/tui"
)

// DashCommand opens the full screen job browser.
type DashCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	project string
}

// NewDashCommand returns the dash command.
func NewDashCommand(rootCmd *RootCommand, app *kingpin.Application) *DashCommand {
	c := &DashCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("dash", "Browse jobs and follow one live.").Default()
	c.Cmd.Flag("project", "Only list the jobs of this project id.").StringVar(&c.project)

	return c
}

func (c DashCommand) Name() string { return c.Cmd.FullCommand() }

func (c DashCommand) Interactive() bool { return true }

func (c DashCommand) Run(ctx context.Context) error {
	cfg, err := c.rootCmd.LoadConfig()
	if err != nil {
		return err
	}
	svc, err := c.rootCmd.NewService(cfg)
	if err != nil {
		return err
	}

	return tui.RunDashboard(ctx, tui.AppConfig{
		Build:     buildConfig(c.rootCmd, svc, cfg),
		ProjectID: c.project,
		JobLimit:  cfg.JobLimitOrDefault(),
	})
}
