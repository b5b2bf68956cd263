package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/printer"
)

// JobsCommand prints the most recent jobs.
type JobsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	project string
	limit   int
}

// NewJobsCommand returns the jobs command.
func NewJobsCommand(rootCmd *RootCommand, app *kingpin.Application) *JobsCommand {
	c := &JobsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("jobs", "List the most recent jobs.")
	c.Cmd.Flag("project", "Only list the jobs of this project id.").StringVar(&c.project)
	c.Cmd.Flag("limit", "Maximum number of jobs to print (defaults to the configured job limit).").IntVar(&c.limit)

	return c
}

func (c JobsCommand) Name() string { return c.Cmd.FullCommand() }

func (c JobsCommand) Run(ctx context.Context) error {
	cfg, err := c.rootCmd.LoadConfig()
	if err != nil {
		return err
	}
	svc, err := c.rootCmd.NewService(cfg)
	if err != nil {
		return err
	}

	var jobs []domain.Job
	if c.project != "" {
		jobs, err = svc.ListProjectJobs(ctx, c.project)
	} else {
		jobs, err = svc.ListJobs(ctx)
	}
	if err != nil {
		return fmt.Errorf("could not list jobs: %w", err)
	}

	limit := c.limit
	if limit <= 0 {
		limit = cfg.JobLimitOrDefault()
	}
	if err := printer.NewTablePrinter(c.rootCmd.Stdout).PrintJobs(domain.NewestFirst(jobs, limit)); err != nil {
		return fmt.Errorf("could not print jobs: %w", err)
	}
	return nil
}
