package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/waabox/vibedeck/internal/printer"
)

// ProjectsCommand prints the projects jobs can be submitted to.
type ProjectsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewProjectsCommand returns the projects command.
func NewProjectsCommand(rootCmd *RootCommand, app *kingpin.Application) *ProjectsCommand {
	c := &ProjectsCommand{rootCmd: rootCmd}
	c.Cmd = app.Command("projects", "List the projects of the tenant.")
	return c
}

func (c ProjectsCommand) Name() string { return c.Cmd.FullCommand() }

func (c ProjectsCommand) Run(ctx context.Context) error {
	cfg, err := c.rootCmd.LoadConfig()
	if err != nil {
		return err
	}
	svc, err := c.rootCmd.NewService(cfg)
	if err != nil {
		return err
	}

	projects, err := svc.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("could not list projects: %w", err)
	}
	if err := printer.NewTablePrinter(c.rootCmd.Stdout).PrintProjects(projects); err != nil {
		return fmt.Errorf("could not print projects: %w", err)
	}
	return nil
}
