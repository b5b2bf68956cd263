package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/waabox/vibedeck/internal/config"
)

const healthTimeout = 5 * time.Second

// InitCommand writes the resolved configuration to the config file.
type InitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	force   bool
	noCheck bool
}

// NewInitCommand returns the init command.
func NewInitCommand(rootCmd *RootCommand, app *kingpin.Application) *InitCommand {
	c := &InitCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("init", "Write the configuration file with the current settings.")
	c.Cmd.Flag("force", "Overwrite an existing configuration file.").BoolVar(&c.force)
	c.Cmd.Flag("no-check", "Do not check that the backend is reachable.").BoolVar(&c.noCheck)

	return c
}

func (c InitCommand) Name() string { return c.Cmd.FullCommand() }

func (c InitCommand) Run(ctx context.Context) error {
	path := c.rootCmd.ConfigPath
	if _, err := os.Stat(path); err == nil && !c.force {
		return fmt.Errorf("%s already exists, use --force to overwrite it", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not check %s: %w", path, err)
	}

	cfg, err := c.rootCmd.LoadConfig()
	if err != nil {
		return err
	}
	cfg = cfg.WithDefaults()

	if !c.noCheck {
		client, err := c.rootCmd.NewClient(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()
		status, at, err := client.Health(ctx)
		if err != nil {
			return fmt.Errorf("backend at %s is not reachable (use --no-check to skip): %w", cfg.API.URL, err)
		}
		c.rootCmd.Logger.Infof("Backend status %q at %s", status, at.Format(time.RFC3339))
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("could not save configuration: %w", err)
	}
	fmt.Fprintf(c.rootCmd.Stdout, "Configuration written to %s\n", path)
	return nil
}
