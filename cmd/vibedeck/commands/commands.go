package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"golang.org/x/term"

	"github.com/waabox/vibedeck/internal/config"
	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/log"
	"github.com/waabox/vibedeck/internal/provider"
	"github.com/waabox/vibedeck/internal/provider/vibeapi"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// InteractiveCommand is implemented by commands that may take over the
// terminal with a full screen UI.
type InteractiveCommand interface {
	Interactive() bool
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	LogFile    string
	ConfigPath string
	APIURL     string
	TenantID   string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable colored output.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("log-file", "Write logs to this file (required to get logs from full screen commands).").StringVar(&c.LogFile)
	app.Flag("config", "Path to the configuration file.").Default(config.DefaultConfigPath()).StringVar(&c.ConfigPath)
	app.Flag("api-url", "Base URL of the VIBE backend (overrides the configuration).").StringVar(&c.APIURL)
	app.Flag("tenant", "Tenant id sent to the backend (overrides the configuration).").StringVar(&c.TenantID)

	return c
}

// LoadConfig reads the configuration file and applies the flag overrides.
func (c RootCommand) LoadConfig() (config.Config, error) {
	cfg, err := config.LoadFrom(c.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("could not load configuration: %w", err)
	}
	if c.APIURL != "" {
		cfg.API.URL = c.APIURL
	}
	if c.TenantID != "" {
		cfg.API.TenantID = c.TenantID
	}
	return cfg, nil
}

// NewClient returns the raw backend client for cfg.
func (c RootCommand) NewClient(cfg config.Config) (*vibeapi.Client, error) {
	client, err := vibeapi.NewClient(cfg.APIURLOrDefault(), cfg.TenantIDOrDefault(), c.Logger)
	if err != nil {
		return nil, fmt.Errorf("could not create backend client: %w", err)
	}
	return client, nil
}

// NewService returns the job service used by every command: the backend
// client with bounded retries on snapshot reads.
func (c RootCommand) NewService(cfg config.Config) (domain.JobService, error) {
	client, err := c.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return provider.NewRetryingService(client, cfg.PollRetriesOrDefault(), cfg.PollIntervalOrDefault()/4, c.Logger), nil
}

// IsTerminal reports whether stdout is attached to a terminal.
func (c RootCommand) IsTerminal() bool {
	f, ok := c.Stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
