package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/waabox/vibedeck/cmd/vibedeck/commands"
	"github.com/waabox/vibedeck/internal/log"
	loglogrus "github.com/waabox/vibedeck/internal/log/logrus"
)

// Version is the application version (set via ldflags).
var Version = "dev"

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("vibedeck", "Terminal client for VIBE build jobs.")
	app.Version(Version)
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).
	dashCmd := commands.NewDashCommand(rootCmd, app)
	watchCmd := commands.NewWatchCommand(rootCmd, app)
	submitCmd := commands.NewSubmitCommand(rootCmd, app)
	jobsCmd := commands.NewJobsCommand(rootCmd, app)
	projectsCmd := commands.NewProjectsCommand(rootCmd, app)
	initCmd := commands.NewInitCommand(rootCmd, app)

	cmds := map[string]commands.Command{
		dashCmd.Name():     dashCmd,
		watchCmd.Name():    watchCmd,
		submitCmd.Name():   submitCmd,
		jobsCmd.Name():     jobsCmd,
		projectsCmd.Name(): projectsCmd,
		initCmd.Name():     initCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Full screen commands own the terminal: logs only go to --log-file.
	cmd := cmds[cmdName]
	if ic, ok := cmd.(commands.InteractiveCommand); ok && ic.Interactive() && rootCmd.LogFile == "" {
		rootCmd.NoLog = true
	}

	// Set logger.
	logger, closeLog, err := getLogger(*rootCmd)
	if err != nil {
		return err
	}
	defer closeLog()
	rootCmd.Logger = logger

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmd.Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// getLogger returns the application logger and a func releasing its output.
func getLogger(config commands.RootCommand) (log.Logger, func(), error) {
	noop := func() {}
	if config.NoLog {
		return log.Noop, noop, nil
	}

	// If logger not disabled use logrus logger.
	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr // By default logger goes to stderr (so it can split stdout prints).
	closeLog := noop
	noColor := config.NoColor
	if config.LogFile != "" {
		f, err := os.OpenFile(config.LogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open log file: %w", err)
		}
		logrusLog.Out = f
		closeLog = func() { _ = f.Close() }
		noColor = true
	}
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	// Log format.
	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !noColor,
			DisableColors: noColor,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled") // Will log only when debug enabled.

	return logger, closeLog, nil
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
