package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/git"
	"github.com/waabox/vibedeck/internal/provider"
)

// SubmitCommand creates a job from a prompt and follows it.
type SubmitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	prompt       string
	project      string
	baseBranch   string
	targetBranch string
	llmProvider  string
	llmModel     string
	noWatch      bool
	plain        bool
}

// NewSubmitCommand returns the submit command.
func NewSubmitCommand(rootCmd *RootCommand, app *kingpin.Application) *SubmitCommand {
	c := &SubmitCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("submit", "Submit a prompt as a new build job.")
	c.Cmd.Arg("prompt", "What the job should build.").Required().StringVar(&c.prompt)
	c.Cmd.Flag("project", "Project id (detected from the git origin remote when not set).").StringVar(&c.project)
	c.Cmd.Flag("base-branch", "Branch the changes start from.").StringVar(&c.baseBranch)
	c.Cmd.Flag("target-branch", "Branch the pull request is opened from.").StringVar(&c.targetBranch)
	c.Cmd.Flag("llm-provider", "LLM provider used to generate the changes.").StringVar(&c.llmProvider)
	c.Cmd.Flag("llm-model", "LLM model used to generate the changes.").StringVar(&c.llmModel)
	c.Cmd.Flag("no-watch", "Print the job id and exit without following the job.").BoolVar(&c.noWatch)
	c.Cmd.Flag("plain", "Follow the job with plain log lines.").BoolVar(&c.plain)

	return c
}

func (c SubmitCommand) Name() string { return c.Cmd.FullCommand() }

func (c SubmitCommand) Interactive() bool {
	return !c.noWatch && !c.plain && c.rootCmd.IsTerminal()
}

func (c SubmitCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	cfg, err := c.rootCmd.LoadConfig()
	if err != nil {
		return err
	}
	svc, err := c.rootCmd.NewService(cfg)
	if err != nil {
		return err
	}

	projectID := c.project
	if projectID == "" {
		projectID, err = detectProject(ctx, svc)
		if err != nil {
			return err
		}
		logger.Infof("Using project %s", projectID)
	}

	id, err := svc.CreateJob(ctx, domain.CreateJobRequest{
		Prompt:       c.prompt,
		ProjectID:    projectID,
		BaseBranch:   c.baseBranch,
		TargetBranch: c.targetBranch,
		LLMProvider:  c.llmProvider,
		LLMModel:     c.llmModel,
	})
	if err != nil {
		return fmt.Errorf("could not submit job: %w", err)
	}

	if c.noWatch {
		fmt.Fprintln(c.rootCmd.Stdout, id)
		return nil
	}
	if !c.Interactive() {
		fmt.Fprintf(c.rootCmd.Stdout, "Submitted job %s\n", id)
	}
	return follow(ctx, c.rootCmd, svc, cfg, id, c.Interactive())
}

// detectProject finds the backend project built from the git repository of
// the working directory.
func detectProject(ctx context.Context, svc domain.JobService) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("could not get working directory: %w", err)
	}
	repo, err := git.DetectRepository(cwd)
	if err != nil {
		return "", fmt.Errorf("could not detect project, pass --project: %w", err)
	}
	projects, err := svc.ListProjects(ctx)
	if err != nil {
		return "", fmt.Errorf("could not list projects: %w", err)
	}
	project, err := provider.NewRegistry(projects).Detect(repo)
	if err != nil {
		return "", err
	}
	return project.ID, nil
}
