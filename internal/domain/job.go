package domain

import (
	"regexp"
	"sort"
	"time"
)

// JobID identifies a build job on the backend.
type JobID string

var jobIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate reports ErrInvalidJobID when the id contains characters the backend never issues.
func (id JobID) Validate() error {
	if !jobIDPattern.MatchString(string(id)) {
		return ErrInvalidJobID
	}
	return nil
}

// ExecutionState is the backend's view of where a job is.
type ExecutionState string

const (
	ExecQueued     ExecutionState = "queued"
	ExecRunning    ExecutionState = "running"
	ExecValidating ExecutionState = "validating"
	ExecPreflight  ExecutionState = "preflight"
	ExecPR         ExecutionState = "pr"
	ExecCompleted  ExecutionState = "completed"
	ExecFailed     ExecutionState = "failed"
)

// IsTerminal reports whether the job will not change state anymore.
func (s ExecutionState) IsTerminal() bool {
	return s == ExecCompleted || s == ExecFailed
}

// Job is a snapshot of a build job as returned by the backend.
type Job struct {
	ID              JobID
	Prompt          string
	State           ExecutionState
	PreviewURL      string
	PullRequestLink string
	ProjectID       string
	RepoURL         string
	BaseBranch      string
	TargetBranch    string
	LLMProvider     string
	TotalTokens     int
	FilesChanged    int
	InitiatedAt     time.Time
	CompletedAt     time.Time
}

// CreateJobRequest holds the parameters for submitting a new build job.
type CreateJobRequest struct {
	Prompt       string
	ProjectID    string
	BaseBranch   string
	TargetBranch string
	LLMProvider  string
	LLMModel     string
}

// Project is a code repository registered on the backend.
type Project struct {
	ID            string
	Name          string
	RepositoryURL string
	CreatedAt     time.Time
}

// NewestFirst returns a copy of jobs sorted by submission time, most recent
// first, keeping at most limit entries (all of them when limit <= 0).
func NewestFirst(jobs []Job, limit int) []Job {
	sorted := make([]Job, len(jobs))
	copy(sorted, jobs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].InitiatedAt.After(sorted[j].InitiatedAt)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
