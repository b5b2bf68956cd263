package vibeapi

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/waabox/vibedeck/internal/domain"
)

// task is the raw backend shape of a job.
type task struct {
	TaskID          string    `json:"task_id"`
	UserPrompt      string    `json:"user_prompt"`
	ExecutionState  string    `json:"execution_state"`
	PullRequestLink string    `json:"pull_request_link"`
	PreviewURL      string    `json:"preview_url"`
	InitiatedAt     timestamp `json:"initiated_at"`
	CompletedAt     timestamp `json:"completed_at"`
	ProjectID       string    `json:"project_id"`
	RepoURL         string    `json:"repo_url"`
	BaseBranch      string    `json:"base_branch"`
	TargetBranch    string    `json:"target_branch"`
	LLMProvider     string    `json:"llm_provider"`
	LLMTotalTokens  int       `json:"llm_total_tokens"`
	FilesChanged    int       `json:"files_changed_count"`
}

func (t task) toJob(base *url.URL) domain.Job {
	return domain.Job{
		ID:              domain.JobID(t.TaskID),
		Prompt:          t.UserPrompt,
		State:           domain.ExecutionState(t.ExecutionState),
		PreviewURL:      resolvePreviewURL(base, t.PreviewURL),
		PullRequestLink: t.PullRequestLink,
		ProjectID:       t.ProjectID,
		RepoURL:         t.RepoURL,
		BaseBranch:      t.BaseBranch,
		TargetBranch:    t.TargetBranch,
		LLMProvider:     t.LLMProvider,
		TotalTokens:     t.LLMTotalTokens,
		FilesChanged:    t.FilesChanged,
		InitiatedAt:     t.InitiatedAt.Time(),
		CompletedAt:     t.CompletedAt.Time(),
	}
}

// resolvePreviewURL turns backend-relative preview paths into absolute URLs.
func resolvePreviewURL(base *url.URL, raw string) string {
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil || ref.IsAbs() {
		return raw
	}
	return base.ResolveReference(ref).String()
}

// project is the raw backend shape of a project.
type project struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	RepositoryURL string    `json:"repository_url"`
	CreatedAt     timestamp `json:"created_at"`
}

func (p project) toProject() domain.Project {
	return domain.Project{
		ID:            p.ID,
		Name:          p.Name,
		RepositoryURL: p.RepositoryURL,
		CreatedAt:     p.CreatedAt.Time(),
	}
}

type createJobBody struct {
	Prompt       string `json:"prompt"`
	ProjectID    string `json:"project_id"`
	BaseBranch   string `json:"base_branch,omitempty"`
	TargetBranch string `json:"target_branch,omitempty"`
	LLMProvider  string `json:"llm_provider,omitempty"`
	LLMModel     string `json:"llm_model,omitempty"`
}

// timestamp accepts epoch milliseconds, RFC3339 strings and null.
type timestamp time.Time

func (ts *timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			*ts = timestamp(time.UnixMilli(ms))
			return nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			// Unparseable dates stay zero.
			return nil
		}
		*ts = timestamp(t)
		return nil
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	*ts = timestamp(time.UnixMilli(int64(ms)))
	return nil
}

// Time returns the zero time when the value was absent.
func (ts timestamp) Time() time.Time {
	return time.Time(ts)
}
