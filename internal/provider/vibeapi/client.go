package vibeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/log"
)

const (
	tenantHeader    = "X-Tenant-Id"
	requestIDHeader = "X-Request-Id"
)

// Client implements domain.JobService for the VIBE build backend.
type Client struct {
	baseURL  *url.URL
	tenantID string
	client   *http.Client
	stream   *http.Client
	logger   log.Logger
}

// Ensure Client implements JobService.
var _ domain.JobService = (*Client)(nil)

// NewClient creates a backend client.
// baseURL is the API origin, e.g. http://localhost:3001.
func NewClient(baseURL, tenantID string, logger log.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing API URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("API URL %q must be absolute", baseURL)
	}
	if logger == nil {
		logger = log.Noop
	}
	return &Client{
		baseURL:  u,
		tenantID: tenantID,
		client:   &http.Client{Timeout: 15 * time.Second},
		// Log streams stay open for the whole job; cancellation goes through the context.
		stream: &http.Client{},
		logger: logger.WithValues(log.Kv{"svc": "vibeapi"}),
	}, nil
}

// GetJob returns the current snapshot of a job.
func (c *Client) GetJob(ctx context.Context, id domain.JobID) (domain.Job, error) {
	if err := id.Validate(); err != nil {
		return domain.Job{}, err
	}
	var t task
	if err := c.do(ctx, http.MethodGet, "/jobs/"+string(id), nil, &t); err != nil {
		return domain.Job{}, err
	}
	return t.toJob(c.baseURL), nil
}

// ListJobs returns every job of the tenant.
func (c *Client) ListJobs(ctx context.Context) ([]domain.Job, error) {
	return c.listJobs(ctx, "/jobs")
}

// ListProjectJobs returns the jobs submitted against a single project.
func (c *Client) ListProjectJobs(ctx context.Context, projectID string) ([]domain.Job, error) {
	return c.listJobs(ctx, "/projects/"+url.PathEscape(projectID)+"/jobs")
}

func (c *Client) listJobs(ctx context.Context, path string) ([]domain.Job, error) {
	var tasks []task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	jobs := make([]domain.Job, len(tasks))
	for i, t := range tasks {
		jobs[i] = t.toJob(c.baseURL)
	}
	return jobs, nil
}

// CreateJob submits a prompt and returns the id of the job the backend started.
func (c *Client) CreateJob(ctx context.Context, req domain.CreateJobRequest) (domain.JobID, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}
	if req.ProjectID == "" {
		return "", fmt.Errorf("project is required")
	}
	body := createJobBody{
		Prompt:       req.Prompt,
		ProjectID:    req.ProjectID,
		BaseBranch:   req.BaseBranch,
		TargetBranch: req.TargetBranch,
		LLMProvider:  req.LLMProvider,
		LLMModel:     req.LLMModel,
	}
	var result struct {
		TaskID string `json:"task_id"`
		Error  string `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/jobs", body, &result); err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", fmt.Errorf("creating job: %s", result.Error)
	}
	id := domain.JobID(result.TaskID)
	if err := id.Validate(); err != nil {
		return "", fmt.Errorf("backend returned job id %q: %w", result.TaskID, err)
	}
	return id, nil
}

// ListProjects returns the projects registered for the tenant.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var raw []project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &raw); err != nil {
		return nil, err
	}
	projects := make([]domain.Project, len(raw))
	for i, p := range raw {
		projects[i] = p.toProject()
	}
	return projects, nil
}

// Health reports the backend status string and server time.
func (c *Client) Health(ctx context.Context) (string, time.Time, error) {
	var h struct {
		Status    string    `json:"status"`
		Timestamp timestamp `json:"timestamp"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return "", time.Time{}, err
	}
	return h.Status, h.Timestamp.Time(), nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

func (c *Client) do(ctx context.Context, method, path string, body, target interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(tenantHeader, c.tenantID)
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := c.logger.WithValues(log.Kv{"method": method, "path": path, "request-id": reqID})
	logger.Debugf("Calling backend")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		logger.Debugf("Backend answered %s", resp.Status)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("vibe API error: %s: %w", resp.Status, domain.ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("vibe API error: %s: %w", resp.Status, domain.ErrNotFound)
	case resp.StatusCode >= 400:
		return fmt.Errorf("vibe API error: %s", resp.Status)
	}
	return nil
}
