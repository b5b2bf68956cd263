package vibeapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/provider/vibeapi"
)

func newClient(t *testing.T, srv *httptest.Server) *vibeapi.Client {
	t.Helper()
	c, err := vibeapi.NewClient(srv.URL, "acme", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestGetJob_ReturnsSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/job-42" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("X-Tenant-Id"); got != "acme" {
			t.Errorf("expected tenant header 'acme', got '%s'", got)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("expected a request id header")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"task_id":           "job-42",
			"user_prompt":       "add a dark mode toggle",
			"execution_state":   "validating",
			"preview_url":       "/previews/job-42/index.html",
			"pull_request_link": "https://github.com/acme/web/pull/7",
			"initiated_at":      float64(1700000000000),
			"completed_at":      nil,
		})
	}))
	defer srv.Close()

	job, err := newClient(t, srv).GetJob(context.Background(), "job-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.State != domain.ExecValidating {
		t.Errorf("expected state validating, got '%s'", job.State)
	}
	if job.PreviewURL != srv.URL+"/previews/job-42/index.html" {
		t.Errorf("expected absolute preview URL, got '%s'", job.PreviewURL)
	}
	if job.PullRequestLink != "https://github.com/acme/web/pull/7" {
		t.Errorf("unexpected PR link '%s'", job.PullRequestLink)
	}
	if job.InitiatedAt.UnixMilli() != 1700000000000 {
		t.Errorf("unexpected initiated time %v", job.InitiatedAt)
	}
	if !job.CompletedAt.IsZero() {
		t.Errorf("expected zero completion time, got %v", job.CompletedAt)
	}
}

func TestGetJob_RejectsInvalidID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	}))
	defer srv.Close()

	_, err := newClient(t, srv).GetJob(context.Background(), "../admin")
	if !errors.Is(err, domain.ErrInvalidJobID) {
		t.Errorf("expected ErrInvalidJobID, got %v", err)
	}
}

func TestGetJob_MapsStatusCodes(t *testing.T) {
	tests := map[string]struct {
		status int
		expErr error
	}{
		"401 maps to unauthorized": {status: http.StatusUnauthorized, expErr: domain.ErrUnauthorized},
		"404 maps to not found":    {status: http.StatusNotFound, expErr: domain.ErrNotFound},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
			}))
			defer srv.Close()

			_, err := newClient(t, srv).GetJob(context.Background(), "job-1")
			if !errors.Is(err, test.expErr) {
				t.Errorf("expected %v, got %v", test.expErr, err)
			}
		})
	}
}

func TestListProjectJobs_UsesProjectPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/p1/jobs" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"task_id": "a", "execution_state": "completed", "initiated_at": "2024-05-01T10:00:00Z"},
			{"task_id": "b", "execution_state": "running"},
		})
	}))
	defer srv.Close()

	jobs, err := newClient(t, srv).ListProjectJobs(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].InitiatedAt.Year() != 2024 {
		t.Errorf("expected RFC3339 date to be parsed, got %v", jobs[0].InitiatedAt)
	}
	if jobs[1].State != domain.ExecRunning {
		t.Errorf("expected running, got '%s'", jobs[1].State)
	}
}

func TestCreateJob_SendsPromptAndReturnsID(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/jobs" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type, got '%s'", r.Header.Get("Content-Type"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]string{"task_id": "job-7"})
	}))
	defer srv.Close()

	id, err := newClient(t, srv).CreateJob(context.Background(), domain.CreateJobRequest{
		Prompt:     "add login page",
		ProjectID:  "p1",
		BaseBranch: "main",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "job-7" {
		t.Errorf("expected job-7, got '%s'", id)
	}
	if got["prompt"] != "add login page" || got["project_id"] != "p1" || got["base_branch"] != "main" {
		t.Errorf("unexpected request body: %v", got)
	}
	if _, ok := got["llm_model"]; ok {
		t.Errorf("expected empty llm_model to be omitted, got %v", got)
	}
}

func TestCreateJob_ReturnsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "project not found"})
	}))
	defer srv.Close()

	_, err := newClient(t, srv).CreateJob(context.Background(), domain.CreateJobRequest{Prompt: "x", ProjectID: "nope"})
	if err == nil || err.Error() != "creating job: project not found" {
		t.Errorf("expected backend error, got %v", err)
	}
}

func TestListProjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": "p1", "name": "web", "repository_url": "https://github.com/acme/web", "created_at": "1714557600000"},
		})
	}))
	defer srv.Close()

	projects, err := newClient(t, srv).ListProjects(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects) != 1 || projects[0].RepositoryURL != "https://github.com/acme/web" {
		t.Fatalf("unexpected projects: %+v", projects)
	}
	if projects[0].CreatedAt.UnixMilli() != 1714557600000 {
		t.Errorf("expected epoch string to be parsed, got %v", projects[0].CreatedAt)
	}
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	if _, err := vibeapi.NewClient("localhost", "t", nil); err == nil {
		t.Error("expected error for relative API URL")
	}
}
