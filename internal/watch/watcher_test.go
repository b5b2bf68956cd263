package watch_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/printer"
	"github.com/waabox/vibedeck/internal/provider/vibeapi"
	"github.com/waabox/vibedeck/internal/watch"
)

func init() {
	color.NoColor = true
}

type fakeStream struct {
	frames    chan []byte
	err       error
	closeOnce sync.Once
}

func newFakeStream(frames ...string) *fakeStream {
	s := &fakeStream{frames: make(chan []byte, len(frames))}
	for _, f := range frames {
		s.frames <- []byte(f)
	}
	return s
}

func (s *fakeStream) Frames() <-chan []byte { return s.frames }
func (s *fakeStream) Err() error            { return s.err }
func (s *fakeStream) Close() error          { return nil }
func (s *fakeStream) end(err error) {
	s.closeOnce.Do(func() {
		s.err = err
		close(s.frames)
	})
}

type fakeService struct {
	domain.JobService

	stream    *fakeStream
	streamErr error

	mu   sync.Mutex
	jobs []domain.Job
	errs []error
}

func (f *fakeService) OpenLogStream(_ context.Context, _ domain.JobID) (domain.LogStream, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.stream, nil
}

// GetJob returns the queued jobs in order, repeating the last one.
func (f *fakeService) GetJob(ctx context.Context, id domain.JobID) (domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		if len(f.errs) > 1 {
			f.errs = f.errs[1:]
		}
		if err != nil {
			return domain.Job{}, err
		}
	}
	if len(f.jobs) == 0 {
		<-ctx.Done()
		return domain.Job{}, ctx.Err()
	}
	job := f.jobs[0]
	if len(f.jobs) > 1 {
		f.jobs = f.jobs[1:]
	}
	job.ID = id
	return job, nil
}

func newWatcher(t *testing.T, svc domain.JobService, out *bytes.Buffer) *watch.Watcher {
	t.Helper()
	w, err := watch.New(watch.Config{
		Service:      svc,
		Printer:      printer.NewLinePrinter(out),
		PollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return w
}

func TestWatch_StreamCompletesJob(t *testing.T) {
	stream := newFakeStream(
		`{"event_message":"Building context with ripgrep","severity":"info"}`,
		`{"log":{"event_message":"Calling Claude model","severity":"info"}}`,
		`not json`,
		`{"event_message":"Running tests","severity":"info","status":"testing"}`,
		`{"type":"complete","state":"completed"}`,
	)
	svc := &fakeService{
		stream: stream,
		jobs: []domain.Job{
			{State: domain.ExecRunning, PullRequestLink: "https://github.com/acme/web/pull/7"},
		},
	}

	var out bytes.Buffer
	session, err := newWatcher(t, svc, &out).Watch(context.Background(), "job-1")
	require.NoError(t, err)

	assert.True(t, session.Terminal)
	assert.True(t, session.Succeeded())
	assert.Len(t, session.Logs, 3)
	assert.Equal(t, "https://github.com/acme/web/pull/7", session.Job.PullRequestLink)
	for _, st := range session.Tracker.Stages() {
		assert.Equal(t, domain.StageCompleted, st.Status, st.ID)
	}

	text := out.String()
	assert.Contains(t, text, "==> Queued\n")
	assert.Contains(t, text, "INFO Calling Claude model\n")
	assert.Contains(t, text, "Build completed in")
	assert.Contains(t, text, "Pull request: https://github.com/acme/web/pull/7\n")
}

func TestWatch_PollReportsFailedJob(t *testing.T) {
	svc := &fakeService{
		stream: newFakeStream(),
		jobs:   []domain.Job{{State: domain.ExecRunning}, {State: domain.ExecFailed}},
	}

	var out bytes.Buffer
	session, err := newWatcher(t, svc, &out).Watch(context.Background(), "job-1")
	require.NoError(t, err)

	assert.True(t, session.Terminal)
	assert.False(t, session.Succeeded())
	assert.True(t, session.Tracker.Failed())
	assert.Contains(t, out.String(), "==> Planning\n")
	assert.Contains(t, out.String(), "✗ Planning failed")
	assert.Contains(t, out.String(), "Build failed after")
}

func TestWatch_BothSourcesLost(t *testing.T) {
	svc := &fakeService{
		streamErr: fmt.Errorf("connection refused"),
		errs:      []error{fmt.Errorf("connection refused")},
	}

	var out bytes.Buffer
	session, err := newWatcher(t, svc, &out).Watch(context.Background(), "job-1")
	assert.ErrorIs(t, err, watch.ErrSourcesExhausted)
	assert.False(t, session.Terminal)
	assert.Contains(t, out.String(), "! Connection to log stream lost\n")
	assert.Contains(t, out.String(), "! Status polling stopped: connection refused\n")
}

func TestWatch_StreamDropKeepsPolling(t *testing.T) {
	stream := newFakeStream(`{"event_message":"Scanning repository","severity":"info"}`)
	stream.end(errors.New("unexpected EOF"))
	svc := &fakeService{
		stream: stream,
		jobs: []domain.Job{
			{State: domain.ExecRunning},
			{State: domain.ExecRunning},
			{State: domain.ExecRunning},
			{State: domain.ExecRunning},
			{State: domain.ExecRunning},
			{State: domain.ExecRunning},
			{State: domain.ExecPreflight},
			{State: domain.ExecCompleted},
		},
	}

	var out bytes.Buffer
	session, err := newWatcher(t, svc, &out).Watch(context.Background(), "job-1")
	require.NoError(t, err)

	assert.True(t, session.Succeeded())
	assert.Equal(t, "Connection to log stream lost", session.StreamNotice)
	assert.Contains(t, out.String(), "INFO Scanning repository\n")
	assert.Contains(t, out.String(), "==> Testing\n")
}

func TestWatch_Cancelled(t *testing.T) {
	svc := &fakeService{stream: newFakeStream()}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	_, err := newWatcher(t, svc, &out).Watch(ctx, "job-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWatch_RejectsInvalidJobID(t *testing.T) {
	var out bytes.Buffer
	_, err := newWatcher(t, &fakeService{}, &out).Watch(context.Background(), "bad id")
	assert.ErrorIs(t, err, domain.ErrInvalidJobID)
}

func TestNew_RequiresServiceAndPrinter(t *testing.T) {
	_, err := watch.New(watch.Config{})
	assert.Error(t, err)
}

func TestWatch_AgainstBackend(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/job-9/logs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"event_message\":\"Building context\",\"severity\":\"info\",\"event_id\":1}\n\n")
		fmt.Fprint(w, "data: {\"event_message\":\"Generating diff\",\"severity\":\"info\",\"status\":\"building\"}\n\n")
		fmt.Fprint(w, "data: {\"event_message\":\"Lint failed\",\"severity\":\"error\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"complete\",\"state\":\"failed\"}\n\n")
	})
	mux.HandleFunc("/jobs/job-9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"task_id":"job-9","execution_state":"running"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := vibeapi.NewClient(srv.URL, "acme", nil)
	require.NoError(t, err)

	var out bytes.Buffer
	session, err := newWatcher(t, client, &out).Watch(context.Background(), "job-9")
	require.NoError(t, err)

	assert.True(t, session.Terminal)
	assert.Equal(t, "failed", session.FinalState)
	assert.True(t, session.Tracker.Failed())
	assert.Contains(t, out.String(), "ERR! Lint failed\n")
	assert.Contains(t, out.String(), "Build failed after")
}

// slowService answers every GetJob after delay and records when each call
// started and ended.
type slowService struct {
	domain.JobService

	delay  time.Duration
	stream *fakeStream

	mu     sync.Mutex
	starts []time.Time
	ends   []time.Time
}

func (s *slowService) OpenLogStream(_ context.Context, _ domain.JobID) (domain.LogStream, error) {
	return s.stream, nil
}

func (s *slowService) GetJob(ctx context.Context, id domain.JobID) (domain.Job, error) {
	s.mu.Lock()
	s.starts = append(s.starts, time.Now())
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return domain.Job{}, ctx.Err()
	case <-time.After(s.delay):
	}

	s.mu.Lock()
	s.ends = append(s.ends, time.Now())
	s.mu.Unlock()
	return domain.Job{ID: id, State: domain.ExecRunning}, nil
}

func TestWatch_PollWaitsAfterEachResponse(t *testing.T) {
	const interval = 20 * time.Millisecond
	svc := &slowService{delay: 3 * interval, stream: newFakeStream()}
	w, err := watch.New(watch.Config{
		Service:      svc,
		Printer:      printer.NewLinePrinter(&bytes.Buffer{}),
		PollInterval: interval,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	_, err = w.Watch(ctx, "job-1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	require.GreaterOrEqual(t, len(svc.ends), 2)
	for i := 0; i < len(svc.ends) && i+1 < len(svc.starts); i++ {
		gap := svc.starts[i+1].Sub(svc.ends[i])
		assert.GreaterOrEqual(t, gap, interval, "poll %d started %s after the previous response", i+2, gap)
	}
}
