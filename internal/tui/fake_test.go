package tui_test

import (
	"context"
	"sync"

	"github.com/waabox/vibedeck/internal/domain"
)

// fakeService satisfies domain.JobService for TUI tests.
type fakeService struct {
	mu        sync.Mutex
	jobs      []domain.Job
	job       domain.Job
	jobErr    error
	stream    *fakeStream
	streamErr error
	getCalls  int
}

func (f *fakeService) GetJob(_ context.Context, id domain.JobID) (domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	job := f.job
	job.ID = id
	return job, f.jobErr
}
func (f *fakeService) ListJobs(_ context.Context) ([]domain.Job, error) {
	return f.jobs, nil
}
func (f *fakeService) ListProjectJobs(_ context.Context, projectID string) ([]domain.Job, error) {
	var jobs []domain.Job
	for _, j := range f.jobs {
		if j.ProjectID == projectID {
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}
func (f *fakeService) CreateJob(_ context.Context, _ domain.CreateJobRequest) (domain.JobID, error) {
	return "", nil
}
func (f *fakeService) ListProjects(_ context.Context) ([]domain.Project, error) {
	return nil, nil
}
func (f *fakeService) OpenLogStream(_ context.Context, _ domain.JobID) (domain.LogStream, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.stream, nil
}

// fakeStream is a LogStream over a buffered channel of frames.
type fakeStream struct {
	frames chan []byte
	err    error
	once   sync.Once
	closed bool
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
func (s *fakeStream) Close() error {
	s.once.Do(func() {
		s.closed = true
		close(s.frames)
	})
	return nil
}

// end closes the frame channel as the transport would, recording err.
func (s *fakeStream) end(err error) {
	s.err = err
	s.once.Do(func() { close(s.frames) })
}
