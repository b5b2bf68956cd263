package domain

import "context"

// JobService is the port the drivers use to talk to the build backend.
// The domain does not know about HTTP or Server-Sent Events.
type JobService interface {
	GetJob(ctx context.Context, id JobID) (Job, error)
	ListJobs(ctx context.Context) ([]Job, error)
	ListProjectJobs(ctx context.Context, projectID string) ([]Job, error)
	CreateJob(ctx context.Context, req CreateJobRequest) (JobID, error)
	ListProjects(ctx context.Context) ([]Project, error)
	OpenLogStream(ctx context.Context, id JobID) (LogStream, error)
}

// LogStream is a live subscription to a job's log event stream.
// Frames delivers raw event payloads in arrival order and is closed when the
// stream ends. Close is safe to call more than once.
type LogStream interface {
	Frames() <-chan []byte
	// Err returns the error that ended the stream, or nil when it was closed
	// by the caller. Only meaningful after Frames is closed.
	Err() error
	Close() error
}
