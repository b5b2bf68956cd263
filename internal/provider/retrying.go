// internal/provider/retrying.go
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/log"
)

const maxBackoff = 5 * time.Second

// RetriesExhaustedError is returned when every attempt of a read failed.
type RetriesExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %s", e.Op, e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Err }

// RetryingService wraps a JobService and retries failed reads with a bounded
// exponential backoff. Writes and stream subscriptions are passed through.
type RetryingService struct {
	inner   domain.JobService
	retries int
	initial time.Duration
	logger  log.Logger
}

// Ensure RetryingService implements JobService.
var _ domain.JobService = (*RetryingService)(nil)

// NewRetryingService creates a RetryingService.
// retries is the number of extra attempts after the first failure.
// initial is the delay before the first retry; it doubles up to maxBackoff.
func NewRetryingService(inner domain.JobService, retries int, initial time.Duration, logger log.Logger) *RetryingService {
	if retries < 0 {
		retries = 0
	}
	if logger == nil {
		logger = log.Noop
	}
	return &RetryingService{
		inner:   inner,
		retries: retries,
		initial: initial,
		logger:  logger,
	}
}

// permanent reports errors that a retry cannot fix.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidJobID) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// newBackOff returns the retry schedule of one call: exponential without
// jitter, capped at maxBackoff, bounded by rs.retries and ctx.
func (rs *RetryingService) newBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = rs.initial
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = maxBackoff
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(rs.retries)), ctx)
}

func (rs *RetryingService) retry(ctx context.Context, op string, call func() error) error {
	attempts := 0
	operation := func() error {
		attempts++
		err := call()
		if err != nil && permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		rs.logger.WithValues(log.Kv{"op": op, "attempt": attempts}).Warningf("Backend call failed, retrying in %s: %s", next, err)
	}

	err := backoff.RetryNotify(operation, rs.newBackOff(ctx), notify)
	if err == nil || permanent(err) || rs.retries == 0 {
		return err
	}
	return &RetriesExhaustedError{Op: op, Attempts: attempts, Err: err}
}

func (rs *RetryingService) GetJob(ctx context.Context, id domain.JobID) (domain.Job, error) {
	var job domain.Job
	err := rs.retry(ctx, "get job", func() error {
		var e error
		job, e = rs.inner.GetJob(ctx, id)
		return e
	})
	if err != nil {
		return domain.Job{}, err
	}
	return job, nil
}

func (rs *RetryingService) ListJobs(ctx context.Context) ([]domain.Job, error) {
	var jobs []domain.Job
	err := rs.retry(ctx, "list jobs", func() error {
		var e error
		jobs, e = rs.inner.ListJobs(ctx)
		return e
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (rs *RetryingService) ListProjectJobs(ctx context.Context, projectID string) ([]domain.Job, error) {
	var jobs []domain.Job
	err := rs.retry(ctx, "list project jobs", func() error {
		var e error
		jobs, e = rs.inner.ListProjectJobs(ctx, projectID)
		return e
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (rs *RetryingService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	err := rs.retry(ctx, "list projects", func() error {
		var e error
		projects, e = rs.inner.ListProjects(ctx)
		return e
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateJob is never retried.
func (rs *RetryingService) CreateJob(ctx context.Context, req domain.CreateJobRequest) (domain.JobID, error) {
	return rs.inner.CreateJob(ctx, req)
}

func (rs *RetryingService) OpenLogStream(ctx context.Context, id domain.JobID) (domain.LogStream, error) {
	return rs.inner.OpenLogStream(ctx, id)
}
