package vibeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/log"
)

// maxEventSize bounds a single SSE event.
const maxEventSize = 1 << 20

var errUnexpectedEOF = errors.New("log stream closed by server")

// OpenLogStream subscribes to the Server-Sent Events log stream of a job.
// The tenant travels as a query parameter on this endpoint. The call returns
// once the backend has answered the subscription.
func (c *Client) OpenLogStream(ctx context.Context, id domain.JobID) (domain.LogStream, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("tenant_id", c.tenantID)
	endpoint := c.endpoint("/jobs/" + string(id) + "/logs?" + q.Encode())
	requestID := uuid.NewString()

	sub := sse.NewClient(endpoint, sse.ClientMaxBufferSize(maxEventSize))
	sub.Connection = c.stream
	sub.Headers["X-Request-Id"] = requestID
	// Reconnecting is left to the caller: a lost stream is reported, polling takes over.
	sub.ReconnectStrategy = &backoff.StopBackOff{}

	ctx, cancel := context.WithCancel(ctx)
	s := &sseStream{
		frames: make(chan []byte),
		cancel: cancel,
		logger: c.logger.WithValues(log.Kv{"job-id": id, "request-id": requestID}),
	}
	answered := make(chan error, 1)
	go s.run(ctx, sub, answered)

	if err := <-answered; err != nil {
		cancel()
		return nil, fmt.Errorf("opening log stream: %w", err)
	}
	s.logger.Debugf("Log stream opened")
	return s, nil
}

type sseStream struct {
	frames chan []byte
	cancel context.CancelFunc
	logger log.Logger

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

func (s *sseStream) Frames() <-chan []byte { return s.frames }

func (s *sseStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *sseStream) Close() error {
	s.closeOnce.Do(s.cancel)
	return nil
}

// run holds the subscription until the server ends it or ctx is cancelled.
// The outcome of the handshake is sent once on answered.
func (s *sseStream) run(ctx context.Context, sub *sse.Client, answered chan<- error) {
	defer close(s.frames)

	handshake := false
	sub.ResponseValidator = func(_ *sse.Client, resp *http.Response) error {
		handshake = true
		err := checkStatus(resp)
		if err != nil {
			resp.Body.Close()
		}
		answered <- err
		return err
	}

	err := sub.SubscribeRawWithContext(ctx, func(ev *sse.Event) {
		if len(ev.Data) == 0 {
			return
		}
		frame := make([]byte, len(ev.Data))
		copy(frame, ev.Data)
		select {
		case s.frames <- frame:
		case <-ctx.Done():
		}
	})

	if !handshake {
		// The request never got a response.
		if err == nil {
			err = errUnexpectedEOF
		}
		answered <- err
		return
	}
	switch {
	case ctx.Err() != nil:
		// Closed by the caller.
		return
	case err == nil:
		// The server ended the response without an error of its own.
		err = errUnexpectedEOF
	}
	s.logger.Debugf("Log stream ended: %s", err)
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
