package vibeapi_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waabox/vibedeck/internal/domain"
)

func collect(t *testing.T, s domain.LogStream) []string {
	t.Helper()
	var frames []string
	for f := range s.Frames() {
		frames = append(frames, string(f))
	}
	return frames
}

func TestOpenLogStream_DeliversDataFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/job-1/logs", r.URL.Path)
		assert.Equal(t, "acme", r.URL.Query().Get("tenant_id"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "event: message\nid: 1\ndata: {\"event_message\":\"hi\"}\n\n")
		fmt.Fprint(w, "data: {\"a\":\ndata: 1}\r\n\r\n")
		fmt.Fprint(w, "data: {\"type\":\"complete\",\"state\":\"completed\"}\n\n")
	}))
	defer srv.Close()

	s, err := newClient(t, srv).OpenLogStream(context.Background(), "job-1")
	require.NoError(t, err)
	defer s.Close()

	frames := collect(t, s)
	assert.Equal(t, []string{
		`{"event_message":"hi"}`,
		"{\"a\":\n1}",
		`{"type":"complete","state":"completed"}`,
	}, frames)
	// The server closing the connection is reported.
	assert.Error(t, s.Err())
}

func TestOpenLogStream_ServerCloseIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: one\n\n")
	}))
	defer srv.Close()

	s, err := newClient(t, srv).OpenLogStream(context.Background(), "job-1")
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"one"}, collect(t, s))
	assert.EqualError(t, s.Err(), "log stream closed by server")
}

func TestOpenLogStream_SendsRequestID(t *testing.T) {
	ids := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get("X-Request-Id")
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
	}))
	defer srv.Close()

	s, err := newClient(t, srv).OpenLogStream(context.Background(), "job-1")
	require.NoError(t, err)
	defer s.Close()

	assert.NotEmpty(t, <-ids)
}

func TestOpenLogStream_ReportsUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := newClient(t, srv)
	srv.Close()

	_, err := c.OpenLogStream(context.Background(), "job-1")
	assert.Error(t, err)
}

func TestOpenLogStream_CloseEndsStreamWithoutError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: first\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	s, err := newClient(t, srv).OpenLogStream(context.Background(), "job-1")
	require.NoError(t, err)

	assert.Equal(t, "first", string(<-s.Frames()))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	for range s.Frames() {
	}
	assert.NoError(t, s.Err())
}

func TestOpenLogStream_MapsStatusCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newClient(t, srv).OpenLogStream(context.Background(), "job-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestOpenLogStream_RejectsInvalidID(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newClient(t, srv).OpenLogStream(context.Background(), "a b")
	assert.ErrorIs(t, err, domain.ErrInvalidJobID)
}
