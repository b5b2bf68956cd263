// Package reconcile turns the job log stream and the polled job snapshots
// into pipeline transitions through a single-threaded reducer.
package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/waabox/vibedeck/internal/domain"
)

// Event is one input to the reducer. The concrete types form a closed set.
type Event interface {
	isEvent()
}

// LogReceived is a log record from the stream. Status is the explicit
// pipeline status carried by the record, empty when absent.
type LogReceived struct {
	Entry  domain.LogEntry
	Status string
}

// StreamCompleted is the end-of-stream marker carrying the final job state.
type StreamCompleted struct {
	State  string
	Status string
}

// StreamLost reports that the stream transport failed or ended unexpectedly.
type StreamLost struct {
	Err error
}

// SnapshotReceived is a job snapshot obtained by the poll loop.
type SnapshotReceived struct {
	Job domain.Job
}

// PollFailed reports that the poll loop could not fetch a snapshot.
type PollFailed struct {
	Err error
}

// ClockTicked advances the live clock used for elapsed-time display.
type ClockTicked struct{}

// LogsCleared empties the log view without touching the pipeline.
type LogsCleared struct{}

func (LogReceived) isEvent()      {}
func (StreamCompleted) isEvent()  {}
func (StreamLost) isEvent()       {}
func (SnapshotReceived) isEvent() {}
func (PollFailed) isEvent()       {}
func (ClockTicked) isEvent()      {}
func (LogsCleared) isEvent()      {}

// Source names the producer of a message.
type Source string

const (
	SourceStream Source = "stream"
	SourcePoll   Source = "poll"
	SourceClock  Source = "clock"
	SourceUser   Source = "user"
)

// Message is the unified envelope every producer sends to the reducer.
type Message struct {
	Source Source
	JobID  domain.JobID
	Event  Event
}

// wireLog is the log record shape emitted by the backend.
type wireLog struct {
	EventID   json.RawMessage `json:"event_id"`
	Message   string          `json:"event_message"`
	Severity  string          `json:"severity"`
	EventTime json.RawMessage `json:"event_time"`
	Status    string          `json:"status"`
}

// wireEvent is any stream payload: a bare log record, a record wrapped in a
// {"log": ...} envelope, or the {"type":"complete"} marker.
type wireEvent struct {
	wireLog
	Type  string   `json:"type"`
	State string   `json:"state"`
	Log   *wireLog `json:"log"`
}

// Decode normalizes a raw stream payload into an Event.
// The envelope is unwrapped first, then the completion marker is told apart
// from log records.
func Decode(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding stream event: %w", err)
	}

	status := w.Status
	if status == "" && w.Log != nil {
		status = w.Log.Status
	}

	if w.Type == "complete" {
		return StreamCompleted{State: w.State, Status: status}, nil
	}

	rec := w.wireLog
	if w.Log != nil {
		rec = *w.Log
	}
	return LogReceived{
		Entry: domain.LogEntry{
			ID:       rawString(rec.EventID),
			Time:     parseEventTime(rec.EventTime),
			Severity: domain.Severity(rec.Severity),
			Message:  rec.Message,
		},
		Status: status,
	}, nil
}

func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// parseEventTime accepts epoch milliseconds or an RFC 3339 server timestamp.
func parseEventTime(raw json.RawMessage) time.Time {
	v := rawString(raw)
	if v == "" {
		return time.Time{}
	}
	if ms, err := strconv.ParseFloat(v, 64); err == nil {
		return time.UnixMilli(int64(ms))
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t
	}
	return time.Time{}
}
