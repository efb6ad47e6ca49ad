package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType is the wire discriminator carried in the "type" field of a
// streaming frame.
type EventType string

const (
	EventTypeStart     EventType = "start"
	EventTypeTaskStart EventType = "task_start"
	EventTypeContent   EventType = "content"
	EventTypeTaskEnd   EventType = "task_end"
	EventTypeTaskStop  EventType = "task_stop"
	EventTypeStop      EventType = "stop"
	EventTypeError     EventType = "error"
)

// StreamEvent is one decoded element of an execution stream. The set of
// implementations is closed; switch on the concrete type:
//
//	switch ev := ev.(type) {
//	case core.ContentEvent:
//	    fmt.Print(ev.Text)
//	case core.StopEvent:
//	    result = ev.Result
//	}
type StreamEvent interface {
	Type() EventType
	isStreamEvent()
}

// StartEvent opens every stream. It is produced locally before the first
// frame is read.
type StartEvent struct {
	StartTime time.Time `json:"start_time_utc"`
}

// Type implements StreamEvent.
func (StartEvent) Type() EventType { return EventTypeStart }
func (StartEvent) isStreamEvent()  {}

// TaskStartEvent reports that the agent started an internal task
// (a skill, a tool, a retrieval step).
type TaskStartEvent struct {
	Key   string `json:"key"`
	Input any    `json:"input,omitempty"`
}

// Type implements StreamEvent.
func (TaskStartEvent) Type() EventType { return EventTypeTaskStart }
func (TaskStartEvent) isStreamEvent()  {}

// ContentEvent carries one fragment of generated text.
type ContentEvent struct {
	Text string `json:"text"`
}

// Type implements StreamEvent.
func (ContentEvent) Type() EventType { return EventTypeContent }
func (ContentEvent) isStreamEvent()  {}

// TaskEndEvent reports the completion of an internal task.
type TaskEndEvent struct {
	Key      string        `json:"key"`
	Result   any           `json:"result,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Type implements StreamEvent.
func (TaskEndEvent) Type() EventType { return EventTypeTaskEnd }
func (TaskEndEvent) isStreamEvent()  {}

// TaskStopEvent reports that an internal task was stopped before finishing.
type TaskStopEvent struct {
	Key      string        `json:"key"`
	Result   any           `json:"result,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Type implements StreamEvent.
func (TaskStopEvent) Type() EventType { return EventTypeTaskStop }
func (TaskStopEvent) isStreamEvent()  {}

// StopEvent terminates a successful stream and embeds the full result.
type StopEvent struct {
	StopTime   time.Time    `json:"stop_time_utc"`
	Result     *AgentResult `json:"result,omitempty"`
	InstanceID string       `json:"instance_id,omitempty"`
}

// Type implements StreamEvent.
func (StopEvent) Type() EventType { return EventTypeStop }
func (StopEvent) isStreamEvent()  {}

// ContinuityID returns the conversation correlation id announced by the stop
// frame: the embedded result's instance id, or the top-level id when the
// result is absent or carries none. The all-zero uuid counts as none.
func (e StopEvent) ContinuityID() string {
	if e.Result != nil && validID(e.Result.InstanceID) {
		return e.Result.InstanceID
	}
	if validID(e.InstanceID) {
		return e.InstanceID
	}
	return ""
}

func validID(id string) bool { return id != "" && id != uuid.Nil.String() }

// ErrorEvent is an in-band protocol error. It is a regular element of the
// sequence; the caller decides whether it is fatal.
type ErrorEvent struct {
	Message    string `json:"error"`
	StatusCode *int   `json:"status_code,omitempty"`
	// RawType holds the discriminator of the frame that produced a synthetic
	// error, if it had one.
	RawType string `json:"-"`
	// Synthetic marks errors produced locally by the parser (unknown frame
	// type or, in strict mode, an undecodable frame). Synthetic errors never
	// terminate a stream.
	Synthetic bool `json:"-"`
}

// Type implements StreamEvent.
func (ErrorEvent) Type() EventType { return EventTypeError }
func (ErrorEvent) isStreamEvent()  {}

// IsTerminal reports whether ev closes a stream: a StopEvent or an ErrorEvent
// sent by the service.
func IsTerminal(ev StreamEvent) bool {
	switch e := ev.(type) {
	case StopEvent:
		return true
	case ErrorEvent:
		return !e.Synthetic
	default:
		return false
	}
}

// NewID generates a new random identifier, used for client side request
// correlation.
func NewID() string { return uuid.NewString() }
