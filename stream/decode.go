package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/serenitystar/core"
)

var (
	// ErrInvalidFrame is returned by DecodeFrame for a payload that is not a
	// JSON object.
	ErrInvalidFrame = errors.New("stream: invalid frame")
	// ErrMissingType is returned by DecodeFrame for a JSON object without a
	// string "type" discriminator.
	ErrMissingType = errors.New("stream: frame has no type")
)

type (
	taskStartFrame struct {
		Key   string `json:"key"`
		Input any    `json:"input"`
	}

	contentFrame struct {
		Text string `json:"text"`
	}

	taskEndFrame struct {
		Key        string `json:"key"`
		Result     any    `json:"result"`
		DurationMS *int64 `json:"duration_ms"`
		Duration   int64  `json:"duration"`
	}

	stopFrame struct {
		StopTime   any            `json:"stop_time_utc"`
		Result     map[string]any `json:"result"`
		InstanceID string         `json:"instance_id"`
	}

	errorFrame struct {
		Error      string `json:"error"`
		Message    string `json:"message"`
		StatusCode *int   `json:"status_code"`
	}
)

// DecodeFrame decodes the JSON payload of one data line into its event
// variant. Unknown discriminators yield a synthetic ErrorEvent rather than an
// error, so the caller can keep reading.
func DecodeFrame(payload []byte) (core.StreamEvent, error) {
	if !gjson.ValidBytes(payload) {
		return nil, ErrInvalidFrame
	}
	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return nil, ErrInvalidFrame
	}
	typ := doc.Get("type")
	if !typ.Exists() {
		typ = doc.Get("Type")
	}
	if typ.Type != gjson.String {
		return nil, ErrMissingType
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}

	kind := core.EventType(typ.String())
	switch kind {
	case core.EventTypeStart:
		return core.StartEvent{StartTime: time.Now().UTC()}, nil

	case core.EventTypeTaskStart:
		var f taskStartFrame
		if err := decodeInto(kind, raw, &f); err != nil {
			return nil, err
		}
		return core.TaskStartEvent{Key: f.Key, Input: f.Input}, nil

	case core.EventTypeContent:
		var f contentFrame
		if err := decodeInto(kind, raw, &f); err != nil {
			return nil, err
		}
		return core.ContentEvent{Text: f.Text}, nil

	case core.EventTypeTaskEnd, core.EventTypeTaskStop:
		var f taskEndFrame
		if err := decodeInto(kind, raw, &f); err != nil {
			return nil, err
		}
		ms := f.Duration
		if f.DurationMS != nil {
			ms = *f.DurationMS
		}
		d := time.Duration(ms) * time.Millisecond
		if kind == core.EventTypeTaskStop {
			return core.TaskStopEvent{Key: f.Key, Result: f.Result, Duration: d}, nil
		}
		return core.TaskEndEvent{Key: f.Key, Result: f.Result, Duration: d}, nil

	case core.EventTypeStop:
		var f stopFrame
		if err := decodeInto(kind, raw, &f); err != nil {
			return nil, err
		}
		ev := core.StopEvent{StopTime: stopTime(f.StopTime), InstanceID: f.InstanceID}
		if f.Result != nil {
			res, err := core.AgentResultFromMap(f.Result)
			if err != nil {
				return nil, fmt.Errorf("%w: stop result: %v", ErrInvalidFrame, err)
			}
			ev.Result = res
		}
		return ev, nil

	case core.EventTypeError:
		var f errorFrame
		if err := decodeInto(kind, raw, &f); err != nil {
			return nil, err
		}
		msg := f.Error
		if msg == "" {
			msg = f.Message
		}
		return core.ErrorEvent{Message: msg, StatusCode: f.StatusCode}, nil

	default:
		return core.ErrorEvent{
			Message:   fmt.Sprintf("Unsupported message type: %s", kind),
			RawType:   string(kind),
			Synthetic: true,
		}, nil
	}
}

// stopTime falls back to the current time when the timestamp is missing or
// unparsable; a stop frame is never dropped for it.
func stopTime(v any) time.Time {
	if s, ok := v.(string); ok {
		if t, ok := core.ParseTime(s); ok && !t.IsZero() {
			return t
		}
	}
	return time.Now().UTC()
}

func decodeInto(kind core.EventType, raw map[string]any, out any) error {
	if err := core.DecodeMap(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFrame, kind, err)
	}
	return nil
}
