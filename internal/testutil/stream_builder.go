package testutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StreamBuilder provides a fluent helper for constructing streaming response
// bodies in tests.
// Example:
//
//	body := NewStreamBuilder().Content("a").Content("b").Stop(map[string]any{"instanceId": "X"}).Done().String()
//
// Chain only the frames you need; each call appends one line.
type StreamBuilder struct {
	lines []string
}

// NewStreamBuilder creates an empty builder.
func NewStreamBuilder() *StreamBuilder { return &StreamBuilder{} }

// Frame appends a data line carrying v encoded as JSON (chainable).
func (b *StreamBuilder) Frame(v any) *StreamBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal frame: %v", err))
	}
	return b.Data(string(data))
}

// Data appends a data line with a raw payload (chainable).
func (b *StreamBuilder) Data(payload string) *StreamBuilder {
	b.lines = append(b.lines, "data: "+payload)
	return b
}

// Raw appends an arbitrary line, for padding, comments and other noise (chainable).
func (b *StreamBuilder) Raw(line string) *StreamBuilder {
	b.lines = append(b.lines, line)
	return b
}

// Content appends a content frame (chainable).
func (b *StreamBuilder) Content(text string) *StreamBuilder {
	return b.Frame(map[string]any{"type": "content", "text": text})
}

// TaskStart appends a task_start frame (chainable).
func (b *StreamBuilder) TaskStart(key string, input any) *StreamBuilder {
	return b.Frame(map[string]any{"type": "task_start", "key": key, "input": input})
}

// TaskEnd appends a task_end frame (chainable).
func (b *StreamBuilder) TaskEnd(key string, result any, durationMS int64) *StreamBuilder {
	return b.Frame(map[string]any{"type": "task_end", "key": key, "result": result, "duration_ms": durationMS})
}

// Stop appends a stop frame embedding result (chainable). A nil result omits
// the field.
func (b *StreamBuilder) Stop(result map[string]any) *StreamBuilder {
	frame := map[string]any{"type": "stop"}
	if result != nil {
		frame["result"] = result
	}
	return b.Frame(frame)
}

// Error appends an error frame (chainable).
func (b *StreamBuilder) Error(msg string, status int) *StreamBuilder {
	return b.Frame(map[string]any{"type": "error", "error": msg, "status_code": status})
}

// Done appends the end-of-stream sentinel (chainable).
func (b *StreamBuilder) Done() *StreamBuilder { return b.Data("[DONE]") }

// String renders the body with a blank line after every frame, as the
// service does.
func (b *StreamBuilder) String() string {
	var sb strings.Builder
	for _, l := range b.lines {
		sb.WriteString(l)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
