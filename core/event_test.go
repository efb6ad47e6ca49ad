package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStopEvent_ContinuityID(t *testing.T) {
	t.Run("prefers embedded result", func(t *testing.T) {
		ev := StopEvent{Result: &AgentResult{InstanceID: "X"}, InstanceID: "Y"}
		assert.Equal(t, "X", ev.ContinuityID())
	})

	t.Run("falls back to top-level id", func(t *testing.T) {
		assert.Equal(t, "Y", StopEvent{InstanceID: "Y"}.ContinuityID())
		assert.Equal(t, "Y", StopEvent{Result: &AgentResult{}, InstanceID: "Y"}.ContinuityID())
		zero := "00000000-0000-0000-0000-000000000000"
		assert.Equal(t, "Y", StopEvent{Result: &AgentResult{InstanceID: zero}, InstanceID: "Y"}.ContinuityID())
		assert.Empty(t, StopEvent{InstanceID: zero}.ContinuityID())
	})

	t.Run("empty when nothing is announced", func(t *testing.T) {
		assert.Empty(t, StopEvent{}.ContinuityID())
	})
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		name string
		ev   StreamEvent
		want bool
	}{
		{"start", StartEvent{}, false},
		{"content", ContentEvent{Text: "a"}, false},
		{"task start", TaskStartEvent{Key: "k"}, false},
		{"task end", TaskEndEvent{Key: "k"}, false},
		{"task stop", TaskStopEvent{Key: "k"}, false},
		{"stop", StopEvent{}, true},
		{"server error", ErrorEvent{Message: "boom"}, true},
		{"unsupported type", ErrorEvent{Message: "Unsupported message type: ping", RawType: "ping", Synthetic: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTerminal(tt.ev))
		})
	}
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, EventTypeStart, StartEvent{}.Type())
	assert.Equal(t, EventTypeTaskStart, TaskStartEvent{}.Type())
	assert.Equal(t, EventTypeContent, ContentEvent{}.Type())
	assert.Equal(t, EventTypeTaskEnd, TaskEndEvent{}.Type())
	assert.Equal(t, EventTypeTaskStop, TaskStopEvent{}.Type())
	assert.Equal(t, EventTypeStop, StopEvent{}.Type())
	assert.Equal(t, EventTypeError, ErrorEvent{}.Type())
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
