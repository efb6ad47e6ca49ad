package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AgentResult is the terminal outcome of one agent execution. Non-streaming
// calls return it directly; streaming calls embed it in the StopEvent.
type AgentResult struct {
	Content          string                `json:"content"`
	JSONContent      any                   `json:"jsonContent,omitempty"`
	CompletionUsage  *TokenUsage           `json:"completionUsage,omitempty"`
	InstanceID       string                `json:"instanceId,omitempty"`
	ExecutorTaskLogs []ExecutorTaskLog     `json:"executorTaskLogs,omitempty"`
	PendingActions   []PendingAction       `json:"pendingActions,omitempty"`
	SensitiveData    []SensitiveDataRecord `json:"sensitiveData,omitempty"`
	ActionResults    map[string]any        `json:"actionResults,omitempty"`
	TimeToFirstToken *int64                `json:"timeToFirstToken,omitempty"`
	Cost             *Cost                 `json:"cost,omitempty"`
	Metadata         map[string]any        `json:"metadata,omitempty"`
}

// TokenUsage holds the token counters of one execution.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ExecutorTaskLog is one entry of the per-task execution log.
type ExecutorTaskLog struct {
	TaskName   string `json:"taskName"`
	DurationMS int64  `json:"durationInMs"`
	Success    bool   `json:"success"`
}

// Duration returns the task duration.
func (l ExecutorTaskLog) Duration() time.Duration {
	return time.Duration(l.DurationMS) * time.Millisecond
}

// SensitiveDataRecord describes a fragment redacted from the prompt before it
// reached the model.
type SensitiveDataRecord struct {
	Original    string  `json:"original"`
	Placeholder string  `json:"placeholder"`
	Score       float64 `json:"score"`
}

// Cost is the optional billing extension of a result.
type Cost struct {
	Total    float64 `json:"total"`
	Currency string  `json:"currency,omitempty"`
}

// PendingAction is an action the end user must complete out of band before
// the agent can proceed (for example authorizing a connector). The set of
// implementations is closed; unknown kinds decode to UnknownPendingAction.
type PendingAction interface {
	Kind() string
	isPendingAction()
}

// PendingActionKindConnection identifies a ConnectionPendingAction.
const PendingActionKindConnection = "connection"

// ConnectionPendingAction asks the user to connect an external account.
type ConnectionPendingAction struct {
	URL             string    `json:"url"`
	ConnectorID     uuid.UUID `json:"connectorId"`
	ConnectorName   string    `json:"connectorName"`
	ConnectorImgURL string    `json:"connectorImgUrl"`
}

// Kind implements PendingAction.
func (ConnectionPendingAction) Kind() string     { return PendingActionKindConnection }
func (ConnectionPendingAction) isPendingAction() {}

// MarshalJSON writes the action including its discriminator.
func (a ConnectionPendingAction) MarshalJSON() ([]byte, error) {
	type alias ConnectionPendingAction
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: a.Kind(), alias: alias(a)})
}

// UnknownPendingAction preserves a pending action of a kind this SDK does not
// know about, or one whose fields do not fit its known kind.
type UnknownPendingAction struct {
	Type   string
	Fields map[string]any
}

// Kind implements PendingAction.
func (a UnknownPendingAction) Kind() string   { return a.Type }
func (UnknownPendingAction) isPendingAction() {}

// MarshalJSON writes the original fields back.
func (a UnknownPendingAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Fields)
}

// DecodeAgentResult decodes a JSON result body. Field names are matched
// regardless of case and naming convention.
func DecodeAgentResult(data []byte) (*AgentResult, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Body: data, Err: err}
	}
	result, err := AgentResultFromMap(raw)
	if err != nil {
		return nil, &DecodeError{Body: data, Err: err}
	}
	return result, nil
}

// AgentResultFromMap decodes an already parsed JSON object into a result.
func AgentResultFromMap(raw map[string]any) (*AgentResult, error) {
	var result AgentResult
	if err := DecodeMap(raw, &result); err != nil {
		return nil, err
	}
	result.normalize()
	return &result, nil
}

func (r *AgentResult) normalize() {
	if u := r.CompletionUsage; u != nil {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
}

func decodePendingAction(m map[string]any) (PendingAction, error) {
	kind := ""
	for k, v := range m {
		if normalizeName(k) == "type" {
			kind, _ = v.(string)
			break
		}
	}
	switch kind {
	case PendingActionKindConnection:
		var a ConnectionPendingAction
		if err := DecodeMap(m, &a); err != nil {
			return UnknownPendingAction{Type: kind, Fields: m}, nil
		}
		return a, nil
	default:
		return UnknownPendingAction{Type: kind, Fields: m}, nil
	}
}
