package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAgentResult_TotalTokens(t *testing.T) {
	res, err := DecodeAgentResult([]byte(`{
		"content": "hello",
		"instanceId": "A",
		"completionUsage": {"promptTokens": 10, "completionTokens": 5}
	}`))
	require.NoError(t, err)
	require.NotNil(t, res.CompletionUsage)
	assert.Equal(t, 10, res.CompletionUsage.PromptTokens)
	assert.Equal(t, 5, res.CompletionUsage.CompletionTokens)
	assert.Equal(t, 15, res.CompletionUsage.TotalTokens)
	assert.Equal(t, "hello", res.Content)
	assert.Equal(t, "A", res.InstanceID)
}

func TestDecodeAgentResult_TotalIsRecomputed(t *testing.T) {
	res, err := DecodeAgentResult([]byte(`{"completion_usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":99}}`))
	require.NoError(t, err)
	assert.Equal(t, 7, res.CompletionUsage.TotalTokens)
}

func TestDecodeAgentResult_NamingConventions(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"camelCase", `{"instanceId":"X","timeToFirstToken":120}`},
		{"snake_case", `{"instance_id":"X","time_to_first_token":120}`},
		{"PascalCase", `{"InstanceId":"X","TimeToFirstToken":120}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := DecodeAgentResult([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, "X", res.InstanceID)
			require.NotNil(t, res.TimeToFirstToken)
			assert.Equal(t, int64(120), *res.TimeToFirstToken)
		})
	}
}

func TestDecodeAgentResult_Extensions(t *testing.T) {
	connectorID := uuid.New()
	body := `{
		"content": "{\"a\":1}",
		"jsonContent": {"a": 1},
		"executorTaskLogs": [{"taskName": "search", "durationInMs": 250, "success": true}],
		"pendingActions": [
			{"type": "connection", "url": "https://auth.example.com", "connectorId": "` + connectorID.String() + `", "connectorName": "Drive", "connectorImgUrl": "https://img"},
			{"type": "approval", "reason": "needs review"}
		],
		"sensitiveData": [{"original": "john@example.com", "placeholder": "[EMAIL]", "score": 0.98}],
		"actionResults": {"tool": "ok"},
		"cost": {"total": 0.25, "currency": "USD"},
		"metadata": {"trace": "t-1"}
	}`

	res, err := DecodeAgentResult([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"a": float64(1)}, res.JSONContent)

	require.Len(t, res.ExecutorTaskLogs, 1)
	assert.Equal(t, "search", res.ExecutorTaskLogs[0].TaskName)
	assert.Equal(t, 250*time.Millisecond, res.ExecutorTaskLogs[0].Duration())
	assert.True(t, res.ExecutorTaskLogs[0].Success)

	require.Len(t, res.PendingActions, 2)
	conn, ok := res.PendingActions[0].(ConnectionPendingAction)
	require.True(t, ok, "expected ConnectionPendingAction, got %T", res.PendingActions[0])
	assert.Equal(t, "https://auth.example.com", conn.URL)
	assert.Equal(t, connectorID, conn.ConnectorID)
	assert.Equal(t, "Drive", conn.ConnectorName)
	assert.Equal(t, PendingActionKindConnection, conn.Kind())

	unknown, ok := res.PendingActions[1].(UnknownPendingAction)
	require.True(t, ok)
	assert.Equal(t, "approval", unknown.Kind())
	assert.Equal(t, "needs review", unknown.Fields["reason"])

	require.Len(t, res.SensitiveData, 1)
	assert.Equal(t, "[EMAIL]", res.SensitiveData[0].Placeholder)
	assert.InDelta(t, 0.98, res.SensitiveData[0].Score, 1e-9)

	assert.Equal(t, "ok", res.ActionResults["tool"])
	require.NotNil(t, res.Cost)
	assert.InDelta(t, 0.25, res.Cost.Total, 1e-9)
	assert.Equal(t, "t-1", res.Metadata["trace"])
}

func TestDecodeAgentResult_MalformedConnectionAction(t *testing.T) {
	res, err := DecodeAgentResult([]byte(`{"instanceId":"X","pendingActions":[{"type":"connection","connectorId":"nope"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "X", res.InstanceID)

	require.Len(t, res.PendingActions, 1)
	unknown, ok := res.PendingActions[0].(UnknownPendingAction)
	require.True(t, ok, "expected UnknownPendingAction, got %T", res.PendingActions[0])
	assert.Equal(t, PendingActionKindConnection, unknown.Kind())
	assert.Equal(t, "nope", unknown.Fields["connectorId"])
}

func TestDecodeAgentResult_InvalidJSON(t *testing.T) {
	_, err := DecodeAgentResult([]byte(`not json`))
	require.Error(t, err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []byte(`not json`), de.Body)
}

func TestConnectionPendingAction_MarshalIncludesType(t *testing.T) {
	b, err := json.Marshal(ConnectionPendingAction{URL: "u", ConnectorName: "n"})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "connection", m["type"])
	assert.Equal(t, "u", m["url"])
}

func TestDecodeMap_Timestamps(t *testing.T) {
	var out struct {
		At    time.Time  `json:"createdAt"`
		Maybe *time.Time `json:"expirationDate"`
	}
	err := DecodeMap(map[string]any{
		"created_at":     "2025-03-04T05:06:07.123",
		"ExpirationDate": "2025-03-05T00:00:00Z",
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2025, out.At.Year())
	assert.Equal(t, 123*time.Millisecond, time.Duration(out.At.Nanosecond()))
	require.NotNil(t, out.Maybe)
	assert.Equal(t, 5, out.Maybe.Day())
}

func TestParams(t *testing.T) {
	p := Params{}.Add("a", 1).Add("b", 2).Add("a", 3)
	require.Len(t, p, 3)

	v, ok := p.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = p.Get("missing")
	assert.False(t, ok)

	c := p.Clone()
	c[0].Value = 42
	assert.Equal(t, 1, p[0].Value)

	b, err := json.Marshal(P("k", "v"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"k","value":"v"}`, string(b))
}

func TestErrors(t *testing.T) {
	verr := NewValidationError("agentCode", "must not be empty")
	assert.True(t, errors.Is(verr, ErrValidation))
	assert.Contains(t, verr.Error(), "agentCode")

	herr := &HTTPError{Method: "POST", URL: "https://x/agent", StatusCode: 401, Body: []byte(`{"message":"unauthorized"}`)}
	assert.Contains(t, herr.Error(), "401")
	assert.Contains(t, herr.Error(), "unauthorized")
	assert.Equal(t, 401, StatusCode(herr))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
}
