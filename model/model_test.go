package model

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/serenitystar/agent"
	"github.com/hupe1980/serenitystar/connector"
	"github.com/hupe1980/serenitystar/internal/testutil"
	"github.com/hupe1980/serenitystar/internal/transport"
	"github.com/hupe1980/serenitystar/knowledge"
)

func newProxyModel(t *testing.T, h http.HandlerFunc) (*ProxyModel, *testutil.Server) {
	t.Helper()
	srv := testutil.NewServer(t, h)
	tc, err := transport.New(transport.Options{BaseURL: srv.URL + "/api/v2", APIKey: "k"})
	require.NoError(t, err)
	scopes := agent.NewScopes(tc, knowledge.NewService(tc), connector.NewService(tc))
	temp := 0.1
	return NewProxyModel(scopes.Proxies, "proxy", func(o *ProxyModelOptions) {
		o.Model = "gpt-4o-mini"
		o.Vendor = "openai"
		o.Base.Temperature = &temp
	}), srv
}

func TestProxyModel_Generate(t *testing.T) {
	m, srv := newProxyModel(t, func(w http.ResponseWriter, _ *http.Request) {
		testutil.WriteJSON(w, map[string]any{
			"content":         "Paris",
			"instanceId":      "i-1",
			"completionUsage": map[string]any{"promptTokens": 5, "completionTokens": 1},
		})
	})

	resp, err := Collect(m.Generate(context.Background(), Request{
		Instructions: "Answer briefly.",
		Messages:     []Message{{Role: "user", Content: "Capital of France?"}},
	}))
	require.NoError(t, err)
	assert.Equal(t, "Paris", resp.Text)
	assert.Equal(t, "i-1", resp.ID)
	assert.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 6, resp.Usage.TotalTokens)

	var body map[string]any
	srv.Last(t).JSON(t, &body)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Equal(t, "openai", body["vendor"])
	assert.Equal(t, 0.1, body["temperature"])
	assert.Equal(t, []any{
		map[string]any{"role": "system", "content": "Answer briefly."},
		map[string]any{"role": "user", "content": "Capital of France?"},
	}, body["messages"])
	assert.Equal(t, Info{Name: "gpt-4o-mini", Provider: "openai"}, m.Info())
}

func TestProxyModel_Stream(t *testing.T) {
	body := testutil.NewStreamBuilder().
		Content("Par").
		Content("is").
		Stop(map[string]any{"instanceId": "i-2"}).
		Done().
		String()
	m, _ := newProxyModel(t, func(w http.ResponseWriter, _ *http.Request) { testutil.WriteStream(w, body) })

	out, errCh := m.Generate(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "Capital of France?"}},
		Stream:   true,
	})
	var parts []string
	var last Response
	for resp := range out {
		if resp.Partial {
			parts = append(parts, resp.Text)
			continue
		}
		last = resp
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"Par", "is"}, parts)
	assert.Equal(t, "Paris", last.Text)
	assert.Equal(t, "i-2", last.ID)
}

func TestProxyModel_StreamError(t *testing.T) {
	body := testutil.NewStreamBuilder().
		Content("x").
		Error("quota exceeded", 429).
		String()
	m, _ := newProxyModel(t, func(w http.ResponseWriter, _ *http.Request) { testutil.WriteStream(w, body) })

	_, err := Collect(m.Generate(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
		Stream:   true,
	}))
	assert.ErrorIs(t, err, ErrAgent)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestProxyModel_ValidationError(t *testing.T) {
	m, srv := newProxyModel(t, nil)

	_, err := Collect(m.Generate(context.Background(), Request{}))
	require.Error(t, err)
	assert.Empty(t, srv.Requests())
}

func TestProxyModel_InstructionsTemplate(t *testing.T) {
	m, srv := newProxyModel(t, func(w http.ResponseWriter, _ *http.Request) {
		testutil.WriteJSON(w, map[string]any{"content": "ok"})
	})

	_, err := Collect(m.Generate(context.Background(), Request{
		Instructions: "Reply in {{ .lang }}.",
		State:        map[string]any{"lang": "German"},
		Messages:     []Message{{Role: "user", Content: "hi"}},
	}))
	require.NoError(t, err)

	var body struct {
		Messages []agent.ProxyMessage `json:"messages"`
	}
	srv.Last(t).JSON(t, &body)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "Reply in German.", body.Messages[0].Content)
}

func TestProxyModel_MaxCalls(t *testing.T) {
	srv := testutil.NewServer(t, func(w http.ResponseWriter, _ *http.Request) {
		testutil.WriteJSON(w, map[string]any{"content": "ok"})
	})
	tc, err := transport.New(transport.Options{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)
	scopes := agent.NewScopes(tc, knowledge.NewService(tc), connector.NewService(tc))
	m := NewProxyModel(scopes.Proxies, "proxy", func(o *ProxyModelOptions) {
		o.Model = "m"
		o.MaxCalls = 1
	})
	req := Request{Messages: []Message{{Role: "user", Content: "hi"}}}

	_, err = Collect(m.Generate(context.Background(), req))
	require.NoError(t, err)
	_, err = Collect(m.Generate(context.Background(), req))
	assert.ErrorIs(t, err, ErrCallLimit)
	assert.Equal(t, 2, m.Calls())
	assert.Len(t, srv.Requests(), 1)
}

func TestCallLimiter(t *testing.T) {
	l := NewCallLimiter(2)
	assert.Equal(t, 2, l.Remaining())
	require.NoError(t, l.Increment())
	require.NoError(t, l.Increment())
	assert.Equal(t, 0, l.Remaining())
	assert.ErrorIs(t, l.Increment(), ErrCallLimit)
	assert.Equal(t, 3, l.Count())
	assert.Equal(t, 0, l.Remaining())

	unlimited := NewCallLimiter(0)
	for range 10 {
		require.NoError(t, unlimited.Increment())
	}
	assert.Equal(t, -1, unlimited.Remaining())
}
