package serenitystar

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/serenitystar/agent"
	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/internal/testutil"
	"github.com/hupe1980/serenitystar/knowledge"
	"github.com/hupe1980/serenitystar/stream"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	_, err := New("k", func(o *Options) { o.BaseURL = "api/v2" })
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New("k")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.NotNil(t, c.Activities)
	assert.NotNil(t, c.ChatCompletions)
	assert.NotNil(t, c.Proxies)
	assert.Equal(t, agent.KindAssistant, c.Assistants.Kind())
	assert.Equal(t, agent.KindCopilot, c.Copilots.Kind())
	assert.NotNil(t, c.VolatileKnowledge)
	assert.NotNil(t, c.Connectors)
}

func TestClient_EndToEnd(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	srv := testutil.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/volatileknowledge":
			testutil.WriteJSON(w, map[string]any{"id": "6f1c1f0e-9a55-4a43-9a0b-3f3b5d7c2e11", "status": "analyzing"})
		case "/api/v2/agent/helper/execute":
			testutil.WriteStream(w, testutil.NewStreamBuilder().
				Content("Hello").
				Stop(map[string]any{"instanceId": "conv-1", "content": "Hello"}).
				Done().
				String())
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	c, err := New("secret", func(o *Options) {
		o.BaseURL = srv.URL + "/api/v2"
		o.TracerProvider = tp
		o.UserAgent = "test-agent"
	})
	require.NoError(t, err)

	conv := c.Assistants.CreateConversation("helper")
	_, err = conv.VolatileKnowledge.Upload(context.Background(), knowledge.UploadRequest{Content: "facts"})
	require.NoError(t, err)
	assert.Equal(t, 1, conv.VolatileKnowledge.Len())

	r, err := conv.StreamMessage(context.Background(), "hi")
	require.NoError(t, err)
	events, err := stream.Collect(r)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "conv-1", conv.ID())
	assert.Equal(t, 0, conv.VolatileKnowledge.Len())

	req := srv.Last(t)
	assert.Equal(t, "secret", req.Header.Get("X-API-KEY"))
	assert.Equal(t, "test-agent", req.Header.Get("User-Agent"))
	assert.NotEmpty(t, req.Header.Get("X-Request-Id"))
	var frame []core.Parameter
	req.JSON(t, &frame)
	require.Len(t, frame, 3)
	assert.Equal(t, "volatileKnowledgeIds", frame[2].Key)
	assert.Equal(t, []any{"6f1c1f0e-9a55-4a43-9a0b-3f3b5d7c2e11"}, frame[2].Value)

	names := []string{}
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"serenitystar.knowledge.upload", "serenitystar.agent.execute"}, names)
}

func TestNew_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := testutil.NewServer(t, func(w http.ResponseWriter, _ *http.Request) {
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
	})
	defer close(release)

	c, err := New("k", func(o *Options) {
		o.BaseURL = srv.URL
		o.Timeout = 50 * time.Millisecond
	})
	require.NoError(t, err)

	_, err = c.Activities.Execute(context.Background(), "slow")
	require.Error(t, err)
	assert.Zero(t, core.StatusCode(err))
}

func TestNew_TimeoutDoesNotCutStreams(t *testing.T) {
	srv := testutil.NewServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, testutil.NewStreamBuilder().Content("a").String())
		w.(http.Flusher).Flush()
		time.Sleep(200 * time.Millisecond)
		_, _ = io.WriteString(w, testutil.NewStreamBuilder().Stop(map[string]any{"instanceId": "X"}).Done().String())
	})

	c, err := New("k", func(o *Options) {
		o.BaseURL = srv.URL
		o.Timeout = 50 * time.Millisecond
	})
	require.NoError(t, err)

	r, err := c.Activities.Stream(context.Background(), "long")
	require.NoError(t, err)
	events, err := stream.Collect(r)
	require.NoError(t, err)
	require.True(t, r.Stopped())
	assert.IsType(t, core.StopEvent{}, events[len(events)-1])
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvBaseURL, "https://example.com/api/v2")
	t.Setenv(EnvTimeout, "5s")
	t.Chdir(t.TempDir())

	c, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api/v2", c.BaseURL())
	assert.Equal(t, 5*time.Second, c.opts.Timeout)

	c, err = NewFromEnv(func(o *Options) { o.BaseURL = "https://override.example.com" })
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com", c.BaseURL())
}

func TestNewFromEnv_InvalidTimeout(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvTimeout, "soon")
	t.Chdir(t.TempDir())

	_, err := NewFromEnv()
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestNewFromEnv_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte(EnvAPIKey+"=from-dotenv\n"+EnvBaseURL+"=https://dotenv.example.com\n"), 0o600))
	t.Chdir(dir)
	for _, key := range []string{EnvAPIKey, EnvBaseURL, EnvTimeout} {
		if prev, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { _ = os.Setenv(key, prev) })
		} else {
			t.Cleanup(func() { _ = os.Unsetenv(key) })
		}
		require.NoError(t, os.Unsetenv(key))
	}

	c, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://dotenv.example.com", c.BaseURL())
}
