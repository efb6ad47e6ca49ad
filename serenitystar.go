// Package serenitystar is a client for the Serenity Star agent platform. A
// Client groups the entry points for every agent kind:
//  1. Activities, ChatCompletions and Proxies run single executions
//  2. Assistants and Copilots hold multi-turn conversations
//  3. VolatileKnowledge and Connectors serve the side channels of an execution
//
// Executions either wait for an AgentResult or return a stream.Reader that
// yields typed events as the agent works. The client itself is safe for
// concurrent use; the handles it creates are not.
package serenitystar

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/serenitystar/agent"
	"github.com/hupe1980/serenitystar/connector"
	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/internal/transport"
	"github.com/hupe1980/serenitystar/knowledge"
	"github.com/hupe1980/serenitystar/logging"
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api.serenitystar.ai/api/v2"
	// DefaultTimeout is the default wait for response headers.
	DefaultTimeout = 100 * time.Second

	tracerName = "github.com/hupe1980/serenitystar"
)

// Environment variables read by NewFromEnv.
const (
	EnvAPIKey  = "SERENITY_API_KEY"
	EnvBaseURL = "SERENITY_BASE_URL"
	EnvTimeout = "SERENITY_TIMEOUT"
)

// Options configures the Client.
type Options struct {
	// BaseURL is the API root; request paths are resolved against it.
	BaseURL string
	// Timeout bounds the wait for response headers. Reading a body is not
	// bounded by it, so a stream may run longer; use a context deadline to
	// cap a whole call. It is ignored when HTTPClient is set.
	Timeout time.Duration
	// HTTPClient replaces the default client.
	HTTPClient *http.Client

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
	// TracerProvider (defaults to the global provider)
	TracerProvider trace.TracerProvider

	UserAgent string
	// StrictStream surfaces undecodable stream frames as synthetic error
	// events.
	StrictStream bool
}

// Client is the entry point to the API.
type Client struct {
	Activities      *agent.ActivitiesScope
	ChatCompletions *agent.ChatCompletionsScope
	Proxies         *agent.ProxiesScope
	Assistants      *agent.ConversationalScope
	Copilots        *agent.ConversationalScope

	VolatileKnowledge *knowledge.Service
	Connectors        *connector.Service

	opts Options
}

// New creates a Client authenticated with apiKey.
func New(apiKey string, optFns ...func(o *Options)) (*Client, error) {
	if apiKey == "" {
		return nil, core.NewValidationError("apiKey", "must not be empty")
	}
	opts := Options{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "serenitystar-go"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient(opts.Timeout)
	}

	tc, err := transport.New(transport.Options{
		BaseURL:    opts.BaseURL,
		APIKey:     apiKey,
		UserAgent:  opts.UserAgent,
		HTTPClient: httpClient,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	tracer := opts.TracerProvider.Tracer(tracerName)
	ks := knowledge.NewService(tc, func(o *knowledge.ServiceOptions) {
		o.Logger = opts.Logger
		o.Tracer = tracer
	})
	cs := connector.NewService(tc)
	scopes := agent.NewScopes(tc, ks, cs, func(o *agent.Options) {
		o.Logger = opts.Logger
		o.Tracer = tracer
		o.StrictStream = opts.StrictStream
	})

	return &Client{
		Activities:        scopes.Activities,
		ChatCompletions:   scopes.ChatCompletions,
		Proxies:           scopes.Proxies,
		Assistants:        scopes.Assistants,
		Copilots:          scopes.Copilots,
		VolatileKnowledge: ks,
		Connectors:        cs,
		opts:              opts,
	}, nil
}

func defaultHTTPClient(headerTimeout time.Duration) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: t}
}

// NewFromEnv creates a Client from the environment. A .env file in the
// working directory is loaded first when present; variables already set are
// not overwritten. optFns are applied after the environment.
func NewFromEnv(optFns ...func(o *Options)) (*Client, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var envFns []func(o *Options)
	if v := os.Getenv(EnvBaseURL); v != "" {
		envFns = append(envFns, func(o *Options) { o.BaseURL = v })
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, core.NewValidationError(EnvTimeout, err.Error())
		}
		envFns = append(envFns, func(o *Options) { o.Timeout = d })
	}
	return New(os.Getenv(EnvAPIKey), append(envFns, optFns...)...)
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.opts.BaseURL }
