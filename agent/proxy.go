package agent

import (
	"context"

	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/knowledge"
	"github.com/hupe1980/serenitystar/stream"
)

// ProxyMessage is one message of a proxy call.
type ProxyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProxyOptions configures a proxy call. Nil pointers and empty strings are
// left out of the request.
type ProxyOptions struct {
	AgentVersion *int

	Model    string
	Messages []ProxyMessage

	Temperature      *float64
	MaxTokens        *int
	TopP             *float64
	TopK             *int
	FrequencyPenalty *float64
	PresencePenalty  *float64

	UserIdentifier  string
	Vendor          string
	GroupIdentifier string
	UseVision       *bool
}

// WithProxyOptions replaces the options with po.
func WithProxyOptions(po ProxyOptions) func(o *ProxyOptions) {
	return func(o *ProxyOptions) { *o = po }
}

// Proxy is a handle on a proxy agent, which forwards a model call to a
// configured vendor.
type Proxy struct {
	exec *executor
	code string
	opts ProxyOptions

	VolatileKnowledge *knowledge.Scope
}

// Code returns the agent code.
func (p *Proxy) Code() string { return p.code }

// BuildFrame implements FrameBuilder.
func (p *Proxy) BuildFrame(stream bool) (Frame, error) {
	if p.opts.Model == "" {
		return nil, core.NewValidationError("model", "must not be empty")
	}
	if len(p.opts.Messages) == 0 {
		return nil, core.NewValidationError("messages", "at least one message is required")
	}

	f := ObjectFrame{
		"model":    p.opts.Model,
		"messages": p.opts.Messages,
	}
	setPtr(f, "temperature", p.opts.Temperature)
	setPtr(f, "max_tokens", p.opts.MaxTokens)
	setPtr(f, "top_p", p.opts.TopP)
	setPtr(f, "top_k", p.opts.TopK)
	setPtr(f, "frequency_penalty", p.opts.FrequencyPenalty)
	setPtr(f, "presence_penalty", p.opts.PresencePenalty)
	setString(f, keyUserIdentifier, p.opts.UserIdentifier)
	setString(f, "vendor", p.opts.Vendor)
	setString(f, "groupIdentifier", p.opts.GroupIdentifier)
	setPtr(f, "useVision", p.opts.UseVision)
	if ids := p.VolatileKnowledge.IDs(); len(ids) > 0 {
		f[keyVolatileKnowledgeIDs] = ids
	}
	if stream {
		f[keyStream] = true
	}
	return f, nil
}

// OnDispatched implements FrameBuilder.
func (p *Proxy) OnDispatched() { p.VolatileKnowledge.Clear() }

// Execute runs the proxy call and waits for its result.
func (p *Proxy) Execute(ctx context.Context) (*core.AgentResult, error) {
	return p.exec.execute(ctx, p.target(), p)
}

// Stream runs the proxy call and returns its event stream.
func (p *Proxy) Stream(ctx context.Context) (*stream.Reader, error) {
	return p.exec.stream(ctx, p.target(), p, nil)
}

func (p *Proxy) target() target {
	return target{kind: KindProxy, code: p.code, version: p.opts.AgentVersion}
}

func setPtr[T any](f ObjectFrame, key string, v *T) {
	if v != nil {
		f[key] = *v
	}
}

func setString(f ObjectFrame, key, v string) {
	if v != "" {
		f[key] = v
	}
}
