package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/serenitystar/agent"
	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/internal/util"
)

// Message is one chat message of a Request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request captures the normalized model input.
type Request struct {
	// Instructions is sent as a leading system message. It may contain
	// text/template markers, rendered against State.
	Instructions string         `json:"instructions"`
	State        map[string]any `json:"state,omitempty"`
	Messages     []Message      `json:"messages"`
	Stream       bool           `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop" or "error"
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Model is the minimal interface for driving generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrAgent is wrapped by errors reported in-band by the agent.
var ErrAgent = errors.New("model: agent error")

// ProxyModelOptions configure a ProxyModel.
type ProxyModelOptions struct {
	// Model is the vendor model name, e.g. "gpt-4o-mini".
	Model string
	// Vendor selects the provider configured on the proxy agent.
	Vendor string
	// Base supplies the sampling parameters and identifiers. Its Model,
	// Messages and Vendor fields are overwritten per request.
	Base agent.ProxyOptions
	// MaxCalls caps the number of Generate calls (0 = unlimited).
	MaxCalls int
}

// ProxyModel implements Model on top of a Serenity Star proxy agent.
type ProxyModel struct {
	proxies *agent.ProxiesScope
	code    string
	opts    ProxyModelOptions
	limiter *CallLimiter
}

// NewProxyModel returns a Model that routes every request through the proxy
// agent code.
func NewProxyModel(proxies *agent.ProxiesScope, code string, optFns ...func(o *ProxyModelOptions)) *ProxyModel {
	opts := ProxyModelOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ProxyModel{proxies: proxies, code: code, opts: opts, limiter: NewCallLimiter(opts.MaxCalls)}
}

// Calls returns the number of Generate calls made so far.
func (m *ProxyModel) Calls() int { return m.limiter.Count() }

// Generate implements Model. Streaming requests emit one partial Response
// per content chunk followed by a final Response.
func (m *ProxyModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		if err := m.limiter.Increment(); err != nil {
			errCh <- err
			return
		}
		po, err := m.proxyOptions(req)
		if err != nil {
			errCh <- err
			return
		}
		p := m.proxies.Create(m.code, agent.WithProxyOptions(po))
		if req.Stream {
			err = m.stream(ctx, p, out)
		} else {
			err = m.execute(ctx, p, out)
		}
		if err != nil {
			errCh <- err
		}
	}()
	return out, errCh
}

// Info implements Model.
func (m *ProxyModel) Info() Info {
	return Info{Name: m.opts.Model, Provider: m.opts.Vendor}
}

func (m *ProxyModel) proxyOptions(req Request) (agent.ProxyOptions, error) {
	instructions, err := util.RenderTemplate(req.Instructions, req.State)
	if err != nil {
		return agent.ProxyOptions{}, fmt.Errorf("instructions: %w", err)
	}
	po := m.opts.Base
	po.Model = m.opts.Model
	if m.opts.Vendor != "" {
		po.Vendor = m.opts.Vendor
	}
	po.Messages = make([]agent.ProxyMessage, 0, len(req.Messages)+1)
	if instructions != "" {
		po.Messages = append(po.Messages, agent.ProxyMessage{Role: "system", Content: instructions})
	}
	for _, msg := range req.Messages {
		po.Messages = append(po.Messages, agent.ProxyMessage{Role: msg.Role, Content: msg.Content})
	}
	return po, nil
}

func (m *ProxyModel) execute(ctx context.Context, p *agent.Proxy, out chan<- Response) error {
	res, err := p.Execute(ctx)
	if err != nil {
		return err
	}
	return send(ctx, out, final(res, res.Content))
}

func (m *ProxyModel) stream(ctx context.Context, p *agent.Proxy, out chan<- Response) error {
	r, err := p.Stream(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	var text strings.Builder
	for r.Next() {
		switch ev := r.Current().(type) {
		case core.ContentEvent:
			text.WriteString(ev.Text)
			if err := send(ctx, out, Response{Partial: true, Text: ev.Text}); err != nil {
				return err
			}
		case core.StopEvent:
			content := text.String()
			if ev.Result != nil && ev.Result.Content != "" {
				content = ev.Result.Content
			}
			resp := final(ev.Result, content)
			if resp.ID == "" {
				resp.ID = ev.ContinuityID()
			}
			if err := send(ctx, out, resp); err != nil {
				return err
			}
		case core.ErrorEvent:
			if !ev.Synthetic {
				return fmt.Errorf("%w: %s", ErrAgent, ev.Message)
			}
		}
	}
	return r.Err()
}

func final(res *core.AgentResult, content string) Response {
	resp := Response{Text: content, FinishReason: "stop"}
	if res == nil {
		return resp
	}
	resp.ID = res.InstanceID
	if u := res.CompletionUsage; u != nil {
		resp.Usage = &TokenUsage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return resp
}

func send(ctx context.Context, out chan<- Response, resp Response) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- resp:
		return nil
	}
}

// Collect drains both channels of a Generate call and returns the final
// response.
func Collect(out <-chan Response, errCh <-chan error) (Response, error) {
	var last Response
	for resp := range out {
		if !resp.Partial {
			last = resp
		}
	}
	if err := <-errCh; err != nil {
		return last, err
	}
	return last, nil
}
