package agent

import (
	"context"

	"github.com/hupe1980/serenitystar/connector"
	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/internal/transport"
	"github.com/hupe1980/serenitystar/knowledge"
	"github.com/hupe1980/serenitystar/stream"
)

// Scopes groups the per-kind entry points that share one executor.
type Scopes struct {
	Activities      *ActivitiesScope
	ChatCompletions *ChatCompletionsScope
	Proxies         *ProxiesScope
	Assistants      *ConversationalScope
	Copilots        *ConversationalScope
}

// NewScopes wires every scope to the same transport, knowledge service and
// connector service.
func NewScopes(tc *transport.Client, ks *knowledge.Service, cs *connector.Service, optFns ...func(o *Options)) *Scopes {
	e := newExecutor(tc, ks, optFns...)
	return &Scopes{
		Activities:      &ActivitiesScope{exec: e},
		ChatCompletions: &ChatCompletionsScope{exec: e},
		Proxies:         &ProxiesScope{exec: e},
		Assistants:      &ConversationalScope{exec: e, connectors: cs, kind: KindAssistant},
		Copilots:        &ConversationalScope{exec: e, connectors: cs, kind: KindCopilot},
	}
}

// ActivitiesScope creates and runs activities.
type ActivitiesScope struct{ exec *executor }

// Create returns a handle on the activity code.
func (s *ActivitiesScope) Create(code string, optFns ...func(o *ActivityOptions)) *Activity {
	opts := ActivityOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.InputParameters = opts.InputParameters.Clone()
	return &Activity{exec: s.exec, code: code, opts: opts, VolatileKnowledge: knowledge.NewScope(s.exec.knowledge)}
}

// Execute runs the activity code once.
func (s *ActivitiesScope) Execute(ctx context.Context, code string, optFns ...func(o *ActivityOptions)) (*core.AgentResult, error) {
	return s.Create(code, optFns...).Execute(ctx)
}

// Stream runs the activity code once and returns its event stream.
func (s *ActivitiesScope) Stream(ctx context.Context, code string, optFns ...func(o *ActivityOptions)) (*stream.Reader, error) {
	return s.Create(code, optFns...).Stream(ctx)
}

// ChatCompletionsScope creates and runs chat completions.
type ChatCompletionsScope struct{ exec *executor }

// Create returns a handle on the chat-completion code.
func (s *ChatCompletionsScope) Create(code string, optFns ...func(o *ChatCompletionOptions)) *ChatCompletion {
	opts := ChatCompletionOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.InputParameters = opts.InputParameters.Clone()
	opts.Messages = append([]ChatMessage(nil), opts.Messages...)
	return &ChatCompletion{exec: s.exec, code: code, opts: opts, VolatileKnowledge: knowledge.NewScope(s.exec.knowledge)}
}

// Execute runs a chat completion once.
func (s *ChatCompletionsScope) Execute(ctx context.Context, code string, optFns ...func(o *ChatCompletionOptions)) (*core.AgentResult, error) {
	return s.Create(code, optFns...).Execute(ctx)
}

// Stream runs a chat completion once and returns its event stream.
func (s *ChatCompletionsScope) Stream(ctx context.Context, code string, optFns ...func(o *ChatCompletionOptions)) (*stream.Reader, error) {
	return s.Create(code, optFns...).Stream(ctx)
}

// ProxiesScope creates and runs proxy calls.
type ProxiesScope struct{ exec *executor }

// Create returns a handle on the proxy code.
func (s *ProxiesScope) Create(code string, optFns ...func(o *ProxyOptions)) *Proxy {
	opts := ProxyOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Messages = append([]ProxyMessage(nil), opts.Messages...)
	return &Proxy{exec: s.exec, code: code, opts: opts, VolatileKnowledge: knowledge.NewScope(s.exec.knowledge)}
}

// Execute runs a proxy call once.
func (s *ProxiesScope) Execute(ctx context.Context, code string, optFns ...func(o *ProxyOptions)) (*core.AgentResult, error) {
	return s.Create(code, optFns...).Execute(ctx)
}

// Stream runs a proxy call once and returns its event stream.
func (s *ProxiesScope) Stream(ctx context.Context, code string, optFns ...func(o *ProxyOptions)) (*stream.Reader, error) {
	return s.Create(code, optFns...).Stream(ctx)
}

// ConversationalScope serves assistants and copilots, which share the same
// conversation protocol.
type ConversationalScope struct {
	exec       *executor
	connectors *connector.Service
	kind       Kind
}

// Kind returns KindAssistant or KindCopilot.
func (s *ConversationalScope) Kind() Kind { return s.kind }

// CreateConversation returns a new conversation with the agent code. Nothing
// is sent until the first message.
func (s *ConversationalScope) CreateConversation(code string, optFns ...func(o *ConversationOptions)) *Conversation {
	opts := ConversationOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.InputParameters = opts.InputParameters.Clone()
	c := &Conversation{
		exec:              s.exec,
		connectors:        s.connectors,
		kind:              s.kind,
		code:              code,
		opts:              opts,
		VolatileKnowledge: knowledge.NewScope(s.exec.knowledge),
	}
	if opts.ConversationID != "" {
		// A fresh tracker accepts any non-empty id.
		_ = c.continuity.SetID(opts.ConversationID)
	}
	return c
}

// GetInfoByCode fetches the conversation info of the agent code without
// creating a conversation.
func (s *ConversationalScope) GetInfoByCode(ctx context.Context, code string, optFns ...func(o *ConversationOptions)) (*ConversationInfo, error) {
	opts := ConversationOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return getInfo(ctx, s.exec.tc, code, opts)
}

// DetailsOptions configures GetConversationByID.
type DetailsOptions struct {
	AgentVersion         *int
	ShowExecutorTaskLogs bool
}

// GetConversationByID fetches the stored messages of conversation id.
func (s *ConversationalScope) GetConversationByID(ctx context.Context, code, id string, optFns ...func(o *DetailsOptions)) (*ConversationDetails, error) {
	opts := DetailsOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return getDetails(ctx, s.exec.tc, code, id, opts.AgentVersion, opts.ShowExecutorTaskLogs)
}
