package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/knowledge"
	"github.com/hupe1980/serenitystar/stream"
)

// ChatMessage is one entry of a chat history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionOptions configures a chat completion.
type ChatCompletionOptions struct {
	AgentVersion *int
	// Message is the new user message.
	Message string
	// Messages is the prior history, oldest first.
	Messages        []ChatMessage
	InputParameters core.Params
	UserIdentifier  string
	Channel         string
}

// ChatCompletion is a handle on a chat-completion agent. The caller owns the
// history; the service keeps no conversation state between executions.
type ChatCompletion struct {
	exec *executor
	code string
	opts ChatCompletionOptions

	VolatileKnowledge *knowledge.Scope
}

// Code returns the agent code.
func (c *ChatCompletion) Code() string { return c.code }

// BuildFrame implements FrameBuilder. The history is sent as a JSON encoded
// string under "messages".
func (c *ChatCompletion) BuildFrame(stream bool) (Frame, error) {
	if c.opts.Message == "" {
		return nil, core.NewValidationError("message", "must not be empty")
	}
	head := []core.Parameter{core.P(keyMessage, c.opts.Message)}
	if len(c.opts.Messages) > 0 {
		history, err := json.Marshal(c.opts.Messages)
		if err != nil {
			return nil, fmt.Errorf("encode messages: %w", err)
		}
		head = append(head, core.P(keyMessages, string(history)))
	}
	return listFrame{
		stream:         stream,
		head:           head,
		params:         c.opts.InputParameters,
		userIdentifier: c.opts.UserIdentifier,
		channel:        c.opts.Channel,
		knowledgeIDs:   c.VolatileKnowledge.IDs(),
	}.build(), nil
}

// OnDispatched implements FrameBuilder.
func (c *ChatCompletion) OnDispatched() { c.VolatileKnowledge.Clear() }

// Execute runs the completion and waits for its result.
func (c *ChatCompletion) Execute(ctx context.Context) (*core.AgentResult, error) {
	return c.exec.execute(ctx, c.target(), c)
}

// Stream runs the completion and returns its event stream.
func (c *ChatCompletion) Stream(ctx context.Context) (*stream.Reader, error) {
	return c.exec.stream(ctx, c.target(), c, nil)
}

func (c *ChatCompletion) target() target {
	return target{kind: KindChatCompletion, code: c.code, version: c.opts.AgentVersion}
}
