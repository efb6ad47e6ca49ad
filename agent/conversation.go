package agent

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/hupe1980/serenitystar/connector"
	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/internal/transport"
	"github.com/hupe1980/serenitystar/knowledge"
	"github.com/hupe1980/serenitystar/stream"
)

// ConversationOptions configures a conversation with an assistant or a
// copilot.
type ConversationOptions struct {
	AgentVersion    *int
	InputParameters core.Params
	UserIdentifier  string
	Channel         string
	// ConversationID resumes an existing conversation.
	ConversationID string
}

// WithConversationID resumes the conversation id.
func WithConversationID(id string) func(o *ConversationOptions) {
	return func(o *ConversationOptions) { o.ConversationID = id }
}

// Conversation is a multi-turn exchange with a conversational agent. The
// first completed turn binds the conversation id; every later turn carries it
// as chatId.
//
// A Conversation is not safe for concurrent use. Issue turns one after the
// other, and drain or close a turn's stream before starting the next.
type Conversation struct {
	exec       *executor
	connectors *connector.Service
	kind       Kind
	code       string
	opts       ConversationOptions
	continuity Continuity
	info       *ConversationInfo

	VolatileKnowledge *knowledge.Scope
}

// Code returns the agent code.
func (c *Conversation) Code() string { return c.code }

// ID returns the conversation id, or "" before the first turn completed.
func (c *Conversation) ID() string { return c.continuity.ID() }

// Info returns the result of the last GetInfo call, if any.
func (c *Conversation) Info() *ConversationInfo { return c.info }

// SendMessage sends one turn and waits for the reply.
func (c *Conversation) SendMessage(ctx context.Context, message string) (*core.AgentResult, error) {
	result, err := c.exec.execute(ctx, c.target(), &turn{c: c, message: message})
	if err != nil {
		return nil, err
	}
	c.continuity.Capture(result.InstanceID)
	return result, nil
}

// StreamMessage sends one turn and returns its event stream. The
// conversation id is captured when the caller pulls the StopEvent; a stream
// that is cancelled or closed before that leaves it unset.
func (c *Conversation) StreamMessage(ctx context.Context, message string) (*stream.Reader, error) {
	return c.exec.stream(ctx, c.target(), &turn{c: c, message: message}, func(ev core.StreamEvent) {
		if stop, ok := ev.(core.StopEvent); ok {
			c.continuity.Capture(stop.ContinuityID())
		}
	})
}

// GetInfo fetches the agent's conversation info using the conversation's
// options and keeps it for Info.
func (c *Conversation) GetInfo(ctx context.Context) (*ConversationInfo, error) {
	info, err := getInfo(ctx, c.exec.tc, c.code, c.opts)
	if err != nil {
		return nil, err
	}
	c.info = info
	return info, nil
}

// GetDetails fetches the stored messages of this conversation.
func (c *Conversation) GetDetails(ctx context.Context, showExecutorTaskLogs bool) (*ConversationDetails, error) {
	if err := c.requireID("details"); err != nil {
		return nil, err
	}
	return getDetails(ctx, c.exec.tc, c.code, c.ID(), c.opts.AgentVersion, showExecutorTaskLogs)
}

// SubmitFeedback rates an agent message of this conversation.
func (c *Conversation) SubmitFeedback(ctx context.Context, agentMessageID string, positive bool) error {
	path, err := c.feedbackPath(agentMessageID)
	if err != nil {
		return err
	}
	resp, err := c.exec.tc.PostJSON(ctx, path, nil, map[string]bool{"feedback": positive})
	if err != nil {
		return fmt.Errorf("submit feedback: %w", err)
	}
	transport.Discard(resp)
	return nil
}

// RemoveFeedback withdraws the rating of an agent message.
func (c *Conversation) RemoveFeedback(ctx context.Context, agentMessageID string) error {
	path, err := c.feedbackPath(agentMessageID)
	if err != nil {
		return err
	}
	resp, err := c.exec.tc.Delete(ctx, path, nil)
	if err != nil {
		return fmt.Errorf("remove feedback: %w", err)
	}
	transport.Discard(resp)
	return nil
}

// ConnectorStatus reports whether connectorID is connected for this
// conversation.
func (c *Conversation) ConnectorStatus(ctx context.Context, connectorID uuid.UUID) (*connector.Status, error) {
	if err := c.requireID("connector status"); err != nil {
		return nil, err
	}
	instanceID, err := uuid.Parse(c.ID())
	if err != nil {
		return nil, core.NewValidationError("conversationId", "is not a uuid")
	}
	return c.connectors.GetStatus(ctx, c.code, instanceID, connectorID)
}

func (c *Conversation) requireID(op string) error {
	if !c.continuity.Known() {
		return core.NewValidationError("conversationId", op+" requires a started conversation")
	}
	return nil
}

func (c *Conversation) feedbackPath(agentMessageID string) (string, error) {
	if err := c.requireID("feedback"); err != nil {
		return "", err
	}
	if agentMessageID == "" {
		return "", core.NewValidationError("agentMessageId", "must not be empty")
	}
	return fmt.Sprintf("agent/%s/conversation/%s/message/%s/feedback", c.code, c.ID(), agentMessageID), nil
}

func (c *Conversation) target() target {
	return target{kind: c.kind, code: c.code, version: c.opts.AgentVersion}
}

// turn builds the frame of one conversation message.
type turn struct {
	c       *Conversation
	message string
}

func (t *turn) BuildFrame(stream bool) (Frame, error) {
	if t.message == "" {
		return nil, core.NewValidationError("message", "must not be empty")
	}
	return listFrame{
		chatID:         t.c.continuity.ID(),
		stream:         stream,
		head:           []core.Parameter{core.P(keyMessage, t.message)},
		params:         t.c.opts.InputParameters,
		userIdentifier: t.c.opts.UserIdentifier,
		channel:        t.c.opts.Channel,
		knowledgeIDs:   t.c.VolatileKnowledge.IDs(),
	}.build(), nil
}

func (t *turn) OnDispatched() { t.c.VolatileKnowledge.Clear() }

func getInfo(ctx context.Context, tc *transport.Client, code string, opts ConversationOptions) (*ConversationInfo, error) {
	t := target{code: code, version: opts.AgentVersion}
	if err := t.validate(); err != nil {
		return nil, err
	}
	path := "agent/" + code
	if opts.AgentVersion != nil {
		path += "/" + strconv.Itoa(*opts.AgentVersion)
	}
	path += "/conversation/info"

	params := opts.InputParameters
	if params == nil {
		params = core.Params{}
	}
	body := map[string]any{"inputParameters": params}
	if opts.UserIdentifier != "" {
		body[keyUserIdentifier] = opts.UserIdentifier
	}
	if opts.Channel != "" {
		body[keyChannel] = opts.Channel
	}

	resp, err := tc.PostJSON(ctx, path, nil, body)
	if err != nil {
		return nil, fmt.Errorf("conversation info %s: %w", code, err)
	}
	var info ConversationInfo
	if err := transport.DecodeJSON(resp, &info); err != nil {
		return nil, fmt.Errorf("conversation info %s: %w", code, err)
	}
	return &info, nil
}

func getDetails(ctx context.Context, tc *transport.Client, code, id string, version *int, showLogs bool) (*ConversationDetails, error) {
	t := target{code: code, version: version}
	if err := t.validate(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, core.NewValidationError("conversationId", "must not be empty")
	}
	path := "agent/" + code + "/conversation/" + id
	if version != nil {
		path += "/" + strconv.Itoa(*version)
	}

	resp, err := tc.Get(ctx, path, url.Values{"showExecutorTaskLogs": {strconv.FormatBool(showLogs)}})
	if err != nil {
		return nil, fmt.Errorf("conversation %s: %w", id, err)
	}
	var d ConversationDetails
	if err := transport.DecodeJSON(resp, &d); err != nil {
		return nil, fmt.Errorf("conversation %s: %w", id, err)
	}
	return &d, nil
}
