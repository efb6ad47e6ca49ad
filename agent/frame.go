package agent

import (
	"github.com/hupe1980/serenitystar/core"
)

// Kind identifies the request shape and endpoint semantics of an agent.
type Kind string

const (
	KindActivity       Kind = "activity"
	KindChatCompletion Kind = "chat-completion"
	KindProxy          Kind = "proxy"
	KindAssistant      Kind = "assistant"
	KindCopilot        Kind = "copilot"
)

// Frame keys shared by the list-shaped request bodies.
const (
	keyChatID               = "chatId"
	keyStream               = "stream"
	keyMessage              = "message"
	keyMessages             = "messages"
	keyUserIdentifier       = "userIdentifier"
	keyChannel              = "channel"
	keyVolatileKnowledgeIDs = "volatileKnowledgeIds"
)

// Frame is the JSON body of an execution request. It is either a ListFrame
// or an ObjectFrame.
type Frame interface{ isFrame() }

// ListFrame is an ordered list of {key, value} pairs.
type ListFrame []core.Parameter

func (ListFrame) isFrame() {}

// Has reports whether the frame contains key.
func (f ListFrame) Has(key string) bool {
	_, ok := core.Params(f).Get(key)
	return ok
}

// Get returns the value of the first pair named key.
func (f ListFrame) Get(key string) (any, bool) { return core.Params(f).Get(key) }

// ObjectFrame is a flat JSON object with named fields.
type ObjectFrame map[string]any

func (ObjectFrame) isFrame() {}

// FrameBuilder is implemented by every agent kind. BuildFrame assembles the
// request body from the handle's options and side state without mutating
// it; OnDispatched runs once the request has been sent and accepted, and is
// where single-use state (pending knowledge) is released.
type FrameBuilder interface {
	BuildFrame(stream bool) (Frame, error)
	OnDispatched()
}

// listFrame assembles a list-shaped frame. Pairs appear in this order:
// chatId (when known), stream (when streaming), kind-specific pairs, input
// parameters in caller order, userIdentifier, channel, volatileKnowledgeIds.
type listFrame struct {
	chatID         string
	stream         bool
	head           []core.Parameter
	params         core.Params
	userIdentifier string
	channel        string
	knowledgeIDs   []string
}

func (b listFrame) build() ListFrame {
	f := make(ListFrame, 0, len(b.head)+len(b.params)+5)
	if b.chatID != "" {
		f = append(f, core.P(keyChatID, b.chatID))
	}
	if b.stream {
		f = append(f, core.P(keyStream, true))
	}
	f = append(f, b.head...)
	f = append(f, b.params...)
	if b.userIdentifier != "" {
		f = append(f, core.P(keyUserIdentifier, b.userIdentifier))
	}
	if b.channel != "" {
		f = append(f, core.P(keyChannel, b.channel))
	}
	if len(b.knowledgeIDs) > 0 {
		f = append(f, core.P(keyVolatileKnowledgeIDs, b.knowledgeIDs))
	}
	return f
}
