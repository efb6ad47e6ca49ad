package agent

import (
	"context"

	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/knowledge"
	"github.com/hupe1980/serenitystar/stream"
)

// ActivityOptions configures an activity execution.
type ActivityOptions struct {
	AgentVersion    *int
	InputParameters core.Params
	UserIdentifier  string
	Channel         string
}

// Activity is a handle on a task-style agent. Every execution is
// independent; knowledge uploaded through VolatileKnowledge is sent with the
// next execution only.
type Activity struct {
	exec *executor
	code string
	opts ActivityOptions

	VolatileKnowledge *knowledge.Scope
}

// Code returns the agent code.
func (a *Activity) Code() string { return a.code }

// BuildFrame implements FrameBuilder.
func (a *Activity) BuildFrame(stream bool) (Frame, error) {
	return listFrame{
		stream:         stream,
		params:         a.opts.InputParameters,
		userIdentifier: a.opts.UserIdentifier,
		channel:        a.opts.Channel,
		knowledgeIDs:   a.VolatileKnowledge.IDs(),
	}.build(), nil
}

// OnDispatched implements FrameBuilder.
func (a *Activity) OnDispatched() { a.VolatileKnowledge.Clear() }

// Execute runs the activity and waits for its result.
func (a *Activity) Execute(ctx context.Context) (*core.AgentResult, error) {
	return a.exec.execute(ctx, a.target(), a)
}

// Stream runs the activity and returns its event stream. The caller must
// drain or Close the reader.
func (a *Activity) Stream(ctx context.Context) (*stream.Reader, error) {
	return a.exec.stream(ctx, a.target(), a, nil)
}

func (a *Activity) target() target {
	return target{kind: KindActivity, code: a.code, version: a.opts.AgentVersion}
}
