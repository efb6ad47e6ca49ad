// Package agent executes Serenity Star agents. It covers the five agent
// kinds the service offers:
//
//  1. Activities: one-shot task agents (ActivitiesScope, Activity)
//  2. Chat completions: caller-managed history (ChatCompletionsScope, ChatCompletion)
//  3. Proxies: a model call routed through a configured vendor (ProxiesScope, Proxy)
//  4. Assistants and copilots: multi-turn conversations (ConversationalScope, Conversation)
//
// Every handle implements FrameBuilder. A shared executor turns the frame into
// an execution request, either waiting for the AgentResult (Execute,
// SendMessage) or returning a stream.Reader (Stream, StreamMessage).
//
// Handles carry two pieces of per-handle state:
//   - a knowledge.Scope whose pending ids are attached to the next execution
//     and released as soon as that execution was dispatched
//   - for conversations, a Continuity tracker bound by the first completed turn
//
// Handles are not safe for concurrent use. The scopes are, and may be shared
// freely.
package agent
