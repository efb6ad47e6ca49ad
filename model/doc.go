// Package model exposes a Serenity Star proxy agent behind a small,
// provider-agnostic generation interface.
//
// ProxyModel implements Model by routing each Request through an
// agent.Proxy. The openai and anthropic subpackages convert the official
// SDK request types into agent.ProxyOptions, and agent results back into
// SDK response types, so existing SDK call sites can be pointed at a proxy
// agent with little change.
package model
