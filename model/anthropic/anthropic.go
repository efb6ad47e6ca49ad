// Package anthropic converts between anthropic-sdk-go Messages types and
// proxy agent executions.
package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"

	"github.com/hupe1980/serenitystar/agent"
	"github.com/hupe1980/serenitystar/core"
)

// Vendor is the proxy vendor name for Anthropic models.
const Vendor = "anthropic"

// ProxyOptions maps message parameters onto proxy options. The system prompt
// becomes a leading system message. Only text blocks are carried over.
func ProxyOptions(params anthropic.MessageNewParams) (agent.ProxyOptions, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return agent.ProxyOptions{}, fmt.Errorf("anthropic: encode params: %w", err)
	}
	doc := gjson.ParseBytes(raw)

	po := agent.ProxyOptions{
		Model:          doc.Get("model").String(),
		Vendor:         Vendor,
		UserIdentifier: doc.Get("metadata.user_id").String(),
	}
	if v := doc.Get("max_tokens"); v.Exists() {
		n := int(v.Int())
		po.MaxTokens = &n
	}
	if v := doc.Get("temperature"); v.Exists() && v.Type != gjson.Null {
		f := v.Float()
		po.Temperature = &f
	}
	if v := doc.Get("top_p"); v.Exists() && v.Type != gjson.Null {
		f := v.Float()
		po.TopP = &f
	}
	if v := doc.Get("top_k"); v.Exists() && v.Type != gjson.Null {
		n := int(v.Int())
		po.TopK = &n
	}

	if system := text(doc.Get("system")); system != "" {
		po.Messages = append(po.Messages, agent.ProxyMessage{Role: "system", Content: system})
	}
	for _, msg := range doc.Get("messages").Array() {
		po.Messages = append(po.Messages, agent.ProxyMessage{
			Role:    msg.Get("role").String(),
			Content: text(msg.Get("content")),
		})
	}
	return po, nil
}

// ToMessage renders an agent result as an assistant message for model.
func ToMessage(res *core.AgentResult, model string) (*anthropic.Message, error) {
	body := map[string]any{
		"id":          res.InstanceID,
		"type":        "message",
		"role":        "assistant",
		"model":       model,
		"stop_reason": "end_turn",
		"content":     []map[string]any{{"type": "text", "text": res.Content}},
	}
	if u := res.CompletionUsage; u != nil {
		body["usage"] = map[string]any{
			"input_tokens":  u.PromptTokens,
			"output_tokens": u.CompletionTokens,
		}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("anthropic: encode message: %w", err)
	}
	var msg anthropic.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("anthropic: decode message: %w", err)
	}
	return &msg, nil
}

func text(content gjson.Result) string {
	if !content.IsArray() {
		return content.String()
	}
	var parts []string
	for _, block := range content.Array() {
		if block.Get("type").String() == "text" {
			parts = append(parts, block.Get("text").String())
		}
	}
	return strings.Join(parts, "\n")
}
