// Package openai converts between openai-go Chat Completions types and
// proxy agent executions. Point an existing ChatCompletionNewParams at a
// Serenity Star proxy agent with ProxyOptions, and read the result back as a
// ChatCompletion with ToChatCompletion.
package openai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"

	"github.com/hupe1980/serenitystar/agent"
	"github.com/hupe1980/serenitystar/core"
)

// Vendor is the proxy vendor name for OpenAI models.
const Vendor = "openai"

// ProxyOptions maps chat completion parameters onto proxy options. Only text
// content is carried over; tool definitions, images and audio are dropped.
func ProxyOptions(params openai.ChatCompletionNewParams) (agent.ProxyOptions, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return agent.ProxyOptions{}, fmt.Errorf("openai: encode params: %w", err)
	}
	doc := gjson.ParseBytes(raw)

	po := agent.ProxyOptions{
		Model:            doc.Get("model").String(),
		Vendor:           Vendor,
		UserIdentifier:   doc.Get("user").String(),
		Temperature:      floatField(doc, "temperature"),
		TopP:             floatField(doc, "top_p"),
		FrequencyPenalty: floatField(doc, "frequency_penalty"),
		PresencePenalty:  floatField(doc, "presence_penalty"),
	}
	if v := intField(doc, "max_completion_tokens"); v != nil {
		po.MaxTokens = v
	} else {
		po.MaxTokens = intField(doc, "max_tokens")
	}

	for _, msg := range doc.Get("messages").Array() {
		po.Messages = append(po.Messages, agent.ProxyMessage{
			Role:    msg.Get("role").String(),
			Content: text(msg.Get("content")),
		})
	}
	return po, nil
}

// ToChatCompletion renders an agent result as a single-choice chat
// completion for model.
func ToChatCompletion(res *core.AgentResult, model string) (*openai.ChatCompletion, error) {
	body := map[string]any{
		"id":      res.InstanceID,
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": res.Content},
		}},
	}
	if u := res.CompletionUsage; u != nil {
		body["usage"] = map[string]any{
			"prompt_tokens":     u.PromptTokens,
			"completion_tokens": u.CompletionTokens,
			"total_tokens":      u.TotalTokens,
		}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai: encode completion: %w", err)
	}
	var cc openai.ChatCompletion
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("openai: decode completion: %w", err)
	}
	return &cc, nil
}

// text flattens a message content, which is either a string or a list of
// typed parts.
func text(content gjson.Result) string {
	if !content.IsArray() {
		return content.String()
	}
	var sb strings.Builder
	for _, part := range content.Array() {
		if part.Get("type").String() == "text" {
			sb.WriteString(part.Get("text").String())
		}
	}
	return sb.String()
}

func floatField(doc gjson.Result, key string) *float64 {
	v := doc.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	f := v.Float()
	return &f
}

func intField(doc gjson.Result, key string) *int {
	v := doc.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	i := int(v.Int())
	return &i
}
