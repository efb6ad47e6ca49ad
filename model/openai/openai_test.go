package openai

import (
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/serenitystar/agent"
	"github.com/hupe1980/serenitystar/core"
)

func TestProxyOptions(t *testing.T) {
	po, err := ProxyOptions(openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4oMini,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("Be terse."),
			openai.UserMessage("Hello"),
		},
		Temperature:         openai.Float(0.3),
		MaxCompletionTokens: openai.Int(128),
		TopP:                openai.Float(0.8),
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", po.Model)
	assert.Equal(t, Vendor, po.Vendor)
	assert.Equal(t, []agent.ProxyMessage{
		{Role: "system", Content: "Be terse."},
		{Role: "user", Content: "Hello"},
	}, po.Messages)
	require.NotNil(t, po.Temperature)
	assert.InDelta(t, 0.3, *po.Temperature, 1e-9)
	require.NotNil(t, po.MaxTokens)
	assert.Equal(t, 128, *po.MaxTokens)
	require.NotNil(t, po.TopP)
	assert.Nil(t, po.FrequencyPenalty)
	assert.Nil(t, po.PresencePenalty)
	assert.Nil(t, po.TopK)
}

func TestToChatCompletion(t *testing.T) {
	res := &core.AgentResult{
		Content:         "Hi there",
		InstanceID:      "inst",
		CompletionUsage: &core.TokenUsage{PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5},
	}
	cc, err := ToChatCompletion(res, "gpt-4o-mini")
	require.NoError(t, err)

	assert.Equal(t, "inst", cc.ID)
	assert.Equal(t, "gpt-4o-mini", cc.Model)
	require.Len(t, cc.Choices, 1)
	assert.Equal(t, "Hi there", cc.Choices[0].Message.Content)
	assert.Equal(t, int64(5), cc.Usage.TotalTokens)
}
