package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/serenitystar/core"
)

func TestChatCompletion_Frame(t *testing.T) {
	s, srv := newScopes(t, resultHandler("inst"))
	history := []ChatMessage{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}}

	c := s.ChatCompletions.Create("chat", func(o *ChatCompletionOptions) {
		o.Message = "how are you?"
		o.Messages = history
		o.InputParameters = core.Params{}.Add("tone", "formal")
		o.UserIdentifier = "u"
	})
	c.VolatileKnowledge.Add(uuid.New())

	_, err := c.Execute(context.Background())
	require.NoError(t, err)

	ps := pairs(t, srv.Last(t))
	assert.Equal(t, []string{"message", "messages", "tone", "userIdentifier", "volatileKnowledgeIds"}, keys(ps))
	assert.Equal(t, "how are you?", ps[0].Value)

	raw, ok := ps[1].Value.(string)
	require.True(t, ok, "messages must be a JSON string, got %T", ps[1].Value)
	var got []ChatMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, history, got)
	assert.Equal(t, 0, c.VolatileKnowledge.Len())
}

func TestChatCompletion_OmitsEmptyHistory(t *testing.T) {
	s, _ := newScopes(t, nil)
	c := s.ChatCompletions.Create("chat", func(o *ChatCompletionOptions) { o.Message = "hi" })

	f, err := c.BuildFrame(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"message"}, keys(f.(ListFrame)))
}

func TestChatCompletion_RequiresMessage(t *testing.T) {
	s, srv := newScopes(t, resultHandler("inst"))

	_, err := s.ChatCompletions.Execute(context.Background(), "chat", func(o *ChatCompletionOptions) {
		o.Messages = []ChatMessage{{Role: "user", Content: "hi"}}
	})
	assert.ErrorIs(t, err, core.ErrValidation)
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "message", ve.Field)
	assert.Empty(t, srv.Requests())
}

func TestChatCompletion_OptionsAreCopied(t *testing.T) {
	s, _ := newScopes(t, nil)
	history := []ChatMessage{{Role: "user", Content: "a"}}
	c := s.ChatCompletions.Create("chat", func(o *ChatCompletionOptions) {
		o.Message = "m"
		o.Messages = history
	})
	history[0].Content = "changed"

	f, err := c.BuildFrame(false)
	require.NoError(t, err)
	v, _ := f.(ListFrame).Get(keyMessages)
	assert.JSONEq(t, `[{"role":"user","content":"a"}]`, v.(string))
}
