package agent

import "time"

// ConversationInfo describes how a conversational agent presents itself
// before the first turn.
type ConversationInfo struct {
	Conversation struct {
		InitialMessage string   `json:"initialMessage"`
		Starters       []string `json:"starters"`
	} `json:"conversation"`
	Agent struct {
		Version       int    `json:"version"`
		VisionEnabled bool   `json:"visionEnabled"`
		IsRealtime    bool   `json:"isRealtime"`
		ImageID       string `json:"imageId"`
	} `json:"agent"`
	Channel map[string]any `json:"channel,omitempty"`
}

// ConversationMessage is one stored message of a conversation.
type ConversationMessage struct {
	ID        string    `json:"id,omitempty"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
}

// ConversationDetails is the stored state of a conversation.
type ConversationDetails struct {
	ID               string                `json:"id"`
	Messages         []ConversationMessage `json:"messages"`
	Open             bool                  `json:"open"`
	ExecutorTaskLogs any                   `json:"executorTaskLogs,omitempty"`
}
