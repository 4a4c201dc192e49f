package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository persists triage transcripts. The dialogue core only
// needs an append/load/clear surface over {role, content} messages; session
// correctness never depends on the repository succeeding.
type ConversationRepository interface {
	// AddMessage appends a message to the stored transcript.
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory retrieves the stored transcript for a conversation.
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes the stored transcript for a conversation.
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of stored messages.
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded transcript data.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}
