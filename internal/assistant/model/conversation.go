package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository is the persistence contract for chat turns. The log
// is append-only and read back in insertion order; implementations must never
// reorder or mutate stored messages.
type ConversationRepository interface {
	// AddMessage appends a message to the conversation log.
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory retrieves the full ordered conversation history.
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all conversation history for a conversation.
	ClearHistory(ctx context.Context, conversationID string) error

	// MessageCount returns the number of messages stored for a conversation.
	MessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory is a snapshot of a conversation at load time.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}
