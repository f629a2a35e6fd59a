package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/depato-store/shopper-assistant/internal/assistant/model"
)

type MessagesManager struct {
	conversationRepo model.ConversationRepository
	historyMaxTurns  int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		conversationRepo: conversationRepo,
		historyMaxTurns:  config.History.MaxTurns,
	}
}

// SaveUserMessage appends the raw user query to the conversation before the
// agent runs, so history retrieval inside the turn already sees it.
func (cm *MessagesManager) SaveUserMessage(ctx context.Context, conversationID string, query string) error {
	return cm.conversationRepo.AddMessage(ctx, conversationID, schema.UserMessage(query))
}

// BuildRouterContext loads the conversation and assembles the router input:
// the routing system prompt, the history rendered as a context message, and
// the current user query.
func (cm *MessagesManager) BuildRouterContext(ctx context.Context, conversationID string, systemPrompt string, query string) ([]*schema.Message, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	recent := trimTail(history.Messages, cm.historyMaxTurns)
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.SystemMessage("Conversation Context: " + Render(recent)),
		schema.UserMessage(query),
	}
	return messages, nil
}

// HistoryBlob loads and renders the conversation for prompt interpolation.
func (cm *MessagesManager) HistoryBlob(ctx context.Context, conversationID string) (string, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return "", err
	}
	return Render(trimTail(history.Messages, cm.historyMaxTurns)), nil
}

func (cm *MessagesManager) SaveResponse(ctx context.Context, conversationID string, content string) error {
	return cm.conversationRepo.AddMessage(ctx, conversationID, schema.AssistantMessage(content, nil))
}

// Render flattens a conversation into a text blob, one message per line.
// Tool and empty messages are skipped; only the user/assistant exchange
// matters for paraphrasing and routing context.
func Render(messages []*schema.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	return b.String()
}

// ====================== Helper function ======================
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
