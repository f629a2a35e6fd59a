// Package pipelines implements the retrieval-augmented generation stages the
// agent tools compose: query paraphrasing, metadata filter extraction and the
// two grounded answer pipelines.
package pipelines

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/depato-store/shopper-assistant/internal/assistant/graph/conversations"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph/prompts"
	errx "github.com/depato-store/shopper-assistant/internal/core/error"
)

// Paraphraser rewrites a follow-up query into a standalone one using the
// conversation history.
type Paraphraser struct {
	messages *conversations.MessagesManager
	model    model.BaseChatModel
}

func NewParaphraser(messages *conversations.MessagesManager, chatModel model.BaseChatModel) *Paraphraser {
	return &Paraphraser{messages: messages, model: chatModel}
}

// Paraphrase returns the standalone form of the query. History load failures
// and generation failures both fail the call; the tool layer surfaces them.
func (p *Paraphraser) Paraphrase(ctx context.Context, conversationID, query string) (string, error) {
	history, err := p.messages.HistoryBlob(ctx, conversationID)
	if err != nil {
		return "", err
	}

	userPrompt, err := prompts.RenderParaphrase(ctx, history, query)
	if err != nil {
		return "", errx.WrapGeneration(err)
	}

	resp, err := p.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(prompts.ParaphraseSystemPrompt),
		schema.UserMessage(userPrompt),
	})
	if err != nil {
		return "", errx.WrapGeneration(fmt.Errorf("paraphrase: %w", err))
	}

	out := strings.TrimSpace(resp.Content)
	if out == "" {
		// an empty rewrite would lose the query entirely
		return query, nil
	}
	return out, nil
}
