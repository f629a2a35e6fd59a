package pipelines

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/depato-store/shopper-assistant/internal/assistant/graph/prompts"
	"github.com/depato-store/shopper-assistant/internal/assistant/rag"
	errx "github.com/depato-store/shopper-assistant/internal/core/error"
)

// CommonInfoRAG answers general shop questions (shipping, refunds, payment)
// from the common-info corpus. It never applies a metadata filter.
type CommonInfoRAG struct {
	embedder rag.Embedder
	store    rag.DocumentStore
	model    model.BaseChatModel
	topK     int
}

func NewCommonInfoRAG(embedder rag.Embedder, store rag.DocumentStore, chatModel model.BaseChatModel, topK int) *CommonInfoRAG {
	return &CommonInfoRAG{embedder: embedder, store: store, model: chatModel, topK: topK}
}

func (p *CommonInfoRAG) Run(ctx context.Context, query string) (string, error) {
	vecs, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", errx.WrapRetrieval(fmt.Errorf("common info rag: embed query: %w", err))
	}

	docs, err := p.store.Search(ctx, vecs[0], nil, p.topK)
	if err != nil {
		return "", err
	}

	userPrompt, err := prompts.RenderCommonInfoAnswer(ctx, query, docs)
	if err != nil {
		return "", errx.WrapGeneration(err)
	}

	resp, err := p.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(prompts.CommonInfoAnswerSystemPrompt),
		schema.UserMessage(userPrompt),
	})
	if err != nil {
		return "", errx.WrapGeneration(fmt.Errorf("common info rag: generate: %w", err))
	}
	return strings.TrimSpace(resp.Content), nil
}
