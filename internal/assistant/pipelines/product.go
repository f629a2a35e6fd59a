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
	logx "github.com/depato-store/shopper-assistant/pkg/logger"
)

// ProductRAG embeds the query, retrieves the top matching products under a
// metadata filter, and generates a grounded recommendation.
type ProductRAG struct {
	embedder rag.Embedder
	store    rag.DocumentStore
	model    model.BaseChatModel
	topK     int
}

func NewProductRAG(embedder rag.Embedder, store rag.DocumentStore, chatModel model.BaseChatModel, topK int) *ProductRAG {
	return &ProductRAG{embedder: embedder, store: store, model: chatModel, topK: topK}
}

func (p *ProductRAG) Run(ctx context.Context, query string, filter rag.Filter) (string, error) {
	vecs, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", errx.WrapRetrieval(fmt.Errorf("product rag: embed query: %w", err))
	}

	docs, err := p.store.Search(ctx, vecs[0], filter, p.topK)
	if err != nil {
		return "", err
	}
	logx.Debug().
		Str("component", "product_rag").
		Int("documents", len(docs)).
		Int("constraints", len(filter)).
		Msg("retrieved products")

	userPrompt, err := prompts.RenderProductAnswer(ctx, query, docs)
	if err != nil {
		return "", errx.WrapGeneration(err)
	}

	resp, err := p.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(prompts.ProductAnswerSystemPrompt),
		schema.UserMessage(userPrompt),
	})
	if err != nil {
		return "", errx.WrapGeneration(fmt.Errorf("product rag: generate: %w", err))
	}
	return strings.TrimSpace(resp.Content), nil
}
