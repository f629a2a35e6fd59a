package pipelines

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/depato-store/shopper-assistant/internal/assistant/catalog"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph/parsers"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph/prompts"
	"github.com/depato-store/shopper-assistant/internal/assistant/rag"
	errx "github.com/depato-store/shopper-assistant/internal/core/error"
	logx "github.com/depato-store/shopper-assistant/pkg/logger"
)

// FilterExtractor turns a paraphrased query into a structured metadata
// filter. Catalog vocabularies are fetched fresh on every call so newly
// ingested materials and categories take effect without restart.
type FilterExtractor struct {
	catalog catalog.Catalog
	model   model.BaseChatModel
}

func NewFilterExtractor(cat catalog.Catalog, chatModel model.BaseChatModel) *FilterExtractor {
	return &FilterExtractor{catalog: cat, model: chatModel}
}

// Extract returns the filter for the query. Unparseable model output
// degrades to the empty filter inside ParseFilter; only prompt rendering and
// generation failures are returned as errors.
func (e *FilterExtractor) Extract(ctx context.Context, query string) (rag.Filter, error) {
	materials, err := e.catalog.Materials(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := e.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}

	userPrompt, err := prompts.RenderFilterExtraction(ctx, materials, categories, query)
	if err != nil {
		return nil, errx.WrapGeneration(err)
	}

	resp, err := e.model.Generate(ctx, []*schema.Message{schema.UserMessage(userPrompt)})
	if err != nil {
		return nil, errx.WrapGeneration(fmt.Errorf("filter extraction: %w", err))
	}

	f := parsers.ParseFilter(resp.Content)
	logx.Debug().
		Str("component", "filter_extractor").
		Int("constraints", len(f)).
		Msg("extracted metadata filter")
	return f, nil
}
