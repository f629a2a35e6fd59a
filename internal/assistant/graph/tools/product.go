// Package tools adapts the RAG pipelines into Eino agent tools. Each tool
// paraphrases the raw query first so follow-up questions retrieve against a
// standalone query.
package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/depato-store/shopper-assistant/internal/assistant/pipelines"
)

// Tool names referenced by the routing system prompt.
const (
	ToolProductSearch = "retrieve_and_generate_recommendation"
	ToolCommonInfo    = "common_info_tool"
)

type ProductSearchInput struct {
	Query string `json:"query"`
}

type ProductSearchOutput struct {
	Answer string `json:"answer"`
}

// NewProductTool builds the product recommendation tool for one
// conversation. The conversation id is captured so paraphrasing reads the
// right history.
func NewProductTool(conversationID string, paraphraser *pipelines.Paraphraser, extractor *pipelines.FilterExtractor, productRAG *pipelines.ProductRAG) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolProductSearch,
			Desc: "Retrieve products based on user query using metadata filtering and vector search.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "User query about products.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *ProductSearchInput) (*ProductSearchOutput, error) {
			if in.Query == "" {
				return nil, fmt.Errorf("query is required")
			}

			paraphrased, err := paraphraser.Paraphrase(ctx, conversationID, in.Query)
			if err != nil {
				return nil, err
			}

			filter, err := extractor.Extract(ctx, paraphrased)
			if err != nil {
				return nil, err
			}

			answer, err := productRAG.Run(ctx, paraphrased, filter)
			if err != nil {
				return nil, err
			}
			return &ProductSearchOutput{Answer: answer}, nil
		},
	)
}
