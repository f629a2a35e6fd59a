package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/depato-store/shopper-assistant/internal/assistant/pipelines"
)

type CommonInfoInput struct {
	Query string `json:"query"`
}

type CommonInfoOutput struct {
	Answer string `json:"answer"`
}

// NewCommonInfoTool builds the general shop information tool for one
// conversation.
func NewCommonInfoTool(conversationID string, paraphraser *pipelines.Paraphraser, commonInfoRAG *pipelines.CommonInfoRAG) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCommonInfo,
			Desc: "Answer general questions about shipping, payment, refund, and how to buy.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "User question about general info.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *CommonInfoInput) (*CommonInfoOutput, error) {
			if in.Query == "" {
				return nil, fmt.Errorf("query is required")
			}

			paraphrased, err := paraphraser.Paraphrase(ctx, conversationID, in.Query)
			if err != nil {
				return nil, err
			}

			answer, err := commonInfoRAG.Run(ctx, paraphrased)
			if err != nil {
				return nil, err
			}
			return &CommonInfoOutput{Answer: answer}, nil
		},
	)
}
