package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/depato-store/shopper-assistant/internal/assistant/pipelines"
)

// GetQueryTools returns the tool set for one conversation, in the order the
// routing prompt describes them.
func GetQueryTools(conversationID string, paraphraser *pipelines.Paraphraser, extractor *pipelines.FilterExtractor, productRAG *pipelines.ProductRAG, commonInfoRAG *pipelines.CommonInfoRAG) []tool.BaseTool {
	return []tool.BaseTool{
		NewProductTool(conversationID, paraphraser, extractor, productRAG),
		NewCommonInfoTool(conversationID, paraphraser, commonInfoRAG),
	}
}

// GetToolInfos resolves the tool schemas for model binding.
func GetToolInfos(ctx context.Context, businessTools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(businessTools))
	for _, t := range businessTools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
