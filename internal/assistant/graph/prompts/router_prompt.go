package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/depato-store/shopper-assistant/internal/assistant/model"
)

//go:embed template/router_prompt.txt
var routerSystemPrompt string

// RenderRouterSystem renders the routing system prompt and triggers prompt
// callbacks. Tool names are passed in by the graph builder so the prompt
// always matches the bound tools.
func RenderRouterSystem(ctx context.Context, config model.PromptConfig, productTool, commonInfoTool string) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(routerSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"ShopName":       config.ShopName,
		"ProductTool":    productTool,
		"CommonInfoTool": commonInfoTool,
	})
	if err != nil {
		return "", fmt.Errorf("router prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("router prompt render: empty result")
	}
	return msgs[0].Content, nil
}
