package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// ParaphraseSystemPrompt instructs the model to rewrite a follow-up query as
// a standalone one.
const ParaphraseSystemPrompt = "You are a helpful assistant that paraphrases user queries based on conversation history to make them standalone."

//go:embed template/paraphrase_prompt.txt
var paraphraseUserPrompt string

// RenderParaphrase renders the paraphrase user prompt. The history blob and
// query are substituted with a plain replacer so template braces inside user
// text stay inert, then the result is passed through the Eino prompt
// component to emit callbacks.
func RenderParaphrase(ctx context.Context, history, query string) (string, error) {
	content := strings.NewReplacer(
		"{history}", history,
		"{query}", query,
	).Replace(paraphraseUserPrompt)
	return wrapUserPrompt(ctx, "paraphrase", content)
}

// wrapUserPrompt passes an already-rendered user prompt through the Eino
// prompt component so prompt callbacks fire for it.
func wrapUserPrompt(ctx context.Context, name, content string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("user_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"user_messages": []*schema.Message{schema.UserMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("%s prompt callbacks: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt callbacks: empty result", name)
	}
	return msgs[0].Content, nil
}
