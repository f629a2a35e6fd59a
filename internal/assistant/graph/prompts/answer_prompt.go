package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/depato-store/shopper-assistant/internal/assistant/rag"
)

// System prompts for the grounded answer generations.
const (
	ProductAnswerSystemPrompt    = "You are a helpful shop assistant giving product recommendations."
	CommonInfoAnswerSystemPrompt = "You are a helpful shop assistant. Answer based on the documents."
)

//go:embed template/product_answer_prompt.txt
var productAnswerPrompt string

//go:embed template/common_info_prompt.txt
var commonInfoAnswerPrompt string

// RenderProductAnswer renders the product recommendation prompt with the
// retrieved documents enumerated by title, price, material and category.
func RenderProductAnswer(ctx context.Context, query string, docs []rag.Document) (string, error) {
	var b strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&b, "%d. Name: %s, Price: %s, Material: %s, Category: %s\n",
			i+1, d.MetaString("title"), d.MetaString("price"), d.MetaString("material"), d.MetaString("category"))
		fmt.Fprintf(&b, "Content: %s\n", d.Content)
	}

	content := strings.NewReplacer(
		"{query}", query,
		"{products}", b.String(),
	).Replace(productAnswerPrompt)
	return wrapUserPrompt(ctx, "product answer", content)
}

// RenderCommonInfoAnswer renders the shop information prompt with the
// retrieved documents listed by topic.
func RenderCommonInfoAnswer(ctx context.Context, query string, docs []rag.Document) (string, error) {
	var b strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&b, "Topic: %s\n", d.MetaString("topic"))
		fmt.Fprintf(&b, "Content: %s\n", d.Content)
	}

	content := strings.NewReplacer(
		"{query}", query,
		"{documents}", b.String(),
	).Replace(commonInfoAnswerPrompt)
	return wrapUserPrompt(ctx, "common info answer", content)
}
