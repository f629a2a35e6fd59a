package prompts

import (
	"context"
	_ "embed"
	"strings"
)

//go:embed template/filter_prompt.txt
var filterExtractionPrompt string

// RenderFilterExtraction renders the metadata filter extraction prompt with
// the current catalog vocabularies. Known tokens are substituted with a plain
// replacer so the JSON braces in the template stay inert.
func RenderFilterExtraction(ctx context.Context, materials, categories []string, query string) (string, error) {
	content := strings.NewReplacer(
		"{materials}", strings.Join(materials, ", "),
		"{categories}", strings.Join(categories, ", "),
		"{query}", query,
	).Replace(filterExtractionPrompt)
	return wrapUserPrompt(ctx, "filter extraction", content)
}
