package embedder

import (
	"fmt"

	"github.com/depato-store/shopper-assistant/internal/assistant/rag"
)

const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"
)

// Config selects and configures the embedding backend. Both collections use
// the same backend so query and document vectors live in one space.
type Config struct {
	Provider   string `envconfig:"EMBEDDING_PROVIDER" default:"ollama"`
	Model      string `envconfig:"EMBEDDING_MODEL"`
	APIKey     string `envconfig:"EMBEDDING_API_KEY"`
	OllamaHost string `envconfig:"OLLAMA_HOST" default:"http://localhost:11434"`
	BaseURL    string `envconfig:"EMBEDDING_BASE_URL" default:"https://api.openai.com/v1"`
	Dimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
}

// New builds the rag.Embedder for the configured provider.
func New(cfg *Config) (rag.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		model := cfg.Model
		if model == "" {
			model = defaultOllamaModel
		}
		return NewOllamaEmbedder(cfg.OllamaHost, model), nil

	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedder: openai provider requires EMBEDDING_API_KEY")
		}
		model := cfg.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		return NewOpenAIEmbedder(cfg.BaseURL, cfg.APIKey, model, cfg.Dimensions), nil

	default:
		return nil, fmt.Errorf("embedder: unknown provider %q, valid values: ollama, openai", cfg.Provider)
	}
}

var (
	_ rag.Embedder = (*OllamaEmbedder)(nil)
	_ rag.Embedder = (*OpenAIEmbedder)(nil)
)
