package nodes

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/depato-store/shopper-assistant/internal/assistant/model"
	logx "github.com/depato-store/shopper-assistant/pkg/logger"
)

// ModelsConfig holds the configuration for chat model creation.
type ModelsConfig struct {
	APIKey     string
	BaseURL    string
	Router     *model.RouterModelConfig
	Paraphrase *model.ParaphraseModelConfig
	Answer     *model.AnswerModelConfig
}

// Models holds the three chat models the assistant runs on. Router must
// support tool calling; the pipeline models only ever generate.
type Models struct {
	Router          einomodel.ToolCallingChatModel
	Paraphrase      einomodel.BaseChatModel
	Answer          einomodel.BaseChatModel
	RouterModelName string
}

// NewGeminiModels creates all chat models on one shared Gemini client.
func NewGeminiModels(ctx context.Context, config ModelsConfig) (*Models, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	router, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Router.Model,
		Temperature: &config.Router.Temperature,
		MaxTokens:   &config.Router.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating router model")
		return nil, fmt.Errorf("error creating router model: %w", err)
	}

	paraphrase, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Paraphrase.Model,
		Temperature: &config.Paraphrase.Temperature,
		MaxTokens:   &config.Paraphrase.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating paraphrase model")
		return nil, fmt.Errorf("error creating paraphrase model: %w", err)
	}

	answer, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Answer.Model,
		Temperature: &config.Answer.Temperature,
		MaxTokens:   &config.Answer.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating answer model")
		return nil, fmt.Errorf("error creating answer model: %w", err)
	}

	return &Models{
		Router:          router,
		Paraphrase:      paraphrase,
		Answer:          answer,
		RouterModelName: config.Router.Model,
	}, nil
}
