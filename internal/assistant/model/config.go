package model

// ================ Config ================

// RouterModelConfig configures the chat model that drives tool routing.
type RouterModelConfig struct {
	Model       string  `envconfig:"ROUTER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"ROUTER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"ROUTER_TEMPERATURE" default:"0.3"`
}

// ParaphraseModelConfig configures the model that rewrites follow-up queries
// into standalone ones. Low temperature keeps rewrites literal.
type ParaphraseModelConfig struct {
	Model       string  `envconfig:"PARAPHRASE_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"PARAPHRASE_MAX_TOKENS" default:"500"`
	Temperature float32 `envconfig:"PARAPHRASE_TEMPERATURE" default:"0.1"`
}

// AnswerModelConfig configures the model used for grounded answer generation
// in both RAG pipelines and for metadata filter extraction.
type AnswerModelConfig struct {
	Model       string  `envconfig:"ANSWER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"ANSWER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"ANSWER_TEMPERATURE" default:"0.4"`
}

// ConversationConfig groups session-scoped settings.
type ConversationConfig struct {
	TTL   string `envconfig:"CONVERSATION_TTL" default:"15m"`
	Agent struct {
		// MaxSteps bounds the number of model→tool round trips per turn.
		MaxSteps int `envconfig:"AGENT_MAX_STEPS" default:"10"`
	}
	Turn struct {
		// Timeout bounds one fully resolved user turn end-to-end.
		Timeout string `envconfig:"TURN_TIMEOUT" default:"90s"`
	}
	History struct {
		// MaxTurns caps how many stored messages are rendered into prompt
		// context. Zero means no cap.
		MaxTurns int `envconfig:"HISTORY_MAX_TURNS" default:"40"`
	}
}

// RetrievalConfig sets per-corpus top-K limits.
type RetrievalConfig struct {
	ProductTopK    int `envconfig:"RETRIEVAL_PRODUCT_TOP_K" default:"10"`
	CommonInfoTopK int `envconfig:"RETRIEVAL_COMMON_INFO_TOP_K" default:"5"`
}

// PromptConfig carries the shop identity injected into system prompts.
type PromptConfig struct {
	ShopName string `envconfig:"PROMPT_SHOP_NAME" default:"Depato Store"`
}
