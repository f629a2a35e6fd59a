package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/depato-store/shopper-assistant/internal/assistant"
	"github.com/depato-store/shopper-assistant/internal/assistant/catalog"
	"github.com/depato-store/shopper-assistant/internal/assistant/embedder"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph/nodes"
	"github.com/depato-store/shopper-assistant/internal/assistant/model"
	"github.com/depato-store/shopper-assistant/internal/assistant/rag"
	"github.com/depato-store/shopper-assistant/internal/assistant/repo"
	"github.com/depato-store/shopper-assistant/internal/core"
	logx "github.com/depato-store/shopper-assistant/pkg/logger"
	pkgredis "github.com/depato-store/shopper-assistant/pkg/redis"
)

// AppConfig defines all configurable parameters for the assistant, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9100"`

	// Infrastructure
	Redis     pkgredis.Config
	Qdrant    rag.QdrantConfig
	Embedding embedder.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Assistant configs
	Router       model.RouterModelConfig
	Paraphrase   model.ParaphraseModelConfig
	Answer       model.AnswerModelConfig
	Conversation model.ConversationConfig
	Retrieval    model.RetrievalConfig
	Prompt       model.PromptConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}

	qdrantClient, err := rag.NewQdrantClient(&envCfg.Qdrant)
	if err != nil {
		log.Fatalf("Failed to initialise Qdrant client: %v", err)
	}

	productStore, err := rag.NewQdrantStore(ctx, qdrantClient, envCfg.Qdrant.ProductCollection, envCfg.Qdrant.VectorSize)
	if err != nil {
		log.Fatalf("Failed to open product collection: %v", err)
	}
	commonInfoStore, err := rag.NewQdrantStore(ctx, qdrantClient, envCfg.Qdrant.CommonInfoCollection, envCfg.Qdrant.VectorSize)
	if err != nil {
		log.Fatalf("Failed to open common info collection: %v", err)
	}

	emb, err := embedder.New(&envCfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to initialise embedder: %v", err)
	}

	models, err := nodes.NewGeminiModels(ctx, nodes.ModelsConfig{
		APIKey:     envCfg.APIKey,
		BaseURL:    envCfg.BaseURL,
		Router:     &envCfg.Router,
		Paraphrase: &envCfg.Paraphrase,
		Answer:     &envCfg.Answer,
	})
	if err != nil {
		log.Fatalf("Failed to create chat models: %v", err)
	}

	go serveMetrics(envCfg.MetricsAddr)

	conversationID := fmt.Sprintf("cli-%d", time.Now().UnixNano())

	runner, err := graph.BuildAssistantGraph(ctx, &graph.Config{
		ConversationID:   conversationID,
		Models:           models,
		ConversationRepo: repo.NewRedisConversationRepository(rdb, ttl),
		Catalog:          catalog.NewRedisCatalog(rdb),
		Embedder:         emb,
		ProductStore:     productStore,
		CommonInfoStore:  commonInfoStore,
		Conversation:     envCfg.Conversation,
		Retrieval:        envCfg.Retrieval,
		Prompt:           envCfg.Prompt,
	})
	if err != nil {
		log.Fatalf("Failed to build assistant graph: %v", err)
	}

	session := assistant.NewSession(runner, conversationID, envCfg.Conversation)

	fmt.Printf("%s assistant ready. Type your question, or 'exit' to quit.\n", envCfg.Prompt.ShopName)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			break
		}

		reply, err := session.HandleTurn(ctx, query)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(reply)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logx.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
	}
}
