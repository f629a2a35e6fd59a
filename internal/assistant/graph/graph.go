// Package graph composes the routing agent: a bounded loop between the
// router chat model and the RAG tools, compiled as an Eino graph.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/depato-store/shopper-assistant/internal/assistant/catalog"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph/conversations"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph/nodes"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph/observers"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph/tools"
	"github.com/depato-store/shopper-assistant/internal/assistant/model"
	"github.com/depato-store/shopper-assistant/internal/assistant/pipelines"
	"github.com/depato-store/shopper-assistant/internal/assistant/rag"
	logx "github.com/depato-store/shopper-assistant/pkg/logger"
)

// EmptyResponseApology is returned when a turn resolves without any
// assistant content.
const EmptyResponseApology = "Sorry, I couldn't come up with an answer for that. Could you rephrase your question?"

// Runner is a thin wrapper to execute the compiled graph with the public QueryInput.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
}

// Config holds everything needed to compose the assistant graph for one
// conversation. The conversation id is fixed at build time because the tools
// read its history when paraphrasing.
type Config struct {
	ConversationID string

	Models           *nodes.Models
	ConversationRepo model.ConversationRepository
	Catalog          catalog.Catalog
	Embedder         rag.Embedder
	ProductStore     rag.DocumentStore
	CommonInfoStore  rag.DocumentStore

	Conversation model.ConversationConfig
	Retrieval    model.RetrievalConfig
	Prompt       model.PromptConfig
}

// GraphBuilder handles the construction of the assistant graph.
type GraphBuilder struct {
	config   *Config
	messages *conversations.MessagesManager
	graph    *compose.Graph[model.QueryInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *schema.Message]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	out, err := r.runnable.Invoke(ctx, model.QueryInput{
		ConversationID: in.ConversationID,
		Query:          in.Query,
	}, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return EmptyResponseApology, nil
	}
	return out.Content, nil
}

// BuildAssistantGraph wires the pipelines, tools and nodes into a compiled
// graph and returns a Runner.
func BuildAssistantGraph(ctx context.Context, cfg *Config) (Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if cfg.ConversationID == "" {
		return nil, fmt.Errorf("conversation id is empty")
	}
	if cfg.Models == nil || cfg.Models.Router == nil || cfg.Models.Paraphrase == nil || cfg.Models.Answer == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Catalog == nil || cfg.Embedder == nil || cfg.ProductStore == nil || cfg.CommonInfoStore == nil {
		return nil, fmt.Errorf("retrieval dependencies are not properly initialized")
	}

	builder := &GraphBuilder{
		config:   cfg,
		messages: conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation),
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	routerModel, err := builder.setupTools(ctx)
	if err != nil {
		return nil, err
	}

	builder.addNodes(routerModel)
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}

	logx.Debug().Str("conversation_id", cfg.ConversationID).Msg("Assistant graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// setupTools builds the RAG pipelines, wraps them as tools, binds them to the
// router model and registers the tools node. Returns the tool-bound router.
func (b *GraphBuilder) setupTools(ctx context.Context) (einomodel.ToolCallingChatModel, error) {
	paraphraser := pipelines.NewParaphraser(b.messages, b.config.Models.Paraphrase)
	extractor := pipelines.NewFilterExtractor(b.config.Catalog, b.config.Models.Answer)
	productRAG := pipelines.NewProductRAG(
		b.config.Embedder, b.config.ProductStore, b.config.Models.Answer, b.config.Retrieval.ProductTopK)
	commonInfoRAG := pipelines.NewCommonInfoRAG(
		b.config.Embedder, b.config.CommonInfoStore, b.config.Models.Answer, b.config.Retrieval.CommonInfoTopK)

	businessTools := tools.GetQueryTools(b.config.ConversationID, paraphraser, extractor, productRAG, commonInfoRAG)
	toolInfos, err := tools.GetToolInfos(ctx, businessTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return nil, fmt.Errorf("failed to get tool infos: %w", err)
	}

	routerModel, err := b.config.Models.Router.WithTools(toolInfos)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to router model")
		return nil, fmt.Errorf("failed to bind tools to router model: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               businessTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// Gracefully handle hallucinated or malformed tool calls
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			// Best-effort sanitize; never fail hard here
			var m map[string]any
			if err := json.Unmarshal([]byte(arguments), &m); err != nil {
				return arguments, nil
			}

			switch name {
			case tools.ToolProductSearch, tools.ToolCommonInfo:
				if v, ok := m["query"]; ok {
					switch vv := v.(type) {
					case string:
						m["query"] = strings.TrimSpace(vv)
					default:
						m["query"] = strings.TrimSpace(fmt.Sprint(v))
					}
				}
			}

			sanitized, err := json.Marshal(m)
			if err != nil {
				return arguments, nil
			}
			return string(sanitized), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return nil, fmt.Errorf("failed to create tools node: %w", err)
	}

	b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.Conversation.Agent.MaxSteps)),
	)

	return routerModel, nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes(routerModel einomodel.ToolCallingChatModel) {
	b.graph.AddLambdaNode(nodes.NodeInputConverter,
		nodes.NewInputConverterNode(b.messages, b.config.Prompt, tools.ToolProductSearch, tools.ToolCommonInfo),
		compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
	)

	b.graph.AddChatModelNode(nodes.NodeRouterChatModel,
		routerModel,
		compose.WithStatePreHandler(nodes.NewRouterChatModelPreHandler(b.config.Conversation.Agent.MaxSteps)),
		compose.WithStatePostHandler(nodes.NewRouterChatModelPostHandler(b.messages, b.config.Models.RouterModelName)),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeRouterChatModel},
		{nodes.NodeToolExecutor, nodes.NodeRouterChatModel},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	decisionBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			compose.END:            true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeRouterChatModel, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// Limit total run steps to avoid infinite loops in branching or tool retries
	maxSteps := 10 + b.config.Conversation.Agent.MaxSteps*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}
	return runnable, nil
}
