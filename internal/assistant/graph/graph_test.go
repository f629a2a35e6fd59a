package graph

import (
	"context"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/depato-store/shopper-assistant/internal/assistant/catalog"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph/nodes"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph/tools"
	"github.com/depato-store/shopper-assistant/internal/assistant/model"
	"github.com/depato-store/shopper-assistant/internal/assistant/rag"
	"github.com/depato-store/shopper-assistant/internal/assistant/repo"
)

// scriptedRouter is a ToolCallingChatModel whose behaviour is driven by the
// user query: product queries call the product tool, info queries call the
// common info tool, everything else answers directly. After one tool result
// it produces a final answer. It records every requested tool name.
type scriptedRouter struct {
	boundTools    []string
	requested     []string
	alwaysCall    string // when set, request this tool on every call
	callsObserved int
}

func (m *scriptedRouter) WithTools(infos []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	m.boundTools = names
	return m, nil
}

func (m *scriptedRouter) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	m.callsObserved++

	if m.alwaysCall != "" {
		m.requested = append(m.requested, m.alwaysCall)
		return m.toolCallMessage(m.alwaysCall), nil
	}

	// a tool already answered this turn: produce the final reply
	for i := len(in) - 1; i >= 0; i-- {
		if in[i] != nil && in[i].Role == schema.Tool {
			return schema.AssistantMessage("Here is what I found for you.", nil), nil
		}
	}

	query := ""
	for i := len(in) - 1; i >= 0; i-- {
		if in[i] != nil && in[i].Role == schema.User {
			query = in[i].Content
			break
		}
	}

	switch {
	case strings.Contains(query, "shirt") || strings.Contains(query, "jacket"):
		m.requested = append(m.requested, tools.ToolProductSearch)
		return m.toolCallMessage(tools.ToolProductSearch), nil
	case strings.Contains(query, "refund") || strings.Contains(query, "shipping"):
		m.requested = append(m.requested, tools.ToolCommonInfo)
		return m.toolCallMessage(tools.ToolCommonInfo), nil
	default:
		return schema.AssistantMessage("Hello! How can I help you today?", nil), nil
	}
}

func (m *scriptedRouter) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *scriptedRouter) toolCallMessage(name string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			Function: schema.FunctionCall{
				Name:      name,
				Arguments: `{"query": "standalone query"}`,
			},
		}},
	}
}

// plainModel answers every generation with a fixed string; it backs the
// paraphrase and answer models in graph tests.
type plainModel struct {
	reply string
}

func (m *plainModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *plainModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(m.reply, nil)}), nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func testConfig(conversationID string, router *scriptedRouter) (*Config, model.ConversationRepository) {
	products := rag.NewMemoryStore()
	products.Add(rag.Document{
		ID:      "B001",
		Content: "Classic cotton t-shirt",
		Meta:    map[string]any{"title": "Cotton Tee", "material": "cotton", "category": "shirts", "price": 19.9},
	}, []float32{1, 0})

	commonInfo := rag.NewMemoryStore()
	commonInfo.Add(rag.Document{
		ID:      "refund-policy",
		Content: "Refunds are accepted within 30 days.",
		Meta:    map[string]any{"topic": "refund"},
	}, []float32{1, 0})

	conversationRepo := repo.NewMemoryConversationRepository()

	var conv model.ConversationConfig
	conv.Agent.MaxSteps = 10
	conv.History.MaxTurns = 40

	return &Config{
		ConversationID: conversationID,
		Models: &nodes.Models{
			Router:          router,
			Paraphrase:      &plainModel{reply: "standalone query"},
			Answer:          &plainModel{reply: "Generated grounded answer."},
			RouterModelName: "scripted-router",
		},
		ConversationRepo: conversationRepo,
		Catalog: &catalog.StaticCatalog{
			MaterialValues: []string{"cotton", "leather"},
			CategoryValues: []string{"shirts", "jackets"},
		},
		Embedder:        fixedEmbedder{},
		ProductStore:    products,
		CommonInfoStore: commonInfo,
		Conversation:    conv,
		Retrieval:       model.RetrievalConfig{ProductTopK: 10, CommonInfoTopK: 5},
		Prompt:          model.PromptConfig{ShopName: "Depato Store"},
	}, conversationRepo
}

func Test_Graph_ProductQueryRoutesToProductTool(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	router := &scriptedRouter{}
	cfg, _ := testConfig("conv-product", router)

	runner, err := BuildAssistantGraph(ctx, cfg)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}

	out, err := runner.Invoke(ctx, model.QueryInput{ConversationID: "conv-product", Query: "any cotton shirt recommendations?"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out != "Here is what I found for you." {
		t.Errorf("unexpected answer %q", out)
	}
	if len(router.requested) != 1 || router.requested[0] != tools.ToolProductSearch {
		t.Errorf("want one product tool call, got %v", router.requested)
	}
	if len(router.boundTools) != 2 {
		t.Errorf("both tools should be bound to the router, got %v", router.boundTools)
	}
}

func Test_Graph_InfoQueryRoutesToCommonInfoTool(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	router := &scriptedRouter{}
	cfg, _ := testConfig("conv-info", router)

	runner, err := BuildAssistantGraph(ctx, cfg)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}

	if _, err := runner.Invoke(ctx, model.QueryInput{ConversationID: "conv-info", Query: "what is your refund policy?"}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if len(router.requested) != 1 || router.requested[0] != tools.ToolCommonInfo {
		t.Errorf("want one common info tool call, got %v", router.requested)
	}
}

func Test_Graph_ChitChatAnswersDirectly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	router := &scriptedRouter{}
	cfg, conversationRepo := testConfig("conv-chat", router)

	runner, err := BuildAssistantGraph(ctx, cfg)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}

	out, err := runner.Invoke(ctx, model.QueryInput{ConversationID: "conv-chat", Query: "Hi there!"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out != "Hello! How can I help you today?" {
		t.Errorf("unexpected answer %q", out)
	}
	if len(router.requested) != 0 {
		t.Errorf("chit-chat must not call tools, got %v", router.requested)
	}

	// both user turn and assistant answer must be persisted
	history, err := conversationRepo.LoadHistory(ctx, "conv-chat")
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(history.Messages) != 2 {
		t.Fatalf("want user+assistant messages persisted, got %d", len(history.Messages))
	}
	if history.Messages[0].Role != schema.User || history.Messages[1].Role != schema.Assistant {
		t.Errorf("unexpected persisted roles: %v %v", history.Messages[0].Role, history.Messages[1].Role)
	}
}

func Test_Graph_RunawayToolLoopTerminates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	router := &scriptedRouter{alwaysCall: tools.ToolCommonInfo}
	cfg, _ := testConfig("conv-loop", router)
	cfg.Conversation.Agent.MaxSteps = 3

	runner, err := BuildAssistantGraph(ctx, cfg)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}

	// The router demands a tool on every call; the step budget must stop the
	// loop and resolve the turn without error.
	out, err := runner.Invoke(ctx, model.QueryInput{ConversationID: "conv-loop", Query: "shipping options?"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out == "" {
		t.Error("want a non-empty resolution")
	}
	if len(router.requested) > 4 {
		t.Errorf("tool calls should be bounded by the step budget, got %d", len(router.requested))
	}
}

func Test_Graph_FollowUpTurnSeesHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	router := &scriptedRouter{}
	cfg, conversationRepo := testConfig("conv-multi", router)

	runner, err := BuildAssistantGraph(ctx, cfg)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}

	if _, err := runner.Invoke(ctx, model.QueryInput{ConversationID: "conv-multi", Query: "Hi there!"}); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if _, err := runner.Invoke(ctx, model.QueryInput{ConversationID: "conv-multi", Query: "any cotton shirt for me?"}); err != nil {
		t.Fatalf("second turn: %v", err)
	}

	history, err := conversationRepo.LoadHistory(ctx, "conv-multi")
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(history.Messages) != 4 {
		t.Fatalf("want 4 persisted messages after two turns, got %d", len(history.Messages))
	}
}
