package pipelines

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/depato-store/shopper-assistant/internal/assistant/catalog"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph/conversations"
	"github.com/depato-store/shopper-assistant/internal/assistant/model"
	"github.com/depato-store/shopper-assistant/internal/assistant/rag"
	"github.com/depato-store/shopper-assistant/internal/assistant/repo"
	errx "github.com/depato-store/shopper-assistant/internal/core/error"
)

// fakeChatModel replies with a scripted content and records the last prompt.
type fakeChatModel struct {
	reply      string
	err        error
	lastPrompt []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.lastPrompt = in
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

func newMessagesManager() *conversations.MessagesManager {
	var cfg model.ConversationConfig
	cfg.History.MaxTurns = 40
	return conversations.NewMessagesManager(repo.NewMemoryConversationRepository(), cfg)
}

func Test_Paraphraser_UsesHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cm := newMessagesManager()
	if err := cm.SaveUserMessage(ctx, "conv-1", "show me cotton shirts"); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	fm := &fakeChatModel{reply: "cheaper cotton shirts than before"}
	p := NewParaphraser(cm, fm)

	out, err := p.Paraphrase(ctx, "conv-1", "any cheaper ones?")
	if err != nil {
		t.Fatalf("paraphrase: %v", err)
	}
	if out != "cheaper cotton shirts than before" {
		t.Errorf("unexpected paraphrase %q", out)
	}

	if len(fm.lastPrompt) != 2 {
		t.Fatalf("want system+user prompt, got %d messages", len(fm.lastPrompt))
	}
	if !strings.Contains(fm.lastPrompt[1].Content, "UserMessage(show me cotton shirts)") {
		t.Errorf("history missing from paraphrase prompt: %q", fm.lastPrompt[1].Content)
	}
	if !strings.Contains(fm.lastPrompt[1].Content, "Query: any cheaper ones?") {
		t.Errorf("query missing from paraphrase prompt: %q", fm.lastPrompt[1].Content)
	}
}

func Test_Paraphraser_EmptyReplyFallsBackToQuery(t *testing.T) {
	t.Parallel()

	p := NewParaphraser(newMessagesManager(), &fakeChatModel{reply: "  "})
	out, err := p.Paraphrase(context.Background(), "conv-1", "original query")
	if err != nil {
		t.Fatalf("paraphrase: %v", err)
	}
	if out != "original query" {
		t.Errorf("want original query on empty rewrite, got %q", out)
	}
}

func Test_Paraphraser_GenerationFailure(t *testing.T) {
	t.Parallel()

	p := NewParaphraser(newMessagesManager(), &fakeChatModel{err: errors.New("quota exceeded")})
	_, err := p.Paraphrase(context.Background(), "conv-1", "q")
	if err == nil {
		t.Fatal("want error")
	}
	if !errx.IsGeneration(err) {
		t.Errorf("want generation failure, got %v", err)
	}
}

func Test_FilterExtractor_VocabulariesInPrompt(t *testing.T) {
	t.Parallel()

	cat := &catalog.StaticCatalog{
		MaterialValues: []string{"cotton", "leather"},
		CategoryValues: []string{"shirts", "jackets"},
	}
	fm := &fakeChatModel{reply: "```json\n{\"material\": \"cotton\"}\n```"}
	e := NewFilterExtractor(cat, fm)

	f, err := e.Extract(context.Background(), "cotton shirts please")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if f["material"].Equals != "cotton" {
		t.Errorf("unexpected filter %+v", f)
	}
	prompt := fm.lastPrompt[0].Content
	if !strings.Contains(prompt, "cotton, leather") || !strings.Contains(prompt, "shirts, jackets") {
		t.Errorf("catalog vocabularies missing from prompt: %q", prompt)
	}
}

func Test_FilterExtractor_GarbageDegradesToEmptyFilter(t *testing.T) {
	t.Parallel()

	e := NewFilterExtractor(&catalog.StaticCatalog{}, &fakeChatModel{reply: "no attributes found"})
	f, err := e.Extract(context.Background(), "anything nice?")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !f.IsEmpty() {
		t.Errorf("want empty filter, got %+v", f)
	}
}

func productFixture() *rag.MemoryStore {
	s := rag.NewMemoryStore()
	s.Add(rag.Document{
		ID:      "B001",
		Content: "Classic cotton t-shirt",
		Meta:    map[string]any{"title": "Cotton Tee", "material": "cotton", "category": "shirts", "price": 19.9},
	}, []float32{1, 0})
	s.Add(rag.Document{
		ID:      "B003",
		Content: "Blue leather jacket",
		Meta:    map[string]any{"title": "Leather Jacket", "material": "leather", "category": "jackets", "price": 149.0},
	}, []float32{0, 1})
	return s
}

func Test_ProductRAG_FilteredRetrievalGroundsPrompt(t *testing.T) {
	t.Parallel()

	fm := &fakeChatModel{reply: "Try the Cotton Tee."}
	p := NewProductRAG(&fakeEmbedder{vec: []float32{1, 0}}, productFixture(), fm, 10)

	out, err := p.Run(context.Background(), "cotton shirts", rag.Filter{"material": rag.Eq("cotton")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "Try the Cotton Tee." {
		t.Errorf("unexpected answer %q", out)
	}

	prompt := fm.lastPrompt[1].Content
	if !strings.Contains(prompt, "Cotton Tee") {
		t.Errorf("retrieved product missing from prompt: %q", prompt)
	}
	if strings.Contains(prompt, "Leather Jacket") {
		t.Errorf("filtered-out product leaked into prompt: %q", prompt)
	}
}

func Test_ProductRAG_ZeroDocumentsStillGenerates(t *testing.T) {
	t.Parallel()

	fm := &fakeChatModel{reply: "Sorry, nothing matches that."}
	p := NewProductRAG(&fakeEmbedder{vec: []float32{1, 0}}, productFixture(), fm, 10)

	out, err := p.Run(context.Background(), "silk scarves", rag.Filter{"material": rag.Eq("silk")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out == "" {
		t.Error("want a generated answer even with zero documents")
	}
	if !strings.Contains(fm.lastPrompt[1].Content, "Products Found:") {
		t.Errorf("prompt should keep its shape with no documents: %q", fm.lastPrompt[1].Content)
	}
}

func Test_ProductRAG_EmbeddingFailureIsRetrieval(t *testing.T) {
	t.Parallel()

	p := NewProductRAG(&fakeEmbedder{err: errors.New("backend down")}, productFixture(), &fakeChatModel{}, 10)
	_, err := p.Run(context.Background(), "anything", nil)
	if err == nil {
		t.Fatal("want error")
	}
	if !errx.IsRetrieval(err) {
		t.Errorf("want retrieval failure, got %v", err)
	}
}

func Test_CommonInfoRAG_NeverFilters(t *testing.T) {
	t.Parallel()

	s := rag.NewMemoryStore()
	s.Add(rag.Document{
		ID:      "refund-policy",
		Content: "Refunds are accepted within 30 days.",
		Meta:    map[string]any{"topic": "refund"},
	}, []float32{1, 0})

	fm := &fakeChatModel{reply: "You can return items within 30 days."}
	p := NewCommonInfoRAG(&fakeEmbedder{vec: []float32{1, 0}}, s, fm, 5)

	out, err := p.Run(context.Background(), "what is your refund policy?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out == "" {
		t.Error("want an answer")
	}
	prompt := fm.lastPrompt[1].Content
	if !strings.Contains(prompt, "Topic: refund") {
		t.Errorf("retrieved document missing from prompt: %q", prompt)
	}
}
