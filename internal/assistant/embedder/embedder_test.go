package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func Test_OllamaEmbedder_Embed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("unexpected model %s", req.Model)
		}
		out := ollamaEmbedResponse{Embeddings: make([][]float32, len(req.Input))}
		for i := range req.Input {
			out.Embeddings[i] = []float32{float32(i), 1, 0}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	vecs, err := e.Embed(context.Background(), []string{"cotton shirt", "leather jacket"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("want 2 embeddings, got %d", len(vecs))
	}
	if vecs[1][0] != 1 {
		t.Errorf("embeddings not parallel to input")
	}
}

func Test_OllamaEmbedder_ErrorBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Error: "model not found"})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "missing-model")
	if _, err := e.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatal("want error on non-2xx response")
	}
}

func Test_OpenAIEmbedder_Embed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req openaiEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		// return out of order to exercise index placement
		resp := map[string]any{"data": []map[string]any{
			{"embedding": []float32{0, 1}, "index": 1},
			{"embedding": []float32{1, 0}, "index": 0},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "test-key", "text-embedding-3-small", 0)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("embeddings not reordered by index: %v", vecs)
	}
}

func Test_New_ProviderSelection(t *testing.T) {
	t.Parallel()

	if _, err := New(&Config{Provider: "ollama", OllamaHost: "http://localhost:11434"}); err != nil {
		t.Errorf("ollama provider: %v", err)
	}
	if _, err := New(&Config{Provider: "openai"}); err == nil {
		t.Error("openai without key should fail")
	}
	if _, err := New(&Config{Provider: "cohere"}); err == nil {
		t.Error("unknown provider should fail")
	}
}
