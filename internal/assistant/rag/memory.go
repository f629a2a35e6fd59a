package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process DocumentStore using cosine similarity and the
// same filter semantics as the Qdrant store. It backs tests and store-less
// demo runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []memoryEntry
}

type memoryEntry struct {
	doc Document
	vec []float32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add stores one document with its embedding.
func (s *MemoryStore) Add(doc Document, embedding []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, memoryEntry{doc: doc, vec: embedding})
}

func (s *MemoryStore) Search(ctx context.Context, embedding []float32, filter Filter, topK int) ([]Document, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("memory store: empty query embedding")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]Document, 0, len(s.entries))
	for _, e := range s.entries {
		if len(e.vec) != len(embedding) {
			continue
		}
		if !filter.Matches(e.doc.Meta) {
			continue
		}
		doc := e.doc
		doc.Score = cosineSimilarity(embedding, e.vec)
		scored = append(scored, doc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

var _ DocumentStore = (*MemoryStore)(nil)
