// Package rag defines the retrieval building blocks shared by the product and
// common-info pipelines: documents, metadata filters, the embedding contract
// and the document store contract. Concrete stores (Qdrant, in-memory)
// satisfy these interfaces so pipeline code never depends on a backend.
package rag

import (
	"context"
)

// Document is one retrievable unit. Product documents carry asin, title,
// brand, price, gender, material and category metadata; common-info documents
// carry a topic. Score is attached at retrieval time only.
type Document struct {
	ID      string
	Content string
	Meta    map[string]any
	Score   float32
}

// MetaString returns the named metadata value rendered as a string, or ""
// when absent.
func (d Document) MetaString(field string) string {
	v, ok := d.Meta[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return renderScalar(v)
}

// Embedder converts text into dense vector embeddings. The returned slice is
// parallel to the input slice. Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentStore performs hybrid search: vector similarity constrained by a
// metadata filter. Results are ordered by descending score. A nil or empty
// filter matches the whole collection.
type DocumentStore interface {
	Search(ctx context.Context, embedding []float32, filter Filter, topK int) ([]Document, error)
}
