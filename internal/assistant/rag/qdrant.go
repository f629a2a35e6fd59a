package rag

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/qdrant/go-client/qdrant"

	errx "github.com/depato-store/shopper-assistant/internal/core/error"
	logx "github.com/depato-store/shopper-assistant/pkg/logger"
)

// QdrantConfig holds connection parameters for the Qdrant document stores.
// One QdrantStore is opened per collection (products, common_info).
type QdrantConfig struct {
	Host                 string `envconfig:"QDRANT_HOST" default:"localhost"`
	Port                 int    `envconfig:"QDRANT_PORT" default:"6334"`
	APIKey               string `envconfig:"QDRANT_API_KEY"`
	UseTLS               bool   `envconfig:"QDRANT_USE_TLS" default:"false"`
	ProductCollection    string `envconfig:"QDRANT_PRODUCT_COLLECTION" default:"products"`
	CommonInfoCollection string `envconfig:"QDRANT_COMMON_INFO_COLLECTION" default:"common_info"`
	VectorSize           uint64 `envconfig:"QDRANT_VECTOR_SIZE" default:"768"`
}

// QdrantStore implements DocumentStore backed by one Qdrant collection.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	vectorSize uint64
}

// NewQdrantClient opens the shared gRPC client for the configured instance.
func NewQdrantClient(cfg *QdrantConfig) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}
	return client, nil
}

// NewQdrantStore binds a store to one collection, creating the collection
// with cosine distance when it does not exist yet.
func NewQdrantStore(ctx context.Context, client *qdrant.Client, collection string, vectorSize uint64) (*QdrantStore, error) {
	s := &QdrantStore{client: client, collection: collection, vectorSize: vectorSize}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.collection, err)
	}
	logx.Info().Str("collection", s.collection).Uint64("vector_size", s.vectorSize).Msg("created qdrant collection")
	return nil
}

// Upsert stores documents with their pre-computed embeddings. The embeddings
// slice must be parallel to docs.
func (s *QdrantStore) Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("qdrant: %d documents but %d embeddings", len(docs), len(embeddings))
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for i, doc := range docs {
		payload := map[string]any{"content": doc.Content}
		for k, v := range doc.Meta {
			payload[k] = v
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(pointID(doc.ID)),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return errx.WrapRetrieval(fmt.Errorf("qdrant: upsert into %q: %w", s.collection, err))
	}
	return nil
}

// Search runs a cosine similarity query constrained by the metadata filter
// and returns the top-k documents in descending score order.
func (s *QdrantStore) Search(ctx context.Context, embedding []float32, filter Filter, topK int) ([]Document, error) {
	limit := uint64(topK)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         buildQdrantFilter(filter),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, errx.WrapRetrieval(fmt.Errorf("qdrant: query %q: %w", s.collection, err))
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		doc := Document{
			ID:    fmt.Sprintf("%d", r.Id.GetNum()),
			Score: r.Score,
			Meta:  make(map[string]any),
		}
		for k, v := range r.Payload {
			if k == "content" {
				doc.Content = v.GetStringValue()
				continue
			}
			doc.Meta[k] = payloadValue(v)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// buildQdrantFilter translates a Filter into qdrant payload conditions.
// Returns nil for the empty filter so the query matches the full collection.
func buildQdrantFilter(f Filter) *qdrant.Filter {
	if f.IsEmpty() {
		return nil
	}

	must := make([]*qdrant.Condition, 0, len(f))
	for field, c := range f {
		if c.Equals != nil {
			if n, ok := toFloat(c.Equals); ok {
				if _, isStr := c.Equals.(string); !isStr {
					must = append(must, qdrant.NewRange(field, &qdrant.Range{Gte: &n, Lte: &n}))
				} else {
					must = append(must, qdrant.NewMatch(field, renderScalar(c.Equals)))
				}
			} else {
				must = append(must, qdrant.NewMatch(field, renderScalar(c.Equals)))
			}
		}
		if len(c.AnyOf) > 0 {
			must = append(must, qdrant.NewMatchKeywords(field, c.AnyOf...))
		}
		if c.Min != nil || c.Max != nil {
			must = append(must, qdrant.NewRange(field, &qdrant.Range{Gte: c.Min, Lte: c.Max}))
		}
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// payloadValue converts a qdrant payload value into a plain Go scalar.
func payloadValue(v *qdrant.Value) any {
	switch v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return v.GetStringValue()
	case *qdrant.Value_DoubleValue:
		return v.GetDoubleValue()
	case *qdrant.Value_IntegerValue:
		return v.GetIntegerValue()
	case *qdrant.Value_BoolValue:
		return v.GetBoolValue()
	default:
		return v.GetStringValue()
	}
}

// pointID derives a stable numeric point id from an external document id
// (e.g. a product ASIN). Qdrant only accepts numeric or UUID ids.
func pointID(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

var _ DocumentStore = (*QdrantStore)(nil)
