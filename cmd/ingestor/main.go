// Command ingestor loads the product and common-info datasets from CSV,
// embeds them in batches and writes them to the Qdrant collections. Material
// and category vocabularies are collected into Redis side tables for the
// filter extraction prompt.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/qdrant/go-client/qdrant"

	"github.com/depato-store/shopper-assistant/internal/assistant/catalog"
	"github.com/depato-store/shopper-assistant/internal/assistant/embedder"
	"github.com/depato-store/shopper-assistant/internal/assistant/rag"
	"github.com/depato-store/shopper-assistant/internal/core"
	logx "github.com/depato-store/shopper-assistant/pkg/logger"
	pkgredis "github.com/depato-store/shopper-assistant/pkg/redis"
)

const embedBatchSize = 32

// IngestorConfig sources the infrastructure settings from the environment.
type IngestorConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	Redis     pkgredis.Config
	Qdrant    rag.QdrantConfig
	Embedding embedder.Config
}

func main() {
	productsPath := flag.String("products", "data/products.csv", "product dataset CSV")
	commonInfoPath := flag.String("common-info", "data/common_info.csv", "common info dataset CSV")
	flag.Parse()

	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg IngestorConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	rdb, err := cfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	qdrantClient, err := rag.NewQdrantClient(&cfg.Qdrant)
	if err != nil {
		log.Fatalf("Failed to initialise Qdrant client: %v", err)
	}

	emb, err := embedder.New(&cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to initialise embedder: %v", err)
	}

	if err := ingestProducts(ctx, cfg, qdrantClient, emb, catalog.NewRedisCatalog(rdb), *productsPath); err != nil {
		log.Fatalf("Product ingestion failed: %v", err)
	}
	if err := ingestCommonInfo(ctx, cfg, qdrantClient, emb, *commonInfoPath); err != nil {
		log.Fatalf("Common info ingestion failed: %v", err)
	}

	logx.Info().Msg("ingestion complete")
}

// ingestProducts reads the product CSV (asin, title, brand, price, gender,
// material, category, description), embeds title plus description and
// upserts into the product collection. Material and category vocabularies go
// to the Redis catalog.
func ingestProducts(ctx context.Context, cfg IngestorConfig, client *qdrant.Client, emb rag.Embedder, cat *catalog.RedisCatalog, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		return err
	}

	store, err := rag.NewQdrantStore(ctx, client, cfg.Qdrant.ProductCollection, cfg.Qdrant.VectorSize)
	if err != nil {
		return err
	}

	materials := map[string]bool{}
	categories := map[string]bool{}

	docs := make([]rag.Document, 0, len(rows))
	for _, row := range rows {
		price, _ := strconv.ParseFloat(strings.TrimSpace(row["price"]), 64)
		docs = append(docs, rag.Document{
			ID:      row["asin"],
			Content: row["title"] + "\n " + row["description"],
			Meta: map[string]any{
				"asin":     row["asin"],
				"title":    row["title"],
				"brand":    row["brand"],
				"price":    price,
				"gender":   row["gender"],
				"material": row["material"],
				"category": row["category"],
			},
		})
		if m := strings.TrimSpace(row["material"]); m != "" {
			materials[m] = true
		}
		if c := strings.TrimSpace(row["category"]); c != "" {
			categories[c] = true
		}
	}

	if err := embedAndUpsert(ctx, store, emb, docs); err != nil {
		return err
	}

	if err := cat.Add(ctx, keys(materials), keys(categories)); err != nil {
		return err
	}

	logx.Info().
		Int("products", len(docs)).
		Int("materials", len(materials)).
		Int("categories", len(categories)).
		Msg("product dataset ingested")
	return nil
}

// ingestCommonInfo reads the common info CSV (topic, content) and upserts
// into the common info collection.
func ingestCommonInfo(ctx context.Context, cfg IngestorConfig, client *qdrant.Client, emb rag.Embedder, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		return err
	}

	store, err := rag.NewQdrantStore(ctx, client, cfg.Qdrant.CommonInfoCollection, cfg.Qdrant.VectorSize)
	if err != nil {
		return err
	}

	docs := make([]rag.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, rag.Document{
			ID:      row["topic"],
			Content: row["content"],
			Meta:    map[string]any{"topic": row["topic"]},
		})
	}

	if err := embedAndUpsert(ctx, store, emb, docs); err != nil {
		return err
	}

	logx.Info().Int("documents", len(docs)).Msg("common info dataset ingested")
	return nil
}

// embedAndUpsert processes documents in batches so one oversized request
// cannot take down the embedding backend.
func embedAndUpsert(ctx context.Context, store *rag.QdrantStore, emb rag.Embedder, docs []rag.Document) error {
	for start := 0; start < len(docs); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Content
		}

		embeddings, err := emb.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if err := store.Upsert(ctx, batch, embeddings); err != nil {
			return fmt.Errorf("upsert batch at %d: %w", start, err)
		}
	}
	return nil
}

// readCSV loads a header-keyed CSV into row maps.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
