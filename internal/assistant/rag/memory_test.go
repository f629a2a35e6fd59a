package rag

import (
	"context"
	"testing"
)

// fixtureStore seeds the three-product fixture: two cotton shirts and one
// leather jacket, with embeddings ordered so the jacket scores highest on the
// query vector.
func fixtureStore() *MemoryStore {
	s := NewMemoryStore()
	s.Add(Document{
		ID:      "B001",
		Content: "Classic cotton t-shirt",
		Meta:    map[string]any{"title": "Cotton Tee", "material": "cotton", "category": "shirts", "price": 19.9},
	}, []float32{0.1, 0.9, 0.0})
	s.Add(Document{
		ID:      "B002",
		Content: "Soft cotton polo shirt",
		Meta:    map[string]any{"title": "Cotton Polo", "material": "cotton", "category": "shirts", "price": 29.9},
	}, []float32{0.2, 0.8, 0.0})
	s.Add(Document{
		ID:      "B003",
		Content: "Blue leather jacket",
		Meta:    map[string]any{"title": "Leather Jacket", "material": "leather", "category": "jackets", "price": 149.0},
	}, []float32{0.9, 0.1, 0.0})
	return s
}

var queryVec = []float32{1, 0, 0}

func Test_MemoryStore_MaterialEquality(t *testing.T) {
	t.Parallel()
	s := fixtureStore()

	docs, err := s.Search(context.Background(), queryVec, Filter{"material": Eq("cotton")}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("want 2 cotton documents, got %d", len(docs))
	}
	for _, d := range docs {
		if d.MetaString("material") != "cotton" {
			t.Errorf("non-cotton document leaked through filter: %v", d.Meta)
		}
	}
}

func Test_MemoryStore_EmptyFilterMatchesAll(t *testing.T) {
	t.Parallel()
	s := fixtureStore()

	docs, err := s.Search(context.Background(), queryVec, Filter{}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("want all 3 documents, got %d", len(docs))
	}
	// leather jacket is closest to the query vector
	if docs[0].ID != "B003" {
		t.Errorf("want highest-scoring document first, got %s", docs[0].ID)
	}
	for i := 1; i < len(docs); i++ {
		if docs[i].Score > docs[i-1].Score {
			t.Errorf("scores not descending at index %d", i)
		}
	}
}

func Test_MemoryStore_TopKLimit(t *testing.T) {
	t.Parallel()
	s := fixtureStore()

	docs, err := s.Search(context.Background(), queryVec, nil, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("want 2 documents with topK=2, got %d", len(docs))
	}
}

func Test_MemoryStore_MembershipAndRange(t *testing.T) {
	t.Parallel()
	s := fixtureStore()
	ctx := context.Background()

	docs, err := s.Search(ctx, queryVec, Filter{"category": In("shirts", "jackets")}, 10)
	if err != nil {
		t.Fatalf("membership search: %v", err)
	}
	if len(docs) != 3 {
		t.Errorf("membership filter: want 3, got %d", len(docs))
	}

	max := 50.0
	docs, err = s.Search(ctx, queryVec, Filter{"price": Between(nil, &max)}, 10)
	if err != nil {
		t.Fatalf("range search: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("price<=50: want 2, got %d", len(docs))
	}
	for _, d := range docs {
		if d.MetaString("material") != "cotton" {
			t.Errorf("unexpected document in price range: %v", d.Meta)
		}
	}
}

func Test_MemoryStore_MissingFieldFailsConstraint(t *testing.T) {
	t.Parallel()
	s := fixtureStore()

	docs, err := s.Search(context.Background(), queryVec, Filter{"gender": Eq("men")}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("documents without the filtered field must not match, got %d", len(docs))
	}
}

func Test_Filter_ScalarComparisons(t *testing.T) {
	t.Parallel()

	meta := map[string]any{"material": "Cotton", "price": 19.9, "stock": 3}

	if !(Filter{"material": Eq("cotton")}).Matches(meta) {
		t.Error("string equality should be case-insensitive")
	}
	if !(Filter{"price": Eq(19.9)}).Matches(meta) {
		t.Error("numeric equality failed")
	}
	if !(Filter{"stock": Eq(3.0)}).Matches(meta) {
		t.Error("int metadata should compare numerically against float")
	}
	if (Filter{"price": Eq(20)}).Matches(meta) {
		t.Error("unequal numbers must not match")
	}
}
