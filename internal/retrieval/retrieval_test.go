package retrieval

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"rentalbot/internal/model"
)

// keywordEmbedder maps text onto a small bag-of-keywords vector
type keywordEmbedder struct {
	keywords []string
	calls    int
	texts    int
	err      error
}

func newKeywordEmbedder() *keywordEmbedder {
	return &keywordEmbedder{keywords: []string{"pool", "cabin", "loft", "beach"}}
}

func (e *keywordEmbedder) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.texts += len(texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(e.keywords)+1)
		lower := strings.ToLower(text)
		for j, kw := range e.keywords {
			vec[j] = float32(strings.Count(lower, kw))
		}
		vec[len(e.keywords)] = 0.1
		out[i] = vec
	}
	return out, nil
}

func intPtr(v int) *int { return &v }

func sampleProperties() []model.Property {
	return []model.Property{
		{ID: 1, Name: "Seaside Villa", Location: "Malibu", Price: 200, Status: model.StatusAvailable,
			Amenities: []string{"Pool", "Beach access"}, AvailableMonths: []string{"June", "July"}},
		{ID: 2, Name: "City Loft", Location: "New York", Price: 150, Status: model.StatusAvailable,
			Amenities: []string{"WiFi"}, AvailableMonths: []string{"January"}},
		{ID: 3, Name: "Mountain Cabin", Location: "Aspen", Price: 120, Status: model.StatusAvailable,
			Amenities: []string{"Fireplace"}, AvailableMonths: []string{"December"}, MaxGuests: intPtr(4)},
		{ID: 4, Name: "Lake Cabin", Location: "Tahoe", Price: 130, Status: model.StatusUnavailable,
			Amenities: []string{"Fireplace"}, AvailableMonths: []string{"December"}},
	}
}

func TestDescribeProperty(t *testing.T) {
	p := sampleProperties()[0]
	got := DescribeProperty(p)

	want := "Property: Seaside Villa\n" +
		"Location: Malibu\n" +
		"Price: $200 per night\n" +
		"Status: available\n" +
		"Amenities: Pool, Beach access\n" +
		"Available months: June, July"
	if got != want {
		t.Errorf("DescribeProperty() =\n%s\nwant\n%s", got, want)
	}

	cabin := DescribeProperty(sampleProperties()[2])
	if !strings.Contains(cabin, "Max guests: 4") {
		t.Errorf("extended attributes should be rendered: %s", cabin)
	}
}

func TestMemoryIndex_QueryOrdering(t *testing.T) {
	ctx := context.Background()
	embedder := newKeywordEmbedder()
	idx := NewMemoryIndex(embedder)

	if err := idx.Build(ctx, EntriesFromProperties(sampleProperties())); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if embedder.calls != 1 || embedder.texts != 4 {
		t.Errorf("expected one batched embed call for 4 texts, got %d calls / %d texts", embedder.calls, embedder.texts)
	}

	results, err := idx.Query(ctx, "a cozy cabin", 3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Both cabins score equally and keep catalog order
	if results[0].Property.ID != 3 || results[1].Property.ID != 4 {
		t.Errorf("unexpected order: %d, %d", results[0].Property.ID, results[1].Property.ID)
	}
	if math.Abs(results[0].Score-results[1].Score) > 1e-12 {
		t.Errorf("tied entries should score equally: %v vs %v", results[0].Score, results[1].Score)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores must be non-increasing: %v", results)
		}
	}
}

func TestMemoryIndex_ResultLength(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(newKeywordEmbedder())
	if err := idx.Build(ctx, EntriesFromProperties(sampleProperties())); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, tt := range []struct{ k, want int }{{1, 1}, {4, 4}, {10, 4}, {0, 0}} {
		results, err := idx.Query(ctx, "pool", tt.k)
		if err != nil {
			t.Fatalf("Query(k=%d) error = %v", tt.k, err)
		}
		if len(results) != tt.want {
			t.Errorf("Query(k=%d) returned %d results, want %d", tt.k, len(results), tt.want)
		}
	}
}

func TestMemoryIndex_NotBuilt(t *testing.T) {
	idx := NewMemoryIndex(newKeywordEmbedder())
	if _, err := idx.Query(context.Background(), "pool", 4); !errors.Is(err, ErrIndexNotBuilt) {
		t.Errorf("expected ErrIndexNotBuilt, got %v", err)
	}
}

func TestMemoryIndex_EmptyCatalog(t *testing.T) {
	ctx := context.Background()
	embedder := newKeywordEmbedder()
	idx := NewMemoryIndex(embedder)
	if err := idx.Build(ctx, nil); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	results, err := idx.Query(ctx, "anything", 4)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if embedder.calls != 0 {
		t.Error("empty index should not call the embedder")
	}
}

func TestMemoryIndex_EmbedError(t *testing.T) {
	embedder := newKeywordEmbedder()
	embedder.err = errors.New("quota exceeded")

	idx := NewMemoryIndex(embedder)
	err := idx.Build(context.Background(), EntriesFromProperties(sampleProperties()))
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected embed error, got %v", err)
	}
	if _, err := idx.Query(context.Background(), "pool", 1); !errors.Is(err, ErrIndexNotBuilt) {
		t.Error("failed build must leave the index unbuilt")
	}
}

func TestMemoryIndex_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "models", "vector_store.json")

	idx := NewMemoryIndex(newKeywordEmbedder())
	if err := idx.Save(path); !errors.Is(err, ErrIndexNotBuilt) {
		t.Errorf("saving an unbuilt index should fail, got %v", err)
	}
	if err := idx.Build(ctx, EntriesFromProperties(sampleProperties())); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	embedder := newKeywordEmbedder()
	loaded, err := LoadMemoryIndex(path, embedder)
	if err != nil {
		t.Fatalf("LoadMemoryIndex() error = %v", err)
	}
	if loaded.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", loaded.Len())
	}

	results, err := loaded.Query(ctx, "villa with a pool by the beach", 1)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if results[0].Property.Name != "Seaside Villa" {
		t.Errorf("top result = %q, want Seaside Villa", results[0].Property.Name)
	}
	if embedder.texts != 1 {
		t.Errorf("loading should not re-embed entries, embedded %d texts", embedder.texts)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2}, []float32{1, 2}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1}, []float32{1, 2}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

type fakeVectorStore struct {
	entries []model.RetrievalEntry
}

func (f *fakeVectorStore) ReplaceEmbeddings(ctx context.Context, entries []model.RetrievalEntry) error {
	f.entries = entries
	return nil
}

func (f *fakeVectorStore) NearestNeighbors(ctx context.Context, embedding []float32, k int) ([]model.SearchResult, error) {
	idx := &MemoryIndex{entries: f.entries, built: true, embedder: staticEmbedder(embedding)}
	return idx.Query(ctx, "", k)
}

func (f *fakeVectorStore) CountEmbeddings(ctx context.Context) (int, error) {
	return len(f.entries), nil
}

type staticEmbedder []float32

func (s staticEmbedder) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	return [][]float32{s}, nil
}

func TestPgvectorIndex(t *testing.T) {
	ctx := context.Background()
	store := &fakeVectorStore{}
	idx := NewPgvectorIndex(newKeywordEmbedder(), store)

	if _, err := idx.Query(ctx, "pool", 2); !errors.Is(err, ErrIndexNotBuilt) {
		t.Errorf("expected ErrIndexNotBuilt, got %v", err)
	}
	if err := idx.Attach(ctx); !errors.Is(err, ErrIndexNotBuilt) {
		t.Errorf("attaching to an empty table should fail, got %v", err)
	}

	if err := idx.Build(ctx, EntriesFromProperties(sampleProperties())); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(store.entries) != 4 || len(store.entries[0].Embedding) == 0 {
		t.Fatal("entries should be embedded before being stored")
	}

	results, err := idx.Query(ctx, "loft", 2)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 2 || results[0].Property.ID != 2 {
		t.Errorf("unexpected results: %+v", results)
	}

	reattached := NewPgvectorIndex(newKeywordEmbedder(), store)
	if err := reattached.Attach(ctx); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if reattached.Len() != 4 {
		t.Errorf("Len() = %d, want 4", reattached.Len())
	}
}
