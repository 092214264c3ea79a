package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"rentalbot/internal/model"
	"rentalbot/internal/utils"
)

// MemoryIndex keeps every embedded entry in process and scans them on query
type MemoryIndex struct {
	embedder Embedder

	mu      sync.RWMutex
	entries []model.RetrievalEntry
	built   bool
}

// NewMemoryIndex creates an empty in-process index
func NewMemoryIndex(embedder Embedder) *MemoryIndex {
	return &MemoryIndex{embedder: embedder}
}

// Build embeds all entries in one pass and replaces the index contents
func (m *MemoryIndex) Build(ctx context.Context, entries []model.RetrievalEntry) error {
	built := make([]model.RetrievalEntry, len(entries))
	copy(built, entries)

	if len(built) > 0 {
		if err := embedAll(ctx, m.embedder, built); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.entries = built
	m.built = true
	m.mu.Unlock()

	utils.Debugf("[DEBUG] Built in-memory index with %d entries", len(built))
	return nil
}

// Query embeds text and returns the k most similar entries.
// Equal scores keep catalog order.
func (m *MemoryIndex) Query(ctx context.Context, text string, k int) ([]model.SearchResult, error) {
	m.mu.RLock()
	entries, built := m.entries, m.built
	m.mu.RUnlock()

	if !built {
		return nil, ErrIndexNotBuilt
	}
	if k <= 0 || len(entries) == 0 {
		return []model.SearchResult{}, nil
	}

	vec, err := embedQuery(ctx, m.embedder, text)
	if err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, len(entries))
	for i, e := range entries {
		results[i] = model.SearchResult{
			Property: e.Property,
			Score:    CosineSimilarity(vec, e.Embedding),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of indexed entries
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Entries returns a copy of the indexed entries
func (m *MemoryIndex) Entries() []model.RetrievalEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.RetrievalEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

type savedIndex struct {
	Entries []model.RetrievalEntry `json:"entries"`
}

// Save writes the embedded entries to path as JSON
func (m *MemoryIndex) Save(path string) error {
	m.mu.RLock()
	if !m.built {
		m.mu.RUnlock()
		return ErrIndexNotBuilt
	}
	data, err := json.Marshal(savedIndex{Entries: m.entries})
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// LoadMemoryIndex restores an index saved with Save without re-embedding the entries
func LoadMemoryIndex(path string, embedder Embedder) (*MemoryIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var saved savedIndex
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	for i, e := range saved.Entries {
		if len(e.Embedding) == 0 {
			return nil, fmt.Errorf("decode index %s: entry %d has no embedding", path, i)
		}
	}

	if saved.Entries == nil {
		saved.Entries = []model.RetrievalEntry{}
	}
	return &MemoryIndex{embedder: embedder, entries: saved.Entries, built: true}, nil
}

// CosineSimilarity computes cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
