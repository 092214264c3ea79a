package retrieval

import (
	"context"
	"sync"

	"rentalbot/internal/model"
	"rentalbot/internal/utils"
)

// VectorStore is the persistence surface PgvectorIndex needs
type VectorStore interface {
	ReplaceEmbeddings(ctx context.Context, entries []model.RetrievalEntry) error
	NearestNeighbors(ctx context.Context, embedding []float32, k int) ([]model.SearchResult, error)
	CountEmbeddings(ctx context.Context) (int, error)
}

// PgvectorIndex keeps embeddings in Postgres and lets the database rank them
type PgvectorIndex struct {
	embedder Embedder
	store    VectorStore

	mu    sync.RWMutex
	size  int
	built bool
}

// NewPgvectorIndex creates an index backed by store
func NewPgvectorIndex(embedder Embedder, store VectorStore) *PgvectorIndex {
	return &PgvectorIndex{embedder: embedder, store: store}
}

// Build embeds all entries and replaces the stored table
func (p *PgvectorIndex) Build(ctx context.Context, entries []model.RetrievalEntry) error {
	built := make([]model.RetrievalEntry, len(entries))
	copy(built, entries)

	if len(built) > 0 {
		if err := embedAll(ctx, p.embedder, built); err != nil {
			return err
		}
	}
	if err := p.store.ReplaceEmbeddings(ctx, built); err != nil {
		return err
	}

	p.mu.Lock()
	p.size = len(built)
	p.built = true
	p.mu.Unlock()

	utils.Debugf("[DEBUG] Stored %d embeddings in pgvector", len(built))
	return nil
}

// Attach reuses embeddings already present in the store
func (p *PgvectorIndex) Attach(ctx context.Context) error {
	n, err := p.store.CountEmbeddings(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrIndexNotBuilt
	}

	p.mu.Lock()
	p.size = n
	p.built = true
	p.mu.Unlock()
	return nil
}

// Query embeds text and asks the store for the k nearest entries
func (p *PgvectorIndex) Query(ctx context.Context, text string, k int) ([]model.SearchResult, error) {
	p.mu.RLock()
	built, size := p.built, p.size
	p.mu.RUnlock()

	if !built {
		return nil, ErrIndexNotBuilt
	}
	if k <= 0 || size == 0 {
		return []model.SearchResult{}, nil
	}

	vec, err := embedQuery(ctx, p.embedder, text)
	if err != nil {
		return nil, err
	}
	return p.store.NearestNeighbors(ctx, vec, k)
}

// Len returns the number of stored embeddings
func (p *PgvectorIndex) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.size
}
