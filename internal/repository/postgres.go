package repository

import (
	"context"
	"fmt"
	"time"

	"rentalbot/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresRepository stores property embeddings in a pgvector table
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Migrate creates the vector extension and the embeddings table
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS property_embeddings (
			property_id BIGINT PRIMARY KEY,
			position    INTEGER NOT NULL,
			content     TEXT NOT NULL,
			metadata    JSONB NOT NULL,
			embedding   vector NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

// ReplaceEmbeddings swaps the table contents for entries in one transaction.
// Position records catalog order for tie-breaking.
func (r *PostgresRepository) ReplaceEmbeddings(ctx context.Context, entries []model.RetrievalEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE property_embeddings`); err != nil {
		return fmt.Errorf("failed to truncate embeddings: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO property_embeddings (property_id, position, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		vec := pgvector.NewVector(e.Embedding)
		if _, err := stmt.ExecContext(ctx, e.Property.ID, i, e.Text, e.Property, vec); err != nil {
			return fmt.Errorf("property_id %d: %w", e.Property.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type neighborRow struct {
	Property model.Property `db:"metadata"`
	Distance float64        `db:"distance"`
}

// NearestNeighbors returns the k closest properties by cosine distance.
// Score is 1 - distance so higher is better.
func (r *PostgresRepository) NearestNeighbors(ctx context.Context, embedding []float32, k int) ([]model.SearchResult, error) {
	query := `
		SELECT metadata, embedding <=> $1 AS distance
		FROM property_embeddings
		ORDER BY distance ASC, position ASC
		LIMIT $2
	`
	var rows []neighborRow
	if err := r.db.SelectContext(ctx, &rows, query, pgvector.NewVector(embedding), k); err != nil {
		return nil, fmt.Errorf("failed to query neighbors: %w", err)
	}

	results := make([]model.SearchResult, len(rows))
	for i, row := range rows {
		results[i] = model.SearchResult{Property: row.Property, Score: 1 - row.Distance}
	}
	return results, nil
}

// CountEmbeddings returns the number of stored embeddings
func (r *PostgresRepository) CountEmbeddings(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM property_embeddings`); err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return total, nil
}
