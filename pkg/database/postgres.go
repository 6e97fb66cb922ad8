package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDB wraps the database connection pool
type PostgresDB struct {
	Pool *pgxpool.Pool
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(ctx context.Context, databaseURL string) (*PostgresDB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Configure connection pool
	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *PostgresDB) Close() {
	db.Pool.Close()
}

// EnsureVectorExtension ensures the pgvector extension is installed
func (db *PostgresDB) EnsureVectorExtension(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	return err
}

// InitSchema creates the chunk table used for retrieval. Chunks are scoped by
// namespace (the research session ID), so one table serves every session.
func (db *PostgresDB) InitSchema(ctx context.Context, dimension int) error {
	chunksQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS research_chunks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			namespace TEXT NOT NULL,
			content TEXT NOT NULL,
			source TEXT,
			title TEXT,
			embedding vector(%d),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, dimension)
	if _, err := db.Pool.Exec(ctx, chunksQuery); err != nil {
		return fmt.Errorf("failed to create research_chunks table: %w", err)
	}

	if _, err := db.Pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_research_chunks_namespace ON research_chunks(namespace)"); err != nil {
		return fmt.Errorf("failed to create namespace index: %w", err)
	}

	// HNSW supports up to 2000 dimensions. Beyond that we fall back to
	// exact search (slower but works).
	if dimension <= 2000 {
		indexQuery := `
			CREATE INDEX IF NOT EXISTS research_chunks_embedding_idx
			ON research_chunks USING hnsw (embedding vector_cosine_ops)
		`
		if _, err := db.Pool.Exec(ctx, indexQuery); err != nil {
			return fmt.Errorf("failed to create embedding index: %w", err)
		}
	}

	return nil
}
