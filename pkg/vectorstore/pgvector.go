package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const chunksTable = "research_chunks"

// PGVectorStore is the pgvector-backed Index. All namespaces share one table
// partitioned by a namespace column; similarity is cosine.
type PGVectorStore struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

func NewPGVectorStore(pool *pgxpool.Pool, embedder Embedder) *PGVectorStore {
	return &PGVectorStore{pool: pool, embedder: embedder}
}

func (vs *PGVectorStore) Ingest(ctx context.Context, chunks []Chunk, namespace string) error {
	if len(chunks) == 0 {
		return nil
	}
	if !isValidNamespace(namespace) {
		return fmt.Errorf("invalid namespace %q", namespace)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := vs.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (namespace, content, source, title, embedding)
		VALUES ($1, $2, $3, $4, $5)
	`, chunksTable)

	batch := &pgx.Batch{}
	for i, c := range chunks {
		batch.Queue(query, namespace, c.Text, c.Source, c.Title, pgvector.NewVector(vectors[i]))
	}

	br := vs.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range chunks {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	return nil
}

func (vs *PGVectorStore) Query(ctx context.Context, text string, k int, namespace string) ([]ScoredChunk, error) {
	if !isValidNamespace(namespace) {
		return nil, fmt.Errorf("invalid namespace %q", namespace)
	}
	if k <= 0 {
		k = 5
	}

	vector, err := vs.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT content, source, title, 1 - (embedding <=> $1) as similarity
		FROM %s
		WHERE namespace = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, chunksTable)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(vector), namespace, k)
	if err != nil {
		return nil, fmt.Errorf("failed to execute similarity search: %w", err)
	}
	defer rows.Close()

	results := []ScoredChunk{}
	for rows.Next() {
		var sc ScoredChunk
		if err := rows.Scan(&sc.Chunk.Text, &sc.Chunk.Source, &sc.Chunk.Title, &sc.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}
