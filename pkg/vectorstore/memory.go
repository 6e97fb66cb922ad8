package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

type memoryEntry struct {
	chunk  Chunk
	vector []float32
}

// MemoryStore is a brute-force cosine-similarity Index keeping everything in
// process memory, keyed by namespace. It backs the server when no database is
// configured and substitutes for pgvector in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	embedder Embedder
	entries  map[string][]memoryEntry
}

func NewMemoryStore(embedder Embedder) *MemoryStore {
	return &MemoryStore{
		embedder: embedder,
		entries:  make(map[string][]memoryEntry),
	}
}

func (ms *MemoryStore) Ingest(ctx context.Context, chunks []Chunk, namespace string) error {
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

	vectors, err := ms.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	for i, c := range chunks {
		ms.entries[namespace] = append(ms.entries[namespace], memoryEntry{chunk: c, vector: vectors[i]})
	}
	return nil
}

func (ms *MemoryStore) Query(ctx context.Context, text string, k int, namespace string) ([]ScoredChunk, error) {
	if !isValidNamespace(namespace) {
		return nil, fmt.Errorf("invalid namespace %q", namespace)
	}
	if k <= 0 {
		k = 5
	}

	vector, err := ms.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	ms.mu.RLock()
	entries := ms.entries[namespace]
	results := make([]ScoredChunk, 0, len(entries))
	for _, e := range entries {
		results = append(results, ScoredChunk{Chunk: e.chunk, Score: cosine(vector, e.vector)})
	}
	ms.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
