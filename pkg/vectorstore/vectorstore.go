package vectorstore

import (
	"context"
	"regexp"
)

// Chunk is a bounded text segment with source provenance, the unit stored in
// and retrieved from the index.
type Chunk struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Embedder turns text into vectors. Satisfied by embeddings.GoogleEmbedder.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is a namespace-scoped semantic store. Queries against a namespace
// with no entries return an empty slice, never an error; callers treat the
// empty case as a normal path.
type Index interface {
	Ingest(ctx context.Context, chunks []Chunk, namespace string) error
	Query(ctx context.Context, text string, k int, namespace string) ([]ScoredChunk, error)
}

// Namespaces end up in SQL filters, so only permit identifier-safe names.
var namespaceRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

func isValidNamespace(name string) bool {
	return namespaceRe.MatchString(name)
}
