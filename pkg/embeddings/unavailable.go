package embeddings

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no embedding backend is available.
var ErrNotConfigured = errors.New("embeddings: no backend configured")

// Unavailable satisfies vectorstore.Embedder when no embedding API key is
// set. Every call fails with ErrNotConfigured; the pipeline degrades to
// building context from raw search snippets instead of retrieval.
type Unavailable struct{}

func (Unavailable) EmbedText(_ context.Context, _ string) ([]float32, error) {
	return nil, ErrNotConfigured
}

func (Unavailable) EmbedTexts(_ context.Context, _ []string) ([][]float32, error) {
	return nil, ErrNotConfigured
}
