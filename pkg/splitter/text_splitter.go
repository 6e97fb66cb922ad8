package splitter

import (
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/mikeboe/research-agent/pkg/vectorstore"
)

// TextSplitter produces overlapping chunks, preferring paragraph, sentence
// and word boundaries over hard character cuts.
type TextSplitter struct {
	splitter textsplitter.TextSplitter
}

func NewRecursiveCharacterTextSplitter(chunkSize, chunkOverlap int) *TextSplitter {
	ts := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
	)
	return &TextSplitter{splitter: ts}
}

// SplitText splits text into plain string chunks.
func (ts *TextSplitter) SplitText(text string) ([]string, error) {
	return ts.splitter.SplitText(text)
}

// SplitIntoChunks splits text and attaches source provenance to each chunk.
func (ts *TextSplitter) SplitIntoChunks(text, source, title string) ([]vectorstore.Chunk, error) {
	parts, err := ts.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}
	chunks := make([]vectorstore.Chunk, 0, len(parts))
	for _, p := range parts {
		chunks = append(chunks, vectorstore.Chunk{Text: p, Source: source, Title: title})
	}
	return chunks, nil
}
