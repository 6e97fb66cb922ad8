package splitter

import (
	"strings"
	"testing"
)

func TestSplitTextRespectsChunkSize(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 100)
	ts := NewRecursiveCharacterTextSplitter(200, 40)

	chunks, err := ts.SplitText(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 200 {
			t.Errorf("chunk %d exceeds chunk size: %d chars", i, len(c))
		}
	}
}

func TestSplitTextShortInputSingleChunk(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(1000, 200)
	chunks, err := ts.SplitText("A short paragraph that fits in one chunk.")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected a single chunk, got %d", len(chunks))
	}
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	paragraphs := make([]string, 20)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat("word ", 30) + "ending."
	}
	text := strings.Join(paragraphs, "\n\n")

	ts := NewRecursiveCharacterTextSplitter(300, 50)
	chunks, err := ts.SplitText(text)
	if err != nil {
		t.Fatal(err)
	}

	// Every word of the input must appear in some chunk.
	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		if !strings.Contains(joined, word) {
			t.Fatalf("word %q missing from chunk output", word)
		}
	}
}

func TestSplitIntoChunksAttachesProvenance(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(100, 20)
	text := strings.Repeat("Some sentence about vector retrieval. ", 20)

	chunks, err := ts.SplitIntoChunks(text, "https://example.com/post", "Example Post")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for _, c := range chunks {
		if c.Source != "https://example.com/post" || c.Title != "Example Post" {
			t.Errorf("provenance missing on chunk: %+v", c)
		}
	}
}
