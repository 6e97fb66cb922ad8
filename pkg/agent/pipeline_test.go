package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/mikeboe/research-agent/pkg/scraper"
	"github.com/mikeboe/research-agent/pkg/search"
	"github.com/mikeboe/research-agent/pkg/synthesizer"
	"github.com/mikeboe/research-agent/pkg/vectorstore"
)

// --- fakes ---

type fakeSearch struct {
	results []search.Result
	err     error
	calls   int
}

func (f *fakeSearch) Search(_ context.Context, _ string, _ int) ([]search.Result, error) {
	f.calls++
	return f.results, f.err
}

type fakeScraper struct {
	chunks []vectorstore.Chunk
	calls  int
}

func (f *fakeScraper) ScrapeAll(_ context.Context, _ []scraper.Target) []vectorstore.Chunk {
	f.calls++
	return f.chunks
}

type fakeIndex struct {
	ingested  map[string][]vectorstore.Chunk
	queryErr  error
	ingestErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{ingested: make(map[string][]vectorstore.Chunk)}
}

func (f *fakeIndex) Ingest(_ context.Context, chunks []vectorstore.Chunk, namespace string) error {
	if f.ingestErr != nil {
		return f.ingestErr
	}
	f.ingested[namespace] = append(f.ingested[namespace], chunks...)
	return nil
}

func (f *fakeIndex) Query(_ context.Context, _ string, k int, namespace string) ([]vectorstore.ScoredChunk, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	chunks := f.ingested[namespace]
	if len(chunks) > k {
		chunks = chunks[:k]
	}
	out := make([]vectorstore.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, vectorstore.ScoredChunk{Chunk: c, Score: 0.9})
	}
	return out, nil
}

type fakeSynth struct {
	lastContext string
	err         error
	calls       int
}

func (f *fakeSynth) Synthesize(_ context.Context, _, query, contextText string, _ synthesizer.DepthProfile) (string, error) {
	f.calls++
	f.lastContext = contextText
	if f.err != nil {
		return "", f.err
	}
	return "Report about: " + query, nil
}

func testResults() []search.Result {
	return []search.Result{
		{Title: "One", URL: "https://one.example.com", Snippet: "first snippet"},
		{Title: "Two", URL: "https://two.example.com", Snippet: "second snippet"},
		{Title: "Three", URL: "https://three.example.com", Snippet: "third snippet"},
	}
}

func newTestPipeline(s *fakeSearch, sc *fakeScraper, idx *fakeIndex, sy *fakeSynth) *Pipeline {
	return NewPipeline(s, sc, idx, sy, 3, nil)
}

func run(p *Pipeline, depth string) *RunState {
	st := &RunState{
		Query:      "what are the key features of langgraph",
		SessionID:  "test-session",
		Depth:      depth,
		MaxResults: 5,
	}
	p.Run(context.Background(), st)
	return st
}

// --- tests ---

func TestPipelineHappyPath(t *testing.T) {
	searchFake := &fakeSearch{results: testResults()}
	scrapeFake := &fakeScraper{chunks: []vectorstore.Chunk{
		{Text: "langgraph supports stateful graphs", Source: "https://one.example.com"},
		{Text: "conditional edges route between nodes", Source: "https://two.example.com"},
	}}
	idx := newFakeIndex()
	synth := &fakeSynth{}

	st := run(newTestPipeline(searchFake, scrapeFake, idx, synth), "detailed")

	if st.Stage != StageComplete {
		t.Fatalf("expected complete, got %s (err: %v)", st.Stage, st.Err)
	}
	if st.Report == "" {
		t.Error("no report produced")
	}
	if len(idx.ingested["test-session"]) != 2 {
		t.Errorf("chunks not ingested into session namespace: %d", len(idx.ingested["test-session"]))
	}
	if !strings.Contains(synth.lastContext, "langgraph supports stateful graphs") {
		t.Errorf("synthesis context not built from retrieved chunks: %q", synth.lastContext)
	}
}

func TestPipelineSearchFailure(t *testing.T) {
	searchFake := &fakeSearch{err: fmt.Errorf("search API unreachable")}
	scrapeFake := &fakeScraper{}
	synth := &fakeSynth{}

	st := run(newTestPipeline(searchFake, scrapeFake, newFakeIndex(), synth), "brief")

	if st.Stage != StageFailed {
		t.Fatalf("expected failed, got %s", st.Stage)
	}
	if st.Err == nil {
		t.Fatal("expected error on state")
	}
	if scrapeFake.calls != 0 || synth.calls != 0 {
		t.Error("later stages ran after search failure")
	}
}

func TestPipelineSnippetFallback(t *testing.T) {
	// Search finds results but every scrape fails, so zero chunks exist and
	// the index stays empty. The report must still be built from snippets.
	searchFake := &fakeSearch{results: testResults()}
	scrapeFake := &fakeScraper{chunks: nil}
	synth := &fakeSynth{}

	st := run(newTestPipeline(searchFake, scrapeFake, newFakeIndex(), synth), "detailed")

	if st.Stage != StageComplete {
		t.Fatalf("expected complete via fallback, got %s (err: %v)", st.Stage, st.Err)
	}
	if synth.calls != 1 {
		t.Fatal("synthesizer not invoked")
	}
	if !strings.Contains(synth.lastContext, "first snippet") {
		t.Errorf("fallback context not built from search snippets: %q", synth.lastContext)
	}
	if st.Report == "" {
		t.Error("no report produced from fallback context")
	}
}

func TestPipelineInsufficientInformation(t *testing.T) {
	searchFake := &fakeSearch{results: nil}
	scrapeFake := &fakeScraper{}
	synth := &fakeSynth{}

	st := run(newTestPipeline(searchFake, scrapeFake, newFakeIndex(), synth), "brief")

	if st.Stage != StageComplete {
		t.Fatalf("expected complete, got %s (err: %v)", st.Stage, st.Err)
	}
	if synth.calls != 0 {
		t.Error("LLM invoked with empty context")
	}
	if scrapeFake.calls != 0 {
		t.Error("scrape ran with no search results")
	}
	if st.Report == "" || !strings.Contains(st.Report, "could not find enough information") {
		t.Errorf("expected insufficient-information report, got %q", st.Report)
	}
}

func TestPipelineSynthesisFailure(t *testing.T) {
	searchFake := &fakeSearch{results: testResults()}
	scrapeFake := &fakeScraper{}
	synth := &fakeSynth{err: fmt.Errorf("provider down")}

	st := run(newTestPipeline(searchFake, scrapeFake, newFakeIndex(), synth), "detailed")

	if st.Stage != StageFailed {
		t.Fatalf("expected failed, got %s", st.Stage)
	}
	if st.Err == nil || !strings.Contains(st.Err.Error(), "synthesis failed") {
		t.Errorf("unexpected error: %v", st.Err)
	}
}

func TestPipelineIngestFailureDegrades(t *testing.T) {
	searchFake := &fakeSearch{results: testResults()}
	scrapeFake := &fakeScraper{chunks: []vectorstore.Chunk{{Text: "some chunk", Source: "https://one.example.com"}}}
	idx := newFakeIndex()
	idx.ingestErr = fmt.Errorf("database unavailable")
	synth := &fakeSynth{}

	st := run(newTestPipeline(searchFake, scrapeFake, idx, synth), "detailed")

	if st.Stage != StageComplete {
		t.Fatalf("ingest failure must not fail the run, got %s (err: %v)", st.Stage, st.Err)
	}
	if !strings.Contains(synth.lastContext, "first snippet") {
		t.Errorf("expected snippet fallback after failed ingest, got %q", synth.lastContext)
	}
}

func TestPipelineScrapeLimitBoundsTargets(t *testing.T) {
	var captured []scraper.Target
	searchFake := &fakeSearch{results: []search.Result{
		{Title: "A", URL: "https://a.example.com"},
		{Title: "B", URL: "https://b.example.com"},
		{Title: "C", URL: "https://c.example.com"},
		{Title: "D", URL: "https://d.example.com"},
		{Title: "E", URL: "https://e.example.com"},
	}}
	scrapeFn := scrapeRecorder{captured: &captured}
	synth := &fakeSynth{}

	p := NewPipeline(searchFake, scrapeFn, newFakeIndex(), synth, 3, nil)
	run(p, "detailed")

	if len(captured) != 3 {
		t.Errorf("expected scrape of top 3 URLs, got %d", len(captured))
	}
}

type scrapeRecorder struct {
	captured *[]scraper.Target
}

func (r scrapeRecorder) ScrapeAll(_ context.Context, targets []scraper.Target) []vectorstore.Chunk {
	*r.captured = append(*r.captured, targets...)
	return nil
}

func TestNextStageRouting(t *testing.T) {
	tests := []struct {
		name string
		st   RunState
		want string
	}{
		{"Error routes to failed", RunState{Err: fmt.Errorf("x"), CurrentTask: taskScraping}, StageFailed},
		{"Scraping task", RunState{CurrentTask: taskScraping}, StageScraping},
		{"Synthesis task", RunState{CurrentTask: taskSynthesis}, StageSynthesizing},
		{"Empty task completes", RunState{}, StageComplete},
		{"Unknown task completes", RunState{CurrentTask: "reflect"}, StageComplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextStage(&tt.st); got != tt.want {
				t.Errorf("nextStage() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPipelineStageEvents(t *testing.T) {
	searchFake := &fakeSearch{results: testResults()}
	scrapeFake := &fakeScraper{chunks: []vectorstore.Chunk{{Text: "c", Source: "s"}}}
	synth := &fakeSynth{}

	p := newTestPipeline(searchFake, scrapeFake, newFakeIndex(), synth)
	var stages []string
	p.OnStageChange = func(stage string, _ *RunState) {
		stages = append(stages, stage)
	}

	run(p, "brief")

	want := []string{StageSearching, StageScraping, StageSynthesizing, StageComplete}
	if len(stages) != len(want) {
		t.Fatalf("stage sequence %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stage sequence %v, want %v", stages, want)
		}
	}
}

func TestPipelinePanicConvertedToFailure(t *testing.T) {
	searchFake := &fakeSearch{results: testResults()}
	synth := &fakeSynth{}

	p := NewPipeline(searchFake, panickyScraper{}, newFakeIndex(), synth, 3, nil)
	st := run(p, "detailed")

	if st.Stage != StageFailed {
		t.Fatalf("panic must end in failed stage, got %s", st.Stage)
	}
	if st.Err == nil || !strings.Contains(st.Err.Error(), "panicked") {
		t.Errorf("unexpected error: %v", st.Err)
	}
}

type panickyScraper struct{}

func (panickyScraper) ScrapeAll(_ context.Context, _ []scraper.Target) []vectorstore.Chunk {
	panic("coordinator crashed")
}
