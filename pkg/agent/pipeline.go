package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mikeboe/research-agent/pkg/scraper"
	"github.com/mikeboe/research-agent/pkg/search"
	"github.com/mikeboe/research-agent/pkg/synthesizer"
	"github.com/mikeboe/research-agent/pkg/vectorstore"
)

// insufficientInfoReport is returned when neither retrieval nor raw search
// snippets produced any context. The LLM is never invoked with empty context.
const insufficientInfoReport = "I could not find enough information to answer this question. " +
	"The web search returned no usable results. Please try rephrasing your query."

// maxHops bounds router transitions so a routing bug can never loop forever.
const maxHops = 8

// Scraper is the concurrent scrape coordinator as the pipeline sees it.
type Scraper interface {
	ScrapeAll(ctx context.Context, targets []scraper.Target) []vectorstore.Chunk
}

// Synthesizer produces the final report text from query and context.
type Synthesizer interface {
	Synthesize(ctx context.Context, provider, query, contextText string, profile synthesizer.DepthProfile) (string, error)
}

// Pipeline drives one research request through search, scrape and synthesis
// with an explicit state machine. All collaborators are injected; the
// pipeline holds no per-request state of its own and is safe for concurrent
// Run calls, each with its own RunState.
type Pipeline struct {
	Search      search.Provider
	Scraper     Scraper
	Index       vectorstore.Index
	Synthesizer Synthesizer

	// ScrapeLimit bounds how many top search results get scraped,
	// independent of how many results the search stage requested.
	ScrapeLimit int

	Logger *slog.Logger

	// OnStageChange, when set, is invoked after every stage transition.
	// The websocket handler uses it to stream progress events.
	OnStageChange func(stage string, st *RunState)
}

func NewPipeline(searchProvider search.Provider, scr Scraper, index vectorstore.Index, synth Synthesizer, scrapeLimit int, logger *slog.Logger) *Pipeline {
	if scrapeLimit <= 0 {
		scrapeLimit = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Search:      searchProvider,
		Scraper:     scr,
		Index:       index,
		Synthesizer: synth,
		ScrapeLimit: scrapeLimit,
		Logger:      logger,
	}
}

// Run executes the full pipeline on st. Errors never escape: any failure ends
// in StageFailed with st.Err set, and the caller decides how to surface it.
func (p *Pipeline) Run(ctx context.Context, st *RunState) {
	p.enter(StageSearching, st)
	p.runStage(ctx, st, "search", p.searchStage)

	for hops := 0; hops < maxHops; hops++ {
		next := nextStage(st)
		p.enter(next, st)

		switch next {
		case StageScraping:
			p.runStage(ctx, st, "scrape", p.scrapeStage)
		case StageSynthesizing:
			p.runStage(ctx, st, "synthesis", p.synthesisStage)
		case StageComplete, StageFailed:
			return
		}
	}

	// Unreachable unless the router misbehaves.
	st.Err = fmt.Errorf("pipeline exceeded %d stage transitions", maxHops)
	p.enter(StageFailed, st)
}

// nextStage is the pure routing decision: error wins, then the explicit
// CurrentTask the previous stage set, then completion.
func nextStage(st *RunState) string {
	if st.Err != nil {
		return StageFailed
	}
	switch st.CurrentTask {
	case taskScraping:
		return StageScraping
	case taskSynthesis:
		return StageSynthesizing
	default:
		return StageComplete
	}
}

func (p *Pipeline) enter(stage string, st *RunState) {
	st.Stage = stage
	if p.OnStageChange != nil {
		p.OnStageChange(stage, st)
	}
}

// runStage executes one stage function, converting panics into st.Err so no
// exception ever escapes the pipeline.
func (p *Pipeline) runStage(ctx context.Context, st *RunState, name string, fn func(ctx context.Context, st *RunState)) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("Stage panicked", "stage", name, "panic", r)
			st.Err = fmt.Errorf("%s stage panicked: %v", name, r)
		}
	}()
	fn(ctx, st)
}

func (p *Pipeline) searchStage(ctx context.Context, st *RunState) {
	p.Logger.Info("Executing search stage", "query", st.Query, "max_results", st.MaxResults)

	results, err := p.Search.Search(ctx, st.Query, st.MaxResults)
	if err != nil {
		st.Err = fmt.Errorf("search failed: %w", err)
		return
	}

	st.SearchResults = results
	if len(results) == 0 {
		// Nothing to scrape; synthesis will emit the insufficient-info report.
		p.Logger.Warn("Search returned no results", "query", st.Query)
		st.CurrentTask = taskSynthesis
		return
	}
	st.CurrentTask = taskScraping
}

func (p *Pipeline) scrapeStage(ctx context.Context, st *RunState) {
	targets := make([]scraper.Target, 0, p.ScrapeLimit)
	for _, r := range st.SearchResults {
		if r.URL == "" {
			continue
		}
		targets = append(targets, scraper.Target{URL: r.URL, Title: r.Title})
		if len(targets) >= p.ScrapeLimit {
			break
		}
	}

	if len(targets) == 0 {
		// Search succeeded but produced nothing scrapeable. Not an error.
		p.Logger.Info("No scrapeable URLs, skipping to synthesis")
		st.Chunks = nil
		st.CurrentTask = taskSynthesis
		return
	}

	p.Logger.Info("Executing scrape stage", "urls", len(targets))
	st.Chunks = p.Scraper.ScrapeAll(ctx, targets)

	if len(st.Chunks) > 0 {
		if err := p.Index.Ingest(ctx, st.Chunks, st.SessionID); err != nil {
			// Synthesis can still fall back to raw snippets, so ingestion
			// failure degrades rather than failing the run.
			p.Logger.Error("Failed to ingest chunks", "namespace", st.SessionID, "error", err)
		}
	}

	st.CurrentTask = taskSynthesis
}

func (p *Pipeline) synthesisStage(ctx context.Context, st *RunState) {
	profile, known := synthesizer.ResolveDepth(st.Depth)
	if !known && st.Depth != "" {
		p.Logger.Warn("Unknown depth, using detailed profile", "depth", st.Depth)
	}

	p.Logger.Info("Executing synthesis stage", "provider", st.Provider, "depth", string(profile.Depth))

	contextText := p.retrieveContext(ctx, st, profile)
	if contextText == "" {
		contextText = p.snippetContext(st, profile)
	}
	if contextText == "" {
		st.Report = insufficientInfoReport
		st.CurrentTask = ""
		return
	}

	report, err := p.Synthesizer.Synthesize(ctx, st.Provider, st.Query, contextText, profile)
	if err != nil {
		st.Err = fmt.Errorf("synthesis failed: %w", err)
		return
	}

	st.Report = report
	st.CurrentTask = ""
}

// retrieveContext queries the index for the top-k chunks in this session's
// namespace. Retrieval problems degrade to an empty context so the snippet
// fallback can take over.
func (p *Pipeline) retrieveContext(ctx context.Context, st *RunState, profile synthesizer.DepthProfile) string {
	retrieved, err := p.Index.Query(ctx, st.Query, profile.TopK, st.SessionID)
	if err != nil {
		p.Logger.Warn("Retrieval failed, falling back to search snippets", "error", err)
		return ""
	}
	if len(retrieved) == 0 {
		return ""
	}

	parts := make([]string, 0, len(retrieved))
	for _, sc := range retrieved {
		parts = append(parts, fmt.Sprintf("Source: %s\n%s", sc.Chunk.Source, sc.Chunk.Text))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// snippetContext builds context from raw search snippets, bounded to the
// depth's k. This is the mandatory fallback when scraping or indexing
// produced nothing.
func (p *Pipeline) snippetContext(st *RunState, profile synthesizer.DepthProfile) string {
	var parts []string
	for _, r := range st.SearchResults {
		if r.Snippet == "" && r.Title == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("Source: %s\nURL: %s\n%s", r.Title, r.URL, r.Snippet))
		if len(parts) >= profile.TopK {
			break
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n---\n\n")
}
