package agent

import (
	"github.com/mikeboe/research-agent/pkg/search"
	"github.com/mikeboe/research-agent/pkg/vectorstore"
)

// Pipeline stages. failed is terminal and reachable from every stage.
const (
	StageSearching    = "searching"
	StageScraping     = "scraping"
	StageSynthesizing = "synthesizing"
	StageComplete     = "complete"
	StageFailed       = "failed"
)

// CurrentTask values a stage sets to signal what should run next. Anything
// else routes to completion.
const (
	taskScraping  = "scraping"
	taskSynthesis = "synthesis"
)

// RunState is the single record threaded through one research run. It is
// created at request entry, mutated only by the stage that currently owns it,
// and discarded at request exit. Once Err is set no further stage runs.
type RunState struct {
	Query      string
	SessionID  string
	Provider   string
	Depth      string
	MaxResults int

	SearchResults []search.Result
	Chunks        []vectorstore.Chunk
	CurrentTask   string
	Stage         string
	Err           error
	Report        string
}

// Source identifies where part of the report came from.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Sources lists the search results that fed the report, in rank order.
func (st *RunState) Sources() []Source {
	sources := make([]Source, 0, len(st.SearchResults))
	for _, r := range st.SearchResults {
		if r.URL == "" {
			continue
		}
		sources = append(sources, Source{Title: r.Title, URL: r.URL})
	}
	return sources
}
