package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/mikeboe/research-agent/pkg/agent"
)

// ResearchRequest is the body of POST /research and the first message on the
// websocket endpoint.
type ResearchRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	// MaxResults is a pointer so an absent field (default applies) is
	// distinguishable from an explicit out-of-range value (rejected).
	MaxResults *int   `json:"max_results,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Depth      string `json:"depth,omitempty"`
}

// ResearchResponse is the canonical wire schema returned to every client.
type ResearchResponse struct {
	Response  string         `json:"response"`
	Sources   []agent.Source `json:"sources"`
	SessionID string         `json:"session_id"`
	Timestamp string         `json:"timestamp"`
}

const (
	defaultMaxResults = 5
	maxMaxResults     = 10
)

// Service runs research requests through the pipeline with a per-request
// deadline. The pipeline itself is shared and stateless.
type Service struct {
	Pipeline *agent.Pipeline
	Timeout  time.Duration
	Logger   *slog.Logger
}

func NewService(p *agent.Pipeline, timeout time.Duration, logger *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Pipeline: p, Timeout: timeout, Logger: logger}
}

// Run executes one validated request. The query, session ID and max_results
// must already be checked by the caller; Run fills in the default result
// count when none was given and drives the pipeline. When onStage is non-nil it is invoked on every stage transition
// (the websocket handler streams these). The returned state is terminal:
// either complete or failed.
func (s *Service) Run(ctx context.Context, req ResearchRequest, onStage func(stage string, st *agent.RunState)) *agent.RunState {
	maxResults := defaultMaxResults
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
	}

	st := &agent.RunState{
		Query:      req.Query,
		SessionID:  req.SessionID,
		Provider:   req.Provider,
		Depth:      req.Depth,
		MaxResults: maxResults,
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// Shallow copy so a per-connection stage callback never races another
	// request on the shared pipeline.
	p := *s.Pipeline
	p.OnStageChange = onStage

	start := time.Now()
	p.Run(ctx, st)
	s.Logger.Info("Research run finished",
		"session_id", st.SessionID,
		"stage", st.Stage,
		"duration", time.Since(start).Round(time.Millisecond).String())

	return st
}

// Response builds the wire payload from a completed run.
func Response(st *agent.RunState) ResearchResponse {
	sources := st.Sources()
	if sources == nil {
		sources = []agent.Source{}
	}
	return ResearchResponse{
		Response:  st.Report,
		Sources:   sources,
		SessionID: st.SessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
