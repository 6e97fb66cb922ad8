package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/research-agent/pkg/agent"
	"github.com/mikeboe/research-agent/pkg/clients"
	"github.com/mikeboe/research-agent/pkg/config"
	"github.com/mikeboe/research-agent/pkg/embeddings"
	"github.com/mikeboe/research-agent/pkg/scraper"
	"github.com/mikeboe/research-agent/pkg/search"
	"github.com/mikeboe/research-agent/pkg/splitter"
	"github.com/mikeboe/research-agent/pkg/synthesizer"
	"github.com/mikeboe/research-agent/pkg/validation"
	"github.com/mikeboe/research-agent/pkg/vectorstore"
)

var (
	query      string
	provider   string
	depth      string
	maxResults int
)

func main() {
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))

	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, as long as env vars are set
	}

	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "research-agent",
		Short: "A terminal-based web research assistant",
		Long:  `research-agent answers a question by searching the web, scraping the top results and synthesizing a cited report.`,
		Run: func(cmd *cobra.Command, args []string) {
			if !cmd.Flags().Changed("query") {
				// Interactive mode
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Enter research question: ")
				input, _ := reader.ReadString('\n')
				query = strings.TrimSpace(input)
			}

			sanitized, err := validation.SanitizeQuery(query)
			if err != nil {
				slog.Error("Invalid query", "error", err)
				os.Exit(1)
			}

			if err := run(cfg, sanitized); err != nil {
				slog.Error("Research failed", "error", err)
				os.Exit(1)
			}
		},
	}

	rootCmd.Flags().StringVarP(&query, "query", "q", "", "The research question")
	rootCmd.Flags().StringVarP(&provider, "provider", "p", "", "LLM provider (openai, anthropic, google)")
	rootCmd.Flags().StringVarP(&depth, "depth", "d", "", "Report depth (brief, detailed, comprehensive)")
	rootCmd.Flags().IntVarP(&maxResults, "max-results", "n", 5, "Number of search results to consider (1-10)")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, query string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	logger := slog.Default()

	searchProvider := newSearchProvider(cfg, logger)

	var embedder vectorstore.Embedder = embeddings.Unavailable{}
	if cfg.GoogleApiKey != "" {
		ge, err := embeddings.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey, cfg.EmbeddingDim)
		if err != nil {
			logger.Warn("Embedder unavailable, using search snippets", "error", err)
		} else {
			embedder = ge
		}
	}
	index := vectorstore.NewMemoryStore(embedder)

	ts := splitter.NewRecursiveCharacterTextSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	coordinator := scraper.NewCoordinator(scraper.NewHTTPFetcher(), ts, cfg.ScrapeWorkers, logger)

	models := make(map[clients.ProviderName]llms.Model)
	for name, key := range map[clients.ProviderName]string{
		clients.ProviderGoogle:    cfg.GoogleApiKey,
		clients.ProviderOpenAI:    cfg.OpenAIApiKey,
		clients.ProviderAnthropic: cfg.AnthropicApiKey,
	} {
		if key == "" {
			continue
		}
		model, err := clients.New(ctx, name, key)
		if err != nil {
			logger.Warn("Skipping LLM provider", "provider", string(name), "error", err)
			continue
		}
		models[name] = model
	}
	if len(models) == 0 {
		return fmt.Errorf("no LLM API key configured (set GOOGLE_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY)")
	}

	synth := synthesizer.New(models, clients.ProviderName(cfg.DefaultProvider), logger)
	pipeline := agent.NewPipeline(searchProvider, coordinator, index, synth, cfg.ScrapeLimit, logger)
	pipeline.OnStageChange = func(stage string, _ *agent.RunState) {
		fmt.Fprintf(os.Stderr, "... %s\n", stage)
	}

	if maxResults < 1 || maxResults > 10 {
		maxResults = 5
	}
	sessionID, err := validation.ValidateSessionID("")
	if err != nil {
		return err
	}

	st := &agent.RunState{
		Query:      query,
		SessionID:  sessionID,
		Provider:   provider,
		Depth:      depth,
		MaxResults: maxResults,
	}

	pipeline.Run(ctx, st)
	if st.Stage == agent.StageFailed {
		return st.Err
	}

	fmt.Println(st.Report)
	if len(st.Sources()) > 0 {
		fmt.Println("\nSources:")
		for _, s := range st.Sources() {
			fmt.Printf("- %s (%s)\n", s.Title, s.URL)
		}
	}

	return writeReport(st)
}

func newSearchProvider(cfg *config.Config, logger *slog.Logger) search.Provider {
	switch cfg.SearchProvider {
	case "tavily":
		if cfg.TavilyApiKey != "" {
			return search.NewTavily(cfg.TavilyApiKey)
		}
		logger.Warn("TAVILY_API_KEY not set, falling back to DuckDuckGo")
	case "brave":
		if cfg.BraveApiKey != "" {
			return search.NewBrave(cfg.BraveApiKey)
		}
		logger.Warn("BRAVE_API_KEY not set, falling back to DuckDuckGo")
	}
	return search.NewDuckDuckGo()
}

// writeReport saves the finished report next to the working directory so a
// long terminal session doesn't lose it.
func writeReport(st *agent.RunState) error {
	filename := fmt.Sprintf("report_%d.md", time.Now().Unix())

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Research Report\n\nQuery: %s\n\n", st.Query))
	b.WriteString(st.Report)
	if sources := st.Sources(); len(sources) > 0 {
		b.WriteString("\n\n## Sources\n\n")
		for _, s := range sources {
			b.WriteString(fmt.Sprintf("- [%s](%s)\n", s.Title, s.URL))
		}
	}

	if err := os.WriteFile(filename, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	slog.Info("Report saved", "file", filename)
	return nil
}
