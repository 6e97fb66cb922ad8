package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/research-agent/pkg/agent"
	"github.com/mikeboe/research-agent/pkg/clients"
	"github.com/mikeboe/research-agent/pkg/config"
	"github.com/mikeboe/research-agent/pkg/database"
	"github.com/mikeboe/research-agent/pkg/embeddings"
	"github.com/mikeboe/research-agent/pkg/scraper"
	"github.com/mikeboe/research-agent/pkg/search"
	"github.com/mikeboe/research-agent/pkg/server"
	"github.com/mikeboe/research-agent/pkg/splitter"
	"github.com/mikeboe/research-agent/pkg/synthesizer"
	"github.com/mikeboe/research-agent/pkg/vectorstore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Search backend
	searchProvider := newSearchProvider(cfg, logger)

	// Embeddings + retrieval index
	embedder := newEmbedder(ctx, cfg, logger)
	index := newIndex(ctx, cfg, embedder, logger)

	// Scrape coordinator
	ts := splitter.NewRecursiveCharacterTextSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	coordinator := scraper.NewCoordinator(scraper.NewHTTPFetcher(), ts, cfg.ScrapeWorkers, logger)

	// LLM providers
	models := newModels(ctx, cfg, logger)
	synth := synthesizer.New(models, clients.ProviderName(cfg.DefaultProvider), logger)

	pipeline := agent.NewPipeline(searchProvider, coordinator, index, synth, cfg.ScrapeLimit, logger)
	svc := server.NewService(pipeline, cfg.RequestTimeout, logger)

	handler := server.NewHandler(svc, logger)
	handler.SearchConfigured = true
	handler.LLMConfigured = len(models) > 0

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-API-Key"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	handler.RegisterRoutes(r, cfg.APIKey)

	// Demo frontend
	r.StaticFile("/", "./web/index.html")

	logger.Info("Server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func newSearchProvider(cfg *config.Config, logger *slog.Logger) search.Provider {
	switch cfg.SearchProvider {
	case "tavily":
		if cfg.TavilyApiKey == "" {
			logger.Warn("TAVILY_API_KEY not set, falling back to DuckDuckGo")
			return search.NewDuckDuckGo()
		}
		return search.NewTavily(cfg.TavilyApiKey)
	case "brave":
		if cfg.BraveApiKey == "" {
			logger.Warn("BRAVE_API_KEY not set, falling back to DuckDuckGo")
			return search.NewDuckDuckGo()
		}
		return search.NewBrave(cfg.BraveApiKey)
	default:
		return search.NewDuckDuckGo()
	}
}

func newEmbedder(ctx context.Context, cfg *config.Config, logger *slog.Logger) vectorstore.Embedder {
	if cfg.GoogleApiKey == "" {
		logger.Warn("GOOGLE_API_KEY not set, retrieval disabled, reports will use search snippets")
		return embeddings.Unavailable{}
	}
	embedder, err := embeddings.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey, cfg.EmbeddingDim)
	if err != nil {
		logger.Error("Failed to create embedder, retrieval disabled", "error", err)
		return embeddings.Unavailable{}
	}
	return embedder
}

func newIndex(ctx context.Context, cfg *config.Config, embedder vectorstore.Embedder, logger *slog.Logger) vectorstore.Index {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, using in-memory vector store")
		return vectorstore.NewMemoryStore(embedder)
	}

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.EnsureVectorExtension(ctx); err != nil {
		log.Fatalf("Failed to ensure vector extension: %v", err)
	}
	if err := db.InitSchema(ctx, cfg.EmbeddingDim); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	return vectorstore.NewPGVectorStore(db.Pool, embedder)
}

func newModels(ctx context.Context, cfg *config.Config, logger *slog.Logger) map[clients.ProviderName]llms.Model {
	keys := map[clients.ProviderName]string{
		clients.ProviderGoogle:    cfg.GoogleApiKey,
		clients.ProviderOpenAI:    cfg.OpenAIApiKey,
		clients.ProviderAnthropic: cfg.AnthropicApiKey,
	}

	models := make(map[clients.ProviderName]llms.Model)
	for name, key := range keys {
		if key == "" {
			continue
		}
		model, err := clients.New(ctx, name, key)
		if err != nil {
			logger.Error("Failed to init LLM provider", "provider", string(name), "error", err)
			continue
		}
		models[name] = model
	}

	if len(models) == 0 {
		logger.Warn("No LLM API keys configured, research requests will fail at synthesis")
	}
	return models
}
