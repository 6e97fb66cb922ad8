package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	APIKey          string
	DatabaseURL     string
	GoogleApiKey    string
	OpenAIApiKey    string
	AnthropicApiKey string
	TavilyApiKey    string
	BraveApiKey     string
	SearchProvider  string
	DefaultProvider string
	DefaultDepth    string
	EmbeddingModel  string
	EmbeddingDim    int
	ChunkSize       int
	ChunkOverlap    int
	ScrapeLimit     int
	ScrapeWorkers   int
	RequestTimeout  time.Duration
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		APIKey:          getEnv("API_KEY", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		GoogleApiKey:    getEnv("GOOGLE_API_KEY", ""),
		OpenAIApiKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicApiKey: getEnv("ANTHROPIC_API_KEY", ""),
		TavilyApiKey:    getEnv("TAVILY_API_KEY", ""),
		BraveApiKey:     getEnv("BRAVE_API_KEY", ""),
		SearchProvider:  getEnv("SEARCH_PROVIDER", "duckduckgo"),
		DefaultProvider: getEnv("DEFAULT_PROVIDER", "google"),
		DefaultDepth:    getEnv("DEFAULT_DEPTH", "detailed"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		EmbeddingDim:    getEnvAsInt("EMBEDDING_DIM", 1536),
		ChunkSize:       getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap:    getEnvAsInt("CHUNK_OVERLAP", 200),
		ScrapeLimit:     getEnvAsInt("SCRAPE_LIMIT", 3),
		ScrapeWorkers:   getEnvAsInt("SCRAPE_WORKERS", 3),
		RequestTimeout:  time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 120)) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
