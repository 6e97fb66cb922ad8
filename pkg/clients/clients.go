package clients

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// ProviderName identifies an LLM backend.
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGoogle    ProviderName = "google"
)

const (
	openAIModel    = "gpt-4o"
	anthropicModel = "claude-3-5-sonnet-20240620"
	googleModel    = "gemini-3-flash-preview"
)

// New constructs the langchaingo model for the named provider.
func New(ctx context.Context, name ProviderName, apiKey string) (llms.Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", name)
	}

	switch name {
	case ProviderOpenAI:
		return openai.New(openai.WithToken(apiKey), openai.WithModel(openAIModel))
	case ProviderAnthropic:
		return anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(anthropicModel))
	case ProviderGoogle:
		return googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(googleModel))
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}
