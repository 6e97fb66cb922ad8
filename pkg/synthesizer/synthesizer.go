package synthesizer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/research-agent/pkg/clients"
)

const systemPrompt = `You are an expert AI research assistant. Provide comprehensive, well-structured answers based only on the research findings supplied.

Format your response with:
- Clear headings using **bold** text
- Bullet points for key information
- Proper paragraph structure
- Citations referencing the source URLs

Be informative, accurate, and cite your sources.`

// Synthesizer turns retrieved context into the final report through one
// completion call against the selected provider.
type Synthesizer struct {
	models          map[clients.ProviderName]llms.Model
	defaultProvider clients.ProviderName
	logger          *slog.Logger
}

func New(models map[clients.ProviderName]llms.Model, defaultProvider clients.ProviderName, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		models:          models,
		defaultProvider: defaultProvider,
		logger:          logger,
	}
}

// Synthesize builds the depth-appropriate prompt and sends a single
// completion request. The completion text is returned unmodified.
func (s *Synthesizer) Synthesize(ctx context.Context, provider, query, contextText string, profile DepthProfile) (string, error) {
	model := s.resolveModel(provider)
	if model == nil {
		return "", fmt.Errorf("no LLM provider available (requested %q, default %q)", provider, s.defaultProvider)
	}

	prompt := BuildPrompt(query, contextText, profile)

	resp, err := model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}

	return resp.Choices[0].Content, nil
}

// resolveModel looks up the requested provider, falling back to the default
// when the name is unknown or not configured. Fallback is a warning, not an
// error: a bad provider name must not fail the request.
func (s *Synthesizer) resolveModel(provider string) llms.Model {
	if model, ok := s.models[clients.ProviderName(provider)]; ok {
		return model
	}
	if provider != "" {
		s.logger.Warn("Unknown or unconfigured provider, using default",
			"requested", provider, "default", string(s.defaultProvider))
	}
	return s.models[s.defaultProvider]
}

// BuildPrompt deterministically assembles the user prompt from the query,
// the context block and the depth profile.
func BuildPrompt(query, contextText string, profile DepthProfile) string {
	return fmt.Sprintf(`Based on the following research findings, provide an answer to this question:

**Question:** %s

**Research Findings:**
%s

**Report requirements:**
- %s
- Target length: %d-%d words.
- Organize the report into about %d sections with headings.

Generate the research report:`,
		query, contextText, profile.Instruction, profile.MinWords, profile.MaxWords, profile.Sections)
}
