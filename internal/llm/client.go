// Package llm implements the LLM capability used to generate
// recommendations. It exposes a provider-neutral Client interface with
// Gemini and OpenAI implementations selected by configuration.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mirukang/fortunecast/internal/config"
	"github.com/mirukang/fortunecast/internal/database"
)

// Client defines the interface for the text-generation capability.
// Generate submits a composed system instruction, the prior conversation
// turns, and the current question, and returns a single reply text.
// Provider failures propagate to the caller; no fallback content is
// fabricated here.
type Client interface {
	Generate(ctx context.Context, instruction string, history []database.ConversationTurn, question string) (string, error)
}

// NewClient creates an LLM client for the configured provider.
func NewClient(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Client, error) {
	switch cfg.Provider {
	case "gemini":
		return newGeminiClient(ctx, cfg, log)
	case "openai":
		return newOpenAIClient(cfg, log)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
