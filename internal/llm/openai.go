package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mirukang/fortunecast/internal/config"
	"github.com/mirukang/fortunecast/internal/database"
)

// openaiClient implements Client on the OpenAI chat completion API.
type openaiClient struct {
	client      *openai.Client
	log         *slog.Logger
	model       string
	temperature float32
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
}

func newOpenAIClient(cfg config.AIConfig, log *slog.Logger) (Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	logger := log.With("component", "openai_client")
	logger.Info("OpenAI client initialized successfully", "model", cfg.Model)
	return &openaiClient{
		client:      openai.NewClientWithConfig(clientConfig),
		log:         logger,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
	}, nil
}

// Generate submits the instruction, history, and question as a chat
// completion and returns the reply text.
func (c *openaiClient) Generate(ctx context.Context, instruction string, history []database.ConversationTurn, question string) (string, error) {
	c.log.DebugContext(ctx, "Generating recommendation", "history_turns", len(history))

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: instruction,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == database.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.InfoContext(ctx, "Retrying OpenAI API call", "attempt", attempt+1, "delay", c.retryDelay)
			time.Sleep(c.retryDelay)
		}

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: c.temperature,
		})
		if err != nil {
			c.log.WarnContext(ctx, "OpenAI API call failed", "attempt", attempt+1, "error", err)
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("attempt %d: no completion choices returned", attempt+1)
			continue
		}

		c.log.DebugContext(ctx, "OpenAI token usage",
			"prompt_tokens", resp.Usage.PromptTokens,
			"response_tokens", resp.Usage.CompletionTokens,
			"total_tokens", resp.Usage.TotalTokens)

		return resp.Choices[0].Message.Content, nil
	}

	c.log.ErrorContext(ctx, "OpenAI API call failed after retries", "error", lastErr)
	return "", fmt.Errorf("openai API call failed: %w", lastErr)
}
