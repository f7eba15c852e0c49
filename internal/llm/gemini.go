package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/mirukang/fortunecast/internal/config"
	"github.com/mirukang/fortunecast/internal/database"
)

// geminiClient implements Client on Google's Gemini API.
type geminiClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	modelName   string
	temperature float32
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
}

func newGeminiClient(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Token,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.Model)
	return &geminiClient{
		genaiClient: gi,
		log:         logger,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
	}, nil
}

// Generate submits the instruction, history, and question to Gemini and
// returns the reply text.
func (c *geminiClient) Generate(ctx context.Context, instruction string, history []database.ConversationTurn, question string) (string, error) {
	c.log.DebugContext(ctx, "Generating recommendation", "history_turns", len(history))

	contents := buildContents(history, question)

	temperature := c.temperature
	contentConfig := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instruction}}},
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.generateContentWithRetries(ctx, contents, contentConfig)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini recommendation generation failed", "error", err)
		return "", err
	}

	c.logUsage(ctx, resp)
	return c.extractTextFromResponse(ctx, resp)
}

// buildContents converts stored turns plus the current question into the
// Gemini content list, mapping assistant turns to the model role.
func buildContents(history []database.ConversationTurn, question string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		var role genai.Role = genai.RoleUser
		if turn.Role == database.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	return append(contents, genai.NewContentFromText(question, genai.RoleUser))
}

func (c *geminiClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call due to retriable APIError", "delay", c.retryDelay, "code", apiErr.Code)
				time.Sleep(c.retryDelay)
				continue
			}
			c.log.ErrorContext(ctx, "Gemini API call failed after max retries with APIError", "error", err, "code", apiErr.Code)
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err)
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return nil, err
}

// logUsage records the token accounting for a completed call at debug level.
func (c *geminiClient) logUsage(ctx context.Context, resp *genai.GenerateContentResponse) {
	if resp == nil || resp.UsageMetadata == nil {
		return
	}
	c.log.DebugContext(ctx, "Gemini token usage",
		"prompt_tokens", resp.UsageMetadata.PromptTokenCount,
		"response_tokens", resp.UsageMetadata.CandidatesTokenCount,
		"total_tokens", resp.UsageMetadata.TotalTokenCount)
}

func (c *geminiClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reasonMsg)
		return "", fmt.Errorf("generation blocked by safety filter: %s", reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)

		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonStop {
			return "", fmt.Errorf("generation returned no content, finish reason: %s", finishReason)
		}
		return "", fmt.Errorf("generation returned empty content")
	}

	text := resp.Text()
	if text == "" {
		c.log.WarnContext(ctx, "Gemini response text is empty")
		return "", fmt.Errorf("generation returned empty text")
	}

	return text, nil
}
