package recommend

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mirukang/fortunecast/internal/database"
	"github.com/mirukang/fortunecast/internal/llm"
)

// GreetingFallback is used as the question when no user turn exists.
// Respond always appends one first, so this only covers a malformed store.
const GreetingFallback = "Hello, please tell me what kind of recommendation you are looking for."

// Service orchestrates a recommendation turn: it merges stored history with
// the new question, composes the system instruction, invokes the LLM client,
// and persists both sides of the exchange.
type Service struct {
	store        database.Store
	client       llm.Client
	log          *slog.Logger
	historyLimit int
}

// NewService creates a recommendation service. historyLimit caps how many
// prior turns are forwarded to the LLM; stored history itself is never
// truncated. A limit of 0 forwards everything.
func NewService(store database.Store, client llm.Client, logger *slog.Logger, historyLimit int) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:        store,
		client:       client,
		log:          logger.With("component", "recommend_service"),
		historyLimit: historyLimit,
	}
}

// Respond runs one recommendation exchange for a session and returns the
// model's reply.
//
// A history read failure aborts before the LLM is contacted: answering on a
// broken store would silently fork the conversation. An LLM failure
// propagates to the caller with nothing persisted. History write failures
// after a successful generation are logged and do not block the reply;
// user-visible success takes priority over durability of history.
func (s *Service) Respond(ctx context.Context, req CanonicalRequest, sessionID string) (string, error) {
	history, err := s.store.GetSessionHistory(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load history for session %q: %w", sessionID, err)
	}

	allTurns := append(history, database.ConversationTurn{
		SessionID: sessionID,
		Role:      database.RoleUser,
		Content:   req.Question,
	})

	question := lastUserContent(allTurns)

	// The current question travels in its own slot of the LLM request, so
	// the trailing user turn is excluded from the forwarded history.
	llmHistory := allTurns[:len(allTurns)-1]
	if s.historyLimit > 0 && len(llmHistory) > s.historyLimit {
		llmHistory = llmHistory[len(llmHistory)-s.historyLimit:]
	}

	instruction := ComposePrompt(req)

	reply, err := s.client.Generate(ctx, instruction, llmHistory, question)
	if err != nil {
		return "", fmt.Errorf("recommendation generation failed: %w", err)
	}

	if err := s.store.AppendUserTurn(ctx, sessionID, question); err != nil {
		// Skip the assistant turn as well so the stored alternation of
		// user and assistant turns stays intact.
		s.log.WarnContext(ctx, "Failed to persist user turn, reply returned without history",
			"session_id", sessionID, "error", err)
		return reply, nil
	}
	if err := s.store.AppendAssistantTurn(ctx, sessionID, reply); err != nil {
		s.log.WarnContext(ctx, "Failed to persist assistant turn",
			"session_id", sessionID, "error", err)
	}

	return reply, nil
}

// lastUserContent returns the content of the most recent user-role turn.
func lastUserContent(turns []database.ConversationTurn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == database.RoleUser {
			return turns[i].Content
		}
	}
	return GreetingFallback
}
