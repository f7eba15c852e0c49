package database

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore implements Store on top of a Redis list per session.
// Turns are stored as JSON-encoded entries under "history:{session_id}",
// appended with RPUSH so the list order is the insertion order.
type redisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &redisStore{
		client: client,
		prefix: "history",
		logger: logger.With("component", "redis_store"),
	}
}

func (r *redisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, sessionID)
}

// Ping checks the Redis connection.
func (r *redisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// GetSessionHistory retrieves all turns for a session in insertion order.
func (r *redisStore) GetSessionHistory(ctx context.Context, sessionID string) ([]ConversationTurn, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id cannot be empty")
	}

	entries, err := r.client.LRange(ctx, r.sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		r.logger.ErrorContext(ctx, "Error getting session history", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to get history for session %q: %w", sessionID, err)
	}

	turns := make([]ConversationTurn, 0, len(entries))
	for i, entry := range entries {
		var turn ConversationTurn
		if err := json.Unmarshal([]byte(entry), &turn); err != nil {
			r.logger.ErrorContext(ctx, "Error decoding stored turn",
				"session_id", sessionID, "index", i, "error", err)
			return nil, fmt.Errorf("failed to decode turn %d for session %q: %w", i, sessionID, err)
		}
		turns = append(turns, turn)
	}

	r.logger.DebugContext(ctx, "Fetched session history successfully", "session_id", sessionID, "count", len(turns))
	return turns, nil
}

// AppendUserTurn appends a user-role turn to a session's history.
func (r *redisStore) AppendUserTurn(ctx context.Context, sessionID, content string) error {
	return r.appendTurn(ctx, sessionID, RoleUser, content)
}

// AppendAssistantTurn appends an assistant-role turn to a session's history.
func (r *redisStore) AppendAssistantTurn(ctx context.Context, sessionID, content string) error {
	return r.appendTurn(ctx, sessionID, RoleAssistant, content)
}

func (r *redisStore) appendTurn(ctx context.Context, sessionID, role, content string) error {
	if sessionID == "" {
		return fmt.Errorf("turn must have a non-empty session_id")
	}
	if content == "" {
		return fmt.Errorf("turn must have non-empty content")
	}

	key := r.sessionKey(sessionID)

	// Use the new list length as a monotonically increasing turn ID.
	length, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		r.logger.ErrorContext(ctx, "Error reading session length", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to read length for session %q: %w", sessionID, err)
	}

	turn := ConversationTurn{
		//nolint:gosec // list lengths stay far below uint bounds
		ID:        uint(length) + 1,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	encoded, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to encode %s turn for session %q: %w", role, sessionID, err)
	}

	if err := r.client.RPush(ctx, key, encoded).Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error appending turn", "session_id", sessionID, "role", role, "error", err)
		return fmt.Errorf("failed to append %s turn for session %q: %w", role, sessionID, err)
	}

	r.logger.DebugContext(ctx, "Turn appended successfully",
		"session_id", sessionID, "role", role, "turn_id", turn.ID)
	return nil
}

// DeleteSessionHistory removes all turns for a session.
func (r *redisStore) DeleteSessionHistory(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session_id cannot be empty")
	}

	if err := r.client.Del(ctx, r.sessionKey(sessionID)).Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error deleting session history", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to delete history for session %q: %w", sessionID, err)
	}

	r.logger.InfoContext(ctx, "Deleted session history", "session_id", sessionID)
	return nil
}

// RunSQLMaintenance is a no-op for the Redis backend.
func (r *redisStore) RunSQLMaintenance(ctx context.Context) error {
	r.logger.DebugContext(ctx, "Maintenance requested, nothing to do for Redis backend")
	return nil
}
