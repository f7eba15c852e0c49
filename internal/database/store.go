package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for session history operations.
// A session history is an ordered, append-only log of conversation turns
// keyed by session ID. Methods accept context.Context for cancellation
// and timeouts.
type Store interface {
	// Ping checks the store connection.
	Ping(ctx context.Context) error

	// GetSessionHistory retrieves all turns for a session in insertion order.
	// An unknown session returns an empty slice, not an error.
	GetSessionHistory(ctx context.Context, sessionID string) ([]ConversationTurn, error)

	// AppendUserTurn appends a user-role turn to a session's history.
	AppendUserTurn(ctx context.Context, sessionID, content string) error

	// AppendAssistantTurn appends an assistant-role turn to a session's history.
	AppendAssistantTurn(ctx context.Context, sessionID, content string) error

	// DeleteSessionHistory removes all turns for a session.
	DeleteSessionHistory(ctx context.Context, sessionID string) error

	// RunSQLMaintenance performs backend maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetSessionHistory retrieves all turns for a session ordered by insertion.
func (s *sqlxStore) GetSessionHistory(ctx context.Context, sessionID string) ([]ConversationTurn, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id cannot be empty")
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	turns := []ConversationTurn{}
	query := `
        SELECT id, session_id, role, content, created_at
        FROM conversation_turns
        WHERE session_id = ?
        ORDER BY id ASC;
    `

	s.logger.DebugContext(ctx, "Fetching session history", "session_id", sessionID)
	err := s.db.SelectContext(ctx, &turns, query, sessionID)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching session history",
			"session_id", sessionID, "error", err)
		return nil, err
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting session history", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to get history for session %q: %w", sessionID, err)
	}

	s.logger.DebugContext(ctx, "Fetched session history successfully", "session_id", sessionID, "count", len(turns))
	return turns, nil
}

// AppendUserTurn appends a user-role turn to a session's history.
func (s *sqlxStore) AppendUserTurn(ctx context.Context, sessionID, content string) error {
	return s.appendTurn(ctx, sessionID, RoleUser, content)
}

// AppendAssistantTurn appends an assistant-role turn to a session's history.
func (s *sqlxStore) AppendAssistantTurn(ctx context.Context, sessionID, content string) error {
	return s.appendTurn(ctx, sessionID, RoleAssistant, content)
}

func (s *sqlxStore) appendTurn(ctx context.Context, sessionID, role, content string) error {
	if sessionID == "" {
		return fmt.Errorf("turn must have a non-empty session_id")
	}
	if content == "" {
		return fmt.Errorf("turn must have non-empty content")
	}

	turn := &ConversationTurn{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for appending turn",
			"session_id", sessionID, "role", role, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	query := `
        INSERT INTO conversation_turns (session_id, role, content, created_at)
        VALUES (:session_id, :role, :content, :created_at);
    `

	result, err := tx.NamedExecContext(ctx, query, turn)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error appending turn", "session_id", sessionID, "role", role, "error", err)
		return fmt.Errorf("failed to append %s turn for session %q: %w", role, sessionID, err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		turn.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after appending turn",
			"session_id", sessionID, "role", role, "error", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction",
			"session_id", sessionID, "role", role, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	// Successfully committed, set tx to nil to avoid rollback
	tx = nil

	s.logger.DebugContext(ctx, "Turn appended successfully",
		"session_id", sessionID, "role", role, "turn_id", turn.ID)
	return nil
}

// DeleteSessionHistory removes all turns for a session.
func (s *sqlxStore) DeleteSessionHistory(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session_id cannot be empty")
	}

	query := `DELETE FROM conversation_turns WHERE session_id = ?`
	result, err := s.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting session history", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to delete history for session %q: %w", sessionID, err)
	}

	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Deleted session history", "session_id", sessionID, "count", count)
	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
