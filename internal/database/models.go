package database

import "time"

// Turn roles. A session history only ever contains these two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is a single message in a session's conversation history.
// Turns are immutable once stored; a session history is an ordered,
// append-only sequence of turns keyed by session ID.
//
// The json tags are used by the Redis backend, which stores turns as
// JSON-encoded list entries.
type ConversationTurn struct {
	ID        uint      `db:"id"         json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Role      string    `db:"role"       json:"role"`
	Content   string    `db:"content"    json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
