package database

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })

	return NewStore(db, nil)
}

func TestStoreAppendAndFetch(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.AppendUserTurn(ctx, "s1", "recommend a drink"); err != nil {
		t.Fatalf("AppendUserTurn failed: %v", err)
	}
	if err := store.AppendAssistantTurn(ctx, "s1", "how about a latte?"); err != nil {
		t.Fatalf("AppendAssistantTurn failed: %v", err)
	}

	history, err := store.GetSessionHistory(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSessionHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d turns, want 2", len(history))
	}
	if history[0].Role != RoleUser || history[0].Content != "recommend a drink" {
		t.Errorf("turn 0 = %+v, want the user question", history[0])
	}
	if history[1].Role != RoleAssistant || history[1].Content != "how about a latte?" {
		t.Errorf("turn 1 = %+v, want the assistant reply", history[1])
	}
	if history[0].ID >= history[1].ID {
		t.Errorf("turn IDs not increasing: %d >= %d", history[0].ID, history[1].ID)
	}
}

func TestStoreUnknownSessionIsEmpty(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	history, err := store.GetSessionHistory(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("GetSessionHistory failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("unknown session returned %d turns, want 0", len(history))
	}
}

func TestStoreSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.AppendUserTurn(ctx, "s1", "question for s1"); err != nil {
		t.Fatalf("AppendUserTurn failed: %v", err)
	}
	if err := store.AppendUserTurn(ctx, "s2", "question for s2"); err != nil {
		t.Fatalf("AppendUserTurn failed: %v", err)
	}

	history, err := store.GetSessionHistory(ctx, "s2")
	if err != nil {
		t.Fatalf("GetSessionHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].Content != "question for s2" {
		t.Errorf("s2 history = %+v, want only its own turn", history)
	}
}

func TestStoreValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.AppendUserTurn(ctx, "", "content"); err == nil {
		t.Error("expected error for empty session id")
	}
	if err := store.AppendUserTurn(ctx, "s1", ""); err == nil {
		t.Error("expected error for empty content")
	}
	if _, err := store.GetSessionHistory(ctx, ""); err == nil {
		t.Error("expected error for empty session id on fetch")
	}
}

func TestStoreDeleteSessionHistory(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.AppendUserTurn(ctx, "s1", "question"); err != nil {
		t.Fatalf("AppendUserTurn failed: %v", err)
	}
	if err := store.DeleteSessionHistory(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSessionHistory failed: %v", err)
	}

	history, err := store.GetSessionHistory(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSessionHistory failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("history has %d turns after delete, want 0", len(history))
	}
}

func TestStoreMaintenanceAndPing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if err := store.RunSQLMaintenance(ctx); err != nil {
		t.Errorf("RunSQLMaintenance failed: %v", err)
	}
}
