package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/sujith-hx/aroha/internal/model/conversation"
)

func newTestRepository(t *testing.T, cipher *Cipher) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "aroha.db"), cipher)
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestFindAndCreateUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, nil)

	if id := repo.FindUser(ctx, "Alexandra"); id != "" {
		t.Fatalf("FindUser on empty store = %q, want empty", id)
	}

	created := repo.CreateUser(ctx, "Alexandra")
	if created == "" {
		t.Fatal("CreateUser returned empty id")
	}

	if found := repo.FindUser(ctx, "Alexandra"); found != created {
		t.Fatalf("FindUser = %q, want %q", found, created)
	}
	if id := repo.FindUser(ctx, "alexandra"); id != "" {
		t.Fatalf("lookup should be exact-match, got %q", id)
	}
}

func TestRecentHistoryOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, nil)
	userID := repo.CreateUser(ctx, "Sam")

	for i := 0; i < 5; i++ {
		if err := repo.AppendTurnPair(ctx, userID,
			fmt.Sprintf("user %d", i), fmt.Sprintf("reply %d", i)); err != nil {
			t.Fatalf("AppendTurnPair %d failed: %v", i, err)
		}
	}

	history := repo.RecentHistory(ctx, userID, 3)
	if len(history) != 6 {
		t.Fatalf("history length = %d, want 6 (3 pairs)", len(history))
	}

	// Most recent 3 pairs, oldest-first.
	wantContent := []string{"user 2", "reply 2", "user 3", "reply 3", "user 4", "reply 4"}
	wantRole := []conversation.Role{
		conversation.RoleUser, conversation.RoleAssistant,
		conversation.RoleUser, conversation.RoleAssistant,
		conversation.RoleUser, conversation.RoleAssistant,
	}
	for i, turn := range history {
		if turn.Content != wantContent[i] {
			t.Fatalf("history[%d].Content = %q, want %q", i, turn.Content, wantContent[i])
		}
		if turn.Role != wantRole[i] {
			t.Fatalf("history[%d].Role = %s, want %s", i, turn.Role, wantRole[i])
		}
	}
}

func TestRecentHistoryUnknownUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, nil)

	if history := repo.RecentHistory(ctx, "missing", 10); len(history) != 0 {
		t.Fatalf("history for unknown user = %d turns, want 0", len(history))
	}
	if history := repo.RecentHistory(ctx, "", 10); history != nil {
		t.Fatal("history for empty user id should be nil")
	}
}

func TestTurnFieldsAreCiphertextAtRest(t *testing.T) {
	ctx := context.Background()
	cipher, err := NewRandomCipher()
	if err != nil {
		t.Fatalf("NewRandomCipher failed: %v", err)
	}

	repo := newTestRepository(t, cipher)
	userID := repo.CreateUser(ctx, "Priya")

	if err := repo.AppendTurnPair(ctx, userID, "I feel anxious", "That sounds heavy"); err != nil {
		t.Fatalf("AppendTurnPair failed: %v", err)
	}

	var userText, aiText string
	row := repo.db.QueryRow("SELECT user_text, ai_text FROM turns WHERE user_id = ?", userID)
	if err := row.Scan(&userText, &aiText); err != nil {
		t.Fatalf("read raw row: %v", err)
	}
	if userText == "I feel anxious" || aiText == "That sounds heavy" {
		t.Fatal("turn content stored as plaintext")
	}

	history := repo.RecentHistory(ctx, userID, 1)
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Content != "I feel anxious" || history[1].Content != "That sounds heavy" {
		t.Fatalf("decrypted history mismatch: %+v", history)
	}
}

func TestAppendTurnPairWithoutIdentityIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, nil)

	if err := repo.AppendTurnPair(ctx, "", "hello", "hi"); err != nil {
		t.Fatalf("AppendTurnPair with transient identity should no-op, got %v", err)
	}

	var count int
	if err := repo.db.QueryRow("SELECT COUNT(*) FROM turns").Scan(&count); err != nil && err != sql.ErrNoRows {
		t.Fatalf("count turns: %v", err)
	}
	if count != 0 {
		t.Fatalf("turns written = %d, want 0", count)
	}
}
