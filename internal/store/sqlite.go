package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sujith-hx/aroha/internal/model/conversation"
)

// Repository persists users and conversation turns. Turn content is
// encrypted at rest through the configured Cipher.
type Repository struct {
	db     *sql.DB
	cipher *Cipher
}

// NewRepository opens (or creates) the SQLite database at dbPath and
// ensures the schema exists.
func NewRepository(dbPath string, cipher *Cipher) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &Repository{db: db, cipher: cipher}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return repo, nil
}

func (r *Repository) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_name ON users(name);

	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		user_text TEXT NOT NULL,
		ai_text TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id)
	);
	CREATE INDEX IF NOT EXISTS idx_turns_user ON turns(user_id, id);
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// FindUser returns the id for an exact display-name match, or "" when the
// user is unknown. Storage errors degrade to "" so the session can carry
// on with a transient identity.
func (r *Repository) FindUser(ctx context.Context, name string) string {
	var id string
	err := r.db.QueryRowContext(ctx, "SELECT id FROM users WHERE name = ? LIMIT 1", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ""
	}
	if err != nil {
		log.Printf("[store] find user failed: %v", err)
		return ""
	}
	return id
}

// CreateUser inserts a new user record and returns its id, or "" when the
// storage layer is unavailable.
func (r *Repository) CreateUser(ctx context.Context, name string) string {
	id := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)",
		id, name, createdAt)
	if err != nil {
		log.Printf("[store] create user failed: %v", err)
		return ""
	}
	return id
}

// AppendTurnPair writes one exchange (user text plus assistant reply) as a
// single record with a shared timestamp. Both fields are encrypted
// independently. History is append-only; duplicate calls create duplicate
// records.
func (r *Repository) AppendTurnPair(ctx context.Context, userID, userText, aiText string) error {
	if userID == "" {
		return nil
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO turns (user_id, user_text, ai_text, timestamp) VALUES (?, ?, ?, ?)",
		userID, r.cipher.Encrypt(userText), r.cipher.Encrypt(aiText), timestamp)
	if err != nil {
		log.Printf("[store] append turn pair failed: %v", err)
		return fmt.Errorf("append turn pair: %w", err)
	}
	return nil
}

// RecentHistory returns up to limit of the most recent stored exchanges for
// a user, decrypted and flattened to turns in oldest-first order so the
// result can be appended directly to a generation context. Storage errors
// yield an empty history.
func (r *Repository) RecentHistory(ctx context.Context, userID string, limit int) []conversation.Turn {
	if userID == "" || limit <= 0 {
		return nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT user_text, ai_text FROM turns WHERE user_id = ? ORDER BY id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		log.Printf("[store] load history failed: %v", err)
		return nil
	}
	defer rows.Close()

	type pair struct{ user, ai string }
	var pairs []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.user, &p.ai); err != nil {
			log.Printf("[store] scan history row failed: %v", err)
			return nil
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[store] history rows failed: %v", err)
		return nil
	}

	// Rows arrive newest-first; walk backwards to restore insertion order.
	history := make([]conversation.Turn, 0, len(pairs)*2)
	for i := len(pairs) - 1; i >= 0; i-- {
		history = append(history,
			conversation.Turn{Role: conversation.RoleUser, Content: r.cipher.Decrypt(pairs[i].user)},
			conversation.Turn{Role: conversation.RoleAssistant, Content: r.cipher.Decrypt(pairs[i].ai)},
		)
	}
	return history
}
