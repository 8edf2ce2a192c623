package conversation

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// User is a stored identity. Created on first sighting of a display name,
// never mutated afterwards.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Turn is one message in the exchange. Content is plaintext in memory and
// ciphertext at rest.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Emotion string `json:"emotion,omitempty"`
}
