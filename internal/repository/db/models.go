package db

import (
	"encoding/json"
	"time"
)

// User represents a user in the database
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Conversation represents a conversation in the database
type Conversation struct {
	ID         string
	UserID     string
	Title      string
	Model      string
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Message represents a message in a conversation. Rows are append-only;
// display order is creation time.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	Parts          json.RawMessage
	CreatedAt      time.Time
}

// ToolInvocation records one tool call made by the model while producing
// an assistant message. Written once, never updated.
type ToolInvocation struct {
	ID            string
	MessageID     string
	ToolName      string
	Parameters    json.RawMessage
	Result        json.RawMessage
	ExecutionTime int
	CreatedAt     time.Time
}

// Visualization is a persisted chart, molecule view or similar artifact,
// owned by one user and attached to one conversation.
type Visualization struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	ConversationID string          `json:"conversationId"`
	Type           string          `json:"type"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Data           json.RawMessage `json:"data"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
