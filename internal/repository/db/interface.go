package db

import (
	"errors"

	"stem-chat/internal/service/llm"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Database defines the persistence operations the service layer depends on
type Database interface {
	// User operations
	GetUserByUsername(username string) (*User, error)
	CreateUser(username, email, passwordHash string) (*User, error)

	// Conversation operations
	CreateConversation(userID, title, model string) (*Conversation, error)
	GetConversation(id string) (*Conversation, error)
	GetConversationsByUser(userID string) ([]Conversation, error)
	DeleteConversation(id string) error
	ArchiveConversation(id string) error

	// Message operations
	AddMessage(conversationID, role, content string, parts []byte) (*Message, error)
	GetConversationMessages(conversationID string) ([]llm.Message, error)
	GetConversationMessagesWithDetails(conversationID string) ([]Message, error)

	// Tool invocation operations
	AddToolInvocation(messageID, toolName string, parameters, result []byte, executionTime int) (*ToolInvocation, error)
	GetToolInvocationsByMessage(messageID string) ([]ToolInvocation, error)

	// Visualization operations
	CreateVisualization(userID, conversationID, vizType, title, description string, data []byte) (*Visualization, error)
	UpdateVisualization(id, title string, data []byte) (*Visualization, error)
	GetVisualization(id string) (*Visualization, error)

	Close() error
}
