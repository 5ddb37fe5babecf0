package postgres

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stem-chat/internal/logger"
	"stem-chat/internal/repository/db"
	"stem-chat/internal/service/llm"
)

// CreateConversation creates a new conversation for a user
func (p *PostgresDB) CreateConversation(userID, title, model string) (*db.Conversation, error) {
	convID := uuid.New().String()
	var conv db.Conversation

	query := `
	INSERT INTO conversations (id, user_id, title, model)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at, updated_at
	`

	err := p.conn.QueryRow(query, convID, userID, title, model).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	conv.UserID = userID
	conv.Title = title
	conv.Model = model

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"user_id":         userID,
		"model":           model,
	}).Info("Created new conversation")

	return &conv, nil
}

// GetConversationsByUser retrieves all non-archived conversations for a user
func (p *PostgresDB) GetConversationsByUser(userID string) ([]db.Conversation, error) {
	query := `
	SELECT id, user_id, title, COALESCE(model, ''), is_archived, created_at, updated_at
	FROM conversations
	WHERE user_id = $1 AND is_archived = FALSE
	ORDER BY updated_at DESC
	`

	rows, err := p.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []db.Conversation
	for rows.Next() {
		var conv db.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.Model, &conv.IsArchived, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

// GetConversation retrieves a specific conversation
func (p *PostgresDB) GetConversation(id string) (*db.Conversation, error) {
	var conv db.Conversation
	query := `
	SELECT id, user_id, title, COALESCE(model, ''), is_archived, created_at, updated_at
	FROM conversations
	WHERE id = $1
	`

	err := p.conn.QueryRow(query, id).Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.Model, &conv.IsArchived, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving conversation: %w", err)
	}

	return &conv, nil
}

// DeleteConversation deletes a conversation and all its messages
func (p *PostgresDB) DeleteConversation(id string) error {
	if _, err := p.conn.Exec(`DELETE FROM conversations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("error deleting conversation: %w", err)
	}

	logger.Log.WithField("conversation_id", id).Info("Deleted conversation")
	return nil
}

// ArchiveConversation marks a conversation as archived without deleting rows
func (p *PostgresDB) ArchiveConversation(id string) error {
	res, err := p.conn.Exec(`UPDATE conversations SET is_archived = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error archiving conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return db.ErrNotFound
	}

	logger.Log.WithField("conversation_id", id).Info("Archived conversation")
	return nil
}

// AddMessage appends a message to a conversation
func (p *PostgresDB) AddMessage(conversationID, role, content string, parts []byte) (*db.Message, error) {
	msgID := uuid.New().String()
	var msg db.Message

	// jsonb column rejects empty byte slices; store NULL instead
	var partsArg interface{}
	if len(parts) > 0 {
		partsArg = parts
	}

	query := `
	INSERT INTO messages (id, conversation_id, role, content, parts)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at
	`

	err := p.conn.QueryRow(query, msgID, conversationID, role, content, partsArg).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error adding message: %w", err)
	}

	msg.ConversationID = conversationID
	msg.Role = role
	msg.Content = content
	msg.Parts = parts

	// Bump the conversation timestamp so listing stays in recency order
	if _, err := p.conn.Exec(`UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = $1`, conversationID); err != nil {
		logger.Log.WithError(err).Warn("Error updating conversation timestamp")
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"role":            role,
		"message_id":      msg.ID,
	}).Debug("Added message to conversation")

	return &msg, nil
}

// GetConversationMessages retrieves all messages from a conversation in LLM format
func (p *PostgresDB) GetConversationMessages(conversationID string) ([]llm.Message, error) {
	query := `
	SELECT role, content
	FROM messages
	WHERE conversation_id = $1
	ORDER BY created_at ASC
	`

	rows, err := p.conn.Query(query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []llm.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		messages = append(messages, llm.Message{Role: role, Content: content})
	}

	return messages, rows.Err()
}

// GetConversationMessagesWithDetails retrieves all messages with full details for frontend display
func (p *PostgresDB) GetConversationMessagesWithDetails(conversationID string) ([]db.Message, error) {
	query := `
	SELECT id, conversation_id, role, content, parts, created_at
	FROM messages
	WHERE conversation_id = $1
	ORDER BY created_at ASC
	`

	rows, err := p.conn.Query(query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []db.Message
	for rows.Next() {
		var msg db.Message
		var parts sql.NullString
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &parts, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		if parts.Valid {
			msg.Parts = []byte(parts.String)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// AddToolInvocation records one tool execution attached to an assistant message
func (p *PostgresDB) AddToolInvocation(messageID, toolName string, parameters, result []byte, executionTime int) (*db.ToolInvocation, error) {
	invID := uuid.New().String()
	var inv db.ToolInvocation

	var paramsArg, resultArg interface{}
	if len(parameters) > 0 {
		paramsArg = parameters
	}
	if len(result) > 0 {
		resultArg = result
	}

	query := `
	INSERT INTO tool_invocations (id, message_id, tool_name, parameters, result, execution_time)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at
	`

	err := p.conn.QueryRow(query, invID, messageID, toolName, paramsArg, resultArg, executionTime).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error adding tool invocation: %w", err)
	}

	inv.MessageID = messageID
	inv.ToolName = toolName
	inv.Parameters = parameters
	inv.Result = result
	inv.ExecutionTime = executionTime

	logger.Log.WithFields(logrus.Fields{
		"message_id":  messageID,
		"tool_name":   toolName,
		"duration_ms": executionTime,
	}).Debug("Recorded tool invocation")

	return &inv, nil
}

// GetToolInvocationsByMessage retrieves all tool invocations for a message
func (p *PostgresDB) GetToolInvocationsByMessage(messageID string) ([]db.ToolInvocation, error) {
	query := `
	SELECT id, message_id, tool_name, COALESCE(parameters, 'null'), COALESCE(result, 'null'), execution_time, created_at
	FROM tool_invocations
	WHERE message_id = $1
	ORDER BY created_at ASC
	`

	rows, err := p.conn.Query(query, messageID)
	if err != nil {
		return nil, fmt.Errorf("error querying tool invocations: %w", err)
	}
	defer rows.Close()

	var invocations []db.ToolInvocation
	for rows.Next() {
		var inv db.ToolInvocation
		var params, result []byte
		if err := rows.Scan(&inv.ID, &inv.MessageID, &inv.ToolName, &params, &result, &inv.ExecutionTime, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning tool invocation: %w", err)
		}
		inv.Parameters = params
		inv.Result = result
		invocations = append(invocations, inv)
	}

	return invocations, rows.Err()
}
