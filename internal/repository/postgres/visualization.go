package postgres

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stem-chat/internal/logger"
	"stem-chat/internal/repository/db"
)

// CreateVisualization inserts a new visualization row. Repeated inserts with
// identical payloads produce distinct rows; there is no content deduplication.
func (p *PostgresDB) CreateVisualization(userID, conversationID, vizType, title, description string, data []byte) (*db.Visualization, error) {
	vizID := uuid.New().String()
	var viz db.Visualization

	var dataArg interface{}
	if len(data) > 0 {
		dataArg = data
	}

	query := `
	INSERT INTO visualizations (id, user_id, conversation_id, type, title, description, data)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at
	`

	err := p.conn.QueryRow(query, vizID, userID, conversationID, vizType, title, description, dataArg).
		Scan(&viz.ID, &viz.CreatedAt, &viz.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating visualization: %w", err)
	}

	viz.UserID = userID
	viz.ConversationID = conversationID
	viz.Type = vizType
	viz.Title = title
	viz.Description = description
	viz.Data = data

	logger.Log.WithFields(logrus.Fields{
		"visualization_id": viz.ID,
		"user_id":          userID,
		"conversation_id":  conversationID,
		"type":             vizType,
	}).Info("Created visualization")

	return &viz, nil
}

// UpdateVisualization replaces the title and data of an existing row.
// Returns db.ErrNotFound when no row has the given id.
func (p *PostgresDB) UpdateVisualization(id, title string, data []byte) (*db.Visualization, error) {
	var viz db.Visualization
	var description sql.NullString

	var dataArg interface{}
	if len(data) > 0 {
		dataArg = data
	}

	query := `
	UPDATE visualizations
	SET title = $2, data = $3, updated_at = CURRENT_TIMESTAMP
	WHERE id = $1
	RETURNING id, user_id, conversation_id, type, title, description, data, created_at, updated_at
	`

	err := p.conn.QueryRow(query, id, title, dataArg).Scan(
		&viz.ID, &viz.UserID, &viz.ConversationID, &viz.Type, &viz.Title,
		&description, &viz.Data, &viz.CreatedAt, &viz.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error updating visualization: %w", err)
	}
	if description.Valid {
		viz.Description = description.String
	}

	logger.Log.WithFields(logrus.Fields{"visualization_id": id}).Info("Updated visualization")

	return &viz, nil
}

// GetVisualization retrieves a visualization by id
func (p *PostgresDB) GetVisualization(id string) (*db.Visualization, error) {
	var viz db.Visualization
	var description sql.NullString

	query := `
	SELECT id, user_id, conversation_id, type, title, description, data, created_at, updated_at
	FROM visualizations
	WHERE id = $1
	`

	err := p.conn.QueryRow(query, id).Scan(
		&viz.ID, &viz.UserID, &viz.ConversationID, &viz.Type, &viz.Title,
		&description, &viz.Data, &viz.CreatedAt, &viz.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving visualization: %w", err)
	}
	if description.Valid {
		viz.Description = description.String
	}

	return &viz, nil
}
