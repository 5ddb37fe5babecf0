package conversation

import (
	"errors"
	"fmt"

	"stem-chat/internal/repository/db"
)

// ErrForbidden is returned when a user touches a conversation they do
// not own.
var ErrForbidden = errors.New("conversation does not belong to this user")

// ErrNotFound mirrors db.ErrNotFound for callers of this package.
var ErrNotFound = db.ErrNotFound

// Service covers conversation listing and lifecycle outside of the
// streaming path.
type Service struct {
	db db.Database
}

func NewService(database db.Database) *Service {
	return &Service{db: database}
}

// List returns the user's conversations, most recently updated first.
// Archived conversations are excluded.
func (s *Service) List(userID string) ([]db.Conversation, error) {
	conversations, err := s.db.GetConversationsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// Messages returns a conversation's messages, with their tool parts,
// in chronological order.
func (s *Service) Messages(userID, conversationID string) ([]db.Message, error) {
	if err := s.checkOwnership(userID, conversationID); err != nil {
		return nil, err
	}
	messages, err := s.db.GetConversationMessagesWithDetails(conversationID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return messages, nil
}

// Delete removes a conversation and everything under it.
func (s *Service) Delete(userID, conversationID string) error {
	if err := s.checkOwnership(userID, conversationID); err != nil {
		return err
	}
	if err := s.db.DeleteConversation(conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// Archive hides a conversation from listings without deleting its
// history.
func (s *Service) Archive(userID, conversationID string) error {
	if err := s.checkOwnership(userID, conversationID); err != nil {
		return err
	}
	if err := s.db.ArchiveConversation(conversationID); err != nil {
		return fmt.Errorf("archive conversation: %w", err)
	}
	return nil
}

func (s *Service) checkOwnership(userID, conversationID string) error {
	conv, err := s.db.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load conversation: %w", err)
	}
	if conv.UserID != userID {
		return ErrForbidden
	}
	return nil
}
