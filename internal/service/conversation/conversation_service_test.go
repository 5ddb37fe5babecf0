package conversation

import (
	"errors"
	"testing"

	"stem-chat/internal/repository/db"
	"stem-chat/internal/testutil"
)

func ownedConversation(userID string) func(id string) (*db.Conversation, error) {
	return func(id string) (*db.Conversation, error) {
		return &db.Conversation{ID: id, UserID: userID, Title: "Test"}, nil
	}
}

func TestListReturnsConversations(t *testing.T) {
	mock := &testutil.MockDatabase{
		GetConversationsByUserFunc: func(userID string) ([]db.Conversation, error) {
			return []db.Conversation{{ID: "conv-1", UserID: userID}, {ID: "conv-2", UserID: userID}}, nil
		},
	}

	s := NewService(mock)
	got, err := s.List("user-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 conversations, got %d", len(got))
	}
}

func TestMessagesChecksOwnership(t *testing.T) {
	mock := &testutil.MockDatabase{
		GetConversationFunc: ownedConversation("someone-else"),
	}

	s := NewService(mock)
	_, err := s.Messages("user-1", "conv-1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestMessagesNotFound(t *testing.T) {
	mock := &testutil.MockDatabase{
		GetConversationFunc: func(id string) (*db.Conversation, error) {
			return nil, db.ErrNotFound
		},
	}

	s := NewService(mock)
	_, err := s.Messages("user-1", "conv-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteOwnConversation(t *testing.T) {
	deleted := ""
	mock := &testutil.MockDatabase{
		GetConversationFunc: ownedConversation("user-1"),
		DeleteConversationFunc: func(id string) error {
			deleted = id
			return nil
		},
	}

	s := NewService(mock)
	if err := s.Delete("user-1", "conv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != "conv-1" {
		t.Errorf("expected conv-1 deleted, got %q", deleted)
	}
}

func TestDeleteForeignConversationRefused(t *testing.T) {
	mock := &testutil.MockDatabase{
		GetConversationFunc: ownedConversation("someone-else"),
		DeleteConversationFunc: func(id string) error {
			t.Error("delete must not be reached for foreign conversations")
			return nil
		},
	}

	s := NewService(mock)
	if err := s.Delete("user-1", "conv-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestArchive(t *testing.T) {
	archived := ""
	mock := &testutil.MockDatabase{
		GetConversationFunc: ownedConversation("user-1"),
		ArchiveConversationFunc: func(id string) error {
			archived = id
			return nil
		},
	}

	s := NewService(mock)
	if err := s.Archive("user-1", "conv-1"); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archived != "conv-1" {
		t.Errorf("expected conv-1 archived, got %q", archived)
	}
}
