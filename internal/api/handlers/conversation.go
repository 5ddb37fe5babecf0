package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"stem-chat/internal/auth"
	"stem-chat/internal/logger"
	"stem-chat/internal/repository/db"
	conversationService "stem-chat/internal/service/conversation"
)

type ConversationInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Model      string `json:"model,omitempty"`
	IsArchived bool   `json:"isArchived"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

type ConversationsResponse struct {
	Conversations []ConversationInfo `json:"conversations"`
}

type MessageData struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Parts     json.RawMessage `json:"parts,omitempty"`
	CreatedAt string          `json:"createdAt"`
}

type MessagesResponse struct {
	Messages []MessageData `json:"messages"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GetConversationsHandler returns all conversations for the authenticated user
func (ch *ChatHandlers) GetConversationsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := ch.requireUser(w, r)
	if !ok {
		return
	}

	conversations, err := ch.conversationService.List(user.ID)
	if err != nil {
		logger.Log.WithError(err).Error("Error from conversation service")
		ch.sendError(w, http.StatusInternalServerError, "error retrieving conversations")
		return
	}

	convInfos := make([]ConversationInfo, 0, len(conversations))
	for _, conv := range conversations {
		convInfos = append(convInfos, ConversationInfo{
			ID:         conv.ID,
			Title:      conv.Title,
			Model:      conv.Model,
			IsArchived: conv.IsArchived,
			CreatedAt:  conv.CreatedAt.String(),
			UpdatedAt:  conv.UpdatedAt.String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ConversationsResponse{Conversations: convInfos})
}

// GetConversationMessagesHandler returns all messages from a specific conversation
func (ch *ChatHandlers) GetConversationMessagesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := ch.requireUser(w, r)
	if !ok {
		return
	}

	convID := r.PathValue("id")
	logger.Log.WithFields(logrus.Fields{"user_id": user.ID, "conversation_id": convID}).Debug("Get conversation messages request")

	messages, err := ch.conversationService.Messages(user.ID, convID)
	if err != nil {
		ch.sendConversationError(w, err, "error retrieving messages")
		return
	}

	msgData := make([]MessageData, 0, len(messages))
	for _, msg := range messages {
		msgData = append(msgData, MessageData{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			Parts:     msg.Parts,
			CreatedAt: msg.CreatedAt.String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MessagesResponse{Messages: msgData})
}

// DeleteConversationHandler deletes a specific conversation
func (ch *ChatHandlers) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := ch.requireUser(w, r)
	if !ok {
		return
	}

	convID := r.PathValue("id")
	if err := ch.conversationService.Delete(user.ID, convID); err != nil {
		ch.sendConversationError(w, err, "error deleting conversation")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DeleteResponse{
		Success: true,
		Message: "Conversation deleted successfully",
	})
}

// ArchiveConversationHandler hides a conversation from listings
func (ch *ChatHandlers) ArchiveConversationHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := ch.requireUser(w, r)
	if !ok {
		return
	}

	convID := r.PathValue("id")
	if err := ch.conversationService.Archive(user.ID, convID); err != nil {
		ch.sendConversationError(w, err, "error archiving conversation")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DeleteResponse{
		Success: true,
		Message: "Conversation archived successfully",
	})
}

// requireUser resolves the authenticated user or writes an error
// response.
func (ch *ChatHandlers) requireUser(w http.ResponseWriter, r *http.Request) (*db.User, bool) {
	username := auth.UsernameFromContext(r.Context())
	if username == "" {
		ch.sendError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}

	user, err := ch.config.DB.GetUserByUsername(username)
	if err != nil {
		logger.Log.WithError(err).WithField("username", username).Error("Error getting user")
		ch.sendError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}

func (ch *ChatHandlers) sendConversationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, conversationService.ErrForbidden):
		ch.sendError(w, http.StatusForbidden, "unauthorized")
	case errors.Is(err, conversationService.ErrNotFound):
		ch.sendError(w, http.StatusNotFound, "conversation not found")
	default:
		logger.Log.WithError(err).Error("Error from conversation service")
		ch.sendError(w, http.StatusInternalServerError, fallback)
	}
}
