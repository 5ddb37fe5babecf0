package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"stem-chat/internal/app"
	"stem-chat/internal/auth"
	"stem-chat/internal/logger"
	"stem-chat/internal/repository/db"
	chatService "stem-chat/internal/service/chat"
	conversationService "stem-chat/internal/service/conversation"
	"stem-chat/internal/service/llm"
	"stem-chat/pkg/validation"
)

// Request/Response types

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages       []ChatMessage `json:"messages"`
	Model          string        `json:"model,omitempty"`
	ModelID        string        `json:"modelId,omitempty"`
	ConversationID string        `json:"conversationId,omitempty"`
	ID             string        `json:"id,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ChatHandlers serves the streaming chat endpoint and everything
// around it
type ChatHandlers struct {
	config              *app.Config
	validator           *validation.ChatRequestValidator
	orchestrator        *chatService.Orchestrator
	conversationService *conversationService.Service
}

// NewChatHandlers creates a new ChatHandlers with service layer
func NewChatHandlers(config *app.Config) *ChatHandlers {
	return &ChatHandlers{
		config:              config,
		validator:           validation.NewChatRequestValidator(),
		orchestrator:        chatService.NewOrchestrator(config.DB, config.Gateway, config.Registry, config.AppConfig.LLM.RequestTimeout),
		conversationService: conversationService.NewService(config.DB),
	}
}

// model returns the requested model alias, accepting both field names
// the client may send.
func (req *ChatRequest) model() string {
	if req.ModelID != "" {
		return req.ModelID
	}
	return req.Model
}

// conversationID accepts both field names the client may send.
func (req *ChatRequest) conversationID() string {
	if req.ConversationID != "" {
		return req.ConversationID
	}
	return req.ID
}

// ChatStreamHandler is the SSE endpoint for streaming chat responses
func (ch *ChatHandlers) ChatStreamHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ch.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	messages := make([]validation.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, validation.ChatMessage{Role: m.Role, Content: m.Content})
	}
	if err := ch.validator.ValidateChatRequest(messages, req.model(), nil); err != nil {
		ch.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := ch.resolveUserID(r)
	if err != nil {
		logger.Log.WithError(err).Error("Error resolving user")
		ch.sendError(w, http.StatusInternalServerError, "error resolving user")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		ch.sendError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	llmMessages := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		llmMessages = append(llmMessages, llm.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := ch.orchestrator.Stream(r.Context(), chatService.Request{
		UserID:         userID,
		ConversationID: req.conversationID(),
		Model:          req.model(),
		Messages:       llmMessages,
	})
	if err != nil {
		var ierr *chatService.InvalidRequestError
		if errors.As(err, &ierr) {
			ch.sendError(w, http.StatusBadRequest, ierr.Error())
			return
		}
		logger.Log.WithError(err).Error("Failed to start chat stream")
		ch.sendError(w, http.StatusInternalServerError, "error processing message")
		return
	}

	// Headers must go out before the first part is written.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Conversation-Id", resp.ConversationID)

	for part := range resp.Parts {
		payload, err := json.Marshal(part)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to encode stream part")
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// GetModelsHandler returns the list of available models
func (ch *ChatHandlers) GetModelsHandler(w http.ResponseWriter, r *http.Request) {
	models := ch.config.ModelsConfig().GetAvailableModels()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"models": models})
}

// HealthHandler reports process liveness.
func (ch *ChatHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Helper methods

// sendError sends a JSON error response
func (ch *ChatHandlers) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// resolveUserID maps the authenticated username, if any, to a user id.
// Anonymous requests return an empty id.
func (ch *ChatHandlers) resolveUserID(r *http.Request) (string, error) {
	username := auth.UsernameFromContext(r.Context())
	if username == "" {
		return "", nil
	}
	user, err := ch.config.DB.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			// Stale token for a deleted user; treat as anonymous.
			return "", nil
		}
		return "", err
	}
	return user.ID, nil
}
