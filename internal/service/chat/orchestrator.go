package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stem-chat/internal/logger"
	"stem-chat/internal/repository/db"
	"stem-chat/internal/service/llm"
	"stem-chat/internal/tools"
)

// PartType identifies a kind of stream part sent to the client.
type PartType string

const (
	PartTextDelta   PartType = "text-delta"
	PartToolPending PartType = "tool-pending"
	PartToolResult  PartType = "tool-result"
	PartFinish      PartType = "finish"
	PartError       PartType = "error"
)

// StreamPart is one SSE payload in a chat response stream.
type StreamPart struct {
	Type            PartType    `json:"type"`
	Content         string      `json:"content,omitempty"`
	ToolCallID      string      `json:"toolCallId,omitempty"`
	ToolName        string      `json:"toolName,omitempty"`
	Result          interface{} `json:"result,omitempty"`
	VisualizationID string      `json:"visualizationId,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// Request is a chat turn submitted by the client. UserID is empty for
// anonymous requests, which still stream but are not persisted.
type Request struct {
	UserID         string
	ConversationID string
	Model          string
	Messages       []llm.Message
}

// Response exposes the conversation id up front so the handler can set
// headers before the first part is written.
type Response struct {
	ConversationID string
	Parts          <-chan StreamPart
}

// InvalidRequestError reports a request the orchestrator refused
// before streaming started.
type InvalidRequestError struct {
	Detail string
}

func (e *InvalidRequestError) Error() string {
	return e.Detail
}

const maxTitleLength = 80

// Orchestrator drives one chat turn: resolve the model, stream its
// output, dispatch tool calls as they complete, and persist the
// resulting assistant message once the stream ends.
type Orchestrator struct {
	db       db.Database
	gateway  *llm.Gateway
	registry *tools.Registry
	timeout  time.Duration
}

func NewOrchestrator(database db.Database, gateway *llm.Gateway, registry *tools.Registry, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		db:       database,
		gateway:  gateway,
		registry: registry,
		timeout:  timeout,
	}
}

// Stream validates the request, resolves the model and sets up
// persistence synchronously, then streams the model turn in the
// background. Any error it returns means nothing was streamed yet.
func (o *Orchestrator) Stream(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, &InvalidRequestError{Detail: "messages must not be empty"}
	}

	resolved, err := o.gateway.Resolve(req.Model)
	if err != nil {
		return nil, fmt.Errorf("resolve model: %w", err)
	}

	persist := req.UserID != ""
	conversationID := req.ConversationID

	if persist {
		conversationID, err = o.prepareConversation(req)
		if err != nil {
			return nil, err
		}
	} else if conversationID == "" {
		// Anonymous turns still get a stable id for the client to
		// thread follow-up requests with; nothing is stored under it.
		conversationID = uuid.New().String()
	}

	parts := make(chan StreamPart, 16)
	go o.run(ctx, resolved, req, conversationID, persist, parts)

	return &Response{ConversationID: conversationID, Parts: parts}, nil
}

// prepareConversation loads or creates the conversation row and stores
// the incoming user message.
func (o *Orchestrator) prepareConversation(req Request) (string, error) {
	conversationID := req.ConversationID

	if conversationID != "" {
		conv, err := o.db.GetConversation(conversationID)
		switch {
		case errors.Is(err, db.ErrNotFound):
			conversationID = ""
		case err != nil:
			return "", fmt.Errorf("load conversation: %w", err)
		case conv.UserID != req.UserID:
			return "", &InvalidRequestError{Detail: "conversation does not belong to this user"}
		}
	}

	if conversationID == "" {
		conv, err := o.db.CreateConversation(req.UserID, conversationTitle(req.Messages), req.Model)
		if err != nil {
			return "", fmt.Errorf("create conversation: %w", err)
		}
		conversationID = conv.ID
	}

	last := req.Messages[len(req.Messages)-1]
	if last.Role == "user" {
		if _, err := o.db.AddMessage(conversationID, last.Role, last.Content, nil); err != nil {
			return "", fmt.Errorf("store user message: %w", err)
		}
	}

	return conversationID, nil
}

// conversationTitle derives a title from the first user message.
func conversationTitle(messages []llm.Message) string {
	for _, m := range messages {
		if m.Role != "user" {
			continue
		}
		title := strings.TrimSpace(m.Content)
		if title == "" {
			break
		}
		runes := []rune(title)
		if len(runes) > maxTitleLength {
			return string(runes[:maxTitleLength]) + "..."
		}
		return title
	}
	return "New conversation"
}

type invocationRecord struct {
	call          llm.ToolCall
	result        json.RawMessage
	executionTime int
}

func (o *Orchestrator) run(ctx context.Context, resolved *llm.ResolvedModel, req Request, conversationID string, persist bool, parts chan<- StreamPart) {
	defer close(parts)

	streamCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	events, err := resolved.Client.StreamChat(streamCtx, llm.ChatRequest{
		Model:    resolved.WireID,
		System:   resolved.System,
		Messages: req.Messages,
		Tools:    o.registry.Specs(),
	})
	if err != nil {
		logger.Log.WithError(err).WithField("model", resolved.Alias).Error("Failed to start model stream")
		parts <- StreamPart{Type: PartError, Error: "The model provider is unavailable right now."}
		return
	}

	var (
		text        strings.Builder
		wg          sync.WaitGroup
		mu          sync.Mutex
		invocations []invocationRecord
	)

	// Tool executions keep running even if the client disconnects, so
	// committed side effects and their invocation rows stay consistent.
	toolCtx := context.WithoutCancel(ctx)

	for ev := range events {
		switch {
		case ev.Err != nil:
			logger.Log.WithError(ev.Err).WithField("model", resolved.Alias).Error("Model stream failed")
			parts <- StreamPart{Type: PartError, Error: "The model stream was interrupted."}

		case ev.ToolCall != nil:
			call := *ev.ToolCall
			parts <- StreamPart{Type: PartToolPending, ToolCallID: call.ID, ToolName: call.Name}

			wg.Add(1)
			go func() {
				defer wg.Done()
				o.runTool(toolCtx, req, conversationID, call, &mu, &invocations, parts)
			}()

		case ev.Delta != "":
			text.WriteString(ev.Delta)
			parts <- StreamPart{Type: PartTextDelta, Content: ev.Delta}
		}
	}

	wg.Wait()

	if persist {
		o.finalize(conversationID, text.String(), invocations)
	}

	parts <- StreamPart{Type: PartFinish}
}

// runTool dispatches one tool call. The result part is only sent after
// the tool has finished, which for persisting tools means after the
// database write committed. A failing tool produces an error result
// part and leaves the rest of the turn untouched.
func (o *Orchestrator) runTool(ctx context.Context, req Request, conversationID string, call llm.ToolCall, mu *sync.Mutex, invocations *[]invocationRecord, parts chan<- StreamPart) {
	started := time.Now()
	res, err := o.registry.Dispatch(ctx, tools.ExecContext{
		UserID:         req.UserID,
		ConversationID: conversationID,
		DB:             o.db,
	}, call)
	elapsed := int(time.Since(started).Milliseconds())

	if err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"tool":    call.Name,
			"call_id": call.ID,
		}).Warn("Tool call failed")

		message := toolErrorMessage(err)
		record, _ := json.Marshal(map[string]string{"error": message})
		mu.Lock()
		*invocations = append(*invocations, invocationRecord{call: call, result: record, executionTime: elapsed})
		mu.Unlock()

		parts <- StreamPart{Type: PartToolResult, ToolCallID: call.ID, ToolName: call.Name, Error: message}
		return
	}

	payload, err := json.Marshal(res.Payload)
	if err != nil {
		logger.Log.WithError(err).WithField("tool", call.Name).Error("Failed to encode tool result")
		payload = []byte(`{"error": "internal error"}`)
	}

	mu.Lock()
	*invocations = append(*invocations, invocationRecord{call: call, result: payload, executionTime: elapsed})
	mu.Unlock()

	parts <- StreamPart{
		Type:            PartToolResult,
		ToolCallID:      call.ID,
		ToolName:        call.Name,
		Result:          res.Payload,
		VisualizationID: res.VisualizationID,
	}
}

// toolErrorMessage maps internal tool errors to messages safe to show
// the client.
func toolErrorMessage(err error) string {
	var verr *tools.ValidationError
	switch {
	case errors.Is(err, tools.ErrUnauthenticated):
		return "Sign in to save visualizations."
	case errors.As(err, &verr):
		return verr.Error()
	default:
		return "Tool execution failed."
	}
}

// finalize stores the assistant message and its tool invocation rows.
// The stream already delivered everything to the client, so failures
// here are logged and swallowed rather than surfaced.
func (o *Orchestrator) finalize(conversationID, text string, invocations []invocationRecord) {
	var partsJSON []byte
	if len(invocations) > 0 {
		summaries := make([]map[string]interface{}, 0, len(invocations))
		for _, inv := range invocations {
			summaries = append(summaries, map[string]interface{}{
				"toolCallId": inv.call.ID,
				"toolName":   inv.call.Name,
				"result":     inv.result,
			})
		}
		var err error
		partsJSON, err = json.Marshal(summaries)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to encode message parts")
			partsJSON = nil
		}
	}

	msg, err := o.db.AddMessage(conversationID, "assistant", text, partsJSON)
	if err != nil {
		logger.Log.WithError(err).WithField("conversation_id", conversationID).Error("Failed to store assistant message")
		return
	}

	for _, inv := range invocations {
		params := []byte(inv.call.Arguments)
		if len(params) == 0 {
			params = []byte("{}")
		}
		if _, err := o.db.AddToolInvocation(msg.ID, inv.call.Name, params, inv.result, inv.executionTime); err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"message_id": msg.ID,
				"tool":       inv.call.Name,
			}).Error("Failed to store tool invocation")
		}
	}
}
