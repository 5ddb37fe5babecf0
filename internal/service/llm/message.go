package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message is one chat turn in provider wire format
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolSpec describes a callable tool advertised to the model
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolCall is one completed tool invocation requested by the model,
// with fully accumulated arguments.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// StreamEvent is one unit of a model response stream. Exactly one of
// Delta, ToolCall or Err is set.
type StreamEvent struct {
	Delta    string
	ToolCall *ToolCall
	Err      error
}

// ChatRequest carries everything needed for one model invocation
type ChatRequest struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []ToolSpec
	Temperature *float64
}

// ModelClient streams chat completions from one provider. The returned
// channel is closed when the model signals completion or fails; a failure
// is delivered as a final event with Err set.
type ModelClient interface {
	StreamChat(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error)
}

// ProviderError wraps a failure of the language-model call itself
// (connection error, non-200 status, timeout). It is terminal for the
// request that triggered it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
