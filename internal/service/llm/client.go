package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"stem-chat/internal/logger"
)

// Client talks to one OpenAI-compatible chat-completions endpoint.
// OpenRouter, OpenAI and xAI all speak this wire format, so one client
// covers every configured vendor.
type Client struct {
	provider   string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	bufBytes   int
}

// NewClient creates a client for one provider endpoint
func NewClient(provider, baseURL, apiKey string, bufBytes int) *Client {
	if bufBytes <= 0 {
		bufBytes = 1024 * 1024
	}
	return &Client{
		provider:   provider,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
		bufBytes:   bufBytes,
	}
}

// Wire types for the chat-completions request/response

type wireToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

type wireTool struct {
	Type     string           `json:"type"`
	Function wireToolFunction `json:"function"`
}

type wireRequest struct {
	Model       string     `json:"model"`
	Messages    []Message  `json:"messages"`
	Stream      bool       `json:"stream"`
	Tools       []wireTool `json:"tools,omitempty"`
	Temperature *float64   `json:"temperature,omitempty"`
}

type wireToolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function"`
}

type wireChunk struct {
	ID      string `json:"id"`
	Choices []struct {
		Delta struct {
			Content   string              `json:"content"`
			ToolCalls []wireToolCallDelta `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// pendingCall accumulates tool-call argument fragments until the call is complete
type pendingCall struct {
	id   string
	name string
	args strings.Builder
}

func (p *pendingCall) toEvent() StreamEvent {
	args := p.args.String()
	if args == "" {
		args = "{}"
	}
	return StreamEvent{ToolCall: &ToolCall{
		ID:        p.id,
		Name:      p.name,
		Arguments: json.RawMessage(args),
	}}
}

// StreamChat invokes the chat-completions endpoint with streaming enabled
// and returns a channel of text deltas and completed tool calls. Text
// deltas preserve emission order; a tool call is emitted once its argument
// stream is complete.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error) {
	if c.apiKey == "" {
		return nil, &ProviderError{Provider: c.provider, Err: fmt.Errorf("API key not configured")}
	}

	messages := req.Messages
	if req.System != "" {
		messages = append([]Message{{Role: "system", Content: req.System}}, messages...)
	}

	body := wireRequest{
		Model:       req.Model,
		Messages:    messages,
		Stream:      true,
		Temperature: req.Temperature,
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, wireTool{
			Type: "function",
			Function: wireToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	logger.Log.WithFields(logrus.Fields{
		"provider":      c.provider,
		"model":         req.Model,
		"message_count": len(messages),
		"tool_count":    len(req.Tools),
	}).Info("Calling chat completions API (streaming)")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: c.provider, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &ProviderError{
			Provider: c.provider,
			Err:      fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	events := make(chan StreamEvent)

	go func() {
		defer resp.Body.Close()
		defer close(events)

		// Tool-call fragments arrive keyed by index; a call is complete when
		// a later index starts or the stream finishes.
		pending := map[int]*pendingCall{}
		lastIndex := -1

		flush := func(index int) {
			if call, ok := pending[index]; ok {
				events <- call.toEvent()
				delete(pending, index)
			}
		}
		flushAll := func() {
			for i := 0; i <= lastIndex; i++ {
				flush(i)
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), c.bufBytes)

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" || line == "data: [DONE]" {
				continue
			}
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			var chunk wireChunk
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk); err != nil {
				logger.Log.WithError(err).Warn("Error parsing stream chunk")
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			choice := chunk.Choices[0]
			if choice.Delta.Content != "" {
				events <- StreamEvent{Delta: choice.Delta.Content}
			}

			for _, tc := range choice.Delta.ToolCalls {
				if tc.Index > lastIndex {
					// Previous call is complete once a new index starts
					flush(lastIndex)
					lastIndex = tc.Index
				}
				call, ok := pending[tc.Index]
				if !ok {
					call = &pendingCall{}
					pending[tc.Index] = call
				}
				if tc.ID != "" {
					call.id = tc.ID
				}
				if tc.Function.Name != "" {
					call.name = tc.Function.Name
				}
				call.args.WriteString(tc.Function.Arguments)
			}

			if choice.FinishReason != "" {
				flushAll()
			}
		}

		flushAll()

		if err := scanner.Err(); err != nil {
			logger.Log.WithError(err).WithField("provider", c.provider).Error("Scanner error during streaming")
			events <- StreamEvent{Err: &ProviderError{Provider: c.provider, Err: err}}
		}
	}()

	return events, nil
}
