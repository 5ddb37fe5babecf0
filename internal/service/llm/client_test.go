package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func jsonDecode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// sseHandler replays the given SSE data lines as a streaming response
func sseHandler(t *testing.T, lines []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header %q", auth)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "data: %s\n\n", line)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func collectEvents(t *testing.T, events <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var out []StreamEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestStreamChat_TextDeltas(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, []string{
		`{"id":"gen-1","choices":[{"delta":{"content":"Hello"}}]}`,
		`{"id":"gen-1","choices":[{"delta":{"content":" world"}}]}`,
		`{"id":"gen-1","choices":[{"delta":{},"finish_reason":"stop"}]}`,
	}))
	defer server.Close()

	client := NewClient("test", server.URL, "test-key", 0)
	events, err := client.StreamChat(context.Background(), ChatRequest{
		Model:    "test-model",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	got := collectEvents(t, events)
	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d: %+v", len(got), got)
	}
	if got[0].Delta != "Hello" || got[1].Delta != " world" {
		t.Errorf("Deltas out of order: %q, %q", got[0].Delta, got[1].Delta)
	}
}

func TestStreamChat_ToolCallAccumulation(t *testing.T) {
	// Arguments arrive as fragments; the call must be emitted once, complete
	server := httptest.NewServer(sseHandler(t, []string{
		`{"choices":[{"delta":{"content":"Let me plot that."}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"createPlotlyChart","arguments":"{\"title\":"}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"sin(x)\"}"}}]}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
	}))
	defer server.Close()

	client := NewClient("test", server.URL, "test-key", 0)
	events, err := client.StreamChat(context.Background(), ChatRequest{
		Model:    "test-model",
		Messages: []Message{{Role: "user", Content: "plot sin(x)"}},
	})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	got := collectEvents(t, events)
	if len(got) != 2 {
		t.Fatalf("Expected 2 events (delta + tool call), got %d: %+v", len(got), got)
	}

	if got[0].Delta != "Let me plot that." {
		t.Errorf("First event delta = %q", got[0].Delta)
	}

	call := got[1].ToolCall
	if call == nil {
		t.Fatal("Second event is not a tool call")
	}
	if call.ID != "call_1" || call.Name != "createPlotlyChart" {
		t.Errorf("Tool call = %+v", call)
	}
	if string(call.Arguments) != `{"title":"sin(x)"}` {
		t.Errorf("Arguments = %s", call.Arguments)
	}
}

func TestStreamChat_MultipleToolCalls(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, []string{
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"plotFunction2D","arguments":"{}"}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":1,"id":"call_2","function":{"name":"performOCR","arguments":"{}"}}]}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
	}))
	defer server.Close()

	client := NewClient("test", server.URL, "test-key", 0)
	events, err := client.StreamChat(context.Background(), ChatRequest{
		Model:    "test-model",
		Messages: []Message{{Role: "user", Content: "do both"}},
	})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	got := collectEvents(t, events)
	if len(got) != 2 {
		t.Fatalf("Expected 2 tool calls, got %d events: %+v", len(got), got)
	}
	if got[0].ToolCall == nil || got[0].ToolCall.Name != "plotFunction2D" {
		t.Errorf("First tool call = %+v", got[0].ToolCall)
	}
	if got[1].ToolCall == nil || got[1].ToolCall.Name != "performOCR" {
		t.Errorf("Second tool call = %+v", got[1].ToolCall)
	}
}

func TestStreamChat_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test", server.URL, "test-key", 0)
	_, err := client.StreamChat(context.Background(), ChatRequest{
		Model:    "test-model",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("StreamChat() error = nil, want provider error")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Errorf("Expected *ProviderError, got %T: %v", err, err)
	}
}

func TestStreamChat_MissingAPIKey(t *testing.T) {
	client := NewClient("test", "https://unused.example", "", 0)
	_, err := client.StreamChat(context.Background(), ChatRequest{Model: "m"})

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Errorf("Expected *ProviderError for missing key, got %T: %v", err, err)
	}
}

func TestStreamChat_SystemPromptPrepended(t *testing.T) {
	var sawSystem bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []Message `json:"messages"`
		}
		if err := jsonDecode(r, &body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Messages) > 0 && body.Messages[0].Role == "system" {
			sawSystem = true
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient("test", server.URL, "test-key", 0)
	events, err := client.StreamChat(context.Background(), ChatRequest{
		Model:    "m",
		System:   "persona",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}
	collectEvents(t, events)

	if !sawSystem {
		t.Error("Expected system message to be prepended to the wire request")
	}
}
