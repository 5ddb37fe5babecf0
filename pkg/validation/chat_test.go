package validation

import (
	"testing"
)

func TestChatRequestValidator_ValidateMessages(t *testing.T) {
	validator := NewChatRequestValidator()

	tests := []struct {
		name     string
		messages []ChatMessage
		wantErr  bool
	}{
		{
			name:     "valid single user message",
			messages: []ChatMessage{{Role: "user", Content: "Hello"}},
			wantErr:  false,
		},
		{
			name: "valid multi-turn history",
			messages: []ChatMessage{
				{Role: "user", Content: "Plot sine"},
				{Role: "assistant", Content: "Here it is"},
				{Role: "user", Content: "Now cosine"},
			},
			wantErr: false,
		},
		{
			name:     "empty list",
			messages: nil,
			wantErr:  true,
		},
		{
			name:     "invalid role",
			messages: []ChatMessage{{Role: "tool", Content: "x"}},
			wantErr:  true,
		},
		{
			name:     "empty user content",
			messages: []ChatMessage{{Role: "user", Content: ""}},
			wantErr:  true,
		},
		{
			name: "assistant content may be empty",
			messages: []ChatMessage{
				{Role: "user", Content: "Hi"},
				{Role: "assistant", Content: ""},
				{Role: "user", Content: "Still there?"},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateMessages(tt.messages)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessages() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChatRequestValidator_ValidateTemperature(t *testing.T) {
	validator := NewChatRequestValidator()
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name        string
		temperature *float64
		wantErr     bool
	}{
		{"nil is optional", nil, false},
		{"zero", f(0), false},
		{"one", f(1.0), false},
		{"max", f(2.0), false},
		{"negative", f(-0.1), true},
		{"too high", f(2.5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateTemperature(tt.temperature)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTemperature() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChatRequestValidator_ValidateChatRequest(t *testing.T) {
	validator := NewChatRequestValidator()

	if err := validator.ValidateChatRequest([]ChatMessage{{Role: "user", Content: "Hi"}}, "gpt-4o", nil); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}

	if err := validator.ValidateChatRequest(nil, "gpt-4o", nil); err == nil {
		t.Error("expected error for empty messages")
	}
}
