package validation

import (
	"errors"
	"fmt"
)

// ChatMessage is the minimal shape of an incoming chat message that
// validation needs.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatRequestValidator validates chat-related requests
type ChatRequestValidator struct{}

// NewChatRequestValidator creates a new ChatRequestValidator
func NewChatRequestValidator() *ChatRequestValidator {
	return &ChatRequestValidator{}
}

var validRoles = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
}

// ValidateMessages validates the message list of a chat request.
func (v *ChatRequestValidator) ValidateMessages(messages []ChatMessage) error {
	if len(messages) == 0 {
		return errors.New("messages cannot be empty")
	}

	for i, m := range messages {
		if !validRoles[m.Role] {
			return fmt.Errorf("message %d has invalid role %q", i, m.Role)
		}
		if m.Role == "user" && m.Content == "" {
			return fmt.Errorf("message %d: user message content cannot be empty", i)
		}
	}

	return nil
}

// ValidateModel validates an optional model alias. Resolution of the
// alias happens elsewhere; this only rejects obviously broken input.
func (v *ChatRequestValidator) ValidateModel(model string) error {
	if len(model) > 100 {
		return fmt.Errorf("model must be at most 100 characters long, got %d", len(model))
	}
	return nil
}

// ValidateTemperature validates the temperature parameter
func (v *ChatRequestValidator) ValidateTemperature(temperature *float64) error {
	if temperature == nil {
		return nil // Temperature is optional
	}

	if *temperature < 0 || *temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %.2f", *temperature)
	}
	return nil
}

// ValidateChatRequest validates the complete chat request
func (v *ChatRequestValidator) ValidateChatRequest(messages []ChatMessage, model string, temperature *float64) error {
	if err := v.ValidateMessages(messages); err != nil {
		return err
	}

	if err := v.ValidateModel(model); err != nil {
		return err
	}

	if err := v.ValidateTemperature(temperature); err != nil {
		return err
	}

	return nil
}
