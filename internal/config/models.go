package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Model represents an available LLM model
type Model struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Provider       string `json:"provider"`
	WireID         string `json:"wire_id,omitempty"`
	SystemAddendum string `json:"system_addendum,omitempty"`
}

// ModelsConfig holds the available models configuration
type ModelsConfig struct {
	models []Model
}

// NewModelsConfig creates a new models configuration from a file
func NewModelsConfig(configPath string) (*ModelsConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var models []Model
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("models config %s contains no models", configPath)
	}

	return &ModelsConfig{models: models}, nil
}

// NewModelsConfigFromList builds a config directly from a model list (tests, embedded defaults)
func NewModelsConfigFromList(models []Model) *ModelsConfig {
	return &ModelsConfig{models: models}
}

// GetAvailableModels returns the list of available models
func (mc *ModelsConfig) GetAvailableModels() []Model {
	return mc.models
}

// Lookup returns the model with the given ID, if present
func (mc *ModelsConfig) Lookup(modelID string) (Model, bool) {
	for _, model := range mc.models {
		if model.ID == modelID {
			return model, true
		}
	}
	return Model{}, false
}

// IsValidModel checks if a model ID is in the list of available models
func (mc *ModelsConfig) IsValidModel(modelID string) bool {
	_, ok := mc.Lookup(modelID)
	return ok
}

// GetDefaultModel returns the first model as the default
func (mc *ModelsConfig) GetDefaultModel() Model {
	if len(mc.models) > 0 {
		return mc.models[0]
	}
	// Fallback in case no models are configured (shouldn't happen)
	return Model{ID: "gpt-4o", Name: "GPT-4o", Provider: "openai"}
}
