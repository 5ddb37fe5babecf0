package app

import (
	"stem-chat/internal/config"
	"stem-chat/internal/repository/db"
	"stem-chat/internal/service/llm"
	"stem-chat/internal/tools"
)

// Config holds all application dependencies and configuration
type Config struct {
	// Database interface for data persistence
	DB db.Database
	// Centralized application configuration
	AppConfig *config.AppConfig
	// Gateway resolves model aliases to provider clients
	Gateway *llm.Gateway
	// Registry holds the tools exposed to the model
	Registry *tools.Registry
}

// NewConfig creates a new application configuration
func NewConfig(database db.Database, appConfig *config.AppConfig, gateway *llm.Gateway, registry *tools.Registry) *Config {
	return &Config{
		DB:        database,
		AppConfig: appConfig,
		Gateway:   gateway,
		Registry:  registry,
	}
}

func (c *Config) ModelsConfig() *config.ModelsConfig {
	return c.AppConfig.Models
}
