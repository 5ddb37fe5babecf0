package llm

import (
	"fmt"

	"stem-chat/internal/config"
	"stem-chat/internal/logger"
)

// ResolvedModel is the outcome of resolving a logical model alias:
// a provider client, the model id to send on the wire, and the
// assembled system prompt.
type ResolvedModel struct {
	Alias  string
	WireID string
	Client ModelClient
	System string
}

// Gateway maps logical model aliases to provider clients and system
// prompts. Built once at startup; safe for concurrent use, no state.
type Gateway struct {
	catalog    *config.ModelsConfig
	clients    map[string]ModelClient
	basePrompt string
}

// NewGateway constructs a gateway with one client per configured provider
func NewGateway(cfg config.LLMConfig, catalog *config.ModelsConfig) *Gateway {
	clients := make(map[string]ModelClient, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		clients[name] = NewClient(name, pc.BaseURL, pc.APIKey, cfg.StreamBufferBytes)
	}
	return &Gateway{
		catalog:    catalog,
		clients:    clients,
		basePrompt: cfg.BaseSystemPrompt,
	}
}

// NewGatewayWithClients constructs a gateway from pre-built clients.
func NewGatewayWithClients(catalog *config.ModelsConfig, clients map[string]ModelClient, basePrompt string) *Gateway {
	return &Gateway{
		catalog:    catalog,
		clients:    clients,
		basePrompt: basePrompt,
	}
}

// Resolve maps an alias to a concrete model. Unknown aliases fall back to
// the default catalog model rather than failing the request; an error is
// returned only when no usable provider is configured at all.
func (g *Gateway) Resolve(alias string) (*ResolvedModel, error) {
	model, ok := g.catalog.Lookup(alias)
	if !ok {
		if alias != "" {
			logger.Log.WithField("model", alias).Warn("Unknown model alias, falling back to default")
		}
		model = g.catalog.GetDefaultModel()
	}

	client, ok := g.clients[model.Provider]
	if !ok {
		// Provider without credentials: try any catalog model whose provider is configured
		fallback, found := g.firstUsableModel()
		if !found {
			return nil, fmt.Errorf("no configured provider can serve model %q", model.ID)
		}
		logger.Log.WithFields(map[string]interface{}{
			"requested": model.ID,
			"fallback":  fallback.ID,
		}).Warn("Provider not configured, falling back")
		model = fallback
		client = g.clients[model.Provider]
	}

	return &ResolvedModel{
		Alias:  model.ID,
		WireID: wireID(model),
		Client: client,
		System: g.systemPrompt(model),
	}, nil
}

func (g *Gateway) firstUsableModel() (config.Model, bool) {
	for _, m := range g.catalog.GetAvailableModels() {
		if _, ok := g.clients[m.Provider]; ok {
			return m, true
		}
	}
	return config.Model{}, false
}

// systemPrompt assembles the base persona plus the model-specific addendum
func (g *Gateway) systemPrompt(model config.Model) string {
	if model.SystemAddendum == "" {
		return g.basePrompt
	}
	return g.basePrompt + "\n\n" + model.SystemAddendum
}

func wireID(model config.Model) string {
	if model.WireID != "" {
		return model.WireID
	}
	return model.ID
}
