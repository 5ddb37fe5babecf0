package llm

import (
	"strings"
	"testing"

	"stem-chat/internal/config"
)

func testGateway() *Gateway {
	cfg := config.LLMConfig{
		Providers: map[string]config.ProviderConfig{
			"openai": {BaseURL: "https://api.openai.example/v1", APIKey: "test-key"},
		},
		BaseSystemPrompt: "You are a helpful STEM assistant.",
	}
	catalog := config.NewModelsConfigFromList([]config.Model{
		{ID: "gpt-4o", Name: "GPT-4o", Provider: "openai"},
		{ID: "gpt-4.1.mini", Name: "GPT-4.1 Mini", Provider: "openai", WireID: "gpt-4.1-mini"},
		{ID: "grok-3", Name: "Grok 3", Provider: "xai", SystemAddendum: "You are powered by Grok 3 by xAI."},
	})
	return NewGateway(cfg, catalog)
}

func TestGatewayResolve_KnownModel(t *testing.T) {
	g := testGateway()

	resolved, err := g.Resolve("gpt-4.1.mini")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if resolved.Alias != "gpt-4.1.mini" {
		t.Errorf("Alias = %q, want %q", resolved.Alias, "gpt-4.1.mini")
	}
	if resolved.WireID != "gpt-4.1-mini" {
		t.Errorf("WireID = %q, want %q", resolved.WireID, "gpt-4.1-mini")
	}
	if resolved.Client == nil {
		t.Error("Expected a client for a configured provider")
	}
}

func TestGatewayResolve_UnknownAliasFallsBackToDefault(t *testing.T) {
	g := testGateway()

	resolved, err := g.Resolve("totally-unknown-model")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if resolved.Alias != "gpt-4o" {
		t.Errorf("Alias = %q, want default %q", resolved.Alias, "gpt-4o")
	}
}

func TestGatewayResolve_EmptyAliasUsesDefault(t *testing.T) {
	g := testGateway()

	resolved, err := g.Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.Alias != "gpt-4o" {
		t.Errorf("Alias = %q, want default %q", resolved.Alias, "gpt-4o")
	}
}

func TestGatewayResolve_UnconfiguredProviderFallsBack(t *testing.T) {
	g := testGateway()

	// grok-3 is in the catalog but xai has no credentials
	resolved, err := g.Resolve("grok-3")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.Alias != "gpt-4o" {
		t.Errorf("Alias = %q, want fallback %q", resolved.Alias, "gpt-4o")
	}
}

func TestGatewayResolve_NoProvidersConfigured(t *testing.T) {
	cfg := config.LLMConfig{BaseSystemPrompt: "base"}
	catalog := config.NewModelsConfigFromList([]config.Model{
		{ID: "gpt-4o", Provider: "openai"},
	})
	g := NewGateway(cfg, catalog)

	if _, err := g.Resolve("gpt-4o"); err == nil {
		t.Error("Resolve() error = nil, want error when no provider is configured")
	}
}

func TestGatewaySystemPrompt_IncludesAddendum(t *testing.T) {
	cfg := config.LLMConfig{
		Providers: map[string]config.ProviderConfig{
			"xai": {BaseURL: "https://api.x.example/v1", APIKey: "k"},
		},
		BaseSystemPrompt: "You are a helpful STEM assistant.",
	}
	catalog := config.NewModelsConfigFromList([]config.Model{
		{ID: "grok-3", Provider: "xai", SystemAddendum: "You are powered by Grok 3 by xAI."},
	})
	g := NewGateway(cfg, catalog)

	resolved, err := g.Resolve("grok-3")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if !strings.HasPrefix(resolved.System, "You are a helpful STEM assistant.") {
		t.Errorf("System prompt missing base persona: %q", resolved.System)
	}
	if !strings.Contains(resolved.System, "Grok 3") {
		t.Errorf("System prompt missing model addendum: %q", resolved.System)
	}
}
