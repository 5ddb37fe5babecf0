package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"stem-chat/internal/logger"
	"stem-chat/internal/repository/db"
	"stem-chat/internal/service/llm"
)

// ExecContext carries the per-request state a tool needs. UserID is
// empty for anonymous requests; tools that persist data must refuse
// to run in that case.
type ExecContext struct {
	UserID         string
	ConversationID string
	DB             db.Database
}

// Result is what a tool hands back to the model and the client.
// Payload is serialized into the tool result part; VisualizationID is
// set by tools that created or updated a visualizations row.
type Result struct {
	Payload         interface{}
	VisualizationID string
}

// ExecuteFunc runs a tool with already-validated arguments.
type ExecuteFunc func(ctx context.Context, ec ExecContext, args json.RawMessage) (*Result, error)

// Tool pairs a JSON schema with an execution function. Arguments are
// validated against the schema before Execute is called.
type Tool struct {
	Name        string
	Description string
	Schema      json.RawMessage
	Persists    bool
	Execute     ExecuteFunc

	compiled *gojsonschema.Schema
}

// Registry holds the tools exposed to the model for a request.
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry compiles every tool's schema up front so that a bad
// schema fails at startup rather than mid-stream.
func NewRegistry(tools ...*Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]*Tool, len(tools))}
	for _, t := range tools {
		if _, exists := r.tools[t.Name]; exists {
			return nil, fmt.Errorf("duplicate tool %q", t.Name)
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(t.Schema))
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", t.Name, err)
		}
		t.compiled = compiled
		r.tools[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r, nil
}

// DefaultRegistry returns the full tool set the chat endpoint exposes.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(
		createPlotlyChartTool(),
		displayPlotlyChartTool(),
		showMoleculeStructureTool(),
		displayMolecule3DTool(),
		plotFunction2DTool(),
		plotFunction3DTool(),
		displayPhysicsSimulationTool(),
		performOCRTool(),
		getWeatherTool(),
	)
}

// Specs returns the tool declarations sent to the model, in
// registration order.
func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Schema,
		})
	}
	return specs
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Dispatch validates the call's arguments and runs the named tool.
// Unknown tool names, schema violations and missing authentication
// are all reported as errors without any side effects.
func (r *Registry) Dispatch(ctx context.Context, ec ExecContext, call llm.ToolCall) (*Result, error) {
	t, ok := r.tools[call.Name]
	if !ok {
		return nil, &ValidationError{Tool: call.Name, Detail: "unknown tool"}
	}

	args := string(call.Arguments)
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}

	validation, err := t.compiled.Validate(gojsonschema.NewStringLoader(args))
	if err != nil {
		return nil, &ValidationError{Tool: call.Name, Detail: err.Error()}
	}
	if !validation.Valid() {
		details := make([]string, 0, len(validation.Errors()))
		for _, desc := range validation.Errors() {
			details = append(details, desc.String())
		}
		return nil, &ValidationError{Tool: call.Name, Detail: strings.Join(details, "; ")}
	}

	if t.Persists && ec.UserID == "" {
		return nil, ErrUnauthenticated
	}

	logger.Log.WithField("tool", call.Name).Debug("Dispatching tool call")
	return t.Execute(ctx, ec, json.RawMessage(args))
}
