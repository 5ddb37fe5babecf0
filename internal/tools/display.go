package tools

import (
	"context"
	"encoding/json"
)

// The display tools hand a render instruction straight back to the
// client without touching the database, so they work for anonymous
// requests too.

func displayPlotlyChartTool() *Tool {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"figure": {
				"type": "object",
				"description": "A complete Plotly figure with data and layout"
			},
			"title": {
				"type": "string",
				"description": "Short title describing the chart"
			}
		},
		"required": ["figure", "title"],
		"additionalProperties": false
	}`)

	return &Tool{
		Name:        "displayPlotlyChart",
		Description: "Render a Plotly chart inline without saving it. Prefer createPlotlyChart when the chart should be retrievable later.",
		Schema:      schema,
		Execute: func(ctx context.Context, ec ExecContext, args json.RawMessage) (*Result, error) {
			var p struct {
				Figure json.RawMessage `json:"figure"`
				Title  string          `json:"title"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, &ValidationError{Tool: "displayPlotlyChart", Detail: err.Error()}
			}
			return &Result{Payload: map[string]interface{}{
				"type":   "plot",
				"title":  p.Title,
				"figure": p.Figure,
			}}, nil
		},
	}
}

func displayMolecule3DTool() *Tool {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"identifier": {
				"type": "string",
				"description": "Molecule identifier such as a PDB id, CID or SMILES string"
			},
			"identifierType": {
				"type": "string",
				"enum": ["pdb", "cid", "smiles", "name"],
				"description": "What kind of identifier was given"
			},
			"representationStyle": {
				"type": "string",
				"enum": ["stick", "sphere", "cartoon", "line", "cross"],
				"description": "How to draw the molecule"
			},
			"colorScheme": {
				"type": "string",
				"enum": ["element", "chain", "residue", "spectrum"],
				"description": "Coloring applied to the representation"
			},
			"showSurface": {
				"type": "boolean",
				"description": "Whether to overlay a molecular surface"
			},
			"surfaceOpacity": {
				"type": "number",
				"minimum": 0,
				"maximum": 1,
				"description": "Opacity of the surface overlay"
			},
			"title": {
				"type": "string",
				"description": "Short title for the viewer"
			}
		},
		"required": ["identifier", "identifierType", "title"],
		"additionalProperties": false
	}`)

	return &Tool{
		Name:        "displayMolecule3D",
		Description: "Render a 3D molecule viewer for a chemical identifier with configurable representation and coloring.",
		Schema:      schema,
		Execute: func(ctx context.Context, ec ExecContext, args json.RawMessage) (*Result, error) {
			var p struct {
				Identifier          string  `json:"identifier"`
				IdentifierType      string  `json:"identifierType"`
				RepresentationStyle string  `json:"representationStyle"`
				ColorScheme         string  `json:"colorScheme"`
				ShowSurface         bool    `json:"showSurface"`
				SurfaceOpacity      float64 `json:"surfaceOpacity"`
				Title               string  `json:"title"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, &ValidationError{Tool: "displayMolecule3D", Detail: err.Error()}
			}
			if p.RepresentationStyle == "" {
				p.RepresentationStyle = "stick"
			}
			if p.ColorScheme == "" {
				p.ColorScheme = "element"
			}
			return &Result{Payload: map[string]interface{}{
				"type":                "molecule3d",
				"identifier":          p.Identifier,
				"identifierType":      p.IdentifierType,
				"representationStyle": p.RepresentationStyle,
				"colorScheme":         p.ColorScheme,
				"showSurface":         p.ShowSurface,
				"surfaceOpacity":      p.SurfaceOpacity,
				"title":               p.Title,
			}}, nil
		},
	}
}

func plotFunction2DTool() *Tool {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"expression": {
				"type": "string",
				"description": "Mathematical expression in x, e.g. sin(x) * exp(-x/5)"
			},
			"xMin": {"type": "number", "description": "Lower bound of the x range"},
			"xMax": {"type": "number", "description": "Upper bound of the x range"},
			"title": {"type": "string", "description": "Short title for the plot"}
		},
		"required": ["expression", "xMin", "xMax", "title"],
		"additionalProperties": false
	}`)

	return &Tool{
		Name:        "plotFunction2D",
		Description: "Plot a mathematical function of one variable over a given x range.",
		Schema:      schema,
		Execute: func(ctx context.Context, ec ExecContext, args json.RawMessage) (*Result, error) {
			var p struct {
				Expression string  `json:"expression"`
				XMin       float64 `json:"xMin"`
				XMax       float64 `json:"xMax"`
				Title      string  `json:"title"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, &ValidationError{Tool: "plotFunction2D", Detail: err.Error()}
			}
			if p.XMin >= p.XMax {
				return nil, &ValidationError{Tool: "plotFunction2D", Detail: "xMin must be less than xMax"}
			}
			return &Result{Payload: map[string]interface{}{
				"type":       "function2d",
				"expression": p.Expression,
				"xMin":       p.XMin,
				"xMax":       p.XMax,
				"title":      p.Title,
			}}, nil
		},
	}
}

func plotFunction3DTool() *Tool {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"expression": {
				"type": "string",
				"description": "Mathematical expression in x and y, e.g. sin(x) * cos(y)"
			},
			"xMin": {"type": "number"},
			"xMax": {"type": "number"},
			"yMin": {"type": "number"},
			"yMax": {"type": "number"},
			"title": {"type": "string", "description": "Short title for the surface"}
		},
		"required": ["expression", "xMin", "xMax", "yMin", "yMax", "title"],
		"additionalProperties": false
	}`)

	return &Tool{
		Name:        "plotFunction3D",
		Description: "Plot a surface z = f(x, y) over a rectangular domain.",
		Schema:      schema,
		Execute: func(ctx context.Context, ec ExecContext, args json.RawMessage) (*Result, error) {
			var p struct {
				Expression string  `json:"expression"`
				XMin       float64 `json:"xMin"`
				XMax       float64 `json:"xMax"`
				YMin       float64 `json:"yMin"`
				YMax       float64 `json:"yMax"`
				Title      string  `json:"title"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, &ValidationError{Tool: "plotFunction3D", Detail: err.Error()}
			}
			if p.XMin >= p.XMax || p.YMin >= p.YMax {
				return nil, &ValidationError{Tool: "plotFunction3D", Detail: "range bounds must satisfy min < max"}
			}
			return &Result{Payload: map[string]interface{}{
				"type":       "function3d",
				"expression": p.Expression,
				"xMin":       p.XMin,
				"xMax":       p.XMax,
				"yMin":       p.YMin,
				"yMax":       p.YMax,
				"title":      p.Title,
			}}, nil
		},
	}
}

func displayPhysicsSimulationTool() *Tool {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"simulationType": {
				"type": "string",
				"enum": ["pendulum", "projectile", "spring", "orbit", "wave"],
				"description": "Which canned simulation to run"
			},
			"parameters": {
				"type": "object",
				"description": "Simulation specific parameters such as mass, length or initial velocity"
			},
			"title": {"type": "string", "description": "Short title for the simulation"}
		},
		"required": ["simulationType", "title"],
		"additionalProperties": false
	}`)

	return &Tool{
		Name:        "displayPhysicsSimulation",
		Description: "Run an interactive physics simulation such as a pendulum, projectile motion or orbital mechanics.",
		Schema:      schema,
		Execute: func(ctx context.Context, ec ExecContext, args json.RawMessage) (*Result, error) {
			var p struct {
				SimulationType string          `json:"simulationType"`
				Parameters     json.RawMessage `json:"parameters"`
				Title          string          `json:"title"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, &ValidationError{Tool: "displayPhysicsSimulation", Detail: err.Error()}
			}
			payload := map[string]interface{}{
				"type":           "physics",
				"simulationType": p.SimulationType,
				"title":          p.Title,
			}
			if len(p.Parameters) > 0 {
				payload["parameters"] = p.Parameters
			}
			return &Result{Payload: payload}, nil
		},
	}
}
