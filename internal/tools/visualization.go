package tools

import (
	"context"
	"encoding/json"
	"errors"

	"stem-chat/internal/logger"
	"stem-chat/internal/repository/db"
)

// createPlotlyChartTool builds an interactive Plotly chart and stores
// it so it can be fetched later by id. When the model supplies a
// visualizationId the existing row is updated in place instead of a
// new one being inserted.
func createPlotlyChartTool() *Tool {
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
			},
			"description": {
				"type": "string",
				"description": "Optional longer description of what the chart shows"
			},
			"visualizationId": {
				"type": "string",
				"description": "Id of an existing visualization to update instead of creating a new one"
			}
		},
		"required": ["figure", "title"],
		"additionalProperties": false
	}`)

	type params struct {
		Figure          json.RawMessage `json:"figure"`
		Title           string          `json:"title"`
		Description     string          `json:"description"`
		VisualizationID string          `json:"visualizationId"`
	}

	return &Tool{
		Name:        "createPlotlyChart",
		Description: "Create an interactive Plotly chart from a figure object. Use for data visualizations like line charts, bar charts, scatter plots and heatmaps.",
		Schema:      schema,
		Persists:    true,
		Execute: func(ctx context.Context, ec ExecContext, args json.RawMessage) (*Result, error) {
			var p params
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, &ValidationError{Tool: "createPlotlyChart", Detail: err.Error()}
			}

			viz, err := upsertVisualization(ec, "plot", p.Title, p.Description, p.Figure, p.VisualizationID)
			if err != nil {
				return nil, &PersistenceError{Tool: "createPlotlyChart", Err: err}
			}

			return &Result{
				Payload: map[string]interface{}{
					"visualizationId": viz.ID,
					"type":            "plot",
					"title":           viz.Title,
				},
				VisualizationID: viz.ID,
			}, nil
		},
	}
}

// showMoleculeStructureTool renders a protein structure from the RCSB
// Protein Data Bank and stores the reference for later retrieval.
func showMoleculeStructureTool() *Tool {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"pdbId": {
				"type": "string",
				"pattern": "^[0-9][A-Za-z0-9]{3}$",
				"description": "Four character PDB identifier, e.g. 1CRN"
			},
			"title": {
				"type": "string",
				"description": "Short title for the structure"
			},
			"description": {
				"type": "string",
				"description": "Optional description of the molecule"
			},
			"visualizationId": {
				"type": "string",
				"description": "Id of an existing visualization to update instead of creating a new one"
			}
		},
		"required": ["pdbId", "title"],
		"additionalProperties": false
	}`)

	type params struct {
		PdbID           string `json:"pdbId"`
		Title           string `json:"title"`
		Description     string `json:"description"`
		VisualizationID string `json:"visualizationId"`
	}

	return &Tool{
		Name:        "showMoleculeStructure",
		Description: "Display a 3D protein or molecule structure from the Protein Data Bank by its four character PDB id.",
		Schema:      schema,
		Persists:    true,
		Execute: func(ctx context.Context, ec ExecContext, args json.RawMessage) (*Result, error) {
			var p params
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, &ValidationError{Tool: "showMoleculeStructure", Detail: err.Error()}
			}

			data, err := json.Marshal(map[string]string{"pdbId": p.PdbID})
			if err != nil {
				return nil, &ValidationError{Tool: "showMoleculeStructure", Detail: err.Error()}
			}

			viz, err := upsertVisualization(ec, "molecule", p.Title, p.Description, data, p.VisualizationID)
			if err != nil {
				return nil, &PersistenceError{Tool: "showMoleculeStructure", Err: err}
			}

			return &Result{
				Payload: map[string]interface{}{
					"visualizationId": viz.ID,
					"type":            "molecule",
					"pdbId":           p.PdbID,
					"title":           viz.Title,
				},
				VisualizationID: viz.ID,
			}, nil
		},
	}
}

// upsertVisualization inserts a new visualizations row, or updates an
// existing one when updateID names a row that still exists. An unknown
// updateID falls back to creating a fresh row rather than failing the
// tool call.
func upsertVisualization(ec ExecContext, vizType, title, description string, data json.RawMessage, updateID string) (*db.Visualization, error) {
	if updateID != "" {
		viz, err := ec.DB.UpdateVisualization(updateID, title, data)
		if err == nil {
			return viz, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
		logger.Log.WithField("visualization_id", updateID).Warn("Visualization to update not found, creating a new one")
	}
	return ec.DB.CreateVisualization(ec.UserID, ec.ConversationID, vizType, title, description, data)
}
