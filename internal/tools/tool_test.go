package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"stem-chat/internal/repository/db"
	"stem-chat/internal/service/llm"
	"stem-chat/internal/testutil"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	return r
}

func TestRegistrySpecs(t *testing.T) {
	r := newTestRegistry(t)
	specs := r.Specs()
	if len(specs) != 9 {
		t.Fatalf("expected 9 tool specs, got %d", len(specs))
	}
	if specs[0].Name != "createPlotlyChart" {
		t.Errorf("expected createPlotlyChart first, got %s", specs[0].Name)
	}
	for _, s := range specs {
		if len(s.Parameters) == 0 {
			t.Errorf("tool %s has empty parameters schema", s.Name)
		}
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Dispatch(context.Background(), ExecContext{}, llm.ToolCall{
		ID: "call_1", Name: "notATool", Arguments: json.RawMessage("{}"),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDispatchSchemaViolationHasNoSideEffects(t *testing.T) {
	r := newTestRegistry(t)
	created := false
	mock := &testutil.MockDatabase{
		CreateVisualizationFunc: func(userID, conversationID, vizType, title, description string, data []byte) (*db.Visualization, error) {
			created = true
			return &db.Visualization{ID: "viz-1"}, nil
		},
	}

	// Missing the required title.
	_, err := r.Dispatch(context.Background(), ExecContext{UserID: "user-1", DB: mock}, llm.ToolCall{
		ID: "call_1", Name: "createPlotlyChart", Arguments: json.RawMessage(`{"figure": {}}`),
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if created {
		t.Error("database was written despite validation failure")
	}
}

func TestDispatchBadPdbIDRejected(t *testing.T) {
	r := newTestRegistry(t)
	tests := []struct {
		name  string
		pdbID string
		valid bool
	}{
		{"valid id", "1CRN", true},
		{"lowercase ok", "2abc", true},
		{"too short", "1CR", false},
		{"too long", "1CRNX", false},
		{"starts with letter", "ACRN", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockDatabase{
				CreateVisualizationFunc: func(userID, conversationID, vizType, title, description string, data []byte) (*db.Visualization, error) {
					return &db.Visualization{ID: "viz-1", Title: title}, nil
				},
			}
			args, _ := json.Marshal(map[string]string{"pdbId": tt.pdbID, "title": "Crambin"})
			_, err := r.Dispatch(context.Background(), ExecContext{UserID: "user-1", DB: mock}, llm.ToolCall{
				ID: "call_1", Name: "showMoleculeStructure", Arguments: args,
			})
			if tt.valid && err != nil {
				t.Errorf("expected %q to validate, got %v", tt.pdbID, err)
			}
			if !tt.valid {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("expected ValidationError for %q, got %v", tt.pdbID, err)
				}
			}
		})
	}
}

func TestPersistingToolRequiresAuthentication(t *testing.T) {
	r := newTestRegistry(t)
	mock := &testutil.MockDatabase{}

	_, err := r.Dispatch(context.Background(), ExecContext{UserID: "", DB: mock}, llm.ToolCall{
		ID: "call_1", Name: "createPlotlyChart",
		Arguments: json.RawMessage(`{"figure": {"data": []}, "title": "Test"}`),
	})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestDisplayToolWorksAnonymously(t *testing.T) {
	r := newTestRegistry(t)
	res, err := r.Dispatch(context.Background(), ExecContext{}, llm.ToolCall{
		ID: "call_1", Name: "plotFunction2D",
		Arguments: json.RawMessage(`{"expression": "sin(x)", "xMin": 0, "xMax": 6.28, "title": "Sine"}`),
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	payload, ok := res.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected payload type %T", res.Payload)
	}
	if payload["expression"] != "sin(x)" {
		t.Errorf("expected expression sin(x), got %v", payload["expression"])
	}
	if res.VisualizationID != "" {
		t.Errorf("display tool should not report a visualization id, got %s", res.VisualizationID)
	}
}

func TestPlotFunction2DRejectsEmptyRange(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Dispatch(context.Background(), ExecContext{}, llm.ToolCall{
		ID: "call_1", Name: "plotFunction2D",
		Arguments: json.RawMessage(`{"expression": "x", "xMin": 5, "xMax": 5, "title": "Flat"}`),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreatePlotlyChartInsertsEveryTime(t *testing.T) {
	r := newTestRegistry(t)
	n := 0
	mock := &testutil.MockDatabase{
		CreateVisualizationFunc: func(userID, conversationID, vizType, title, description string, data []byte) (*db.Visualization, error) {
			n++
			return &db.Visualization{
				ID: "viz-" + string(rune('0'+n)), Type: vizType, Title: title,
				CreatedAt: time.Now(), UpdatedAt: time.Now(),
			}, nil
		},
	}

	ec := ExecContext{UserID: "user-1", ConversationID: "conv-1", DB: mock}
	call := llm.ToolCall{
		ID: "call_1", Name: "createPlotlyChart",
		Arguments: json.RawMessage(`{"figure": {"data": []}, "title": "Same chart"}`),
	}

	first, err := r.Dispatch(context.Background(), ec, call)
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	second, err := r.Dispatch(context.Background(), ec, call)
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}

	if n != 2 {
		t.Fatalf("expected 2 inserts, got %d", n)
	}
	if first.VisualizationID == second.VisualizationID {
		t.Errorf("identical calls must produce distinct rows, both got %s", first.VisualizationID)
	}
}

func TestCreatePlotlyChartUpdatesInPlace(t *testing.T) {
	r := newTestRegistry(t)
	var updatedID string
	inserts := 0
	mock := &testutil.MockDatabase{
		UpdateVisualizationFunc: func(id, title string, data []byte) (*db.Visualization, error) {
			updatedID = id
			return &db.Visualization{ID: id, Type: "plot", Title: title}, nil
		},
		CreateVisualizationFunc: func(userID, conversationID, vizType, title, description string, data []byte) (*db.Visualization, error) {
			inserts++
			return &db.Visualization{ID: "viz-new"}, nil
		},
	}

	res, err := r.Dispatch(context.Background(), ExecContext{UserID: "user-1", DB: mock}, llm.ToolCall{
		ID: "call_1", Name: "createPlotlyChart",
		Arguments: json.RawMessage(`{"figure": {"data": []}, "title": "Updated", "visualizationId": "viz-42"}`),
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if updatedID != "viz-42" {
		t.Errorf("expected update of viz-42, got %q", updatedID)
	}
	if inserts != 0 {
		t.Errorf("expected no insert, got %d", inserts)
	}
	if res.VisualizationID != "viz-42" {
		t.Errorf("expected result visualization id viz-42, got %s", res.VisualizationID)
	}
}

func TestCreatePlotlyChartUpdateFallsBackToInsert(t *testing.T) {
	r := newTestRegistry(t)
	mock := &testutil.MockDatabase{
		UpdateVisualizationFunc: func(id, title string, data []byte) (*db.Visualization, error) {
			return nil, db.ErrNotFound
		},
		CreateVisualizationFunc: func(userID, conversationID, vizType, title, description string, data []byte) (*db.Visualization, error) {
			return &db.Visualization{ID: "viz-fresh", Type: vizType, Title: title}, nil
		},
	}

	res, err := r.Dispatch(context.Background(), ExecContext{UserID: "user-1", DB: mock}, llm.ToolCall{
		ID: "call_1", Name: "createPlotlyChart",
		Arguments: json.RawMessage(`{"figure": {}, "title": "Orphaned", "visualizationId": "gone"}`),
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.VisualizationID != "viz-fresh" {
		t.Errorf("expected fallback insert viz-fresh, got %s", res.VisualizationID)
	}
}

func TestPersistenceErrorWrapped(t *testing.T) {
	r := newTestRegistry(t)
	dbErr := errors.New("connection refused")
	mock := &testutil.MockDatabase{
		CreateVisualizationFunc: func(userID, conversationID, vizType, title, description string, data []byte) (*db.Visualization, error) {
			return nil, dbErr
		},
	}

	_, err := r.Dispatch(context.Background(), ExecContext{UserID: "user-1", DB: mock}, llm.ToolCall{
		ID: "call_1", Name: "showMoleculeStructure",
		Arguments: json.RawMessage(`{"pdbId": "1CRN", "title": "Crambin"}`),
	})
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if !errors.Is(err, dbErr) {
		t.Error("PersistenceError should wrap the underlying database error")
	}
}

func TestDispatchEmptyArgumentsTreatedAsObject(t *testing.T) {
	r := newTestRegistry(t)
	// Empty arguments fail required-field validation rather than JSON
	// parsing.
	_, err := r.Dispatch(context.Background(), ExecContext{}, llm.ToolCall{
		ID: "call_1", Name: "getWeather", Arguments: json.RawMessage(""),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	dup := &Tool{Name: "dup", Schema: json.RawMessage(`{"type":"object"}`)}
	_, err := NewRegistry(dup, &Tool{Name: "dup", Schema: json.RawMessage(`{"type":"object"}`)})
	if err == nil {
		t.Fatal("expected error for duplicate tool name")
	}
}
