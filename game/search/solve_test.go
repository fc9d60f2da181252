package search

import (
	"context"
	"testing"

	"github.com/wricardo/gridpath/game/grid"
)

func TestSolve_Found(t *testing.T) {
	g := grid.NewDefault()

	result, err := Solve(context.Background(), g)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if result.Outcome != OutcomeFound {
		t.Fatalf("Expected found, got %s", result.Outcome)
	}
	if result.Cost != 38 {
		t.Errorf("Expected cost 38, got %v", result.Cost)
	}
	if len(result.Path) != 39 {
		t.Errorf("Expected 39 cells, got %d", len(result.Path))
	}
	if result.RunID == "" {
		t.Error("Expected run ID to be set")
	}
	if len(result.Events) != result.Stats.Events {
		t.Errorf("Expected %d events recorded, got %d", result.Stats.Events, len(result.Events))
	}
	if !IsPassable(g, result.Path) {
		t.Error("Expected path to avoid obstacles")
	}
}

func TestSolve_NoPath(t *testing.T) {
	g := mustParse(t,
		"S#.",
		"##.",
		"..E",
	)

	result, err := Solve(context.Background(), g)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if result.Outcome != OutcomeNoPath {
		t.Errorf("Expected no_path, got %s", result.Outcome)
	}
	if result.Cost != 0 || result.Path != nil {
		t.Errorf("Expected empty result, got cost %v path %v", result.Cost, result.Path)
	}
	if result.Stats.Expanded != 1 {
		t.Errorf("Expected only the start to expand, got %d", result.Stats.Expanded)
	}
}

func TestSolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Solve(ctx, grid.NewDefault())
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if result.Outcome != OutcomeCancelled {
		t.Errorf("Expected cancelled, got %s", result.Outcome)
	}
	if len(result.Events) != 0 {
		t.Errorf("Expected no events, got %d", len(result.Events))
	}
}

func TestPathHelpers(t *testing.T) {
	connected := []grid.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 1}}
	if !IsConnected(connected) {
		t.Error("Expected path to be connected")
	}
	if PathCost(connected) != 2 {
		t.Errorf("Expected cost 2, got %v", PathCost(connected))
	}

	diagonal := []grid.Position{{Row: 0, Col: 0}, {Row: 1, Col: 1}}
	if IsConnected(diagonal) {
		t.Error("Expected diagonal step to be rejected")
	}
	if repeated := []grid.Position{{Row: 0, Col: 0}, {Row: 0, Col: 0}}; IsConnected(repeated) {
		t.Error("Expected repeated cell to be rejected")
	}
	if !IsConnected([]grid.Position{{Row: 3, Col: 3}}) || PathCost(nil) != 0 {
		t.Error("Expected trivial paths to be connected with zero cost")
	}
}
