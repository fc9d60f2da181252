package tui

import (
	"testing"

	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/service"
)

func TestEditor_PressSelectsMode(t *testing.T) {
	tests := []struct {
		cell       grid.CellType
		wantMode   Mode
		wantAction string
	}{
		{grid.Blank, ModePlacingObstacle, service.ActionSetObstacle},
		{grid.Obstacle, ModeRemovingObstacle, service.ActionSetBlank},
		{grid.Start, ModeDraggingStart, ""},
		{grid.End, ModeDraggingEnd, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.cell), func(t *testing.T) {
			var e Editor
			if action := e.Press(tt.cell); action != tt.wantAction {
				t.Errorf("Expected action %q, got %q", tt.wantAction, action)
			}
			if e.Mode() != tt.wantMode {
				t.Errorf("Expected mode %s, got %s", tt.wantMode, e.Mode())
			}
		})
	}
}

func TestEditor_DragFollowsMode(t *testing.T) {
	tests := []struct {
		name  string
		press grid.CellType
		drag  map[grid.CellType]string
	}{
		{"placing", grid.Blank, map[grid.CellType]string{
			grid.Blank:    service.ActionSetObstacle,
			grid.Obstacle: "",
			grid.Start:    "",
			grid.End:      "",
		}},
		{"removing", grid.Obstacle, map[grid.CellType]string{
			grid.Blank:    "",
			grid.Obstacle: service.ActionSetBlank,
			grid.Start:    "",
		}},
		{"dragging start", grid.Start, map[grid.CellType]string{
			grid.Blank:    service.ActionMoveStart,
			grid.Obstacle: "",
			grid.End:      "",
		}},
		{"dragging end", grid.End, map[grid.CellType]string{
			grid.Blank:    service.ActionMoveEnd,
			grid.Obstacle: "",
			grid.Start:    "",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Editor
			e.Press(tt.press)
			for cell, want := range tt.drag {
				if got := e.Drag(cell); got != want {
					t.Errorf("Drag over %s: expected %q, got %q", cell, want, got)
				}
			}
		})
	}
}

func TestEditor_ReleaseReturnsToIdle(t *testing.T) {
	var e Editor
	e.Press(grid.Blank)
	e.Release()

	if e.Mode() != ModeIdle {
		t.Errorf("Expected idle after release, got %s", e.Mode())
	}
	if action := e.Drag(grid.Blank); action != "" {
		t.Errorf("Expected no action when idle, got %q", action)
	}
}
