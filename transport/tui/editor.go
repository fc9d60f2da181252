package tui

import (
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/service"
)

// Mode is the pointer editing state of the viewer
type Mode int

const (
	ModeIdle Mode = iota
	ModePlacingObstacle
	ModeRemovingObstacle
	ModeDraggingStart
	ModeDraggingEnd
)

func (m Mode) String() string {
	switch m {
	case ModePlacingObstacle:
		return "placing obstacles"
	case ModeRemovingObstacle:
		return "removing obstacles"
	case ModeDraggingStart:
		return "dragging start"
	case ModeDraggingEnd:
		return "dragging end"
	default:
		return "idle"
	}
}

// Editor maps pointer gestures to cell edits. The cell type under the
// pointer at press time picks the mode for the rest of the gesture.
type Editor struct {
	mode Mode
}

// Mode returns the current editing mode
func (e *Editor) Mode() Mode {
	return e.mode
}

// Press starts a gesture over a cell of the given type and returns the edit
// action to apply to that cell, or "" for none
func (e *Editor) Press(cell grid.CellType) string {
	switch cell {
	case grid.Start:
		e.mode = ModeDraggingStart
		return ""
	case grid.End:
		e.mode = ModeDraggingEnd
		return ""
	case grid.Obstacle:
		e.mode = ModeRemovingObstacle
		return service.ActionSetBlank
	default:
		e.mode = ModePlacingObstacle
		return service.ActionSetObstacle
	}
}

// Drag continues the gesture over another cell. Cells that the current mode
// cannot act on are skipped.
func (e *Editor) Drag(cell grid.CellType) string {
	switch e.mode {
	case ModePlacingObstacle:
		if cell == grid.Blank {
			return service.ActionSetObstacle
		}
	case ModeRemovingObstacle:
		if cell == grid.Obstacle {
			return service.ActionSetBlank
		}
	case ModeDraggingStart:
		if cell == grid.Blank {
			return service.ActionMoveStart
		}
	case ModeDraggingEnd:
		if cell == grid.Blank {
			return service.ActionMoveEnd
		}
	}
	return ""
}

// Release ends the gesture
func (e *Editor) Release() {
	e.mode = ModeIdle
}
