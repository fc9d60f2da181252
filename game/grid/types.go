package grid

import (
	"errors"
	"fmt"
)

// CellType represents the permanent type of a grid cell
type CellType string

const (
	Blank    CellType = "blank"
	Start    CellType = "start"
	End      CellType = "end"
	Obstacle CellType = "obstacle"

	// Validation constants
	DefaultRows            = 20
	DefaultCols            = 20
	MinGridSize            = 1
	MaxGridSize            = 200
	DefaultStepDelayMS     = 10
	DefaultObstacleDensity = 0.2
)

// Layout characters
const (
	BlankChar    = '.'
	ObstacleChar = '#'
	StartChar    = 'S'
	EndChar      = 'E'
)

var (
	ErrOutOfBounds       = errors.New("position out of bounds")
	ErrCellOccupied      = errors.New("cell is occupied")
	ErrMissingStart      = errors.New("grid has no start cell")
	ErrMissingEnd        = errors.New("grid has no end cell")
	ErrDuplicateStart    = errors.New("grid has more than one start cell")
	ErrDuplicateEnd      = errors.New("grid has more than one end cell")
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	ErrInvalidLayout     = errors.New("invalid layout")
)

// Position identifies a cell by row and column
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// String renders the position as (row,col)
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Char returns the layout character for a cell type
func (t CellType) Char() byte {
	switch t {
	case Obstacle:
		return ObstacleChar
	case Start:
		return StartChar
	case End:
		return EndChar
	default:
		return BlankChar
	}
}

// Passable reports whether a search may traverse the cell
func (t CellType) Passable() bool {
	return t != Obstacle
}

// CellTypeFromChar maps a layout character to its cell type
func CellTypeFromChar(c byte) (CellType, bool) {
	switch c {
	case BlankChar:
		return Blank, true
	case ObstacleChar:
		return Obstacle, true
	case StartChar:
		return Start, true
	case EndChar:
		return End, true
	}
	return "", false
}

// Snapshot is the JSON view of a grid
type Snapshot struct {
	Rows      int        `json:"rows"`
	Cols      int        `json:"cols"`
	Start     Position   `json:"start"`
	End       Position   `json:"end"`
	Obstacles []Position `json:"obstacles"`
	Layout    []string   `json:"layout"`
}

// Config represents a layout configuration loaded from JSON
type Config struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Rows            int       `json:"rows"`
	Cols            int       `json:"cols"`
	Layout          []string  `json:"layout,omitempty"`
	StartPos        *Position `json:"start,omitempty"`
	EndPos          *Position `json:"end,omitempty"`
	StepDelayMS     int       `json:"step_delay_ms,omitempty"` // 0 or absent selects DefaultStepDelayMS
	ObstacleDensity float64   `json:"obstacle_density,omitempty"`
}
