package service

import (
	"time"

	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/search"
)

// Edit actions accepted by EditCell
const (
	ActionSetObstacle    = "set_obstacle"
	ActionSetBlank       = "set_blank"
	ActionToggleObstacle = "toggle_obstacle"
	ActionMoveStart      = "move_start"
	ActionMoveEnd        = "move_end"
)

// SessionInfo provides information about a grid session
type SessionInfo struct {
	ID             string         `json:"id"`
	ConfigName     string         `json:"config_name"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
	Grid           *grid.Snapshot `json:"grid"`
	Config         *grid.Config   `json:"config"`
	Search         *SearchStatus  `json:"search,omitempty"`
}

// SearchStatus describes the most recent run of a session
type SearchStatus struct {
	RunID   string         `json:"run_id"`
	Outcome search.Outcome `json:"outcome"`
}

// EditRequest is a single cell edit
type EditRequest struct {
	Action string `json:"action"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

// Cell returns the target position of the edit
func (r EditRequest) Cell() grid.Position {
	return grid.Position{Row: r.Row, Col: r.Col}
}

// EditResult contains the grid after an edit operation
type EditResult struct {
	SessionID    string         `json:"session_id"`
	Action       string         `json:"action"`
	Cell         *grid.Position `json:"cell,omitempty"`
	CellType     grid.CellType  `json:"cell_type,omitempty"`
	Placed       int            `json:"placed,omitempty"`
	RunCancelled bool           `json:"run_cancelled"`
	Grid         *grid.Snapshot `json:"grid"`
}

// RandomObstaclesRequest selects how many obstacles to add. Count wins over
// Density; when both are zero the session config density is used.
type RandomObstaclesRequest struct {
	Count   int     `json:"count,omitempty"`
	Density float64 `json:"density,omitempty"`
	Seed    *int64  `json:"seed,omitempty"`
}

// SearchHandle is a started run together with its presentation pacing
type SearchHandle struct {
	SessionID string
	Run       *search.Run
	StepDelay time.Duration
	Grid      *grid.Snapshot
}

// SolveOptions configures a synchronous solve
type SolveOptions struct {
	IncludeEvents bool `json:"include_events"`
}

// SolveResult is the result of a synchronous solve
type SolveResult struct {
	SessionID string          `json:"session_id"`
	RunID     string          `json:"run_id"`
	Outcome   search.Outcome  `json:"outcome"`
	Path      []grid.Position `json:"path,omitempty"`
	PathCost  float64         `json:"path_cost"`
	Stats     search.Stats    `json:"stats"`
	Events    []search.Event  `json:"events,omitempty"`
	Grid      *grid.Snapshot  `json:"grid"`
}

// ConfigInfo provides information about a layout configuration
type ConfigInfo struct {
	Filename        string  `json:"filename"`
	ConfigID        string  `json:"config_id"` // The identifier to use for session creation
	Name            string  `json:"name"`      // Display name
	Description     string  `json:"description"`
	Rows            int     `json:"rows"`
	Cols            int     `json:"cols"`
	StepDelayMS     int     `json:"step_delay_ms"`
	ObstacleDensity float64 `json:"obstacle_density"`
}
