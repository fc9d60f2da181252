package search

import (
	"errors"

	"github.com/wricardo/gridpath/game/grid"
)

var (
	ErrInvalidGrid     = errors.New("invalid grid")
	ErrEndpointBlocked = errors.New("endpoint is an obstacle")
)

// EventKind identifies what an Event reports
type EventKind string

const (
	EventClosed   EventKind = "closed"
	EventOpened   EventKind = "opened"
	EventImproved EventKind = "improved"
	EventPath     EventKind = "path"
	EventNoPath   EventKind = "no_path"
)

// Terminal reports whether the kind ends a run
func (k EventKind) Terminal() bool {
	return k == EventPath || k == EventNoPath
}

// Outcome is the final state of a run
type Outcome string

const (
	OutcomeRunning   Outcome = "running"
	OutcomeFound     Outcome = "found"
	OutcomeNoPath    Outcome = "no_path"
	OutcomeCancelled Outcome = "cancelled"
)

// Costs holds the search costs of a cell for one run
type Costs struct {
	G float64 `json:"g"`
	H float64 `json:"h"`
	F float64 `json:"f"`
}

// Event is a single step of a search run
type Event struct {
	Seq   int             `json:"seq"`
	Kind  EventKind       `json:"kind"`
	Cell  grid.Position   `json:"cell"`
	Costs Costs           `json:"costs"`
	Path  []grid.Position `json:"path,omitempty"`
}

// Stats summarizes the work done by a run so far
type Stats struct {
	Events   int `json:"events"`
	Expanded int `json:"expanded"`
	Opened   int `json:"opened"`
	Improved int `json:"improved"`
}

// Result is the outcome of a run driven to completion
type Result struct {
	RunID   string          `json:"run_id"`
	Outcome Outcome         `json:"outcome"`
	Path    []grid.Position `json:"path,omitempty"`
	Cost    float64         `json:"cost"`
	Stats   Stats           `json:"stats"`
	Events  []Event         `json:"events,omitempty"`
}

// Options defines parameters for a run
type Options struct {
	Start *grid.Position
	End   *grid.Position
	ID    string
}

// Option is a function that modifies Options
type Option func(*Options)

// WithStart overrides the start cell taken from the grid
func WithStart(p grid.Position) Option {
	return func(o *Options) { o.Start = &p }
}

// WithEnd overrides the end cell taken from the grid
func WithEnd(p grid.Position) Option {
	return func(o *Options) { o.End = &p }
}

// WithID sets the run identifier instead of generating one
func WithID(id string) Option {
	return func(o *Options) { o.ID = id }
}
