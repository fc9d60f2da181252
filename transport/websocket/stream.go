package websocket

import (
	"context"
	"log"
	"time"

	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/search"
)

// Publisher receives paced search messages for a session
type Publisher interface {
	BroadcastEvent(sessionID string, event string, data any)
}

// SearchEvent is the payload of EventSearchEvent
type SearchEvent struct {
	RunID string `json:"run_id"`
	search.Event
}

// PathStep is the payload of EventPathStep
type PathStep struct {
	RunID string        `json:"run_id"`
	Index int           `json:"index"`
	Total int           `json:"total"`
	Cell  grid.Position `json:"cell"`
}

// SearchDone is the payload of EventSearchDone
type SearchDone struct {
	RunID    string          `json:"run_id"`
	Outcome  search.Outcome  `json:"outcome"`
	Path     []grid.Position `json:"path,omitempty"`
	PathCost float64         `json:"path_cost"`
	Stats    search.Stats    `json:"stats"`
}

// StreamSearch drives run to completion, publishing every event with delay
// between them, then reveals the path one cell per delay. It stops early
// when the run is cancelled or ctx is done, and always finishes with a
// search_done message.
func StreamSearch(ctx context.Context, pub Publisher, sessionID string, run *search.Run, delay time.Duration) search.Outcome {
	for {
		ev, ok := run.Next()
		if !ok {
			break
		}
		pub.BroadcastEvent(sessionID, EventSearchEvent, SearchEvent{RunID: run.ID(), Event: ev})
		if !ev.Kind.Terminal() && !pause(ctx, delay) {
			run.Cancel()
		}
	}

	outcome := run.Outcome()
	path := run.Path()
	if outcome == search.OutcomeFound {
		for i, cell := range path {
			if run.Cancelled() || !pause(ctx, delay) {
				break
			}
			pub.BroadcastEvent(sessionID, EventPathStep, PathStep{
				RunID: run.ID(),
				Index: i,
				Total: len(path),
				Cell:  cell,
			})
		}
	}

	done := SearchDone{
		RunID:   run.ID(),
		Outcome: outcome,
		Stats:   run.Stats(),
	}
	if outcome == search.OutcomeFound {
		done.Path = path
		done.PathCost = search.PathCost(path)
	}
	pub.BroadcastEvent(sessionID, EventSearchDone, done)

	log.Printf("[SEARCH] session=%s run=%s outcome=%s events=%d expanded=%d path=%d",
		sessionID, run.ID(), outcome, done.Stats.Events, done.Stats.Expanded, len(done.Path))

	return outcome
}

// pause waits for d and reports false if ctx ended first
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
