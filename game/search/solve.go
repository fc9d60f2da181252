package search

import (
	"context"

	"github.com/wricardo/gridpath/game/grid"
)

// Solve drives a run to completion and returns its result. The run is
// recorded in full; a cancelled context yields OutcomeCancelled and the
// events produced before cancellation.
func Solve(ctx context.Context, g *grid.Grid, options ...Option) (*Result, error) {
	run, err := New(ctx, g, options...)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0)
	for ev := range run.Events() {
		events = append(events, ev)
	}

	return run.Result(events), nil
}

// Result summarizes the run. Events is attached as given.
func (r *Run) Result(events []Event) *Result {
	res := &Result{
		RunID:   r.id,
		Outcome: r.Outcome(),
		Path:    r.path,
		Stats:   r.stats,
		Events:  events,
	}
	if res.Outcome == OutcomeFound {
		res.Cost = PathCost(r.path)
	}
	return res
}
