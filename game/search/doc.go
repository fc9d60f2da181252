// Package search implements A* over a grid.Grid as a pull-based, cancellable
// sequence of events.
//
// A Run is created for one search request and owns every piece of transient
// state: the open set, the closed set, the cameFrom links and the per-cell
// cost table. The grid handed to New is cloned, so edits made to the caller's
// grid after New returns never reach the run.
//
// Each call to Run.Next performs the work for exactly one event and returns
// it. Events arrive in the order the algorithm discovers and finalizes cells:
//
//	EventClosed   current cell finalized (moved to the closed set)
//	EventOpened   neighbor added to the open set
//	EventImproved neighbor already open, reached more cheaply
//	EventPath     terminal: the path from start to end
//	EventNoPath   terminal: open set exhausted without reaching the end
//
// A cancelled run (Run.Cancel or context cancellation) emits nothing further
// and reports OutcomeCancelled. The engine never sleeps; pacing belongs to the
// caller.
//
// Usage:
//
//	run, err := search.New(ctx, g)
//	if err != nil {
//		return err // invalid grid snapshot or blocked endpoints
//	}
//	for ev := range run.Events() {
//		render(ev)
//		time.Sleep(stepDelay)
//	}
//	fmt.Println(run.Outcome(), run.Path())
package search
