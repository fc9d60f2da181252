package search

import (
	"container/heap"
	"context"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/wricardo/gridpath/game/grid"
)

type phase int

const (
	phaseSelect phase = iota
	phaseExpand
	phaseDone
)

// Run is one A* search over a grid snapshot. Next, Events, Path, Cost and
// Stats must be called from a single goroutine; Cancel, Outcome and ID are
// safe from any goroutine.
type Run struct {
	id    string
	ctx   context.Context
	grid  *grid.Grid
	start grid.Position
	end   grid.Position

	open     openQueue
	openMap  map[grid.Position]*openItem
	closed   map[grid.Position]bool
	cameFrom map[grid.Position]grid.Position
	costs    map[grid.Position]*Costs

	phase     phase
	current   grid.Position
	neighbors []grid.Position
	next      int
	inserted  int

	path  []grid.Position
	stats Stats

	cancelled atomic.Bool
	outcome   atomic.Value // Outcome
}

// New validates the grid and endpoints and prepares a run. No search work
// happens until the first call to Next.
func New(ctx context.Context, g *grid.Grid, options ...Option) (*Run, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: grid is nil", ErrInvalidGrid)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGrid, err)
	}

	opts := Options{}
	for _, o := range options {
		o(&opts)
	}

	start, end := g.Start(), g.End()
	if opts.Start != nil {
		start = *opts.Start
	}
	if opts.End != nil {
		end = *opts.End
	}
	if err := checkEndpoint(g, "start", start); err != nil {
		return nil, err
	}
	if err := checkEndpoint(g, "end", end); err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	r := &Run{
		id:       id,
		ctx:      ctx,
		grid:     g.Clone(),
		start:    start,
		end:      end,
		open:     make(openQueue, 0),
		openMap:  make(map[grid.Position]*openItem),
		closed:   make(map[grid.Position]bool),
		cameFrom: make(map[grid.Position]grid.Position),
		costs:    make(map[grid.Position]*Costs),
	}
	r.outcome.Store(OutcomeRunning)

	h := grid.Distance(start, end)
	r.costs[start] = &Costs{G: 0, H: h, F: h}
	r.push(start, h, h)

	return r, nil
}

func checkEndpoint(g *grid.Grid, name string, p grid.Position) error {
	if !g.InBounds(p) {
		return fmt.Errorf("%w: %s %v: %w", ErrInvalidGrid, name, p, grid.ErrOutOfBounds)
	}
	if g.At(p) == grid.Obstacle {
		return fmt.Errorf("%s %v: %w", name, p, ErrEndpointBlocked)
	}
	return nil
}

// ID returns the run identifier
func (r *Run) ID() string {
	return r.id
}

// Start returns the start cell of the run
func (r *Run) Start() grid.Position {
	return r.start
}

// End returns the end cell of the run
func (r *Run) End() grid.Position {
	return r.end
}

// Cancel requests cooperative cancellation. The next call to Next returns
// no event.
func (r *Run) Cancel() {
	r.cancelled.Store(true)
}

// Cancelled reports whether cancellation was requested
func (r *Run) Cancelled() bool {
	return r.cancelled.Load() || r.ctx.Err() != nil
}

// Outcome returns the current outcome; OutcomeRunning until the run ends
func (r *Run) Outcome() Outcome {
	return r.outcome.Load().(Outcome)
}

// Done reports whether the run has ended
func (r *Run) Done() bool {
	return r.Outcome() != OutcomeRunning
}

// Path returns the start-to-end path once the run has found one
func (r *Run) Path() []grid.Position {
	return r.path
}

// Cost returns the run-scoped costs recorded for p
func (r *Run) Cost(p grid.Position) (Costs, bool) {
	c, ok := r.costs[p]
	if !ok {
		return Costs{}, false
	}
	return *c, true
}

// Stats returns counters for the work done so far
func (r *Run) Stats() Stats {
	return r.stats
}

// Next advances the search to its next event. It returns false once the run
// has ended, including when it was cancelled.
func (r *Run) Next() (Event, bool) {
	for {
		if r.phase == phaseDone {
			return Event{}, false
		}
		if r.Cancelled() {
			r.finish(OutcomeCancelled)
			return Event{}, false
		}

		switch r.phase {
		case phaseSelect:
			if r.open.Len() == 0 {
				r.finish(OutcomeNoPath)
				return r.emit(Event{Kind: EventNoPath}), true
			}

			item := heap.Pop(&r.open).(*openItem)
			delete(r.openMap, item.pos)
			r.current = item.pos

			if r.current == r.end {
				r.path = r.reconstructPath(r.current)
				r.finish(OutcomeFound)
				return r.emit(Event{
					Kind:  EventPath,
					Cell:  r.current,
					Costs: *r.costs[r.current],
					Path:  r.path,
				}), true
			}

			r.closed[r.current] = true
			r.stats.Expanded++
			r.neighbors = r.grid.Neighbors(r.current)
			r.next = 0
			r.phase = phaseExpand

			return r.emit(Event{Kind: EventClosed, Cell: r.current, Costs: *r.costs[r.current]}), true

		case phaseExpand:
			if ev, ok := r.expandNext(); ok {
				return r.emit(ev), true
			}
			r.phase = phaseSelect
		}
	}
}

// expandNext evaluates the remaining neighbors of the current cell until one
// produces an event
func (r *Run) expandNext() (Event, bool) {
	currentG := r.costs[r.current].G

	for r.next < len(r.neighbors) {
		n := r.neighbors[r.next]
		r.next++

		if r.closed[n] || r.grid.At(n) == grid.Obstacle {
			continue
		}

		tentativeG := currentG + grid.Distance(r.current, n)
		item, inOpen := r.openMap[n]
		kind := EventOpened

		if inOpen {
			if tentativeG >= r.costs[n].G {
				continue
			}
			kind = EventImproved
		}

		r.cameFrom[n] = r.current
		h := grid.Distance(n, r.end)
		c := &Costs{G: tentativeG, H: h, F: tentativeG + h}
		r.costs[n] = c

		if inOpen {
			item.f, item.h = c.F, c.H
			heap.Fix(&r.open, item.index)
			r.stats.Improved++
		} else {
			r.push(n, c.F, c.H)
			r.stats.Opened++
		}

		return Event{Kind: kind, Cell: n, Costs: *c}, true
	}

	return Event{}, false
}

// Events returns the remaining events as a sequence. Breaking out of the
// loop leaves the run where it stopped; call Cancel to abandon it.
func (r *Run) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			ev, ok := r.Next()
			if !ok || !yield(ev) {
				return
			}
		}
	}
}

func (r *Run) push(p grid.Position, f, h float64) {
	item := &openItem{pos: p, f: f, h: h, seq: r.inserted}
	r.inserted++
	heap.Push(&r.open, item)
	r.openMap[p] = item
}

func (r *Run) emit(ev Event) Event {
	r.stats.Events++
	ev.Seq = r.stats.Events
	return ev
}

func (r *Run) finish(o Outcome) {
	r.phase = phaseDone
	r.neighbors = nil
	r.outcome.Store(o)
}

// reconstructPath follows cameFrom links back to the start and returns the
// cells in start-to-end order
func (r *Run) reconstructPath(current grid.Position) []grid.Position {
	path := []grid.Position{current}
	for current != r.start {
		prev, ok := r.cameFrom[current]
		if !ok {
			break
		}
		path = append(path, prev)
		current = prev
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
