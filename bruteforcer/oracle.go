package main

import (
	"fmt"

	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/search"
	"github.com/wricardo/gridpath/game/service"
)

// shortestDistance runs a breadth-first sweep from start over passable
// cells. It returns -1 when end is unreachable.
func shortestDistance(g *grid.Grid, start, end grid.Position) int {
	dist := map[grid.Position]int{start: 0}
	queue := []grid.Position{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == end {
			return dist[current]
		}

		for _, next := range g.Neighbors(current) {
			if _, seen := dist[next]; seen || g.At(next) == grid.Obstacle {
				continue
			}
			dist[next] = dist[current] + 1
			queue = append(queue, next)
		}
	}
	return -1
}

// Check compares a solve result with the oracle and returns every
// discrepancy found
func Check(result *service.SolveResult) []string {
	if result.Grid == nil {
		return []string{"solve result has no grid"}
	}
	g, err := grid.ParseLayout(result.Grid.Layout)
	if err != nil {
		return []string{fmt.Sprintf("unparseable grid: %v", err)}
	}

	want := shortestDistance(g, g.Start(), g.End())
	problems := make([]string, 0)

	switch result.Outcome {
	case search.OutcomeNoPath:
		if want >= 0 {
			problems = append(problems, fmt.Sprintf("reported no path, oracle found cost %d", want))
		}
		if len(result.Path) > 0 {
			problems = append(problems, "no_path result carries a path")
		}
		return problems

	case search.OutcomeFound:
		if want < 0 {
			return append(problems, "reported a path, oracle found none")
		}

	default:
		return append(problems, fmt.Sprintf("unexpected outcome %q", result.Outcome))
	}

	path := result.Path
	if len(path) == 0 {
		return append(problems, "found result has an empty path")
	}
	if path[0] != g.Start() || path[len(path)-1] != g.End() {
		problems = append(problems, fmt.Sprintf("path runs %v to %v, want %v to %v", path[0], path[len(path)-1], g.Start(), g.End()))
	}
	if !search.IsConnected(path) {
		problems = append(problems, "path is not 4-connected")
	}
	if !search.IsPassable(g, path) {
		problems = append(problems, "path crosses an obstacle")
	}
	if cost := search.PathCost(path); cost != float64(want) {
		problems = append(problems, fmt.Sprintf("path cost %g, oracle %d", cost, want))
	}
	if result.PathCost != float64(want) {
		problems = append(problems, fmt.Sprintf("reported cost %g, oracle %d", result.PathCost, want))
	}
	return problems
}
