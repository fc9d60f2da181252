package search

import "github.com/wricardo/gridpath/game/grid"

// PathCost sums the step distances along a path
func PathCost(path []grid.Position) float64 {
	cost := 0.0
	for i := 1; i < len(path); i++ {
		cost += grid.Distance(path[i-1], path[i])
	}
	return cost
}

// IsConnected reports whether every consecutive pair of cells in path is
// 4-adjacent
func IsConnected(path []grid.Position) bool {
	for i := 1; i < len(path); i++ {
		dr := path[i].Row - path[i-1].Row
		dc := path[i].Col - path[i-1].Col
		if dr*dr+dc*dc != 1 {
			return false
		}
	}
	return true
}

// IsPassable reports whether every cell of path is in bounds and not an
// obstacle on g
func IsPassable(g *grid.Grid, path []grid.Position) bool {
	for _, p := range path {
		if !g.InBounds(p) || g.At(p) == grid.Obstacle {
			return false
		}
	}
	return true
}
