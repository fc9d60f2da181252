// Package grid provides the grid model for the pathfinding visualizer.
//
// The grid package implements:
//   - A fixed-size, row-major grid of cells (blank, start, end, obstacle)
//   - 4-directional adjacency with boundary clipping
//   - Euclidean distance between cells
//   - Editing operations that keep exactly one start and one end cell
//   - Layout configurations loaded from JSON
//
// Core Types:
//
// Grid holds the permanent cell types only. Search costs never live on the
// grid; they belong to a single search run (see package search), so successive
// or concurrent runs cannot observe each other's state.
//
// Usage:
//
//	g := grid.NewDefault() // 20x20, start (0,0), end (19,19)
//
//	if err := g.SetObstacle(grid.Position{Row: 3, Col: 4}); err != nil {
//		log.Fatal(err)
//	}
//	if err := g.MoveEnd(grid.Position{Row: 10, Col: 10}); err != nil {
//		log.Fatal(err)
//	}
//
//	for _, n := range g.Neighbors(g.Start()) {
//		fmt.Println(n, grid.Distance(g.Start(), n))
//	}
//
// Layouts:
//
// Layouts are written one string per row using '.' for blank cells, '#' for
// obstacles, 'S' for the start cell and 'E' for the end cell.
package grid
