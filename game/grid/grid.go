package grid

import (
	"fmt"
	"math"
	"math/rand"
)

// Grid is a fixed-size, row-major collection of cells
type Grid struct {
	rows  int
	cols  int
	cells []CellType
	start Position
	end   Position

	// set by FromCells when a row's length differs from the first row's
	ragged bool
}

// New creates a blank grid with the given dimensions and endpoints
func New(rows, cols int, start, end Position) (*Grid, error) {
	if rows < MinGridSize || rows > MaxGridSize || cols < MinGridSize || cols > MaxGridSize {
		return nil, fmt.Errorf("%w: %dx%d (allowed %d-%d)", ErrInvalidDimensions, rows, cols, MinGridSize, MaxGridSize)
	}
	if rows*cols < 2 {
		return nil, fmt.Errorf("%w: grid needs room for a start and an end cell", ErrInvalidDimensions)
	}

	g := &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]CellType, rows*cols),
	}
	for i := range g.cells {
		g.cells[i] = Blank
	}

	if !g.InBounds(start) {
		return nil, fmt.Errorf("start %v: %w", start, ErrOutOfBounds)
	}
	if !g.InBounds(end) {
		return nil, fmt.Errorf("end %v: %w", end, ErrOutOfBounds)
	}
	if start == end {
		return nil, fmt.Errorf("end %v: %w by start", end, ErrCellOccupied)
	}

	g.set(start, Start)
	g.set(end, End)
	g.start = start
	g.end = end

	return g, nil
}

// NewDefault creates the default 20x20 grid with start at the top-left
// corner and end at the bottom-right corner
func NewDefault() *Grid {
	g, err := New(DefaultRows, DefaultCols, Position{0, 0}, Position{DefaultRows - 1, DefaultCols - 1})
	if err != nil {
		panic(err)
	}
	return g
}

// FromCells builds a grid from a snapshot of cell types supplied by an
// external collaborator. The result is not validated; call Validate before
// searching it. Rows whose length differs from the first row make Validate
// fail with ErrInvalidDimensions.
func FromCells(cells [][]CellType) *Grid {
	g := &Grid{rows: len(cells)}
	if g.rows > 0 {
		g.cols = len(cells[0])
	}
	g.cells = make([]CellType, 0, g.rows*g.cols)

	for r, row := range cells {
		if len(row) != g.cols {
			g.ragged = true
		}
		for c := 0; c < g.cols; c++ {
			t := Blank
			if c < len(row) && row[c] != "" {
				t = row[c]
			}
			switch t {
			case Start:
				g.start = Position{r, c}
			case End:
				g.end = Position{r, c}
			}
			g.cells = append(g.cells, t)
		}
	}

	return g
}

// Rows returns the number of rows
func (g *Grid) Rows() int {
	return g.rows
}

// Cols returns the number of columns
func (g *Grid) Cols() int {
	return g.cols
}

// Start returns the start cell position
func (g *Grid) Start() Position {
	return g.start
}

// End returns the end cell position
func (g *Grid) End() Position {
	return g.end
}

// InBounds reports whether p lies inside the grid
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

// At returns the cell type at p. Out of bounds positions read as obstacles.
func (g *Grid) At(p Position) CellType {
	if !g.InBounds(p) {
		return Obstacle
	}
	return g.cells[p.Row*g.cols+p.Col]
}

func (g *Grid) set(p Position, t CellType) {
	g.cells[p.Row*g.cols+p.Col] = t
}

// Neighbors returns the in-bounds cells adjacent to p in the fixed order
// up, left, down, right. Obstacles are included; callers decide passability.
func (g *Grid) Neighbors(p Position) []Position {
	neighbors := make([]Position, 0, 4)

	if p.Row > 0 {
		neighbors = append(neighbors, Position{p.Row - 1, p.Col})
	}
	if p.Col > 0 {
		neighbors = append(neighbors, Position{p.Row, p.Col - 1})
	}
	if p.Row < g.rows-1 {
		neighbors = append(neighbors, Position{p.Row + 1, p.Col})
	}
	if p.Col < g.cols-1 {
		neighbors = append(neighbors, Position{p.Row, p.Col + 1})
	}

	return neighbors
}

// Distance returns the Euclidean distance between two cells
func Distance(a, b Position) float64 {
	dr := float64(a.Row - b.Row)
	dc := float64(a.Col - b.Col)
	return math.Sqrt(dr*dr + dc*dc)
}

// Validate checks that the grid has sane dimensions and exactly one start
// and one end cell
func (g *Grid) Validate() error {
	if g.rows < MinGridSize || g.cols < MinGridSize || len(g.cells) != g.rows*g.cols {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, g.rows, g.cols)
	}
	if g.ragged {
		return fmt.Errorf("%w: row lengths differ", ErrInvalidDimensions)
	}

	starts, ends := 0, 0
	for _, t := range g.cells {
		switch t {
		case Start:
			starts++
		case End:
			ends++
		case Blank, Obstacle:
		default:
			return fmt.Errorf("%w: unknown cell type %q", ErrInvalidLayout, t)
		}
	}

	switch {
	case starts == 0:
		return ErrMissingStart
	case starts > 1:
		return fmt.Errorf("%w (found %d)", ErrDuplicateStart, starts)
	case ends == 0:
		return ErrMissingEnd
	case ends > 1:
		return fmt.Errorf("%w (found %d)", ErrDuplicateEnd, ends)
	}

	return nil
}

// SetObstacle turns a blank cell into an obstacle. Start and end cells
// cannot become obstacles.
func (g *Grid) SetObstacle(p Position) error {
	if !g.InBounds(p) {
		return fmt.Errorf("set obstacle %v: %w", p, ErrOutOfBounds)
	}
	switch g.At(p) {
	case Start, End:
		return fmt.Errorf("set obstacle %v: %w by %s", p, ErrCellOccupied, g.At(p))
	}
	g.set(p, Obstacle)
	return nil
}

// SetBlank clears an obstacle. Start and end cells cannot be blanked.
func (g *Grid) SetBlank(p Position) error {
	if !g.InBounds(p) {
		return fmt.Errorf("set blank %v: %w", p, ErrOutOfBounds)
	}
	switch g.At(p) {
	case Start, End:
		return fmt.Errorf("set blank %v: %w by %s", p, ErrCellOccupied, g.At(p))
	}
	g.set(p, Blank)
	return nil
}

// MoveStart relocates the start cell onto a blank cell
func (g *Grid) MoveStart(p Position) error {
	if err := g.checkMoveTarget(p, Start); err != nil {
		return fmt.Errorf("move start: %w", err)
	}
	g.set(g.start, Blank)
	g.set(p, Start)
	g.start = p
	return nil
}

// MoveEnd relocates the end cell onto a blank cell
func (g *Grid) MoveEnd(p Position) error {
	if err := g.checkMoveTarget(p, End); err != nil {
		return fmt.Errorf("move end: %w", err)
	}
	g.set(g.end, Blank)
	g.set(p, End)
	g.end = p
	return nil
}

func (g *Grid) checkMoveTarget(p Position, moving CellType) error {
	if !g.InBounds(p) {
		return fmt.Errorf("%v: %w", p, ErrOutOfBounds)
	}
	current := g.At(p)
	if current == moving {
		return nil
	}
	if current != Blank {
		return fmt.Errorf("%v: %w by %s", p, ErrCellOccupied, current)
	}
	return nil
}

// Clear removes every obstacle, keeping the start and end cells in place
func (g *Grid) Clear() {
	for i, t := range g.cells {
		if t == Obstacle {
			g.cells[i] = Blank
		}
	}
}

// AddRandomObstacles turns up to n randomly chosen blank cells into
// obstacles and returns how many were placed
func (g *Grid) AddRandomObstacles(n int, rng *rand.Rand) int {
	blanks := make([]int, 0, len(g.cells))
	for i, t := range g.cells {
		if t == Blank {
			blanks = append(blanks, i)
		}
	}
	if n > len(blanks) {
		n = len(blanks)
	}
	if n <= 0 {
		return 0
	}

	rng.Shuffle(len(blanks), func(i, j int) {
		blanks[i], blanks[j] = blanks[j], blanks[i]
	})
	for _, idx := range blanks[:n] {
		g.cells[idx] = Obstacle
	}

	return n
}

// ObstacleCountForDensity converts an obstacle density into a cell count
// for a grid of the given size
func ObstacleCountForDensity(rows, cols int, density float64) int {
	if density <= 0 {
		return 0
	}
	if density > 1 {
		density = 1
	}
	return int(math.Round(float64(rows*cols) * density))
}

// CountCellType counts the cells of a specific type
func (g *Grid) CountCellType(cellType CellType) int {
	count := 0
	for _, t := range g.cells {
		if t == cellType {
			count++
		}
	}
	return count
}

// Obstacles returns the obstacle positions in row-major order
func (g *Grid) Obstacles() []Position {
	obstacles := make([]Position, 0)
	for i, t := range g.cells {
		if t == Obstacle {
			obstacles = append(obstacles, Position{i / g.cols, i % g.cols})
		}
	}
	return obstacles
}

// Clone returns an independent copy of the grid
func (g *Grid) Clone() *Grid {
	c := *g
	c.cells = make([]CellType, len(g.cells))
	copy(c.cells, g.cells)
	return &c
}

// Layout renders the grid as one string per row
func (g *Grid) Layout() []string {
	layout := make([]string, g.rows)
	row := make([]byte, g.cols)
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			row[c] = g.cells[r*g.cols+c].Char()
		}
		layout[r] = string(row)
	}
	return layout
}

// Snapshot returns the JSON view of the grid
func (g *Grid) Snapshot() *Snapshot {
	return &Snapshot{
		Rows:      g.rows,
		Cols:      g.cols,
		Start:     g.start,
		End:       g.end,
		Obstacles: g.Obstacles(),
		Layout:    g.Layout(),
	}
}
