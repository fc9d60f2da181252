// Command analyze prints quick, human-readable statistics about layout
// configuration files. It summarizes dimensions, obstacle density, the
// shortest path found by A* and how much of the grid the search explored.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/search"
)

// Analysis holds the statistics for one configuration
type Analysis struct {
	Name      string
	Rows      int
	Cols      int
	Start     grid.Position
	End       grid.Position
	Obstacles int
	Density   float64

	// Manhattan distance between start and end
	Straight float64

	Outcome  search.Outcome
	PathLen  int
	PathCost float64
	Expanded int
	Opened   int
}

// Detour returns path cost over straight-line distance, or 0 when no path
// exists
func (a *Analysis) Detour() float64 {
	if a.Outcome != search.OutcomeFound || a.Straight == 0 {
		return 0
	}
	return a.PathCost / a.Straight
}

// Coverage returns the share of passable cells the search expanded
func (a *Analysis) Coverage() float64 {
	passable := a.Rows*a.Cols - a.Obstacles
	if passable == 0 {
		return 0
	}
	return float64(a.Expanded) / float64(passable)
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "Print path statistics for layout configurations",
		ArgsUsage: "[config files...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "configs", Usage: "Config directory scanned when no files are given", Sources: cli.EnvVars("CONFIG_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				var err error
				files, err = filepath.Glob(filepath.Join(cmd.String("dir"), "*.json"))
				if err != nil {
					return err
				}
			}

			for _, configFile := range files {
				fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(configFile))
				analysis, err := analyzeFile(ctx, configFile)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					continue
				}
				printAnalysis(os.Stdout, analysis)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func analyzeFile(ctx context.Context, path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	var config grid.Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}

	return analyzeConfig(ctx, &config)
}

func analyzeConfig(ctx context.Context, config *grid.Config) (*Analysis, error) {
	g, err := grid.NewFromConfig(config)
	if err != nil {
		return nil, err
	}

	result, err := search.Solve(ctx, g)
	if err != nil {
		return nil, err
	}

	obstacles := g.CountCellType(grid.Obstacle)
	return &Analysis{
		Name:      config.Name,
		Rows:      g.Rows(),
		Cols:      g.Cols(),
		Start:     g.Start(),
		End:       g.End(),
		Obstacles: obstacles,
		Density:   float64(obstacles) / float64(g.Rows()*g.Cols()),
		Straight:  float64(manhattan(g.Start(), g.End())),
		Outcome:   result.Outcome,
		PathLen:   len(result.Path),
		PathCost:  result.Cost,
		Expanded:  result.Stats.Expanded,
		Opened:    result.Stats.Opened,
	}, nil
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.Rows, a.Cols)
	fmt.Fprintf(w, "Start: %v End: %v (distance %g)\n", a.Start, a.End, a.Straight)
	fmt.Fprintf(w, "Obstacles: %d (%.1f%%)\n", a.Obstacles, a.Density*100)
	fmt.Fprintf(w, "Expanded: %d (%.1f%% of passable cells), Opened: %d\n", a.Expanded, a.Coverage()*100, a.Opened)

	if a.Outcome != search.OutcomeFound {
		fmt.Fprintf(w, "⚠️  WARNING: end is unreachable from start\n")
		return
	}
	fmt.Fprintf(w, "✅ Path: %d cells, cost %g, detour x%.2f\n", a.PathLen, a.PathCost, a.Detour())
}

// manhattan is the fewest 4-directional steps between two cells
func manhattan(a, b grid.Position) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
