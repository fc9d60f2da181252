// Command validate provides a small CLI that validates layout configuration
// JSON files. It checks:
//   - JSON structure and required fields
//   - Dimensions, step delay and obstacle density ranges
//   - Layout consistency and allowed characters (. # S E)
//   - Exactly one start (S) and one end (E)
//   - Connectivity: the end is reachable from the start, verified with A*
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/search"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file.
// Unsolvable layouts are flagged unless allowBlocked is set.
func validateConfig(filePath string, allowBlocked bool) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config grid.Config
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := grid.ValidateConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	g, err := grid.NewFromConfig(&config)
	if err != nil {
		result.fail("Failed to build grid: %v", err)
		return result
	}

	connectivity := validateConnectivity(g)
	if !connectivity.Valid && !allowBlocked {
		result.Valid = false
	}
	result.Errors = append(result.Errors, connectivity.Errors...)

	// Add informational data
	if result.Valid {
		result.info("Name: %s", config.Name)
		result.info("Grid: %dx%d", g.Rows(), g.Cols())
		result.info("Start: %v End: %v", g.Start(), g.End())
		result.info("Obstacles: %d", g.CountCellType(grid.Obstacle))
		result.info("Step delay: %dms", config.StepDelayMS)
	}

	return result
}

// validateConnectivity solves the layout and checks that the returned path
// is connected and avoids obstacles
func validateConnectivity(g *grid.Grid) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	res, err := search.Solve(context.Background(), g)
	if err != nil {
		result.fail("Cannot validate connectivity: %v", err)
		return result
	}

	if res.Outcome != search.OutcomeFound {
		result.fail("Connectivity failure: end %v unreachable from start %v (%d cells explored)", g.End(), g.Start(), res.Stats.Expanded)
		return result
	}

	if !search.IsConnected(res.Path) {
		result.fail("Path is not 4-connected")
	}
	if !search.IsPassable(g, res.Path) {
		result.fail("Path crosses an obstacle")
	}
	if result.Valid {
		result.info("Connectivity: path of %d cells, cost %g", len(res.Path), res.Cost)
	}
	return result
}

// printResult writes a concise report for one file
func printResult(result ValidationResult) {
	fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

	if result.Valid {
		fmt.Println("✅ VALID")
		for _, info := range result.Errors {
			fmt.Println("  " + info)
		}
		return
	}

	fmt.Println("❌ INVALID")
	for _, err := range result.Errors {
		if !strings.HasPrefix(err, "✓") {
			fmt.Println("  ❌ " + err)
		}
	}
}

// main scans the config directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are
// invalid.
func main() {
	cmd := &cli.Command{
		Name:  "validate",
		Usage: "Validate layout configuration files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "../configs", Usage: "Config directory", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.BoolFlag{Name: "allow-blocked", Usage: "Accept layouts where the end is unreachable"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files, err := filepath.Glob(filepath.Join(cmd.String("dir"), "*.json"))
			if err != nil {
				return fmt.Errorf("error finding config files: %w", err)
			}
			if len(files) == 0 {
				return fmt.Errorf("no config files found in %s", cmd.String("dir"))
			}

			allValid := true
			for _, file := range files {
				result := validateConfig(file, cmd.Bool("allow-blocked"))
				printResult(result)
				allValid = allValid && result.Valid
			}

			fmt.Printf("\n%s\n", strings.Repeat("=", 40))
			if !allValid {
				return cli.Exit("❌ Some configurations have errors", 1)
			}
			fmt.Println("✅ All configurations are valid!")
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
