package grid

import (
	"fmt"
	"time"
)

// ParseLayout builds a grid from layout rows and validates it
func ParseLayout(layout []string) (*Grid, error) {
	if len(layout) == 0 {
		return nil, fmt.Errorf("%w: layout is empty", ErrInvalidLayout)
	}

	cols := len(layout[0])
	cells := make([][]CellType, len(layout))
	for r, row := range layout {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d must have %d characters, got %d", ErrInvalidLayout, r+1, cols, len(row))
		}
		cells[r] = make([]CellType, cols)
		for c := 0; c < cols; c++ {
			t, ok := CellTypeFromChar(row[c])
			if !ok {
				return nil, fmt.Errorf("%w: invalid character '%c' at row %d, col %d", ErrInvalidLayout, row[c], r+1, c+1)
			}
			cells[r][c] = t
		}
	}

	g := FromCells(cells)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// ValidateConfig validates a layout configuration
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.Rows < MinGridSize || config.Rows > MaxGridSize {
		return fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Rows)
	}
	if config.Cols < MinGridSize || config.Cols > MaxGridSize {
		return fmt.Errorf("config validation: cols must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Cols)
	}

	if config.StepDelayMS < 0 {
		return fmt.Errorf("config validation: step_delay_ms cannot be negative, got %d", config.StepDelayMS)
	}
	if config.ObstacleDensity < 0 || config.ObstacleDensity > 1 {
		return fmt.Errorf("config validation: obstacle_density must be between 0 and 1, got %g", config.ObstacleDensity)
	}

	if len(config.Layout) > 0 {
		if len(config.Layout) != config.Rows {
			return fmt.Errorf("config validation: layout must have %d rows to match rows, got %d", config.Rows, len(config.Layout))
		}
		if len(config.Layout[0]) != config.Cols {
			return fmt.Errorf("config validation: layout rows must have %d characters to match cols, got %d", config.Cols, len(config.Layout[0]))
		}
		if config.StartPos != nil || config.EndPos != nil {
			return fmt.Errorf("config validation: start/end must be given in the layout when a layout is present")
		}
		if _, err := ParseLayout(config.Layout); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		return nil
	}

	if _, err := New(config.Rows, config.Cols, config.startOrDefault(), config.endOrDefault()); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// NewFromConfig creates a grid from a validated configuration
func NewFromConfig(config *Config) (*Grid, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	if len(config.Layout) > 0 {
		return ParseLayout(config.Layout)
	}
	return New(config.Rows, config.Cols, config.startOrDefault(), config.endOrDefault())
}

// DefaultConfig returns the built-in 20x20 configuration
func DefaultConfig() *Config {
	return &Config{
		Name:            "default",
		Description:     "Empty 20x20 grid, start top-left, end bottom-right",
		Rows:            DefaultRows,
		Cols:            DefaultCols,
		StepDelayMS:     DefaultStepDelayMS,
		ObstacleDensity: DefaultObstacleDensity,
	}
}

// StepDelay returns the presentation pacing delay between search events.
// A zero StepDelayMS reads the same as an absent one and selects
// DefaultStepDelayMS, so pacing cannot be switched off; 1ms is the fastest
// configurable pace.
func (c *Config) StepDelay() time.Duration {
	if c == nil || c.StepDelayMS == 0 {
		return DefaultStepDelayMS * time.Millisecond
	}
	return time.Duration(c.StepDelayMS) * time.Millisecond
}

// Density returns the obstacle density used for random generation
func (c *Config) Density() float64 {
	if c == nil || c.ObstacleDensity == 0 {
		return DefaultObstacleDensity
	}
	return c.ObstacleDensity
}

func (c *Config) startOrDefault() Position {
	if c.StartPos != nil {
		return *c.StartPos
	}
	return Position{0, 0}
}

func (c *Config) endOrDefault() Position {
	if c.EndPos != nil {
		return *c.EndPos
	}
	return Position{c.Rows - 1, c.Cols - 1}
}
