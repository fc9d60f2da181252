package grid

import (
	"strings"
	"testing"
	"time"
)

func createValidConfig() *Config {
	return &Config{
		Name:        "Test Config",
		Description: "A valid test configuration",
		Rows:        5,
		Cols:        5,
		Layout: []string{
			"S.#.E",
			"..#..",
			"..#..",
			"..#..",
			".....",
		},
		StepDelayMS:     5,
		ObstacleDensity: 0.3,
	}
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	if err := ValidateConfig(createValidConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation, got: %v", err)
	}
}

func TestValidateConfig_NoLayout(t *testing.T) {
	config := &Config{Name: "open", Rows: 8, Cols: 6}
	if err := ValidateConfig(config); err != nil {
		t.Fatalf("Expected layout-less config to validate, got: %v", err)
	}

	g, err := NewFromConfig(config)
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}
	if g.Start() != (Position{0, 0}) || g.End() != (Position{7, 5}) {
		t.Errorf("Expected default corners, got start %v end %v", g.Start(), g.End())
	}
}

func TestValidateConfig_ExplicitEndpoints(t *testing.T) {
	config := &Config{
		Name:     "endpoints",
		Rows:     4,
		Cols:     4,
		StartPos: &Position{1, 1},
		EndPos:   &Position{2, 3},
	}
	g, err := NewFromConfig(config)
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}
	if g.Start() != (Position{1, 1}) || g.End() != (Position{2, 3}) {
		t.Errorf("Expected configured endpoints, got %v %v", g.Start(), g.End())
	}
}

func TestValidateConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"missing name", func(c *Config) { c.Name = "" }, "name is required"},
		{"rows too small", func(c *Config) { c.Rows = 0 }, "rows must be between"},
		{"cols too large", func(c *Config) { c.Cols = MaxGridSize + 1 }, "cols must be between"},
		{"negative delay", func(c *Config) { c.StepDelayMS = -1 }, "step_delay_ms"},
		{"density out of range", func(c *Config) { c.ObstacleDensity = 1.5 }, "obstacle_density"},
		{"row count mismatch", func(c *Config) { c.Layout = c.Layout[:4] }, "layout must have 5 rows"},
		{"bad char", func(c *Config) { c.Layout[1] = "..X.." }, "invalid character"},
		{"no end", func(c *Config) { c.Layout[0] = "S.#.." }, "no end cell"},
		{"endpoint with layout", func(c *Config) { c.StartPos = &Position{1, 1} }, "must be given in the layout"},
		{"endpoint out of bounds", func(c *Config) {
			c.Layout = nil
			c.EndPos = &Position{9, 9}
		}, "out of bounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			tt.mutate(config)
			err := ValidateConfig(config)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if err := ValidateConfig(config); err != nil {
		t.Fatalf("Expected default config to validate, got: %v", err)
	}
	g, err := NewFromConfig(config)
	if err != nil {
		t.Fatalf("Failed to build default grid: %v", err)
	}
	if g.Rows() != DefaultRows || g.Cols() != DefaultCols {
		t.Errorf("Expected %dx%d, got %dx%d", DefaultRows, DefaultCols, g.Rows(), g.Cols())
	}
}

func TestConfigPacingDefaults(t *testing.T) {
	var nilConfig *Config
	if d := nilConfig.StepDelay(); d != 10*time.Millisecond {
		t.Errorf("Expected default delay 10ms, got %v", d)
	}
	if d := (&Config{StepDelayMS: 25}).StepDelay(); d != 25*time.Millisecond {
		t.Errorf("Expected 25ms, got %v", d)
	}

	// Zero validates but still selects the default pace
	zero := &Config{Name: "zero", Rows: 3, Cols: 3, StepDelayMS: 0}
	if err := ValidateConfig(zero); err != nil {
		t.Fatalf("Expected zero delay to validate, got %v", err)
	}
	if d := zero.StepDelay(); d != DefaultStepDelayMS*time.Millisecond {
		t.Errorf("Expected zero delay to select the default, got %v", d)
	}
	if d := (&Config{StepDelayMS: 1}).StepDelay(); d != time.Millisecond {
		t.Errorf("Expected fastest pace 1ms, got %v", d)
	}
	if d := (&Config{}).Density(); d != DefaultObstacleDensity {
		t.Errorf("Expected default density, got %v", d)
	}
}
