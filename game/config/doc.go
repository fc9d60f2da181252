// Package config manages grid layout configurations stored as JSON files.
//
// Each file in the config directory describes one grid:
//
//	{
//	  "name": "wall",
//	  "description": "Wall with a single gap",
//	  "rows": 5,
//	  "cols": 5,
//	  "layout": ["S.#.E", "..#..", "..#..", "..#..", "....."],
//	  "step_delay_ms": 10,
//	  "obstacle_density": 0.2
//	}
//
// Layout characters are '.' blank, '#' obstacle, 'S' start and 'E' end.
// Without a layout the grid is blank, with start and end taken from the
// optional "start"/"end" positions or the opposite corners.
//
// The default configuration is classic.json when present, otherwise the first
// valid file, otherwise the built-in 20x20 grid. Loaded configurations are
// cached until RefreshCache.
package config
