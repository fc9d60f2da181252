// Package mcp provides a Model Context Protocol server for the grid
// pathfinder.
//
// The server is a thin client: every tool call is proxied to the REST API,
// so MCP agents, browsers and the terminal viewer all share the same
// sessions.
//
// MCP Tools:
//   - create_session, list_sessions: session management
//   - get_grid, describe_cell: inspect a grid
//   - edit_cell, clear_grid, random_obstacles: edit a grid
//   - find_path, cancel_search: run or stop A*
//   - list_configs, grid_instructions: reference material
//
// Grids are rendered as text with S for start, E for end, # for obstacles
// and * for cells on a found path.
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: the /mcp endpoint of the serve command
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
