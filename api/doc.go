// Package api provides HTTP REST API handlers for the grid pathfinding server.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session from a layout config
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session with its grid
//   - DELETE /api/sessions/{id} - Delete a session and cancel its search
//
// Grid editing:
//   - GET /api/sessions/{id}/grid - Current grid snapshot
//   - POST /api/sessions/{id}/cells - Edit one cell
//   - POST /api/sessions/{id}/clear - Remove every obstacle
//   - POST /api/sessions/{id}/obstacles/random - Scatter obstacles
//
// Search:
//   - POST /api/sessions/{id}/solve - Run A* to completion (?events=true records every event)
//   - POST /api/sessions/{id}/search - Start a paced run streamed over the websocket; the reply counts connected watchers
//   - POST /api/sessions/{id}/search/cancel - Cancel the active run
//
// Configuration:
//   - GET /api/configs - List available layouts
//   - POST /api/configs - Save a layout (?id= overrides the file name)
//   - GET /api/configs/{name} - Get a layout
//
// Edit requests look like:
//
//	{"action": "set_obstacle|set_blank|toggle_obstacle|move_start|move_end", "row": 3, "col": 7}
//
// Any edit cancels the session's active run before the grid changes.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	server := api.NewServer(gridService, hub)
//	defer server.Close()
//	http.ListenAndServe(":8080", server)
package api
