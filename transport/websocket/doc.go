// Package websocket streams grid updates and search progress to browsers.
//
// A single Hub goroutine owns the set of connected clients, grouped by
// session. Clients connect with ?session=<id> and receive JSON messages:
//
//	{"session_id": "a1b2", "event": "grid_update", "grid": {...}}
//	{"session_id": "a1b2", "event": "search_event", "data": {"run_id": "...", "kind": "opened", ...}}
//	{"session_id": "a1b2", "event": "path_step", "data": {"index": 3, "total": 39, "cell": {...}}}
//	{"session_id": "a1b2", "event": "search_done", "data": {"outcome": "found", ...}}
//
// StreamSearch drives a search run at the configured step delay, publishing
// each event and then revealing the path one cell at a time. A run cancelled
// mid-stream still produces a search_done message with outcome "cancelled".
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
