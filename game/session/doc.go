// Package session provides in-memory session management for grid editing
// and search runs.
//
// A session owns one grid, the layout configuration it was built from, and
// at most one active search run. Sessions are identified by 4-character hex
// IDs and looked up case-insensitively.
//
// Deleting or expiring a session cancels its active run. Nothing is
// persisted; restarting the server discards every session.
//
// Usage:
//
//	manager := session.NewManager()
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	go manager.RunCleanup(ctx, time.Hour, 24*time.Hour)
package session
