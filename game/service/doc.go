// Package service provides the business logic layer for grid sessions.
//
// GridService is the interface consumed by the REST, MCP and terminal
// frontends. It owns the rules that tie editing and searching together:
//   - every edit cancels the session's active run first
//   - starting a run cancels the previous one
//   - runs search a snapshot, so later edits never corrupt them
//
// SessionManager and ConfigManager are implemented by the session and
// config packages.
//
// Usage:
//
//	sessions := session.NewManager()
//	configs, err := config.NewManager("configs")
//	svc := service.NewGridService(sessions, configs)
//
//	info, err := svc.CreateSession(ctx, "classic")
//	if err != nil {
//		return err
//	}
//	result, err := svc.Solve(ctx, info.ID, service.SolveOptions{})
package service
