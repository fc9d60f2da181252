package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/search"
)

// GridService defines all grid and search operations
type GridService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Grid Editing
	GetGrid(ctx context.Context, sessionID string) (*grid.Snapshot, error)
	EditCell(ctx context.Context, sessionID string, req EditRequest) (*EditResult, error)
	ClearGrid(ctx context.Context, sessionID string) (*EditResult, error)
	AddRandomObstacles(ctx context.Context, sessionID string, req RandomObstaclesRequest) (*EditResult, error)

	// Search
	StartSearch(ctx context.Context, sessionID string) (*SearchHandle, error)
	CancelSearch(ctx context.Context, sessionID string) (bool, error)
	Solve(ctx context.Context, sessionID string, opts SolveOptions) (*SolveResult, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*grid.Config, error)
	SaveConfig(ctx context.Context, configName string, config *grid.Config) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *grid.Config) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles layout configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*grid.Config, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *grid.Config
	SaveConfig(name string, config *grid.Config) error
}

// Session is one editable grid with at most one active search run
type Session struct {
	ID             string
	Grid           *grid.Grid
	Config         *grid.Config
	CreatedAt      time.Time
	LastAccessedAt time.Time // guarded by mu once the session is shared

	mu      sync.Mutex
	run     *search.Run
	lastRun *search.Run
}

// Touch records an access at the current time
func (s *Session) Touch() {
	s.mu.Lock()
	s.LastAccessedAt = time.Now()
	s.mu.Unlock()
}

// LastAccessed returns the time of the most recent access
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastAccessedAt
}

// SetRun cancels the active run, if any, and makes r the active run
func (s *Session) SetRun(r *search.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		s.run.Cancel()
	}
	s.run = r
	s.lastRun = r
}

// CancelRun cancels the active run and reports whether one was running
func (s *Session) CancelRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == nil {
		return false
	}
	active := !s.run.Done()
	s.run.Cancel()
	s.run = nil
	return active
}

// ActiveRun returns the current run, or nil once it has been replaced or
// cancelled
func (s *Session) ActiveRun() *search.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

// LastRun returns the most recently started run, even if it has ended
func (s *Session) LastRun() *search.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}
