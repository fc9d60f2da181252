package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/search"
)

// gridServiceImpl implements the GridService interface
type gridServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGridService creates a new grid service instance
func NewGridService(sessions SessionManager, configs ConfigManager) GridService {
	return &gridServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gridServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gridServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		Grid:           sess.Grid.Snapshot(),
		Config:         sess.Config,
	}
	if run := sess.LastRun(); run != nil {
		info.Search = &SearchStatus{RunID: run.ID(), Outcome: run.Outcome()}
	}
	return info
}

// CreateSession creates a new session from a named layout configuration
func (s *gridServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *grid.Config
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s': %w. Available configs: %v", configName, ErrConfigNotFound, configIDs)
				}
				return nil, fmt.Errorf("config '%s': %w. Use /api/configs to list available configurations", configName, ErrConfigNotFound)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return s.sessionInfo(session, configID), nil
}

// GetSession retrieves session information
func (s *gridServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return s.sessionInfo(session, s.getConfigID(session.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gridServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}

	return result, nil
}

// DeleteSession cancels any active run and removes the session
func (s *gridServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// GetGrid returns the current grid of a session
func (s *gridServiceImpl) GetGrid(ctx context.Context, sessionID string) (*grid.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Grid.Snapshot(), nil
}

// EditCell applies one edit. Any active run is cancelled first, even if the
// edit is then rejected.
func (s *gridServiceImpl) EditCell(ctx context.Context, sessionID string, req EditRequest) (*EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	cancelled := session.CancelRun()
	cell := req.Cell()
	g := session.Grid

	switch req.Action {
	case ActionSetObstacle:
		err = g.SetObstacle(cell)
	case ActionSetBlank:
		err = g.SetBlank(cell)
	case ActionToggleObstacle:
		if g.At(cell) == grid.Obstacle {
			err = g.SetBlank(cell)
		} else {
			err = g.SetObstacle(cell)
		}
	case ActionMoveStart:
		err = g.MoveStart(cell)
	case ActionMoveEnd:
		err = g.MoveEnd(cell)
	default:
		return nil, fmt.Errorf("%w: %q (use %s, %s, %s, %s or %s)", ErrInvalidAction, req.Action,
			ActionSetObstacle, ActionSetBlank, ActionToggleObstacle, ActionMoveStart, ActionMoveEnd)
	}
	if err != nil {
		return nil, err
	}

	return &EditResult{
		SessionID:    session.ID,
		Action:       req.Action,
		Cell:         &cell,
		CellType:     g.At(cell),
		RunCancelled: cancelled,
		Grid:         g.Snapshot(),
	}, nil
}

// ClearGrid removes every obstacle from the session grid
func (s *gridServiceImpl) ClearGrid(ctx context.Context, sessionID string) (*EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	cancelled := session.CancelRun()
	session.Grid.Clear()

	return &EditResult{
		SessionID:    session.ID,
		Action:       "clear",
		RunCancelled: cancelled,
		Grid:         session.Grid.Snapshot(),
	}, nil
}

// AddRandomObstacles turns random blank cells into obstacles
func (s *gridServiceImpl) AddRandomObstacles(ctx context.Context, sessionID string, req RandomObstaclesRequest) (*EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if req.Count < 0 {
		return nil, fmt.Errorf("%w: count cannot be negative, got %d", ErrInvalidAction, req.Count)
	}
	if req.Density < 0 || req.Density > 1 {
		return nil, fmt.Errorf("%w: density must be between 0 and 1, got %g", ErrInvalidAction, req.Density)
	}

	g := session.Grid
	count := req.Count
	if count == 0 {
		density := req.Density
		if density == 0 {
			density = session.Config.Density()
		}
		count = grid.ObstacleCountForDensity(g.Rows(), g.Cols(), density)
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	cancelled := session.CancelRun()
	placed := g.AddRandomObstacles(count, rand.New(rand.NewSource(seed)))

	return &EditResult{
		SessionID:    session.ID,
		Action:       "random_obstacles",
		Placed:       placed,
		RunCancelled: cancelled,
		Grid:         g.Snapshot(),
	}, nil
}

// StartSearch cancels any active run and starts a new one on a snapshot of
// the session grid. The caller drives the returned run; its lifetime is not
// bound to ctx.
func (s *gridServiceImpl) StartSearch(ctx context.Context, sessionID string) (*SearchHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	session.CancelRun()
	run, err := search.New(context.WithoutCancel(ctx), session.Grid)
	if err != nil {
		return nil, err
	}
	session.SetRun(run)

	return &SearchHandle{
		SessionID: session.ID,
		Run:       run,
		StepDelay: session.Config.StepDelay(),
		Grid:      session.Grid.Snapshot(),
	}, nil
}

// CancelSearch cancels the active run of a session
func (s *gridServiceImpl) CancelSearch(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return false, err
	}
	return session.CancelRun(), nil
}

// Solve runs a search to completion without pacing
func (s *gridServiceImpl) Solve(ctx context.Context, sessionID string, opts SolveOptions) (*SolveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	session.CancelRun()
	run, err := search.New(ctx, session.Grid)
	if err != nil {
		return nil, err
	}
	session.SetRun(run)

	var events []search.Event
	for ev := range run.Events() {
		if opts.IncludeEvents {
			events = append(events, ev)
		}
	}
	result := run.Result(events)

	return &SolveResult{
		SessionID: session.ID,
		RunID:     result.RunID,
		Outcome:   result.Outcome,
		Path:      result.Path,
		PathCost:  result.Cost,
		Stats:     result.Stats,
		Events:    result.Events,
		Grid:      session.Grid.Snapshot(),
	}, nil
}

// ListConfigs returns all available layout configurations
func (s *gridServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a layout configuration by name
func (s *gridServiceImpl) LoadConfig(ctx context.Context, configName string) (*grid.Config, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig validates and saves a layout configuration
func (s *gridServiceImpl) SaveConfig(ctx context.Context, configName string, config *grid.Config) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *gridServiceImpl) getSession(sessionID string) (*Session, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return session, nil
}
