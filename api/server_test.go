package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/search"
	"github.com/wricardo/gridpath/game/service"
	"github.com/wricardo/gridpath/transport/websocket"
)

// MockGridService implements service.GridService for testing
type MockGridService struct {
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	GetGridFunc            func(ctx context.Context, sessionID string) (*grid.Snapshot, error)
	EditCellFunc           func(ctx context.Context, sessionID string, req service.EditRequest) (*service.EditResult, error)
	ClearGridFunc          func(ctx context.Context, sessionID string) (*service.EditResult, error)
	AddRandomObstaclesFunc func(ctx context.Context, sessionID string, req service.RandomObstaclesRequest) (*service.EditResult, error)

	StartSearchFunc  func(ctx context.Context, sessionID string) (*service.SearchHandle, error)
	CancelSearchFunc func(ctx context.Context, sessionID string) (bool, error)
	SolveFunc        func(ctx context.Context, sessionID string, opts service.SolveOptions) (*service.SolveResult, error)

	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*grid.Config, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *grid.Config) error
}

func (m *MockGridService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGridService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockGridService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGridService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGridService) GetGrid(ctx context.Context, sessionID string) (*grid.Snapshot, error) {
	if m.GetGridFunc != nil {
		return m.GetGridFunc(ctx, sessionID)
	}
	return grid.NewDefault().Snapshot(), nil
}

func (m *MockGridService) EditCell(ctx context.Context, sessionID string, req service.EditRequest) (*service.EditResult, error) {
	if m.EditCellFunc != nil {
		return m.EditCellFunc(ctx, sessionID, req)
	}
	return &service.EditResult{SessionID: sessionID, Action: req.Action, Grid: grid.NewDefault().Snapshot()}, nil
}

func (m *MockGridService) ClearGrid(ctx context.Context, sessionID string) (*service.EditResult, error) {
	if m.ClearGridFunc != nil {
		return m.ClearGridFunc(ctx, sessionID)
	}
	return &service.EditResult{SessionID: sessionID, Action: "clear", Grid: grid.NewDefault().Snapshot()}, nil
}

func (m *MockGridService) AddRandomObstacles(ctx context.Context, sessionID string, req service.RandomObstaclesRequest) (*service.EditResult, error) {
	if m.AddRandomObstaclesFunc != nil {
		return m.AddRandomObstaclesFunc(ctx, sessionID, req)
	}
	return &service.EditResult{SessionID: sessionID, Action: "random_obstacles", Grid: grid.NewDefault().Snapshot()}, nil
}

func (m *MockGridService) StartSearch(ctx context.Context, sessionID string) (*service.SearchHandle, error) {
	if m.StartSearchFunc != nil {
		return m.StartSearchFunc(ctx, sessionID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *MockGridService) CancelSearch(ctx context.Context, sessionID string) (bool, error) {
	if m.CancelSearchFunc != nil {
		return m.CancelSearchFunc(ctx, sessionID)
	}
	return false, nil
}

func (m *MockGridService) Solve(ctx context.Context, sessionID string, opts service.SolveOptions) (*service.SolveResult, error) {
	if m.SolveFunc != nil {
		return m.SolveFunc(ctx, sessionID, opts)
	}
	return &service.SolveResult{SessionID: sessionID, Outcome: search.OutcomeNoPath}, nil
}

func (m *MockGridService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGridService) LoadConfig(ctx context.Context, configName string) (*grid.Config, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return grid.DefaultConfig(), nil
}

func (m *MockGridService) SaveConfig(ctx context.Context, configName string, config *grid.Config) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers

func setupTestServer(t *testing.T, mockService *MockGridService) *Server {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := NewServer(mockService, hub)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return server
}

func makeRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func serve(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest(method, path, body))
	return w
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		setupMock      func(*MockGridService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockGridService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %s", configName)
					}
					return &service.SessionInfo{ID: "a1b2", ConfigName: "default", CreatedAt: time.Now()}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "a1b2" {
					t.Errorf("Expected session ID a1b2, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with specific config",
			requestBody: map[string]string{"config_id": "maze"},
			setupMock: func(m *MockGridService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "maze" {
						t.Errorf("Expected config name 'maze', got %s", configName)
					}
					return &service.SessionInfo{ID: "c3d4", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "Deprecated config_name field",
			requestBody: map[string]string{"config_name": "wall"},
			setupMock: func(m *MockGridService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "wall" {
						t.Errorf("Expected config name 'wall', got %s", configName)
					}
					return &service.SessionInfo{ID: "e5f6", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "nope"},
			setupMock: func(m *MockGridService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("config 'nope': %w", service.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockGridService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "service error" {
					t.Errorf("Expected error message 'service error', got %s", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGridService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			var body any
			if tt.requestBody != nil {
				body = tt.requestBody
			}
			w := serve(t, server, "POST", "/api/sessions", body)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions_SortAndLimit(t *testing.T) {
	now := time.Now()
	mockService := &MockGridService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Minute)},
				{ID: "mid", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", CreatedAt: now, LastAccessedAt: now},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	var resp struct {
		Count    int                    `json:"count"`
		Total    int                    `json:"total"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}

	w := serve(t, server, "GET", "/api/sessions?sort=created&order=asc&limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	parseResponse(t, w, &resp)
	if resp.Count != 2 || resp.Total != 3 {
		t.Errorf("Expected count 2 of 3, got %d of %d", resp.Count, resp.Total)
	}
	if resp.Sessions[0].ID != "old" || resp.Sessions[1].ID != "mid" {
		t.Errorf("Expected old, mid; got %s, %s", resp.Sessions[0].ID, resp.Sessions[1].ID)
	}

	w = serve(t, server, "GET", "/api/sessions", nil)
	parseResponse(t, w, &resp)
	if resp.Sessions[0].ID != "new" || resp.Sessions[2].ID != "mid" {
		t.Errorf("Expected most recently accessed first, got %s ... %s", resp.Sessions[0].ID, resp.Sessions[2].ID)
	}
}

func TestGetAndDeleteSession_NotFound(t *testing.T) {
	mockService := &MockGridService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, fmt.Errorf("session %s: %w", sessionID, service.ErrSessionNotFound)
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			return service.ErrSessionNotFound
		},
	}
	server := setupTestServer(t, mockService)

	if w := serve(t, server, "GET", "/api/sessions/zzzz", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for get, got %d", w.Code)
	}
	if w := serve(t, server, "DELETE", "/api/sessions/zzzz", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for delete, got %d", w.Code)
	}
}

// Grid Tests

func TestEditCell(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		err            error
		expectedStatus int
	}{
		{"valid edit", service.EditRequest{Action: service.ActionSetObstacle, Row: 2, Col: 3}, nil, http.StatusOK},
		{"occupied cell", service.EditRequest{Action: service.ActionSetObstacle}, fmt.Errorf("set obstacle: %w by start", grid.ErrCellOccupied), http.StatusConflict},
		{"out of bounds", service.EditRequest{Action: service.ActionMoveEnd, Row: 99}, fmt.Errorf("move end: %w", grid.ErrOutOfBounds), http.StatusBadRequest},
		{"bad action", service.EditRequest{Action: "paint"}, service.ErrInvalidAction, http.StatusBadRequest},
		{"missing session", service.EditRequest{Action: service.ActionSetBlank}, service.ErrSessionNotFound, http.StatusNotFound},
		{"malformed body", "not-an-object", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.EditRequest
			mockService := &MockGridService{
				EditCellFunc: func(ctx context.Context, sessionID string, req service.EditRequest) (*service.EditResult, error) {
					got = req
					if tt.err != nil {
						return nil, tt.err
					}
					return &service.EditResult{SessionID: sessionID, Action: req.Action, CellType: grid.Obstacle, Grid: grid.NewDefault().Snapshot()}, nil
				},
			}
			server := setupTestServer(t, mockService)

			w := serve(t, server, "POST", "/api/sessions/ab12/cells", tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if req, ok := tt.body.(service.EditRequest); ok && got != req {
				t.Errorf("Expected request %+v to reach the service, got %+v", req, got)
			}
		})
	}
}

func TestGridOperations(t *testing.T) {
	var randomReq service.RandomObstaclesRequest
	mockService := &MockGridService{
		AddRandomObstaclesFunc: func(ctx context.Context, sessionID string, req service.RandomObstaclesRequest) (*service.EditResult, error) {
			randomReq = req
			return &service.EditResult{SessionID: sessionID, Placed: req.Count, Grid: grid.NewDefault().Snapshot()}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := serve(t, server, "GET", "/api/sessions/ab12/grid", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for grid, got %d", w.Code)
	}
	var snapshot grid.Snapshot
	parseResponse(t, w, &snapshot)
	if snapshot.Rows != 20 || len(snapshot.Layout) != 20 {
		t.Errorf("Expected 20-row snapshot, got %d rows", snapshot.Rows)
	}

	if w := serve(t, server, "POST", "/api/sessions/ab12/clear", nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for clear, got %d", w.Code)
	}

	w = serve(t, server, "POST", "/api/sessions/ab12/obstacles/random", map[string]int{"count": 12})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for random obstacles, got %d", w.Code)
	}
	if randomReq.Count != 12 {
		t.Errorf("Expected count 12 to reach the service, got %d", randomReq.Count)
	}

	// Body is optional
	if w := serve(t, server, "POST", "/api/sessions/ab12/obstacles/random", nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200 without body, got %d", w.Code)
	}
}

// Search Tests

func TestSolve(t *testing.T) {
	var gotOpts service.SolveOptions
	mockService := &MockGridService{
		SolveFunc: func(ctx context.Context, sessionID string, opts service.SolveOptions) (*service.SolveResult, error) {
			gotOpts = opts
			return &service.SolveResult{
				SessionID: sessionID,
				RunID:     "run-1",
				Outcome:   search.OutcomeFound,
				Path:      []grid.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}},
				PathCost:  1,
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := serve(t, server, "POST", "/api/sessions/ab12/solve?events=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !gotOpts.IncludeEvents {
		t.Error("Expected events query to enable event recording")
	}

	var result service.SolveResult
	parseResponse(t, w, &result)
	if result.Outcome != search.OutcomeFound || len(result.Path) != 2 {
		t.Errorf("Unexpected solve result %+v", result)
	}
}

func TestSolve_ConfigurationError(t *testing.T) {
	mockService := &MockGridService{
		SolveFunc: func(ctx context.Context, sessionID string, opts service.SolveOptions) (*service.SolveResult, error) {
			return nil, fmt.Errorf("end (0,2): %w", search.ErrEndpointBlocked)
		},
	}
	server := setupTestServer(t, mockService)

	if w := serve(t, server, "POST", "/api/sessions/ab12/solve", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestCancelSearch(t *testing.T) {
	mockService := &MockGridService{
		CancelSearchFunc: func(ctx context.Context, sessionID string) (bool, error) {
			return true, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := serve(t, server, "POST", "/api/sessions/ab12/search/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp map[string]bool
	parseResponse(t, w, &resp)
	if !resp["cancelled"] {
		t.Error("Expected cancelled=true")
	}
}

func TestStartSearch_WithoutHub(t *testing.T) {
	server := NewServer(&MockGridService{}, nil)
	defer server.Close()

	if w := serve(t, server, "POST", "/api/sessions/ab12/search", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without hub, got %d", w.Code)
	}
}

func TestStartSearch_ReportsWatchers(t *testing.T) {
	g, err := grid.ParseLayout([]string{"S..", "...", "..E"})
	if err != nil {
		t.Fatalf("Failed to parse layout: %v", err)
	}
	mockService := &MockGridService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return &service.SessionInfo{ID: sessionID}, nil
		},
		StartSearchFunc: func(ctx context.Context, sessionID string) (*service.SearchHandle, error) {
			run, err := search.New(ctx, g)
			if err != nil {
				return nil, err
			}
			return &service.SearchHandle{SessionID: sessionID, Run: run, StepDelay: time.Millisecond, Grid: g.Snapshot()}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := serve(t, server, "POST", "/api/sessions/ab12/search", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", w.Code)
	}
	var resp map[string]any
	parseResponse(t, w, &resp)
	if resp["watchers"] != float64(0) {
		t.Errorf("Expected 0 watchers, got %v", resp["watchers"])
	}

	ts := httptest.NewServer(server)
	defer ts.Close()
	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?session=ab12", nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for server.hub.ClientCount("ab12") != 1 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for websocket client to register")
		}
		time.Sleep(5 * time.Millisecond)
	}

	w = serve(t, server, "POST", "/api/sessions/ab12/search", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", w.Code)
	}
	parseResponse(t, w, &resp)
	if resp["watchers"] != float64(1) {
		t.Errorf("Expected 1 watcher, got %v", resp["watchers"])
	}
}

// Configuration Tests

func TestConfigEndpoints(t *testing.T) {
	var savedID string
	mockService := &MockGridService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Rows: 20, Cols: 20}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, configName string) (*grid.Config, error) {
			if configName != "classic" {
				return nil, service.ErrConfigNotFound
			}
			return grid.DefaultConfig(), nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, config *grid.Config) error {
			if config.Rows == 0 {
				return fmt.Errorf("%w: rows must be between", service.ErrInvalidConfig)
			}
			savedID = configName
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	w := serve(t, server, "GET", "/api/configs", nil)
	var configs []*service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 1 || configs[0].ConfigID != "classic" {
		t.Errorf("Unexpected config list %+v", configs)
	}

	if w := serve(t, server, "GET", "/api/configs/classic.json", nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for classic.json, got %d", w.Code)
	}
	if w := serve(t, server, "GET", "/api/configs/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing config, got %d", w.Code)
	}

	w = serve(t, server, "POST", "/api/configs?id=mine", grid.Config{Name: "Mine", Rows: 4, Cols: 4})
	if w.Code != http.StatusCreated || savedID != "mine" {
		t.Errorf("Expected config saved as mine, got status %d id %q", w.Code, savedID)
	}
	if w := serve(t, server, "POST", "/api/configs", grid.Config{Name: "Bad"}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid config, got %d", w.Code)
	}
	if w := serve(t, server, "POST", "/api/configs", grid.Config{Rows: 4, Cols: 4}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing name, got %d", w.Code)
	}
}

func TestHealthAndWebSocketValidation(t *testing.T) {
	mockService := &MockGridService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, service.ErrSessionNotFound
		},
	}
	server := setupTestServer(t, mockService)

	w := serve(t, server, "GET", "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for health, got %d", w.Code)
	}

	if w := serve(t, server, "GET", "/ws", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without session, got %d", w.Code)
	}
	if w := serve(t, server, "GET", "/ws?session=zzzz", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", w.Code)
	}
}
