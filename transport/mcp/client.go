package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/search"
	"github.com/wricardo/gridpath/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Grid Pathfinder",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Grid Pathfinder - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A session holds a rectangular grid with one start (S), one end (E), blank
cells (.) and obstacles (#). Movement is 4-directional with unit cost.

AVAILABLE TOOLS:
- create_session: Create a session from a layout config
- list_sessions: List all active sessions
- get_grid: Render the grid of a session
- edit_cell: Place or remove an obstacle, or move the start or end
- clear_grid: Remove every obstacle
- random_obstacles: Scatter random obstacles
- find_path: Run A* and render the shortest path
- cancel_search: Cancel a running paced search
- list_configs: List available layout configs
- describe_cell: Get detailed info about one cell
- grid_instructions: Get the full legend and rules`),
	)

	// Register all tools
	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new grid session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the layout config to use (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active grid sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	// Grid operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_grid",
		Description: "Render the current grid of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetGrid)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "edit_cell",
		Description: "Edit one cell. Any edit cancels a running search first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"action": map[string]interface{}{
					"type": "string",
					"enum": []string{
						service.ActionSetObstacle,
						service.ActionSetBlank,
						service.ActionToggleObstacle,
						service.ActionMoveStart,
						service.ActionMoveEnd,
					},
					"description": "Edit to apply",
				},
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the cell (0-based)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the cell (0-based)",
				},
			},
			Required: []string{"session_id", "action", "row", "col"},
		},
	}, c.handleEditCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "clear_grid",
		Description: "Remove every obstacle, keeping the start and end",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleClearGrid)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "random_obstacles",
		Description: "Scatter random obstacles over blank cells",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"count": map[string]interface{}{
					"type":        "integer",
					"description": "Number of obstacles to add (optional)",
				},
				"density": map[string]interface{}{
					"type":        "number",
					"description": "Fraction of all cells to fill when count is not given (optional)",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Random seed for a reproducible layout (optional)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRandomObstacles)

	// Search
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "find_path",
		Description: "Run A* from start to end and render the shortest path",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleFindPath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "cancel_search",
		Description: "Cancel the paced search running in a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleCancelSearch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available layout configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "grid_instructions",
		Description: "Get the grid legend and search rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGridInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get detailed information about a specific cell in the grid, including whether it is passable.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the cell to describe (0-based)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the cell to describe (0-based)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Argument helpers. JSON numbers arrive as float64.

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	err := c.apiCall(ctx, "POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatGrid(session.Grid, nil))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		size := ""
		if s.Grid != nil {
			size = fmt.Sprintf(", %dx%d", s.Grid.Rows, s.Grid.Cols)
		}
		fmt.Fprintf(&result, "- %s (Config: %s%s, Created: %s)\n",
			s.ID, s.ConfigName, size, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetGrid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var snapshot grid.Snapshot
	err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/grid", sessionID), nil, &snapshot)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGrid(&snapshot, nil)), nil
}

func (c *Client) handleEditCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	action, _ := args["action"].(string)
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required integers"), nil
	}

	body := service.EditRequest{Action: action, Row: row, Col: col}

	var result service.EditResult
	err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/cells", sessionID), body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatEditResult(&result)), nil
}

func (c *Client) handleClearGrid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.EditResult
	err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/clear", sessionID), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatEditResult(&result)), nil
}

func (c *Client) handleRandomObstacles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	var body service.RandomObstaclesRequest
	if n, ok := intArg(args, "count"); ok {
		body.Count = n
	}
	if d, ok := args["density"].(float64); ok {
		body.Density = d
	}
	if s, ok := intArg(args, "seed"); ok {
		seed := int64(s)
		body.Seed = &seed
	}

	var result service.EditResult
	err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/obstacles/random", sessionID), body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatEditResult(&result)), nil
}

func (c *Client) handleFindPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.SolveResult
	err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/solve", sessionID), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSolveResult(&result)), nil
}

func (c *Client) handleCancelSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Cancelled bool `json:"cancelled"`
	}
	err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/search/cancel", sessionID), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Cancelled {
		return mcp.NewToolResultText(fmt.Sprintf("Search in session %s cancelled", sessionID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("No search running in session %s", sessionID)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&result, "- %s: %s (%dx%d)\n", cfg.ConfigID, cfg.Name, cfg.Rows, cfg.Cols)
		if cfg.Description != "" {
			fmt.Fprintf(&result, "  %s\n", cfg.Description)
		}
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGridInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Grid Pathfinder - Instructions

GRID LEGEND:
• S - Start cell (exactly one)
• E - End cell (exactly one)
• . - Blank cell (passable)
• # - Obstacle (impassable)
• * - Cell on the shortest path (find_path output only)

MOVEMENT:
- Four directions only: up, down, left, right
- Every step costs 1; there are no diagonal moves

SEARCH:
- find_path runs A* with the Euclidean distance heuristic
- The result is a shortest path by step count, or "no path" when the end is walled off
- Ties between equally good cells are broken deterministically, so the same grid always yields the same path

EDITING:
- edit_cell actions: set_obstacle, set_blank, toggle_obstacle, move_start, move_end
- The start and end can never be overwritten by an obstacle
- Any edit cancels a search that is still running

COORDINATES:
- (row, col), 0-based, with (0,0) in the top-left corner`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required integers"), nil
	}

	var snapshot grid.Snapshot
	err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/grid", sessionID), nil, &snapshot)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if row < 0 || row >= snapshot.Rows || col < 0 || col >= snapshot.Cols {
		return mcp.NewToolResultError(fmt.Sprintf("Cell (%d, %d) is out of bounds. Grid is %dx%d (rows 0-%d, cols 0-%d)",
			row, col, snapshot.Rows, snapshot.Cols, snapshot.Rows-1, snapshot.Cols-1)), nil
	}

	cellType, _ := grid.CellTypeFromChar(snapshot.Layout[row][col])
	var description string
	switch cellType {
	case grid.Start:
		description = "Start cell - every search begins here"
	case grid.End:
		description = "End cell - the search target"
	case grid.Obstacle:
		description = "Obstacle - IMPASSABLE"
	default:
		description = "Blank cell - free to cross"
	}

	pos := grid.Position{Row: row, Col: col}
	result := fmt.Sprintf(`Cell at position %s:
━━━━━━━━━━━━━━━━━━━━━━━━
Character: %c
Type: %s
Passable: %v
Distance to end: %.2f
Description: %s`,
		pos,
		cellType.Char(),
		cellType,
		cellType.Passable(),
		grid.Distance(pos, snapshot.End),
		description)

	return mcp.NewToolResultText(result), nil
}

// Formatting helpers

// formatGrid renders a snapshot, marking path cells other than the
// endpoints with '*'
func formatGrid(snapshot *grid.Snapshot, path []grid.Position) string {
	if snapshot == nil {
		return "No grid available"
	}

	onPath := make(map[grid.Position]bool, len(path))
	for _, p := range path {
		onPath[p] = true
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Grid %dx%d | Start: %s | End: %s | Obstacles: %d\n\n",
		snapshot.Rows, snapshot.Cols, snapshot.Start, snapshot.End, len(snapshot.Obstacles))

	for r, line := range snapshot.Layout {
		for c := 0; c < len(line); c++ {
			ch := line[c]
			if ch == grid.BlankChar && onPath[grid.Position{Row: r, Col: c}] {
				ch = '*'
			}
			result.WriteByte(ch)
		}
		result.WriteString("\n")
	}

	return result.String()
}

func formatEditResult(result *service.EditResult) string {
	var b strings.Builder
	switch {
	case result.Cell != nil:
		fmt.Fprintf(&b, "✓ %s at %s -> %s\n", result.Action, result.Cell, result.CellType)
	case result.Placed > 0:
		fmt.Fprintf(&b, "✓ %s placed %d obstacles\n", result.Action, result.Placed)
	default:
		fmt.Fprintf(&b, "✓ %s\n", result.Action)
	}
	if result.RunCancelled {
		b.WriteString("Running search was cancelled\n")
	}
	b.WriteString("\n")
	b.WriteString(formatGrid(result.Grid, nil))
	return b.String()
}

func formatSolveResult(result *service.SolveResult) string {
	var b strings.Builder
	switch result.Outcome {
	case search.OutcomeFound:
		fmt.Fprintf(&b, "✓ Path found: %d cells, cost %g\n", len(result.Path), result.PathCost)
	case search.OutcomeNoPath:
		b.WriteString("✗ No path exists between start and end\n")
	default:
		fmt.Fprintf(&b, "Search ended: %s\n", result.Outcome)
	}
	fmt.Fprintf(&b, "Expanded: %d | Opened: %d | Improved: %d\n\n",
		result.Stats.Expanded, result.Stats.Opened, result.Stats.Improved)
	b.WriteString(formatGrid(result.Grid, result.Path))
	return b.String()
}
