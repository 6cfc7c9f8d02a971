package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/boxpusher/game/engine"
	"github.com/wricardo/mcp-training/boxpusher/game/service"
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
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Solving a hard level can take a while
			Timeout: 2 * time.Minute,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Box Pusher",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Box Pusher - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Push every box ($) onto a target (.). The hero (@) walks one cell at a time
and pushes a box by walking into it. Boxes can not be pulled and a box can
not push another box.

AVAILABLE TOOLS:
- create_session: Create a new session on a level
- list_sessions / get_session: Inspect sessions
- game_state: Current board
- move: Single move (up/down/left/right) - requires intent explanation
- bulk_move: Several moves at once, stops early when blocked, deadlocked or solved
- reset_game: Back to the level start
- move_history: Past moves
- list_configs: Available levels
- solve: Ask the solver for a solution from the current position
- game_instructions: Rules and the board legend
- describe_cell: Details about one cell, including feature orientation

NOTE: The 'intent' parameter on move/bulk_move tools serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session, optionally on a specific level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Level id from list_configs (optional, defaults to the server default level)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board and counters",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the hero one cell, pushing a box if one is in the way",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to move",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Why you are making this move",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset the level before moving",
				},
			},
			Required: []string{"session_id", "direction", "intent"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in order. Stops at the first blocked move, at a deadlock or when the level is solved", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
					},
					"description": "Moves such as [\"up\", \"r\", \"r\", \"d\"]",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Alternative to moves: a compact string like \"rrdlu\"",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "What this sequence should achieve",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset the level before moving",
				},
			},
			Required: []string{"session_id", "intent"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Put the hero and boxes back at the level start",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the move history of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number (1-based)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Moves per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve",
		Description: "Search for a solution from the current position. Returns the move sequence without playing it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleSolve)

	// Information
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List the available levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Rules, board legend and tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one cell: terrain, box, hero, feature orientation and what can enter it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"x": map[string]interface{}{
					"type":        "number",
					"description": "Column, 0-based from the left",
				},
				"y": map[string]interface{}{
					"type":        "number",
					"description": "Row, 0-based from the top",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiError mirrors the REST error body
type apiError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// apiCall makes an HTTP call to the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
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
		var errResp apiError
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID := request.GetString("config_id", "")

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		progress := ""
		if s.GameState != nil {
			progress = fmt.Sprintf(", Boxes: %d/%d", s.GameState.BoxesPlaced, s.GameState.TotalBoxes)
			if s.GameState.Solved {
				progress += " solved"
			}
		}
		fmt.Fprintf(&b, "- %s (Level: %s%s, Created: %s)\n",
			s.ID, s.ConfigName, progress, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	direction := request.GetString("direction", "")
	reset := request.GetBool("reset", false)
	// intent is only there to make the caller think out loud

	body := map[string]interface{}{
		"direction": direction,
		"reset":     reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

// bulkMoves accepts either a moves array or a compact path string
func bulkMoves(args map[string]any) []string {
	var moves []string
	if raw, ok := args["moves"].([]interface{}); ok {
		for _, m := range raw {
			if move, ok := m.(string); ok {
				moves = append(moves, move)
			}
		}
	}
	if path, ok := args["path"].(string); ok {
		for _, r := range path {
			if r == ' ' || r == ',' {
				continue
			}
			moves = append(moves, string(r))
		}
	}
	return moves
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	reset := request.GetBool("reset", false)

	moves := bulkMoves(request.GetArguments())
	if len(moves) == 0 {
		return mcp.NewToolResultError("provide moves or path"), nil
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(&history)

	// The live state carries the moves since the last reset
	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &session); err == nil {
		result += "\n" + formatCurrentSegment(session.GameState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var result service.SolveResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/solve"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSolveResult(&result)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, config := range configs {
		features := ""
		if config.HasFeatures {
			features = ", has springs/treadmills/oily floor"
		}
		fmt.Fprintf(&b, "• %s (id: %s)\n  %s\n  Grid: %dx%d, Boxes: %d%s\n\n",
			config.Name, config.ConfigID, config.Description, config.Width, config.Height, config.Boxes, features)
	}

	return mcp.NewToolResultText(b.String()), nil
}

const instructions = `Box Pusher - Complete Instructions

GAME OBJECTIVE:
Push every box onto a target. The level is solved the moment each target
holds a box.

MOVEMENT:
• The hero moves one cell up, down, left or right per move
• Walking into a box pushes it one cell further in the same direction
• A push fails if the cell behind the box is a wall, another box or a
  feature that refuses the box
• Boxes can never be pulled
• "stand" is not a move

BOARD LEGEND:
• # - Wall (impassable)
• space - Floor
• . - Target
• $ - Box
• * - Box on a target
• @ - Hero
• + - Hero standing on a target
• _ - Empty cell outside the playable area (impassable)
• S - Spring: a box resting on it is launched one cell along the spring's
  orientation. Boxes can only be pushed onto it against its orientation
• T - Treadmill: carries the hero or a box one cell along its orientation.
  Walking against the belt is impossible
• O - Oily floor: the hero or a box entering it slides one extra cell

Use describe_cell to read the orientation of springs and treadmills.

DEADLOCKS:
A box pushed into a corner that is not a target can never move again, so
the level becomes unsolvable. bulk_move stops as soon as a move creates
such a position and reports stop_reason_code=deadlocked. Use reset_game to
start over.

STRATEGY:
• Count boxes and targets first. Every box must end on a target
• Before pushing, check the cell behind the box and the cell you need to
  stand on for the next push
• Never push a box against a wall unless a target lies along that wall
• Plan pushes, then plan the walks between them
• Use bulk_move with a compact path like "rrdlu" once a plan is clear
• solve returns an optimal-in-moves plan you can replay with bulk_move

SESSION MANAGEMENT:
• Several sessions can run at once, each with its own level and state
• Session ids are short (4 characters unless you choose one)
• move_history shows every move, including failed ones

Good luck pushing!`

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

// CellDescription is what describe_cell reports
type CellDescription struct {
	X           int
	Y           int
	Char        string
	Tile        engine.TileCode
	Orientation engine.Direction
	Box         bool
	Hero        bool
	Passable    bool
	Description string
}

func describeCell(level *engine.Level, state *engine.GameState, x, y int) (*CellDescription, error) {
	pos := engine.Position{X: x, Y: y}
	if !level.Map.InBounds(pos) {
		return nil, fmt.Errorf("coordinates (%d, %d) are out of bounds. Board is %dx%d (x 0-%d, y 0-%d)",
			x, y, level.Map.Width(), level.Map.Height(), level.Map.Width()-1, level.Map.Height()-1)
	}

	tile := level.Map.TileAt(pos)
	cell := &CellDescription{
		X:           x,
		Y:           y,
		Tile:        tile.Code,
		Orientation: tile.Orientation,
		Hero:        state.Hero == pos,
		Passable:    !level.Map.Blocked(pos),
	}
	for _, box := range state.Boxes {
		if box == pos {
			cell.Box = true
			break
		}
	}
	if y < len(state.Board) && x < len(state.Board[y]) {
		cell.Char = string(state.Board[y][x])
	}

	switch tile.Code {
	case engine.Wall:
		cell.Description = "Wall - nothing can enter"
	case engine.Empty:
		cell.Description = "Outside the playable area - nothing can enter"
	case engine.Target:
		cell.Description = "Target - a box must end here"
	case engine.Spring:
		cell.Description = fmt.Sprintf("Spring facing %s - launches a box resting here one cell %s. Boxes enter it only moving %s",
			tile.Orientation, tile.Orientation, tile.Orientation.Opposite())
	case engine.Treadmill:
		cell.Description = fmt.Sprintf("Treadmill running %s - carries the hero or a box one cell %s. Can not be entered moving %s",
			tile.Orientation, tile.Orientation, tile.Orientation.Opposite())
	case engine.Oily:
		cell.Description = "Oily floor - whatever enters it slides one more cell"
	default:
		cell.Description = "Floor"
	}
	switch {
	case cell.Hero:
		cell.Description += ". The hero is here"
	case cell.Box:
		cell.Description += ". A box is here"
	}
	return cell, nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	x, err := request.RequireInt("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := request.RequireInt("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if session.LevelConfig == nil || session.GameState == nil {
		return mcp.NewToolResultError("session has no level attached"), nil
	}

	level, err := engine.BuildLevel(session.LevelConfig)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cell, err := describeCell(level, session.GameState, x, y)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cell at position (%d, %d):\n━━━━━━━━━━━━━━━━━━━━━━━━\n", cell.X, cell.Y)
	fmt.Fprintf(&b, "Character: %q\n", cell.Char)
	fmt.Fprintf(&b, "Terrain: %s\n", cell.Tile)
	if cell.Orientation.IsMovement() {
		fmt.Fprintf(&b, "Orientation: %s\n", cell.Orientation)
	}
	fmt.Fprintf(&b, "Box: %v\nHero: %v\nPassable terrain: %v\n", cell.Box, cell.Hero, cell.Passable)
	fmt.Fprintf(&b, "Description: %s\n", cell.Description)
	return mcp.NewToolResultText(b.String()), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nLevel: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hero: (%d,%d) | Boxes on target: %d/%d | Pushes: %d | Moves: %d\n\n",
		state.Hero.X, state.Hero.Y, state.BoxesPlaced, state.TotalBoxes, state.Pushes, state.TotalMoves)

	if v := formatLocal3x3(state); v != "" {
		b.WriteString("Local 3x3:\n")
		b.WriteString(v)
		b.WriteString("\n")
	}

	// Column ruler makes counting cells easier
	if state.Width > 0 {
		b.WriteString("   ")
		for x := 0; x < state.Width; x++ {
			b.WriteByte(byte('0' + x%10))
		}
		b.WriteString("\n")
	}
	for y, row := range state.Board {
		fmt.Fprintf(&b, "%2d %s\n", y, row)
	}

	if state.Solved {
		b.WriteString("\n🎉 SOLVED!")
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move successful\n")
	} else {
		b.WriteString("✗ Move failed\n")
	}

	if result.Step != nil {
		b.WriteString("Step: ")
		b.WriteString(formatStep(*result.Step))
	}

	if a := result.AttemptedTo; a != nil {
		what := a.TileType
		if a.Box {
			what += " with a box"
		}
		fmt.Fprintf(&b, "Blocked: attempted (%d,%d) tile=%q %s\n", a.X, a.Y, a.TileChar, what)
	}

	if len(result.MovementEvents) > 0 {
		names := make([]string, len(result.MovementEvents))
		for i, ev := range result.MovementEvents {
			names[i] = ev.String()
		}
		fmt.Fprintf(&b, "Events: %s\n", strings.Join(names, ", "))
	}
	if result.Deadlocked {
		b.WriteString("⚠️ Deadlock: a box can no longer reach a target. Reset to continue.\n")
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatStep(s service.StepInfo) string {
	status := "✗"
	if s.Success {
		status = "✓"
	}
	var notes []string
	if s.Pushed {
		notes = append(notes, "push")
	}
	if s.BoxOnTarget {
		notes = append(notes, "box on target")
	}
	if s.Deadlocked {
		notes = append(notes, "deadlock")
	}
	if s.Solved {
		notes = append(notes, "solved")
	}
	extra := ""
	if len(notes) > 0 {
		extra = " [" + strings.Join(notes, ", ") + "]"
	}
	return fmt.Sprintf("%s (%d,%d)→(%d,%d) %s%s\n", s.Dir, s.From.X, s.From.Y, s.To.X, s.To.Y, status, extra)
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	configName := ""
	if result.GameState != nil {
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Level: %s\n", sessionID, configName)

	fmt.Fprintf(&b, "Executed %d/%d moves", result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Hero: (%d,%d)→(%d,%d) • Pushes: +%d\n",
		result.StartPos.X, result.StartPos.Y, result.EndPos.X, result.EndPos.Y, result.PushesDelta)
	if result.StopReasonCode != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s (%s)\n", result.StoppedOnMove, result.StoppedReason, result.StopReasonCode)
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for _, s := range result.Steps {
			fmt.Fprintf(&b, "%d. %s", s.Idx, formatStep(s))
		}
	}

	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&b, "\nBlocked: attempted (%d,%d) tile=%q %s", a.X, a.Y, a.TileChar, a.TileType)
		if a.Box {
			b.WriteString(" with a box")
		}
		b.WriteString("\n")
	}

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(result.PossibleMoves, ","))
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatSolveResult(result *service.SolveResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Solve %s on %s: %s\n", result.SessionID, result.ConfigName, result.Outcome)
	if result.Compact != "" {
		fmt.Fprintf(&b, "Moves (%d, %d pushes): %s\n", len(result.Actions), result.Pushes, result.Compact)
		b.WriteString("Replay with bulk_move path=<moves>.\n")
	}
	fmt.Fprintf(&b, "Iterations: %d | States: %d | Time: %dms", result.Iterations, result.States, result.DurationMs)
	if result.Cached {
		b.WriteString(" (cached)")
	}
	b.WriteString("\n")
	if result.Difficulty != nil {
		fmt.Fprintf(&b, "Difficulty: %.2f\n", *result.Difficulty)
	}
	return b.String()
}

// formatLocal3x3 renders a 3x3 window of the board centered on the hero
func formatLocal3x3(state *engine.GameState) string {
	if state == nil || len(state.Board) == 0 {
		return ""
	}
	var b strings.Builder
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			b.WriteByte(boardChar(state, state.Hero.X+dx, state.Hero.Y+dy))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// boardChar reads the rendered board, treating out of range cells as walls
func boardChar(state *engine.GameState, x, y int) byte {
	if y < 0 || y >= len(state.Board) || x < 0 || x >= len(state.Board[y]) {
		return engine.WallChar
	}
	return state.Board[y][x]
}

func formatHistoryEntry(num int, move engine.MoveHistoryEntry) string {
	status := "✓"
	if !move.Success {
		status = "✗"
	}
	push := ""
	if move.Pushed {
		push = " push"
	}
	return fmt.Sprintf("%d. %s %s (%d,%d)→(%d,%d)%s\n", num, move.Action, status,
		move.FromPosition.X, move.FromPosition.Y, move.ToPosition.X, move.ToPosition.Y, push)
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d) - Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		b.WriteString(formatHistoryEntry(move.MoveNumber, move))
	}
	return b.String()
}

func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return "Current Segment: unavailable"
	}
	header := fmt.Sprintf("Current Move Segment - Moves: %d\n\n", state.CurrentMovesCount)
	if len(state.CurrentMoves) == 0 {
		return header + "(no moves since the last reset)"
	}
	var b strings.Builder
	b.WriteString(header)
	for i, move := range state.CurrentMoves {
		b.WriteString(formatHistoryEntry(i+1, move))
	}
	return b.String()
}
