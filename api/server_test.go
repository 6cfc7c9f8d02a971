package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wricardo/mcp-training/boxpusher/game/config"
	"github.com/wricardo/mcp-training/boxpusher/game/engine"
	"github.com/wricardo/mcp-training/boxpusher/game/service"
	"github.com/wricardo/mcp-training/boxpusher/game/session"
	"github.com/wricardo/mcp-training/boxpusher/game/solver"
	"github.com/wricardo/mcp-training/boxpusher/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	MoveFunc     func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error)
	BulkMoveFunc func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error)
	ResetFunc    func(ctx context.Context, sessionID string) (*engine.GameState, error)
	SolveFunc    func(ctx context.Context, sessionID string) (*service.SolveResult, error)

	// Game State
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.LevelConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.LevelConfig) error
}

func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, direction, reset)
	}
	return &service.MoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, moves, reset)
	}
	return &service.BulkMoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) Solve(ctx context.Context, sessionID string) (*service.SolveResult, error) {
	if m.SolveFunc != nil {
		return m.SolveFunc(ctx, sessionID)
	}
	return &service.SolveResult{SessionID: sessionID, Outcome: solver.OutcomeSolved}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.MoveHistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.LevelConfig{Name: configName, Description: "Test config"}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.LevelConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService, opts ...Option) *Server {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return NewServer(mockService, hub, opts...)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v (%s)", err, w.Body.String())
	}
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		createErr      error
		wantConfig     string
		expectedStatus int
	}{
		{name: "default config", wantConfig: "", expectedStatus: http.StatusCreated},
		{name: "config_id", requestBody: map[string]string{"config_id": "easy"}, wantConfig: "easy", expectedStatus: http.StatusCreated},
		{name: "legacy config_name", requestBody: map[string]string{"config_name": "classic"}, wantConfig: "classic", expectedStatus: http.StatusCreated},
		{
			name:           "config_id wins",
			requestBody:    map[string]string{"config_id": "easy", "config_name": "classic"},
			wantConfig:     "easy",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unknown config",
			requestBody:    map[string]string{"config_id": "nope"},
			createErr:      fmt.Errorf("%w: nope. Available configs: [easy]", config.ErrConfigNotFound),
			wantConfig:     "nope",
			expectedStatus: http.StatusNotFound,
		},
		{name: "service error", createErr: fmt.Errorf("service error"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				CreateSessionFunc: func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != tt.wantConfig {
						t.Errorf("Expected config %q, got %q", tt.wantConfig, configName)
					}
					if tt.createErr != nil {
						return nil, tt.createErr
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: configName}, nil
				},
			}

			var body interface{}
			if tt.requestBody != nil {
				body = tt.requestBody
			}
			w := serve(setupTestServer(t, mockService), makeRequest("POST", "/api/sessions", body))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.createErr != nil {
				var resp errorBody
				parseResponse(t, w, &resp)
				if resp.Error != tt.createErr.Error() || resp.Code != tt.expectedStatus {
					t.Errorf("unexpected error body %+v", resp)
				}
				return
			}
			var resp service.SessionInfo
			parseResponse(t, w, &resp)
			if resp.ID != "ab12" {
				t.Errorf("Expected session ID ab12, got %s", resp.ID)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "old", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Hour)},
			{ID: "mid", CreatedAt: base.Add(time.Hour), LastAccessedAt: base.Add(time.Hour)},
			{ID: "new", CreatedAt: base.Add(2 * time.Hour), LastAccessedAt: base.Add(2 * time.Hour)},
		}
	}

	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantTotal int
	}{
		{"default accessed desc", "", []string{"old", "new", "mid"}, 3},
		{"created asc", "?sort=created&order=asc", []string{"old", "mid", "new"}, 3},
		{"created desc limited", "?sort=created&limit=2", []string{"new", "mid"}, 3},
		{"limit beyond size", "?limit=10", []string{"old", "new", "mid"}, 3},
		{"bad limit ignored", "?limit=abc", []string{"old", "new", "mid"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			}
			w := serve(setupTestServer(t, mockService), makeRequest("GET", "/api/sessions"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Count != len(tt.wantIDs) || resp.Total != tt.wantTotal {
				t.Errorf("count/total = %d/%d, want %d/%d", resp.Count, resp.Total, len(tt.wantIDs), tt.wantTotal)
			}
			for i, id := range tt.wantIDs {
				if i >= len(resp.Sessions) || resp.Sessions[i].ID != id {
					t.Errorf("sessions[%d] mismatch, want %s", i, id)
				}
			}
		})
	}

	t.Run("service error", func(t *testing.T) {
		mockService := &MockGameService{
			ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
				return nil, fmt.Errorf("database error")
			},
		}
		w := serve(setupTestServer(t, mockService), makeRequest("GET", "/api/sessions", nil))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}
	})
}

func TestGetAndDeleteSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, fmt.Errorf("session not found")
			}
			return &service.SessionInfo{ID: sessionID}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID != "ab12" {
				return fmt.Errorf("session not found")
			}
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		name           string
		method         string
		sessionID      string
		handler        func(http.ResponseWriter, *http.Request)
		expectedStatus int
	}{
		{"get existing", "GET", "ab12", server.handleGetSession, http.StatusOK},
		{"get missing", "GET", "zz99", server.handleGetSession, http.StatusNotFound},
		{"delete existing", "DELETE", "ab12", server.handleDeleteSession, http.StatusOK},
		{"delete missing", "DELETE", "zz99", server.handleDeleteSession, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := makeRequest(tt.method, "/api/sessions/"+tt.sessionID, nil)
			req = mux.SetURLVars(req, map[string]string{"id": tt.sessionID})

			tt.handler(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

// Game Operations Tests

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		moveErr        error
		expectedStatus int
	}{
		{name: "valid move", body: map[string]interface{}{"direction": "right"}, expectedStatus: http.StatusOK},
		{name: "with reset", body: map[string]interface{}{"direction": "up", "reset": true}, expectedStatus: http.StatusOK},
		{
			name:           "invalid direction",
			body:           map[string]interface{}{"direction": "sideways"},
			moveErr:        fmt.Errorf("%w: unknown direction", service.ErrInvalidMove),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown session",
			body:           map[string]interface{}{"direction": "up"},
			moveErr:        fmt.Errorf("session not found: %w", session.ErrSessionNotFound),
			expectedStatus: http.StatusNotFound,
		},
		{name: "service error", body: map[string]interface{}{"direction": "up"}, moveErr: fmt.Errorf("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				MoveFunc: func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
					if tt.moveErr != nil {
						return nil, tt.moveErr
					}
					return &service.MoveResult{
						Success:   true,
						GameState: &engine.GameState{Hero: engine.Position{X: 2, Y: 1}},
						Step:      &service.StepInfo{Idx: 1, Dir: direction, Success: true},
					}, nil
				},
			}
			w := serve(setupTestServer(t, mockService), makeRequest("POST", "/api/sessions/ab12/move", tt.body))
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.moveErr == nil {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if !resp.Success || resp.GameState.Hero != (engine.Position{X: 2, Y: 1}) {
					t.Errorf("unexpected move result %+v", resp)
				}
			}
		})
	}

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/sessions/ab12/move", strings.NewReader("{"))
		w := serve(setupTestServer(t, &MockGameService{}), req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestBulkMove(t *testing.T) {
	var gotMoves []string
	var gotReset bool
	mockService := &MockGameService{
		BulkMoveFunc: func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
			gotMoves, gotReset = moves, reset
			if len(moves) > 0 && moves[0] == "x" {
				return nil, fmt.Errorf("move 1: %w", service.ErrInvalidMove)
			}
			return &service.BulkMoveResult{
				MovesExecuted:  2,
				RequestedMoves: len(moves),
				Success:        true,
				Solved:         true,
				StopReasonCode: service.StopSolved,
				GameState:      &engine.GameState{Solved: true},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := serve(server, makeRequest("POST", "/api/sessions/ab12/bulk-move", map[string]interface{}{
		"moves": []string{"r", "r", "r"},
		"reset": true,
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(gotMoves) != 3 || !gotReset {
		t.Errorf("service received moves=%v reset=%t", gotMoves, gotReset)
	}

	var resp service.BulkMoveResult
	parseResponse(t, w, &resp)
	if resp.StopReasonCode != service.StopSolved || resp.MovesExecuted != 2 {
		t.Errorf("unexpected bulk result %+v", resp)
	}

	w = serve(server, makeRequest("POST", "/api/sessions/ab12/bulk-move", map[string]interface{}{"moves": []string{"x"}}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid move batch status = %d, want 400", w.Code)
	}
}

func TestResetAndState(t *testing.T) {
	mockService := &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID != "ab12" {
				return nil, fmt.Errorf("%w: %s", session.ErrSessionNotFound, sessionID)
			}
			return &engine.GameState{Message: "Welcome"}, nil
		},
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID != "ab12" {
				return nil, fmt.Errorf("session not found")
			}
			return &engine.GameState{Pushes: 4}, nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"reset", "POST", "/api/sessions/ab12/reset", http.StatusOK},
		{"reset missing", "POST", "/api/sessions/zz99/reset", http.StatusNotFound},
		{"state", "GET", "/api/sessions/ab12/state", http.StatusOK},
		{"state missing", "GET", "/api/sessions/zz99/state", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(server, makeRequest(tt.method, tt.path, nil))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantOpts service.HistoryOptions
	}{
		{"defaults", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"explicit", "?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"invalid values ignored", "?page=-1&limit=zero&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			mockService := &MockGameService{
				GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Page: opts.Page}, nil
				},
			}
			w := serve(setupTestServer(t, mockService), makeRequest("GET", "/api/sessions/ab12/history"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if got != tt.wantOpts {
				t.Errorf("options = %+v, want %+v", got, tt.wantOpts)
			}
		})
	}
}

func TestSolve(t *testing.T) {
	t.Run("returns the solution", func(t *testing.T) {
		mockService := &MockGameService{
			SolveFunc: func(ctx context.Context, sessionID string) (*service.SolveResult, error) {
				return &service.SolveResult{
					SessionID: sessionID,
					Outcome:   solver.OutcomeSolved,
					Actions:   []engine.Direction{engine.Right, engine.Right},
					Compact:   "rr",
				}, nil
			},
		}
		w := serve(setupTestServer(t, mockService), makeRequest("POST", "/api/sessions/ab12/solve", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp service.SolveResult
		parseResponse(t, w, &resp)
		if resp.Outcome != solver.OutcomeSolved || resp.Compact != "rr" || len(resp.Actions) != 2 {
			t.Errorf("unexpected solve result %+v", resp)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		mockService := &MockGameService{
			SolveFunc: func(ctx context.Context, sessionID string) (*service.SolveResult, error) {
				return nil, fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
			},
		}
		w := serve(setupTestServer(t, mockService), makeRequest("POST", "/api/sessions/zz99/solve", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		calls := 0
		mockService := &MockGameService{
			SolveFunc: func(ctx context.Context, sessionID string) (*service.SolveResult, error) {
				calls++
				return &service.SolveResult{Outcome: solver.OutcomeSolved}, nil
			},
		}
		server := setupTestServer(t, mockService, WithSolveRate(rate.Every(time.Hour), 1))

		if w := serve(server, makeRequest("POST", "/api/sessions/ab12/solve", nil)); w.Code != http.StatusOK {
			t.Fatalf("first solve status = %d, want 200", w.Code)
		}
		w := serve(server, makeRequest("POST", "/api/sessions/ab12/solve", nil))
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("second solve status = %d, want 429", w.Code)
		}
		if w.Header().Get("Retry-After") == "" {
			t.Error("Expected a Retry-After header")
		}
		if calls != 1 {
			t.Errorf("service called %d times, want 1", calls)
		}
	})
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	var saved string
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Boxes: 2}, {ConfigID: "easy", Boxes: 1}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.LevelConfig, error) {
			if configName != "classic" && configName != "classic.yaml" {
				return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configName)
			}
			return &engine.LevelConfig{Name: "Classic"}, nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, level *engine.LevelConfig) error {
			if len(level.Layout) == 0 {
				return fmt.Errorf("%w: layout is required", config.ErrInvalidConfig)
			}
			saved = configName
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	t.Run("list", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/configs", nil))
		var resp []*service.ConfigInfo
		parseResponse(t, w, &resp)
		if len(resp) != 2 || resp[0].ConfigID != "classic" {
			t.Errorf("unexpected configs %+v", resp)
		}
	})

	getTests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"by id", "/api/configs/classic", http.StatusOK},
		{"by file name", "/api/configs/classic.yaml", http.StatusOK},
		{"missing", "/api/configs/nope", http.StatusNotFound},
	}
	for _, tt := range getTests {
		t.Run("get "+tt.name, func(t *testing.T) {
			w := serve(server, makeRequest("GET", tt.path, nil))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}

	createTests := []struct {
		name           string
		path           string
		body           interface{}
		wantID         string
		expectedStatus int
	}{
		{
			name:           "id from name",
			path:           "/api/configs",
			body:           engine.LevelConfig{Name: "My First Level!", Description: "x", Layout: []string{"#####", "#@$.#", "#####"}},
			wantID:         "my-first-level",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "explicit id",
			path:           "/api/configs?id=custom.yaml",
			body:           engine.LevelConfig{Name: "Whatever", Description: "x", Layout: []string{"#####", "#@$.#", "#####"}},
			wantID:         "custom.yaml",
			expectedStatus: http.StatusCreated,
		},
		{name: "missing name", path: "/api/configs", body: engine.LevelConfig{}, expectedStatus: http.StatusBadRequest},
		{name: "invalid level", path: "/api/configs", body: engine.LevelConfig{Name: "Broken"}, expectedStatus: http.StatusBadRequest},
	}
	for _, tt := range createTests {
		t.Run("create "+tt.name, func(t *testing.T) {
			saved = ""
			w := serve(server, makeRequest("POST", tt.path, tt.body))
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if saved != tt.wantID {
				t.Errorf("saved as %q, want %q", saved, tt.wantID)
			}
		})
	}
}

func TestUnifiedSessions(t *testing.T) {
	level := &engine.LevelConfig{Name: "Two", Layout: []string{"#######", "#@$.*+#", "#######"}}
	all := []*service.SessionInfo{
		{ID: "aa", ConfigName: "two", LevelConfig: level},
		{ID: "bb", ConfigName: "other"},
		{ID: "cc", ConfigName: "two", LevelConfig: level},
	}
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return all, nil
		},
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			for _, s := range all {
				if s.ID == sessionID {
					return s, nil
				}
			}
			return nil, fmt.Errorf("session not found")
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		name        string
		query       string
		wantCount   int
		wantTargets int
	}{
		{"all", "", 3, 3},
		{"by ids", "?sessionIds=cc,%20missing,aa", 2, 3},
		{"by config", "?configName=other", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(server, makeRequest("GET", "/api/sessions/unified"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var resp struct {
				TotalTargets int                      `json:"total_targets"`
				Sessions     []map[string]interface{} `json:"sessions"`
			}
			parseResponse(t, w, &resp)
			if len(resp.Sessions) != tt.wantCount {
				t.Errorf("sessions = %d, want %d", len(resp.Sessions), tt.wantCount)
			}
			if resp.TotalTargets != tt.wantTargets {
				t.Errorf("total_targets = %d, want %d", resp.TotalTargets, tt.wantTargets)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})

	w := serve(server, makeRequest("GET", "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}

	serve(server, makeRequest("GET", "/api/configs", nil))

	w = serve(server, makeRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), `boxpusher_http_requests_total{code="200",method="GET",route="/api/configs"}`) {
		t.Error("metrics should count requests by route template")
	}
}

func TestWebSocketRequiresSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, fmt.Errorf("session not found")
		},
	}
	server := setupTestServer(t, mockService)

	if w := serve(server, makeRequest("GET", "/ws", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("missing session status = %d, want 400", w.Code)
	}
	if w := serve(server, makeRequest("GET", "/ws?session=zz99", nil)); w.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", w.Code)
	}
}

// newLiveServer wires the real service, session and config layers
func newLiveServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	configs, err := config.NewManager("../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), configs)
	server := setupTestServer(t, nil)
	server.service = svc
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return ts, server
}

func postJSON(t *testing.T, url string, body interface{}, target interface{}) int {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestServerSolveAndReplay(t *testing.T) {
	ts, server := newLiveServer(t)

	var created service.SessionInfo
	if code := postJSON(t, ts.URL+"/api/sessions", map[string]string{"config_id": "easy"}, &created); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + created.ID
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for server.hub.ClientCount(created.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	var solved service.SolveResult
	if code := postJSON(t, ts.URL+"/api/sessions/"+created.ID+"/solve", nil, &solved); code != http.StatusOK {
		t.Fatalf("solve status = %d", code)
	}
	if solved.Outcome != solver.OutcomeSolved || solved.Compact != "rrr" {
		t.Fatalf("unexpected solution %+v", solved)
	}

	moves := make([]string, len(solved.Actions))
	for i, a := range solved.Actions {
		moves[i] = a.String()
	}
	var bulk service.BulkMoveResult
	if code := postJSON(t, ts.URL+"/api/sessions/"+created.ID+"/bulk-move", map[string]interface{}{"moves": moves}, &bulk); code != http.StatusOK {
		t.Fatalf("bulk-move status = %d", code)
	}
	if !bulk.Solved || bulk.MovesExecuted != 3 {
		t.Errorf("replaying the solution should solve the level: %+v", bulk)
	}

	// The viewer sees the solution first, then the state after the replay
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first, second websocket.Message
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read solution frame: %v", err)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read state frame: %v", err)
	}
	if first.Event != websocket.EventSolution || second.Event != websocket.EventStateUpdate {
		t.Errorf("frames = %s, %s", first.Event, second.Event)
	}
	if second.GameState == nil || !second.GameState.Solved {
		t.Error("state update should report the solved level")
	}
}

func TestServerMoveErrors(t *testing.T) {
	ts, _ := newLiveServer(t)

	var created service.SessionInfo
	postJSON(t, ts.URL+"/api/sessions", nil, &created)

	tests := []struct {
		name           string
		session        string
		direction      string
		expectedStatus int
	}{
		{"valid", created.ID, "right", http.StatusOK},
		{"invalid direction", created.ID, "sideways", http.StatusBadRequest},
		{"stand is not a move", created.ID, "stand", http.StatusBadRequest},
		{"unknown session", "zz99", "up", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := postJSON(t, ts.URL+"/api/sessions/"+tt.session+"/move", map[string]string{"direction": tt.direction}, nil)
			if code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", code, tt.expectedStatus)
			}
		})
	}

	var missing errorBody
	if code := postJSON(t, ts.URL+"/api/sessions", map[string]string{"config_id": "nope"}, &missing); code != http.StatusNotFound {
		t.Errorf("unknown config status = %d, want 404", code)
	}
	if !strings.Contains(missing.Error, "Available configs") {
		t.Errorf("error should list available configs, got %q", missing.Error)
	}
}
