package service

import (
	"time"

	"github.com/wricardo/mcp-training/boxpusher/game/engine"
	"github.com/wricardo/mcp-training/boxpusher/game/solver"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	GameState      *engine.GameState   `json:"game_state"`
	LevelConfig    *engine.LevelConfig `json:"level_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool              `json:"success"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`

	// Raw coordinator output and its analysis
	Movement       *engine.MovementRecord `json:"movement,omitempty"`
	MovementEvents []solver.MovementEvent `json:"movement_events,omitempty"`
	Deadlocked     bool                   `json:"deadlocked"`
	Heuristic      int                    `json:"heuristic"`
}

// Stop reason codes reported by BulkMove
const (
	StopBlockedWall    = "blocked_wall"
	StopBlockedBox     = "blocked_box"
	StopBlockedFeature = "blocked_feature"
	StopSolved         = "solved"
	StopDeadlocked     = "deadlocked"
)

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // blocked_wall|blocked_box|blocked_feature|solved|deadlocked
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos    engine.Position `json:"start_pos"`
	EndPos      engine.Position `json:"end_pos"`
	PushesDelta int             `json:"pushes_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Failure diagnostics
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	// Final status aids
	Solved        bool     `json:"solved"`
	Deadlocked    bool     `json:"deadlocked"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	LocalView3x3  []string `json:"local_view_3x3,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx         int             `json:"idx"`
	Dir         string          `json:"dir"`
	From        engine.Position `json:"from"`
	To          engine.Position `json:"to"`
	Success     bool            `json:"success"`
	Pushed      bool            `json:"pushed,omitempty"`
	BoxOnTarget bool            `json:"box_on_target,omitempty"`
	Solved      bool            `json:"solved,omitempty"`
	Deadlocked  bool            `json:"deadlocked,omitempty"`
}

// AttemptInfo details the cell a blocked move tried to enter
type AttemptInfo struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	TileChar string `json:"tile_char"`
	TileType string `json:"tile_type"`
	Box      bool   `json:"box"`
	Passable bool   `json:"passable"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "move", "push", "box_on_target", "box_off_target", "solved", "deadlock", "reset"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a level file
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Boxes       int    `json:"boxes"`
	HasFeatures bool   `json:"has_features"`
}

// SolveResult is the answer to a solve request for the current session state
type SolveResult struct {
	RunID      string             `json:"run_id"`
	SessionID  string             `json:"session_id"`
	ConfigName string             `json:"config_name"`
	Hash       string             `json:"hash"`
	Outcome    solver.Outcome     `json:"outcome"`
	Actions    []engine.Direction `json:"actions"`
	Compact    string             `json:"compact"`
	Iterations int                `json:"iterations"`
	States     int                `json:"states"`
	Pushes     int                `json:"pushes"`
	DurationMs int64              `json:"duration_ms"`
	Difficulty *float64           `json:"difficulty,omitempty"`
	Cached     bool               `json:"cached"`
}
