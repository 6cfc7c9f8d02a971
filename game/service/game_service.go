package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/boxpusher/game/engine"
)

// GameService is everything the HTTP API and the MCP tools can do with a
// box pusher session. Session ids are the short ids handed out by
// CreateSession; unknown ids fail with session.ErrSessionNotFound.
type GameService interface {
	// Sessions
	CreateSession(ctx context.Context, configID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Play. Direction strings accept full names or u/d/l/r. A true reset
	// puts the level back to its start before the move is applied.
	Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Solve searches from the session's current position. Results are
	// cached per level layout and position.
	Solve(ctx context.Context, sessionID string) (*SolveResult, error)

	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Levels
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configID string) (*engine.LevelConfig, error)
	SaveConfig(ctx context.Context, configID string, level *engine.LevelConfig) error
}

// SessionManager keeps live sessions and their engines
type SessionManager interface {
	Create(id string, level *engine.LevelConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, level *engine.LevelConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	// Save writes the session through to persistence, if any
	Save(id string) error
}

// ConfigManager resolves level ids ("classic") and file names
// ("classic.yaml") to validated levels
type ConfigManager interface {
	LoadConfig(name string) (*engine.LevelConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.LevelConfig
	SaveConfig(name string, level *engine.LevelConfig) error
}

// Session binds one engine to the level it was started on. Config is a
// snapshot; editing the level file does not change running sessions.
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.LevelConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
