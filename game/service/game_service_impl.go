package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/wricardo/mcp-training/boxpusher/game/engine"
	"github.com/wricardo/mcp-training/boxpusher/game/solutions"
	"github.com/wricardo/mcp-training/boxpusher/game/solver"
)

// ErrInvalidMove is returned for directions other than up, down, left and right
var ErrInvalidMove = errors.New("invalid move")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	solutions solutions.Store
	logger    *slog.Logger
	solving   singleflight.Group
	mu        sync.RWMutex
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithSolutionStore caches solver results in store instead of process memory
func WithSolutionStore(store solutions.Store) Option {
	return func(s *gameServiceImpl) {
		if store != nil {
			s.solutions = store
		}
	}
}

// WithSolverLogger passes a structured logger to every solver run
func WithSolverLogger(logger *slog.Logger) Option {
	return func(s *gameServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:  sessions,
		configs:   configs,
		solutions: solutions.NewMemoryStore(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess.Config.Name), // Return config_id consistently
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		LevelConfig:    sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.LevelConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w. Available configs: %v", err, configIDs)
				}
				return nil, fmt.Errorf("%w. Use /api/configs to list available configurations", err)
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

	info := s.sessionInfo(session)
	// Prefer the identifier the caller used
	if configName != "" {
		info.ConfigName = configName
	}
	return info, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

func parseMove(direction string) (engine.Direction, error) {
	d, err := engine.ParseDirection(direction)
	if err != nil {
		return engine.Stand, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	if !d.IsMovement() {
		return engine.Stand, fmt.Errorf("%w: direction must be up, down, left or right", ErrInvalidMove)
	}
	return d, nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	d, err := parseMove(direction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Get session
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	// Update last accessed time
	s.sessions.UpdateLastAccessed(sessionID)

	// Collect events
	events := []GameEvent{}

	// Handle reset if requested
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	prevPos := sess.Engine.GetHeroPosition()
	prevBoxes := sess.Engine.GetState().Dynamic().Boxes
	record, success := sess.Engine.Move(d)
	state := sess.Engine.GetState()

	result := &MoveResult{
		Success:   success,
		GameState: state,
		Message:   state.Message,
		Events:    events,
		Movement:  &record,
	}

	if success {
		analysis, err := analyse(sess, record)
		if err != nil {
			return nil, err
		}
		result.Events = append(result.Events, moveEvents(sess.Engine.GetLevel().Map, record, analysis, state)...)
		result.MovementEvents = analysis.Events
		result.Deadlocked = analysis.Deadlocked
		result.Heuristic = analysis.Heuristic
		result.Step = stepInfo(1, d, record, analysis, state)
	} else {
		result.AttemptedTo, _ = attemptInfo(sess.Engine.GetLevel().Map, prevPos, prevBoxes, d)
	}

	// Auto-save session after move
	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after move: %v\n", sessionID, err)
	}

	return result, nil
}

// BulkMove executes multiple moves in sequence. It stops at the first
// blocked move, once the level is solved, or right after a move that
// leaves a box deadlocked.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	directions := make([]engine.Direction, len(moves))
	for i, move := range moves {
		d, err := parseMove(move)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		directions[i] = d
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	// Update last accessed
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	// Handle reset
	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}

	// Capture start snapshot after a possible reset
	startState := sess.Engine.GetState()
	result.StartPos = startState.Hero
	startPushes := startState.Pushes

	// Limit moves to prevent abuse
	if len(directions) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		directions = directions[:engine.MaxBulkMoves]
	}

	m := sess.Engine.GetLevel().Map
	for i, d := range directions {
		if sess.Engine.IsSolved() {
			result.StoppedReason = "level already solved"
			result.StopReasonCode = StopSolved
			result.StoppedOnMove = i + 1
			break
		}

		prevPos := sess.Engine.GetHeroPosition()
		prevBoxes := sess.Engine.GetState().Dynamic().Boxes
		record, success := sess.Engine.Move(d)

		if !success {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d blocked: %s", i+1, d)
			result.StoppedOnMove = i + 1
			result.AttemptedTo, result.StopReasonCode = attemptInfo(m, prevPos, prevBoxes, d)
			break
		}

		result.MovesExecuted++
		analysis, err := analyse(sess, record)
		if err != nil {
			return nil, err
		}
		state := sess.Engine.GetState()
		result.Events = append(result.Events, moveEvents(m, record, analysis, state)...)
		result.Steps = append(result.Steps, *stepInfo(i+1, d, record, analysis, state))

		if analysis.Deadlocked {
			result.Deadlocked = true
			result.StoppedReason = fmt.Sprintf("move %d left a box stuck", i+1)
			result.StopReasonCode = StopDeadlocked
			result.StoppedOnMove = i + 1
			break
		}
	}

	endState := sess.Engine.GetState()
	result.GameState = endState
	result.EndPos = endState.Hero
	result.PushesDelta = endState.Pushes - startPushes
	result.Solved = endState.Solved
	result.Message = endState.Message
	if result.Solved && result.StopReasonCode == "" {
		result.StopReasonCode = StopSolved
	}

	// Decision aids
	for _, d := range sess.Engine.GetPossibleMoves() {
		result.PossibleMoves = append(result.PossibleMoves, d.String())
	}
	result.LocalView3x3 = buildLocal3x3(endState)

	// Auto-save session after bulk moves
	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after bulk moves: %v\n", sessionID, err)
	}

	return result, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset()

	// Auto-save session after reset
	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after reset: %v\n", sessionID, err)
	}

	return state, nil
}

// Solve runs the solver from the session's current state. The session lock
// is only held while the state is copied, so moves are not blocked by a
// long search. Identical concurrent requests share one search.
func (s *gameServiceImpl) Solve(ctx context.Context, sessionID string) (*SolveResult, error) {
	s.mu.RLock()
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	level := sess.Engine.GetLevel()
	start := sess.Engine.GetState().Dynamic()
	configID := s.getConfigID(level.Config.Name)
	s.mu.RUnlock()

	hash := solver.CanonicalHash(start.Hero, start.Boxes)
	storeKey := levelFingerprint(level.Config) + "/" + hash

	v, err, _ := s.solving.Do(configID+"/"+storeKey, func() (any, error) {
		return s.solve(ctx, configID, storeKey, level, start)
	})
	if err != nil {
		return nil, err
	}

	result := *v.(*SolveResult)
	result.SessionID = sessionID
	result.Hash = hash
	return &result, nil
}

func (s *gameServiceImpl) solve(ctx context.Context, configID, storeKey string, level *engine.Level, start engine.DynamicState) (*SolveResult, error) {
	record, err := s.solutions.Get(ctx, configID, storeKey)
	if err == nil {
		return solveResult(record, true), nil
	}
	if !errors.Is(err, solutions.ErrSolutionNotFound) {
		log.Printf("Warning: solution lookup for %s failed: %v", configID, err)
	}

	sv, err := solver.New(level.Map, solver.ConfigFromSettings(level.Config.Solver), solver.WithLogger(s.logger.With("config", configID)))
	if err != nil {
		return nil, fmt.Errorf("failed to create solver: %w", err)
	}
	solution, err := sv.Solve(ctx, start.Hero, start.Boxes)
	if err != nil {
		return nil, fmt.Errorf("failed to solve: %w", err)
	}

	record = &solutions.Record{
		ConfigName: configID,
		Hash:       storeKey,
		RunID:      uuid.NewString(),
		Solution:   *solution,
		Difficulty: solver.EstimateDifficulty(solution),
		CreatedAt:  time.Now(),
	}

	// Budget and cancellation outcomes depend on the run, not the level
	if solution.Outcome == solver.OutcomeSolved || solution.Outcome == solver.OutcomeUnsolvable {
		if err := s.solutions.Put(ctx, record); err != nil {
			log.Printf("Warning: failed to cache solution for %s: %v", configID, err)
		}
	}

	return solveResult(record, false), nil
}

func solveResult(record *solutions.Record, cached bool) *SolveResult {
	sol := record.Solution
	return &SolveResult{
		RunID:      record.RunID,
		ConfigName: record.ConfigName,
		Outcome:    sol.Outcome,
		Actions:    sol.Actions,
		Compact:    engine.FormatActions(sol.Actions),
		Iterations: sol.Iterations,
		States:     sol.States,
		Pushes:     sol.Pushes,
		DurationMs: sol.TotalTime.Milliseconds(),
		Difficulty: record.Difficulty,
		Cached:     cached,
	}
}

// levelFingerprint changes whenever the layout or orientations of a level
// change, so cached solutions of an edited file are never reused.
func levelFingerprint(config *engine.LevelConfig) string {
	h := fnv.New32a()
	for _, row := range config.Layout {
		h.Write([]byte(row))
		h.Write([]byte{'\n'})
	}
	// fmt prints maps with sorted keys
	fmt.Fprint(h, config.Orientations)
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available level configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific level configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a level configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.LevelConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func analyse(sess *Session, record engine.MovementRecord) (solver.Analysis, error) {
	analyser, err := solver.NewAnalyser(sess.Engine.GetLevel().Map)
	if err != nil {
		return solver.Analysis{}, err
	}
	return analyser.Analyse(record), nil
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      "reset",
		Message:   "Game reset to initial state",
		Timestamp: time.Now(),
	}
}

// moveEvents turns a coordinator record and its analysis into player events
func moveEvents(m *engine.StaticMap, record engine.MovementRecord, analysis solver.Analysis, state *engine.GameState) []GameEvent {
	now := time.Now()
	events := []GameEvent{}

	if record.Hero.Moved() {
		events = append(events, GameEvent{
			Type:      "move",
			Message:   fmt.Sprintf("Moved %s to (%d,%d)", record.Hero.Direction, record.Hero.Current.X, record.Hero.Current.Y),
			Timestamp: now,
			Position:  record.Hero.Current,
		})
	}

	for _, box := range analysis.BoxesMoved {
		events = append(events, GameEvent{
			Type:      "push",
			Message:   fmt.Sprintf("Box moved from (%d,%d) to (%d,%d)", box.Previous.X, box.Previous.Y, box.Current.X, box.Current.Y),
			Timestamp: now,
			Position:  box.Current,
		})
		wasOnTarget := m.IsTarget(box.Previous)
		switch {
		case box.OnTarget && !wasOnTarget:
			events = append(events, GameEvent{
				Type:      "box_on_target",
				Message:   fmt.Sprintf("Box on target! %d/%d placed", state.BoxesPlaced, state.TotalBoxes),
				Timestamp: now,
				Position:  box.Current,
			})
		case !box.OnTarget && wasOnTarget:
			events = append(events, GameEvent{
				Type:      "box_off_target",
				Message:   fmt.Sprintf("Box left its target. %d/%d placed", state.BoxesPlaced, state.TotalBoxes),
				Timestamp: now,
				Position:  box.Current,
			})
		}
	}

	if analysis.Deadlocked {
		events = append(events, GameEvent{
			Type:      "deadlock",
			Message:   "A box is stuck and can no longer reach a target. Reset to try again.",
			Timestamp: now,
		})
	}

	if state.Solved {
		events = append(events, GameEvent{
			Type:      "solved",
			Message:   state.Message,
			Timestamp: now,
		})
	}

	return events
}

func stepInfo(idx int, d engine.Direction, record engine.MovementRecord, analysis solver.Analysis, state *engine.GameState) *StepInfo {
	return &StepInfo{
		Idx:         idx,
		Dir:         d.String(),
		From:        record.Hero.Previous,
		To:          record.Hero.Current,
		Success:     true,
		Pushed:      len(analysis.BoxesMoved) > 0,
		BoxOnTarget: analysis.Has(solver.BoxMovedOntoTarget),
		Solved:      state.Solved,
		Deadlocked:  analysis.Deadlocked,
	}
}

// attemptInfo describes the cell a blocked move tried to enter and returns
// the matching stop reason code
func attemptInfo(m *engine.StaticMap, from engine.Position, boxes []engine.Position, d engine.Direction) (*AttemptInfo, string) {
	target := from.Offset(d)
	tile := m.TileAt(target)
	info := &AttemptInfo{
		X:        target.X,
		Y:        target.Y,
		TileChar: string(cellChar(m, target, boxes)),
		TileType: tile.Code.String(),
		Passable: !m.Blocked(target),
	}
	for _, b := range boxes {
		if b == target {
			info.Box = true
			break
		}
	}

	switch {
	case !info.Passable:
		return info, StopBlockedWall
	case info.Box:
		return info, StopBlockedBox
	default:
		return info, StopBlockedFeature
	}
}

func cellChar(m *engine.StaticMap, p engine.Position, boxes []engine.Position) byte {
	if !m.InBounds(p) {
		return engine.WallChar
	}
	rows := m.Render(engine.DynamicState{Hero: engine.Position{X: -1, Y: -1}, Boxes: boxes})
	return rows[p.Y][p.X]
}

// buildLocal3x3 cuts the hero's neighbourhood out of the rendered board.
// Cells outside the grid read as walls.
func buildLocal3x3(state *engine.GameState) []string {
	if state == nil {
		return nil
	}
	px, py := state.Hero.X, state.Hero.Y
	lines := make([]string, 0, 3)
	for dy := -1; dy <= 1; dy++ {
		var row strings.Builder
		for dx := -1; dx <= 1; dx++ {
			x, y := px+dx, py+dy
			if y < 0 || y >= len(state.Board) || x < 0 || x >= len(state.Board[y]) {
				row.WriteByte(engine.WallChar)
				continue
			}
			row.WriteByte(state.Board[y][x])
		}
		lines = append(lines, row.String())
	}
	return lines
}
