package engine

import (
	"fmt"
	"time"
)

// Engine provides the main interface for playing a level
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsSolved() bool
	GetHeroPosition() Position

	// Movement operations
	Move(direction Direction) (MovementRecord, bool)
	CanMove(direction Direction) bool
	GetPossibleMoves() []Direction

	// Configuration
	GetConfig() *LevelConfig
	GetLevel() *Level

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface on top of a MovementCoordinator
type GameEngine struct {
	level       *Level
	coordinator *MovementCoordinator
	state       *GameState
}

// NewEngine creates a new game engine for the provided level configuration
func NewEngine(config *LevelConfig) (*GameEngine, error) {
	if err := ValidateLevelConfig(config); err != nil {
		return nil, err
	}
	level, err := BuildLevel(config)
	if err != nil {
		return nil, err
	}

	return &GameEngine{
		level:       level,
		coordinator: NewMovementCoordinator(level.Map),
		state:       InitGameState(level),
	}, nil
}

// NewEngineWithDefaults creates a new game engine on the built-in level
func NewEngineWithDefaults() *GameEngine {
	engine, err := NewEngine(DefaultLevelConfig())
	if err != nil {
		panic(fmt.Sprintf("default level is invalid: %v", err))
	}
	return engine
}

// InitGameState creates the starting game state of a level
func InitGameState(level *Level) *GameState {
	messages := level.Config.Messages
	if messages.Welcome == "" {
		messages.Welcome = DefaultMessages().Welcome
	}

	state := &GameState{
		Width:             level.Map.Width(),
		Height:            level.Map.Height(),
		Hero:              level.Start.Hero,
		Boxes:             level.Start.Clone().Boxes,
		TotalBoxes:        len(level.Start.Boxes),
		Message:           messages.Welcome,
		ConfigName:        level.Config.Name,
		MoveHistory:       []MoveHistoryEntry{},
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}
	refreshDerived(level.Map, state)
	return state
}

// refreshDerived recomputes the fields that follow from hero and boxes
func refreshDerived(m *StaticMap, state *GameState) {
	dyn := DynamicState{Hero: state.Hero, Boxes: state.Boxes}
	state.Board = m.Render(dyn)
	state.BoxesPlaced = CountBoxesOnTarget(m, state.Boxes)
	state.Solved = m.Solved(state.Boxes)
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if len(state.Boxes) != len(e.level.Start.Boxes) {
		return fmt.Errorf("%w: state has %d boxes, level has %d", ErrMalformedInput, len(state.Boxes), len(e.level.Start.Boxes))
	}
	if err := e.level.Map.Validate(state.Dynamic()); err != nil {
		return err
	}
	if state.MoveHistory == nil {
		state.MoveHistory = []MoveHistoryEntry{}
	}
	if state.CurrentMoves == nil {
		state.CurrentMoves = []MoveHistoryEntry{}
	}
	state.Width = e.level.Map.Width()
	state.Height = e.level.Map.Height()
	state.TotalBoxes = len(state.Boxes)
	refreshDerived(e.level.Map, state)
	e.state = state
	return nil
}

// Reset resets the level to its starting position
func (e *GameEngine) Reset() *GameState {
	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = InitGameState(e.level)

	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.CurrentMoves = []MoveHistoryEntry{}
	e.state.CurrentMovesCount = 0

	return e.state
}

// IsSolved returns whether every box rests on a target
func (e *GameEngine) IsSolved() bool {
	return e.state.Solved
}

// GetHeroPosition returns the current hero position
func (e *GameEngine) GetHeroPosition() Position {
	return e.state.Hero
}

// Move applies one action and records it in the history
func (e *GameEngine) Move(direction Direction) (MovementRecord, bool) {
	from := e.state.Hero
	messages := e.messages()

	next, record, changed := e.coordinator.Update(e.state.Dynamic(), direction)
	pushed := false
	for _, b := range record.Boxes {
		if b.Moved() {
			pushed = true
			break
		}
	}

	if changed {
		e.state.Hero = next.Hero
		e.state.Boxes = next.Boxes
		if pushed {
			e.state.Pushes++
		}
		refreshDerived(e.level.Map, e.state)

		switch {
		case e.state.Solved:
			e.state.Message = fmt.Sprintf(messages.Solved, e.state.CurrentMovesCount+1)
		case pushed:
			e.state.Message = messages.Pushed
		default:
			e.state.Message = fmt.Sprintf(messages.Moved, e.state.BoxesPlaced, e.state.TotalBoxes)
		}
	} else {
		e.state.Message = fmt.Sprintf("%s [%s blocked at (%d,%d)]",
			messages.CantMove, direction, from.X, from.Y)
	}

	rec := record
	e.state.LastMovement = &rec
	e.state.AddMoveToHistory(direction, from, e.state.Hero, pushed, changed)
	return record, changed
}

func (e *GameEngine) messages() LevelMessages {
	m := e.level.Config.Messages
	defaults := DefaultMessages()
	if m.Solved == "" {
		m.Solved = defaults.Solved
	}
	if m.CantMove == "" {
		m.CantMove = defaults.CantMove
	}
	if m.Pushed == "" {
		m.Pushed = defaults.Pushed
	}
	if m.Moved == "" {
		m.Moved = defaults.Moved
	}
	return m
}

// CanMove checks whether the action would change anything
func (e *GameEngine) CanMove(direction Direction) bool {
	_, _, changed := e.coordinator.Update(e.state.Dynamic(), direction)
	return changed
}

// GetPossibleMoves returns all directions that change the state
func (e *GameEngine) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, d := range Directions {
		if e.CanMove(d) {
			possible = append(possible, d)
		}
	}
	return possible
}

// GetConfig returns the level configuration
func (e *GameEngine) GetConfig() *LevelConfig {
	return e.level.Config
}

// GetLevel returns the parsed level
func (e *GameEngine) GetLevel() *Level {
	return e.level
}

// Coordinator exposes the movement coordinator of the level
func (e *GameEngine) Coordinator() *MovementCoordinator {
	return e.coordinator
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// BulkMove executes multiple moves in sequence, returning success status for each.
// It stops once the level is solved.
func (e *GameEngine) BulkMove(moves []Direction) []bool {
	results := make([]bool, 0, len(moves))

	for _, direction := range moves {
		if e.IsSolved() {
			break
		}
		_, success := e.Move(direction)
		results = append(results, success)
	}

	return results
}

// AddMoveToHistory adds a move to the game's move history
func (gs *GameState) AddMoveToHistory(action Direction, fromPos, toPos Position, pushed, success bool) {
	entry := MoveHistoryEntry{
		Action:       action,
		FromPosition: fromPos,
		ToPosition:   toPos,
		Pushed:       pushed,
		Timestamp:    time.Now().Unix(),
		Success:      success,
		MoveNumber:   gs.TotalMoves + 1,
	}
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}
