package solver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/wricardo/mcp-training/boxpusher/game/engine"
)

// Outcome is how a search ended
type Outcome int

const (
	OutcomeSolved Outcome = iota
	OutcomeUnsolvable
	OutcomeBudgetExceeded
	OutcomeCancelled
)

var outcomeNames = [...]string{"solved", "unsolvable", "budget_exceeded", "cancelled"}

func (o Outcome) String() string {
	if o < OutcomeSolved || o > OutcomeCancelled {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// MarshalText encodes the outcome by name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name
func (o *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if name == string(text) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// Solution is the result of one search. Actions is nil unless the outcome
// is OutcomeSolved.
type Solution struct {
	Actions    []engine.Direction `json:"actions"`
	Pushes     int                `json:"pushes"`
	Iterations int                `json:"iterations"`
	States     int                `json:"states"`
	TotalTime  time.Duration      `json:"total_time"`
	Outcome    Outcome            `json:"outcome"`
}

// Solved reports whether the search found an action sequence
func (s *Solution) Solved() bool {
	return s != nil && s.Outcome == OutcomeSolved
}

// cancelCheckEvery is how often, in frontier pops, a search that never
// yields polls its context
const cancelCheckEvery = 64

// Config holds the search budget. Zero limits mean unlimited.
type Config struct {
	// YieldEvery is the number of frontier pops between cooperative yields.
	// Zero never yields, but cancellation is still observed.
	YieldEvery int
	// YieldPause is how long each yield sleeps; zero only reschedules
	YieldPause    time.Duration
	MaxIterations int
	MaxDuration   time.Duration
	// MaxStates caps frontier plus visited entries
	MaxStates int
}

// DefaultConfig returns the budget used when a level sets none
func DefaultConfig() Config {
	return Config{
		YieldEvery:    1000,
		YieldPause:    0,
		MaxIterations: 1_000_000,
		MaxDuration:   30 * time.Second,
		MaxStates:     4_000_000,
	}
}

// ConfigFromSettings overlays per-level settings on the defaults
func ConfigFromSettings(settings *engine.SolverSettings) Config {
	cfg := DefaultConfig()
	if settings == nil {
		return cfg
	}
	pause, maxDuration := settings.Durations()
	if settings.YieldEvery > 0 {
		cfg.YieldEvery = settings.YieldEvery
	}
	if pause > 0 {
		cfg.YieldPause = pause
	}
	if settings.MaxIterations > 0 {
		cfg.MaxIterations = settings.MaxIterations
	}
	if maxDuration > 0 {
		cfg.MaxDuration = maxDuration
	}
	if settings.MaxStates > 0 {
		cfg.MaxStates = settings.MaxStates
	}
	return cfg
}

func (c Config) validate() error {
	if c.YieldEvery < 0 || c.YieldPause < 0 || c.MaxIterations < 0 || c.MaxDuration < 0 || c.MaxStates < 0 {
		return fmt.Errorf("%w: solver limits must not be negative", engine.ErrMalformedInput)
	}
	return nil
}

// Option configures a Solver
type Option func(*Solver)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Solver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAnalyserOptions forwards options to the analyser
func WithAnalyserOptions(opts ...AnalyserOption) Option {
	return func(s *Solver) {
		s.analyserOpts = append(s.analyserOpts, opts...)
	}
}

// Solver runs best-first searches over one static map
type Solver struct {
	staticMap    *engine.StaticMap
	coordinator  *engine.MovementCoordinator
	analyser     *Analyser
	analyserOpts []AnalyserOption
	config       Config
	logger       *slog.Logger
}

// New creates a solver for m
func New(m *engine.StaticMap, cfg Config, opts ...Option) (*Solver, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: solver needs a static map", engine.ErrMalformedInput)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Solver{
		staticMap:   m,
		coordinator: engine.NewMovementCoordinator(m),
		config:      cfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	analyser, err := NewAnalyser(m, s.analyserOpts...)
	if err != nil {
		return nil, err
	}
	s.analyser = analyser
	return s, nil
}

// Config returns the search budget
func (s *Solver) Config() Config {
	return s.config
}

// Solve searches for an action sequence that puts every box on a target.
// Only malformed input is returned as an error; every search result,
// including cancellation, is reported through Solution.Outcome.
func (s *Solver) Solve(ctx context.Context, hero engine.Position, boxes []engine.Position) (*Solution, error) {
	start := engine.DynamicState{Hero: hero, Boxes: boxes}.Clone()
	if err := s.staticMap.Validate(start); err != nil {
		return nil, err
	}

	began := time.Now()
	run := &search{
		solver:  s,
		visited: make(map[string]struct{}),
	}
	solution := run.execute(ctx, start, began)
	solution.TotalTime = time.Since(began)
	solution.States = len(run.visited)

	recordSolve(solution, run.pruned)
	s.logger.Info("solve finished",
		"outcome", solution.Outcome.String(),
		"iterations", solution.Iterations,
		"states", solution.States,
		"pruned", run.pruned,
		"elapsed", solution.TotalTime,
	)
	return solution, nil
}

// search is the state of one Solve call
type search struct {
	solver   *Solver
	frontier frontier
	visited  map[string]struct{}
	pruned   int
}

func (r *search) execute(ctx context.Context, start engine.DynamicState, began time.Time) *Solution {
	s := r.solver
	cfg := s.config

	if len(start.Boxes) > len(s.staticMap.Targets()) {
		return &Solution{Outcome: OutcomeUnsolvable}
	}

	r.frontier.push(&candidate{
		actions: []engine.Direction{},
		state:   start,
		hash:    CanonicalHash(start.Hero, start.Boxes),
	})

	iterations := 0
	for r.frontier.size() > 0 {
		if cfg.YieldEvery > 0 {
			if iterations > 0 && iterations%cfg.YieldEvery == 0 {
				s.logger.Debug("solver yield",
					"iterations", iterations,
					"frontier", r.frontier.size(),
					"visited", len(r.visited),
				)
				if err := s.yield(ctx); err != nil {
					return &Solution{Iterations: iterations, Outcome: OutcomeCancelled}
				}
			}
		} else if iterations%cancelCheckEvery == 0 && ctx.Err() != nil {
			// Without yields the context is still polled
			return &Solution{Iterations: iterations, Outcome: OutcomeCancelled}
		}
		if r.overBudget(iterations, began) {
			return &Solution{Iterations: iterations, Outcome: OutcomeBudgetExceeded}
		}

		current := r.frontier.pop()
		iterations++

		if _, seen := r.visited[current.hash]; seen {
			continue
		}
		r.visited[current.hash] = struct{}{}

		if s.staticMap.Solved(current.state.Boxes) {
			return &Solution{
				Actions:    current.actions,
				Pushes:     current.pushes,
				Iterations: iterations,
				Outcome:    OutcomeSolved,
			}
		}

		r.expand(current)
	}

	return &Solution{Iterations: iterations, Outcome: OutcomeUnsolvable}
}

// expand queues every non-deadlocked successor of c
func (r *search) expand(c *candidate) {
	s := r.solver
	for _, d := range engine.Directions {
		next, record, changed := s.coordinator.Update(c.state, d)
		if !changed {
			continue
		}
		analysis := s.analyser.Analyse(record)
		if analysis.Deadlocked {
			r.pruned++
			continue
		}

		actions := make([]engine.Direction, len(c.actions)+1)
		copy(actions, c.actions)
		actions[len(c.actions)] = d

		pushes := c.pushes
		if len(analysis.BoxesMoved) > 0 {
			pushes++
		}

		r.frontier.push(&candidate{
			actions: actions,
			state:   next,
			score:   c.score + 1 + analysis.Heuristic,
			hash:    CanonicalHash(next.Hero, next.Boxes),
			pushes:  pushes,
		})
	}
}

func (r *search) overBudget(iterations int, began time.Time) bool {
	cfg := r.solver.config
	if cfg.MaxIterations > 0 && iterations >= cfg.MaxIterations {
		return true
	}
	if cfg.MaxDuration > 0 && time.Since(began) >= cfg.MaxDuration {
		return true
	}
	if cfg.MaxStates > 0 && r.frontier.size()+len(r.visited) > cfg.MaxStates {
		return true
	}
	return false
}

// yield hands control back to the scheduler and reports cancellation
func (s *Solver) yield(ctx context.Context) error {
	if s.config.YieldPause <= 0 {
		runtime.Gosched()
		return ctx.Err()
	}
	timer := time.NewTimer(s.config.YieldPause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ctx.Err()
	}
}
