package engine

// MovementCoordinator applies hero actions to dynamic states over one
// static map. It holds no mutable state and is safe for concurrent use.
type MovementCoordinator struct {
	staticMap *StaticMap
	handlers  map[Position]FeatureHandler
	maxRounds int
}

// CoordinatorOption configures a MovementCoordinator
type CoordinatorOption func(map[TileCode]FeatureFactory)

// WithFeature binds factory for code on this coordinator only, on top of
// the registered features
func WithFeature(code TileCode, factory FeatureFactory) CoordinatorOption {
	return func(overrides map[TileCode]FeatureFactory) {
		overrides[code] = factory
	}
}

// NewMovementCoordinator binds the feature handlers of the map
func NewMovementCoordinator(m *StaticMap, opts ...CoordinatorOption) *MovementCoordinator {
	overrides := make(map[TileCode]FeatureFactory)
	for _, opt := range opts {
		opt(overrides)
	}
	return &MovementCoordinator{
		staticMap: m,
		handlers:  bindFeatures(m, overrides),
		maxRounds: m.Width() * m.Height(),
	}
}

// Map returns the static map the coordinator works on
func (c *MovementCoordinator) Map() *StaticMap {
	return c.staticMap
}

// Handler returns the feature handler bound to p, if any
func (c *MovementCoordinator) Handler(p Position) (FeatureHandler, bool) {
	h, ok := c.handlers[p]
	return h, ok
}

// Update applies one action. The returned state is a fresh copy; the input
// state is never modified. When nothing moved the bool is false and the
// returned state equals the input.
func (c *MovementCoordinator) Update(state DynamicState, action Direction) (DynamicState, MovementRecord, bool) {
	step := c.newStep(state)

	if action.IsMovement() && c.applyHeroAction(step, action) {
		c.runFeatures(step)
	}

	record := step.record()
	changed := record.Hero.Moved()
	for _, b := range record.Boxes {
		if b.Moved() {
			changed = true
			break
		}
	}
	return record.State(), record, changed
}

// applyHeroAction performs the primary move. It is all-or-nothing.
func (c *MovementCoordinator) applyHeroAction(step *Step, action Direction) bool {
	dest := step.hero.Current.Offset(action)
	if c.staticMap.Blocked(dest) || !c.allowsEntering(dest, action) {
		return false
	}

	if i, ok := step.BoxAt(dest); ok {
		further := dest.Offset(action)
		if c.staticMap.Blocked(further) {
			return false
		}
		if _, blocked := step.BoxAt(further); blocked {
			return false
		}
		if !c.allowsEntering(further, action) || !c.allowsLeaving(dest, action) {
			return false
		}
		step.MoveBox(i, action)
	}

	step.MoveHero(action)
	return true
}

// runFeatures lets handlers under occupied cells act until nothing changes.
// The round limit guarantees termination on cyclic feature layouts.
func (c *MovementCoordinator) runFeatures(step *Step) {
	if len(c.handlers) == 0 {
		return
	}
	for round := 0; round < c.maxRounds; round++ {
		changed := false
		for _, h := range c.occupiedHandlers(step) {
			if h.Act(step) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// occupiedHandlers lists handlers under the hero then under each box by
// index, without duplicates.
func (c *MovementCoordinator) occupiedHandlers(step *Step) []FeatureHandler {
	var out []FeatureHandler
	seen := make(map[Position]bool)
	add := func(p Position) {
		if seen[p] {
			return
		}
		seen[p] = true
		if h, ok := c.handlers[p]; ok {
			out = append(out, h)
		}
	}
	add(step.hero.Current)
	for _, b := range step.boxes {
		add(b.Current)
	}
	return out
}

func (c *MovementCoordinator) allowsEntering(p Position, d Direction) bool {
	if h, ok := c.handlers[p]; ok {
		return h.AllowEntering(d)
	}
	return true
}

func (c *MovementCoordinator) allowsLeaving(p Position, d Direction) bool {
	if h, ok := c.handlers[p]; ok {
		return h.AllowLeaving(d)
	}
	return true
}

func (c *MovementCoordinator) newStep(state DynamicState) *Step {
	step := &Step{
		coordinator: c,
		hero: Movement{
			Previous: state.Hero,
			Current:  state.Hero,
		},
		boxes: make([]Movement, len(state.Boxes)),
	}
	for i, b := range state.Boxes {
		step.boxes[i] = Movement{Previous: b, Current: b}
	}
	return step
}

// Step is the working copy of one coordinator update. Feature handlers read
// and move entities through it.
type Step struct {
	coordinator *MovementCoordinator
	hero        Movement
	boxes       []Movement
}

// Hero returns the hero movement so far
func (s *Step) Hero() Movement {
	return s.hero
}

// Boxes returns a copy of the box movements so far
func (s *Step) Boxes() []Movement {
	out := make([]Movement, len(s.boxes))
	copy(out, s.boxes)
	return out
}

// BoxAt returns the index of the box occupying p
func (s *Step) BoxAt(p Position) (int, bool) {
	for i, b := range s.boxes {
		if b.Current == p {
			return i, true
		}
	}
	return -1, false
}

// CanEnter reports whether an entity travelling in d may be placed on p:
// the cell is open, free of entities and no handler vetoes it.
func (s *Step) CanEnter(p Position, d Direction) bool {
	if s.coordinator.staticMap.Blocked(p) {
		return false
	}
	if _, ok := s.BoxAt(p); ok {
		return false
	}
	if s.hero.Current == p {
		return false
	}
	return s.coordinator.allowsEntering(p, d)
}

// MoveBox moves box i one cell in d without any checks
func (s *Step) MoveBox(i int, d Direction) {
	s.boxes[i].Current = s.boxes[i].Current.Offset(d)
	s.boxes[i].Direction = d
}

// MoveHero moves the hero one cell in d without any checks
func (s *Step) MoveHero(d Direction) {
	s.hero.Current = s.hero.Current.Offset(d)
	s.hero.Direction = d
}

func (s *Step) record() MovementRecord {
	m := s.coordinator.staticMap
	finish := func(mv Movement) Movement {
		if !mv.Moved() {
			mv.Direction = Stand
		}
		mv.OnTarget = m.IsTarget(mv.Current)
		return mv
	}

	record := MovementRecord{
		Hero:  finish(s.hero),
		Boxes: make([]Movement, len(s.boxes)),
	}
	for i, b := range s.boxes {
		record.Boxes[i] = finish(b)
	}
	return record
}
