package engine

import (
	"fmt"
	"sync"
)

// FeatureHandler is the per-tile behaviour of a feature cell. Each handler
// is bound to one position; the coordinator consults it instead of
// special-casing tile codes.
type FeatureHandler interface {
	// Tile identifies the feature kind
	Tile() TileCode
	// Position is the cell the handler is bound to
	Position() Position
	// AllowEntering reports whether an entity may move into the cell while
	// travelling in d
	AllowEntering(d Direction) bool
	// AllowLeaving reports whether an entity on the cell may move on in d
	AllowLeaving(d Direction) bool
	// Act runs after the primary move resolved and returns whether it moved
	// anything
	Act(step *Step) bool
}

// FeatureFactory builds a handler for a tile found at a position
type FeatureFactory func(pos Position, tile Tile) FeatureHandler

var (
	featureMu        sync.RWMutex
	featureFactories = map[TileCode]FeatureFactory{
		Spring:    func(pos Position, tile Tile) FeatureHandler { return NewSpring(pos, tile.Orientation) },
		Treadmill: func(pos Position, tile Tile) FeatureHandler { return NewTreadmill(pos, tile.Orientation) },
		Oily:      func(pos Position, _ Tile) FeatureHandler { return NewOilyFloor(pos) },
	}
)

// RegisterFeature adds or replaces the factory used for a tile code.
// Coordinators built afterwards bind handlers of that kind.
func RegisterFeature(code TileCode, factory FeatureFactory) {
	featureMu.Lock()
	defer featureMu.Unlock()
	featureFactories[code] = factory
}

// BindFeatures creates one handler per feature cell of the map
func BindFeatures(m *StaticMap) map[Position]FeatureHandler {
	return bindFeatures(m, nil)
}

// bindFeatures prefers overrides to the registered factories
func bindFeatures(m *StaticMap, overrides map[TileCode]FeatureFactory) map[Position]FeatureHandler {
	featureMu.RLock()
	defer featureMu.RUnlock()

	handlers := make(map[Position]FeatureHandler)
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			pos := Position{X: x, Y: y}
			tile := m.TileAt(pos)
			factory, ok := overrides[tile.Code]
			if !ok {
				factory, ok = featureFactories[tile.Code]
			}
			if ok {
				handlers[pos] = factory(pos, tile)
			}
		}
	}
	return handlers
}

// SpringHandler launches boxes resting on it one cell along its orientation.
// Boxes can only step on it moving against the orientation and cannot be
// pushed through it the same way.
type SpringHandler struct {
	position    Position
	orientation Direction
}

// NewSpring binds a spring to a cell
func NewSpring(pos Position, orientation Direction) *SpringHandler {
	return &SpringHandler{position: pos, orientation: orientation}
}

func (s *SpringHandler) Tile() TileCode     { return Spring }
func (s *SpringHandler) Position() Position { return s.position }

// Orientation is the launch direction
func (s *SpringHandler) Orientation() Direction { return s.orientation }

func (s *SpringHandler) AllowEntering(d Direction) bool {
	return s.orientation == d.Opposite()
}

func (s *SpringHandler) AllowLeaving(d Direction) bool {
	return s.orientation != d.Opposite()
}

func (s *SpringHandler) Act(step *Step) bool {
	changed := false
	for i, box := range step.Boxes() {
		if box.Current != s.position {
			continue
		}
		if step.CanEnter(box.Current.Offset(s.orientation), s.orientation) {
			step.MoveBox(i, s.orientation)
			changed = true
		}
	}
	return changed
}

func (s *SpringHandler) String() string {
	return fmt.Sprintf("spring(%s facing %s)", s.position, s.orientation)
}

// TreadmillHandler carries whatever rests on it one cell along its
// orientation. Walking against the belt is not possible.
type TreadmillHandler struct {
	position    Position
	orientation Direction
}

// NewTreadmill binds a treadmill to a cell
func NewTreadmill(pos Position, orientation Direction) *TreadmillHandler {
	return &TreadmillHandler{position: pos, orientation: orientation}
}

func (t *TreadmillHandler) Tile() TileCode     { return Treadmill }
func (t *TreadmillHandler) Position() Position { return t.position }

// Orientation is the direction the belt runs
func (t *TreadmillHandler) Orientation() Direction { return t.orientation }

func (t *TreadmillHandler) AllowEntering(d Direction) bool {
	return d != t.orientation.Opposite()
}

func (t *TreadmillHandler) AllowLeaving(d Direction) bool {
	return d != t.orientation.Opposite()
}

func (t *TreadmillHandler) Act(step *Step) bool {
	next := t.position.Offset(t.orientation)
	if i, ok := step.BoxAt(t.position); ok {
		if step.CanEnter(next, t.orientation) {
			step.MoveBox(i, t.orientation)
			return true
		}
		return false
	}
	if step.Hero().Current == t.position && step.CanEnter(next, t.orientation) {
		step.MoveHero(t.orientation)
		return true
	}
	return false
}

// OilyFloorHandler makes an entity that moved onto it slide one more cell
type OilyFloorHandler struct {
	position Position
}

// NewOilyFloor binds an oily floor to a cell
func NewOilyFloor(pos Position) *OilyFloorHandler {
	return &OilyFloorHandler{position: pos}
}

func (o *OilyFloorHandler) Tile() TileCode               { return Oily }
func (o *OilyFloorHandler) Position() Position           { return o.position }
func (o *OilyFloorHandler) AllowEntering(Direction) bool { return true }
func (o *OilyFloorHandler) AllowLeaving(Direction) bool  { return true }

func (o *OilyFloorHandler) Act(step *Step) bool {
	if i, ok := step.BoxAt(o.position); ok {
		d := step.Boxes()[i].Direction
		if d.IsMovement() && step.CanEnter(o.position.Offset(d), d) {
			step.MoveBox(i, d)
			return true
		}
		return false
	}
	hero := step.Hero()
	if hero.Current == o.position && hero.Direction.IsMovement() && step.CanEnter(o.position.Offset(hero.Direction), hero.Direction) {
		step.MoveHero(hero.Direction)
		return true
	}
	return false
}
