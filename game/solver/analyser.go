package solver

import (
	"fmt"

	"github.com/wricardo/mcp-training/boxpusher/game/engine"
)

// MovementEvent classifies what happened during one coordinator step
type MovementEvent int

const (
	HeroMoved MovementEvent = iota
	BoxMoved
	HeroMovedBoxOntoTarget
	HeroMovedBoxOutOfTarget
	BoxMovedOntoTarget
	BoxMovedOutOfTarget
)

var eventNames = [...]string{
	"hero_moved",
	"box_moved",
	"hero_moved_box_onto_target",
	"hero_moved_box_out_of_target",
	"box_moved_onto_target",
	"box_moved_out_of_target",
}

func (e MovementEvent) String() string {
	if e < HeroMoved || e > BoxMovedOutOfTarget {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

// MarshalText encodes the event by name
func (e MovementEvent) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// DistanceFunc measures how far a box is from a target
type DistanceFunc func(from, to engine.Position) int

// Analysis is the result of analysing one MovementRecord
type Analysis struct {
	Events     []MovementEvent   `json:"events"`
	BoxesMoved []engine.Movement `json:"boxes_moved"`
	Heuristic  int               `json:"heuristic"`
	Deadlocked bool              `json:"deadlocked"`
}

// Has reports whether ev was emitted
func (a Analysis) Has(ev MovementEvent) bool {
	for _, e := range a.Events {
		if e == ev {
			return true
		}
	}
	return false
}

// Analyser turns movement records into events, a heuristic value and a
// deadlock verdict. It only reads the static map and is safe for
// concurrent use.
type Analyser struct {
	staticMap *engine.StaticMap
	targets   []engine.Position
	distance  DistanceFunc
}

// AnalyserOption configures an Analyser
type AnalyserOption func(*Analyser)

// WithDistance replaces the Manhattan distance used by the heuristic
func WithDistance(fn DistanceFunc) AnalyserOption {
	return func(a *Analyser) {
		if fn != nil {
			a.distance = fn
		}
	}
}

// NewAnalyser creates an analyser for m
func NewAnalyser(m *engine.StaticMap, opts ...AnalyserOption) (*Analyser, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: analyser needs a static map", engine.ErrMalformedInput)
	}
	a := &Analyser{
		staticMap: m,
		targets:   m.Targets(),
		distance:  engine.ManhattanDistance,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyse classifies a movement record. The out-of-target events are
// keyed on the box: they fire when a moved box left a target cell and did
// not land on one, wherever the hero stands.
func (a *Analyser) Analyse(record engine.MovementRecord) Analysis {
	analysis := Analysis{
		Heuristic: a.Heuristic(record.State().Boxes),
	}

	hero := record.Hero
	if hero.Moved() {
		analysis.Events = append(analysis.Events, HeroMoved)
	}

	for _, box := range record.Boxes {
		if box.Moved() {
			analysis.BoxesMoved = append(analysis.BoxesMoved, box)
		}
	}
	for range analysis.BoxesMoved {
		analysis.Events = append(analysis.Events, BoxMoved)
	}
	for _, box := range analysis.BoxesMoved {
		if box.OnTarget {
			analysis.Events = append(analysis.Events, BoxMovedOntoTarget)
		}
	}
	for _, box := range analysis.BoxesMoved {
		if !box.OnTarget && a.staticMap.IsTarget(box.Previous) {
			analysis.Events = append(analysis.Events, BoxMovedOutOfTarget)
		}
	}

	// The pushed box starts where the hero ended, travelling the same way
	for _, box := range analysis.BoxesMoved {
		if box.Previous != hero.Current || box.Direction != hero.Direction {
			continue
		}
		switch {
		case box.OnTarget:
			analysis.Events = append(analysis.Events, HeroMovedBoxOntoTarget)
		case a.staticMap.IsTarget(box.Previous):
			analysis.Events = append(analysis.Events, HeroMovedBoxOutOfTarget)
		}
		break
	}

	for _, box := range analysis.BoxesMoved {
		if a.deadlocked(box, record.Boxes) {
			analysis.Deadlocked = true
			break
		}
	}

	return analysis
}

// Heuristic sums, over all boxes, the distance to the nearest target
func (a *Analyser) Heuristic(boxes []engine.Position) int {
	total := 0
	for _, b := range boxes {
		if len(a.targets) == 0 {
			total += engine.UnreachableDistance
			continue
		}
		best := -1
		for _, t := range a.targets {
			if d := a.distance(t, b); best == -1 || d < best {
				best = d
			}
		}
		total += best
	}
	return total
}
