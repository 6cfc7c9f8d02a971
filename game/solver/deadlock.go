package solver

import "github.com/wricardo/mcp-training/boxpusher/game/engine"

// lineSegment summarises the line a box was pushed along
type lineSegment struct {
	boxes   int
	targets int
	// open cells on the parallel line beyond the box, i.e. the wall line
	open int
}

// deadlocked checks the local patterns that make a moved box unrecoverable.
// Both rules only apply when the box now faces a wall.
func (a *Analyser) deadlocked(box engine.Movement, boxes []engine.Movement) bool {
	d := box.Direction
	if !d.IsMovement() {
		return false
	}
	next := box.Current.Offset(d)
	if !a.staticMap.IsWall(next) {
		return false
	}

	seg := a.scanLine(box.Current, next, d, boxes)
	if seg.boxes > seg.targets && seg.open < 2 {
		return true
	}

	if box.OnTarget {
		return false
	}
	return a.cornered(box.Current, d)
}

// scanLine walks the row (vertical push) or column (horizontal push) that
// holds the box, and the parallel line through next.
func (a *Analyser) scanLine(at, next engine.Position, d engine.Direction, boxes []engine.Movement) lineSegment {
	m := a.staticMap
	var seg lineSegment

	vertical := d == engine.Up || d == engine.Down
	length := m.Height()
	if vertical {
		length = m.Width()
	}

	for i := 0; i < length; i++ {
		var cell, beyond engine.Position
		if vertical {
			cell = engine.Position{X: i, Y: at.Y}
			beyond = engine.Position{X: i, Y: next.Y}
		} else {
			cell = engine.Position{X: at.X, Y: i}
			beyond = engine.Position{X: next.X, Y: i}
		}
		if m.IsTarget(cell) {
			seg.targets++
		}
		if code := m.CodeAt(beyond); code != engine.Wall && code != engine.Empty {
			seg.open++
		}
	}

	for _, b := range boxes {
		if (vertical && b.Current.Y == at.Y) || (!vertical && b.Current.X == at.X) {
			seg.boxes++
		}
	}
	return seg
}

// cornered reports a wall on either side perpendicular to d
func (a *Analyser) cornered(at engine.Position, d engine.Direction) bool {
	return a.staticMap.IsWall(at.Offset(d.Clockwise())) ||
		a.staticMap.IsWall(at.Offset(d.CounterClockwise()))
}
