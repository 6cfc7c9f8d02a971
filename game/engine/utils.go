package engine

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// FindNearestTarget returns the closest target to pos and its distance
func FindNearestTarget(m *StaticMap, pos Position) (Position, int, bool) {
	minDistance := -1
	var nearest Position
	for _, t := range m.targets {
		d := ManhattanDistance(pos, t)
		if minDistance == -1 || d < minDistance {
			minDistance = d
			nearest = t
		}
	}
	return nearest, minDistance, minDistance != -1
}

// CountBoxesOnTarget counts boxes resting on target cells
func CountBoxesOnTarget(m *StaticMap, boxes []Position) int {
	count := 0
	for _, b := range boxes {
		if m.IsTarget(b) {
			count++
		}
	}
	return count
}

// ReachableCells flood-fills from start over open cells not occupied by a
// box.
func ReachableCells(m *StaticMap, start Position, boxes []Position) map[Position]bool {
	blocked := make(map[Position]bool, len(boxes))
	for _, b := range boxes {
		blocked[b] = true
	}

	seen := map[Position]bool{start: true}
	queue := []Position{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range Directions {
			n := p.Offset(d)
			if seen[n] || blocked[n] || m.Blocked(n) {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	return seen
}
