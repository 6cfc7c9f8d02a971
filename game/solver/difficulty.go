package solver

import "time"

type difficultyFactor struct {
	value  float64
	max    float64
	weight float64
}

// EstimateDifficulty rates a solved level from 0 (trivial) to 100. It
// returns nil when the solution did not solve the level.
func EstimateDifficulty(sol *Solution) *float64 {
	if !sol.Solved() {
		return nil
	}

	factors := []difficultyFactor{
		{value: float64(len(sol.Actions)), max: 200, weight: .15},
		{value: float64(sol.Pushes), max: 80, weight: .75},
		{value: float64(sol.TotalTime), max: float64(time.Minute), weight: .25},
		{value: float64(sol.Iterations), max: 750000, weight: .35},
	}

	var sum, weights float64
	for _, f := range factors {
		sum += min(f.value/f.max, 1.25) * f.weight
		weights += f.weight
	}

	score := max(0, min(sum/weights*100, 100))
	return &score
}
