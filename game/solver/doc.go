// Package solver finds push sequences that place every box on a target.
//
// The search is best-first over DynamicState values. Each frontier entry
// carries the actions that reached it and a score that grows by one per
// hero step plus the box-to-target heuristic of every state along the path.
// The heuristic is summed along the path instead of being evaluated once on
// the frontier node, so the expansion order differs from A*.
//
// The Analyser classifies every coordinator step into movement events,
// computes the heuristic and prunes states with local deadlock patterns
// (a box against a wall with too few targets on its line, or a box wedged
// into a corner). Pruned states are never queued nor marked visited.
//
// Usage:
//
//	s, err := solver.New(level.Map, solver.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	solution, err := s.Solve(ctx, level.Start.Hero, level.Start.Boxes)
//	if err != nil {
//		return err // malformed input only
//	}
//	if solution.Outcome == solver.OutcomeSolved {
//		fmt.Println(engine.FormatActions(solution.Actions))
//	}
//
// A Solve call owns its frontier and visited set; one Solver may serve many
// concurrent Solve calls.
package solver
