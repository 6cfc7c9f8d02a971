// Package engine provides the core rules of the box pushing puzzle.
//
// A level is split into two parts. The StaticMap holds terrain that never
// changes (walls, floor, targets, empty space and directional features),
// while a DynamicState holds what moves: the hero and the boxes. Keeping
// them apart lets a solver explore millions of states over one shared map.
//
// Core Types:
//
// MovementCoordinator applies one hero action to a DynamicState and
// returns the new state together with a MovementRecord describing where
// every entity came from. Feature cells (springs, treadmills, oily floor)
// are modelled as FeatureHandler values bound to their position; new kinds
// can be added with RegisterFeature.
//
// GameEngine wraps a coordinator for interactive play: it keeps the
// current GameState, the move history and the level messages.
//
// Usage:
//
//	config, err := engine.LoadLevelConfig("configs/classic.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	record, moved := gameEngine.Move(engine.Right)
//	state := gameEngine.GetState()
//
// Layout legend:
//
//	#  wall          $  box
//	   floor         *  box on target
//	.  target        @  hero
//	_  empty space   +  hero on target
//	S  spring        T  treadmill
//	O  oily floor
//
// Springs and treadmills take their direction from the level's
// orientation table, keyed by "x,y".
package engine
