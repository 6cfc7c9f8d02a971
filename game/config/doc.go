// Package config manages the level files of the box pusher game server.
//
// Levels live in one directory as JSON (.json) or YAML (.yaml, .yml) files.
// The file name without extension is the config id used to create sessions.
// Each file holds a name, a description, the layout rows, the orientation of
// every spring and treadmill ("x,y": "up") and optional solver budgets and
// messages:
//
//	name: Classic
//	description: Two boxes around a pillar
//	layout:
//	  - "#######"
//	  - "#@ $ .#"
//	  - "#  #  #"
//	  - "# $  .#"
//	  - "#######"
//	solver:
//	  max_iterations: 200000
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadConfig("classic")
//	configs, err := manager.ListConfigs()
//
//	// Drop cached levels whenever their files change
//	go manager.Watch(ctx, func(id string) { log.Printf("%s changed", id) })
//
// Levels are validated with engine.ValidateLevelConfig when they are loaded
// and before they are saved. Invalid files are skipped by ListConfigs.
package config
