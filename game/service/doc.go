// Package service provides the business logic layer of the box pusher game
// server.
//
// The service package implements:
//   - Multi-session game management
//   - Move processing with movement analysis (events, deadlock warnings)
//   - Solving the current position of a session, with cached results
//   - Move history tracking
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages level file loading and validation.
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own GameEngine.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithSolutionStore(store))
//
//	sessionInfo, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, sessionInfo.ID, "up", false)
//	solution, err := gameService.Solve(ctx, sessionInfo.ID)
//
// Solve copies the session state under a read lock and searches without
// holding it. Identical concurrent requests (same level, same position) share
// one search. Solved and unsolvable results are cached in a solutions.Store;
// budget and cancellation outcomes are not.
package service
