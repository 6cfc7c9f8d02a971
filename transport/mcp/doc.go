// Package mcp exposes the box pusher REST API as Model Context Protocol tools.
//
// The Client does not touch game state itself. Every tool call is forwarded
// to the HTTP API and the JSON answer is rendered as text an agent can read:
// the board with a column ruler, a 3x3 view around the hero, step traces and
// the reason a bulk move stopped.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, move, bulk_move, reset_game, move_history
//   - solve: ask the server's solver for a plan from the current position
//   - list_configs, game_instructions
//   - describe_cell: terrain, feature orientation and occupants of one cell
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
// or over HTTP with server.NewStreamableHTTPServer(client.GetMCPServer()).
package mcp
