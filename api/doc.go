// Package api serves the box pusher game over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "classic"}, empty for the default level)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Sessions for the multi-session viewer (?sessionIds=a,b or ?configName=x)
//   - GET /api/sessions/{id} - Get one session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/move - {"direction": "up", "reset": false}
//   - POST /api/sessions/{id}/bulk-move - {"moves": ["r", "r", "u"], "reset": false}
//   - POST /api/sessions/{id}/reset - Back to the level start
//   - GET /api/sessions/{id}/history - Paginated move history (?page=1&limit=20&order=desc)
//   - POST /api/sessions/{id}/solve - Solve from the current position (rate limited)
//
// Levels:
//   - GET /api/configs - List level files
//   - GET /api/configs/{name} - One level by id or file name
//   - POST /api/configs - Save a level (?id=name.yaml picks the file name)
//
// Other:
//   - GET /ws?session={id} - WebSocket updates for one session
//   - GET /metrics - Prometheus metrics
//   - GET /health - Liveness check
//
// Move responses carry a step trace, the raw movement record, the analyser
// events and a deadlock flag. Blocked moves carry attempted_to describing the
// cell that stopped the hero. Bulk moves stop at the first blocked move, at a
// deadlock or once the level is solved and report why in stop_reason_code.
//
// Errors are JSON with the HTTP status repeated in the body:
//
//	{"error": "session not found: ...", "code": 404}
package api
