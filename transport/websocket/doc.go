// Package websocket streams session updates to browser viewers.
//
// A central Hub owns every connection. Clients attach to one session with
// /ws?session=<id> and only listen. Each frame is one JSON Message:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "movement", "movement": {...}, "events": ["hero_moved", "box_moved"], "game_state": {...}}
//	{"session_id": "ab12", "event": "solution", "data": {...}}
//
// Broadcasts are queued to the Run loop and dropped when the queue is full,
// so callers never block on slow viewers. A client whose own buffer fills up
// is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//	hub.BroadcastToSession(id, state)
package websocket
