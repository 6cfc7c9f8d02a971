// Package session keeps the live puzzle sessions of the server.
//
// A session pairs one engine.GameEngine with the level it was started on.
// Session IDs are case-insensitive and limited to letters, digits, '-' and
// '_' so they can double as file names. Empty IDs get a random 4-character
// hex ID that is free both in memory and on disk.
//
// Persistence:
//
// FilePersistence writes each session as <id>.json holding the config id,
// a snapshot of the level and the full game state. A session loads from its
// snapshot, so it survives the level file being edited or deleted. When
// persistence is configured the Manager saves on create and on access, and
// Get falls back to disk for sessions that are not in memory.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", level)
//
//	// Evict idle sessions from memory; they reload from disk on demand
//	go manager.RunCleanup(ctx, time.Minute, 30*time.Minute)
package session
