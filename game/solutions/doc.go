// Package solutions caches solver results per level and state.
//
// Records are keyed by level name and the canonical state hash, so a
// solve request for a position that was already explored is answered
// without searching again. MemoryStore keeps records in a map; BadgerStore
// persists them in a Badger database that survives restarts.
//
// Only definitive results (solved or unsolvable) should be stored. Budget
// and cancellation outcomes depend on the limits of one run.
package solutions
