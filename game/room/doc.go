// Package room provides the room registry for the Connect-Four server.
//
// The room package implements:
//   - Thread-safe room storage keyed by room name
//   - Ordered membership with per-member ready flags
//   - The ready-up rendezvous that starts a game
//   - Ownership of each room's single active game
//   - Automatic room deletion when the last member leaves
//
// Core Types:
//
// Registry owns every Room and the Game attached to it. Callers refer to
// rooms by name only; every method returns copies (Info, snapshots, maps) so
// no caller ever holds a reference into registry state.
//
// Concurrency:
//
// All operations take the registry lock for their whole duration, so compound
// sequences such as "set ready, then start a game if both members are ready"
// are atomic with respect to other goroutines.
//
// Failure Policy:
//
// Operations on unknown rooms return ErrRoomNotFound and change nothing.
// Clients race room deletion routinely, so callers are expected to treat
// these errors as no-ops.
//
// Usage:
//
//	rooms := room.NewRegistry()
//	rooms.Join("lobby", "alice")
//	rooms.Join("lobby", "bob")
//	rooms.SetReady("lobby", "alice", true)
//	res, _ := rooms.SetReady("lobby", "bob", true)
//	if res.Started != nil {
//		// broadcast Game_Start with *res.Started
//	}
package room
