// Package engine provides the Connect-Four rules for a single two-player match.
//
// The engine package implements:
//   - The 6x7 grid with gravity placement
//   - Strict two-player turn order
//   - Win detection across horizontal, vertical and both diagonal directions
//   - Draw detection once every column is full
//   - Immutable snapshots for transmission to clients
//
// Core Types:
//
// Game is the state machine for one match. It starts InProgress and ends in
// Won or Draw; terminal games reject every further move. Snapshot is a
// point-in-time copy of a Game that is safe to encode and share.
//
// Usage:
//
//	game, err := engine.NewGame([]string{"alice", "bob"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	row, err := game.AttemptMove(game.CurrentPlayer(), 3)
//	if err != nil {
//		// illegal move, nothing changed
//	}
//	state := game.Snapshot()
//
// Board Orientation:
//
// Row 0 is the bottom of the board. A chip dropped into a column lands on the
// lowest empty row, so a cell can only be occupied when every cell below it
// in the same column is occupied.
//
// Concurrency:
//
// A Game does no locking of its own. Callers that share a Game between
// goroutines must serialize access, which the room registry does.
package engine
