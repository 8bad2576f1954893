// Package service provides the session coordinator for the Connect-Four
// rooms server.
//
// The service package implements:
//   - The per-connection protocol loop (Coordinator.Serve)
//   - The command table mapping each inbound command to registry calls and
//     the broadcasts they trigger
//   - Username claims and the identity check applied to later commands
//   - Disconnect cleanup, which leaves every room and forfeits running games
//   - A read-only LobbyService view for the admin transports
//
// Core Interfaces:
//
// Rooms is the room registry (implemented by room.Registry). Fanout is the
// username directory and delivery layer (implemented by hub.Hub).
// LobbyService is what the REST and MCP surfaces read from.
//
// Ordering:
//
// Commands from all connections are applied one at a time, and the payloads
// each command produces are queued to their recipients before the next
// command runs. Every client therefore observes room updates in the same
// order they were applied.
//
// Usage:
//
//	rooms := room.NewRegistry()
//	h := hub.New(logger)
//	coord := service.NewCoordinator(rooms, h, service.WithLogger(logger))
//
//	for {
//		conn, err := listener.Accept()
//		if err != nil {
//			return err
//		}
//		go coord.Serve(ctx, tcp.NewConn(conn, protocol.DefaultMaxFrame, 0))
//	}
//
// Failure Policy:
//
// Malformed messages are dropped and the connection stays open. Commands that
// reference unknown rooms, or moves the game rejects, are ignored without a
// reply. A read error ends the session and runs the disconnect cleanup.
package service
