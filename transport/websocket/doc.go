// Package websocket provides WebSocket transport for the Connect-Four rooms
// server.
//
// The websocket package implements:
//   - An HTTP upgrade handler that runs one game session per socket
//   - A hub.Conn adapter carrying one JSON command per text message
//   - Ping/pong keepalive with read and write deadlines
//
// Message Protocol:
//
// WebSocket clients speak exactly the same commands as TCP clients. Message
// boundaries come from WebSocket framing, so no length prefix is used:
//   - Incoming: {"Command": "Join_Room", "Room_Name": "R", "User_Name": "alice"}
//   - Outgoing: {"Command": "Room_State", "Available_Rooms": ["R"], ...}
//
// Usage:
//
//	coord := service.NewCoordinator(rooms, h)
//	router.Handle("/ws", websocket.NewHandler(ctx, coord, logger, protocol.DefaultMaxFrame))
//
// Connection Lifecycle:
//
// 1. Client upgrades at /ws
// 2. Client claims a username with Check_Username
// 3. Client sends commands and receives room and game updates
// 4. Close, read error or missed pongs end the session and run cleanup
package websocket
