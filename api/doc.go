// Package api provides the read-only admin HTTP surface of the Connect-Four
// rooms server.
//
// Endpoints:
//
//   - GET /healthz - Liveness probe
//   - GET /api - Connection, user, room and game counts
//   - GET /api/rooms - Rooms with members, ready flags and game snapshot
//     (?playing=true keeps rooms with a game in progress, ?limit=N truncates)
//   - GET /api/rooms/{name} - One room
//   - GET /api/rooms/{name}/game - The room's game snapshot
//   - GET /api/rooms/{name}/moves - The game's status and move log
//   - GET /api/users - Claimed usernames and their rooms
//   - GET /api/connect.png - QR code of the public game address (?size=N)
//   - /ws - Game sessions over WebSocket, when a handler is mounted
//
// Nothing here mutates server state; play happens only over the game
// transports.
//
// Errors are returned as JSON with an HTTP status:
//
//	{"error": "room not found"}
package api
