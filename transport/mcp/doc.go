// Package mcp exposes the Connect-Four rooms admin API as Model Context
// Protocol tools.
//
// The Client is a thin proxy: every tool issues a GET against the REST API
// (package api) and formats the JSON as text for the agent. No tool changes
// server state.
//
// MCP Tools:
//   - server_stats: Connection, user, room and game counts
//   - list_rooms: Rooms with members and game status
//   - get_room: One room with ready flags
//   - get_game: The board drawn as text
//   - list_users: Claimed usernames and their rooms
//
// Transport Modes:
//   - Stdio: `connect4-rooms mcp --api http://host:8080`
//   - HTTP: POST /mcp on the admin server, handled by HandleMessage
package mcp
