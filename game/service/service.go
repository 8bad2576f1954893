package service

import (
	"context"

	"github.com/wricardo/connect4-rooms/game/engine"
	"github.com/wricardo/connect4-rooms/game/room"
	"github.com/wricardo/connect4-rooms/transport/hub"
)

// LobbyService is the read-only view of the server used by the admin
// surfaces (REST, MCP).
type LobbyService interface {
	ListRooms(ctx context.Context) ([]*room.Info, error)
	GetRoom(ctx context.Context, name string) (*room.Info, error)
	GetGame(ctx context.Context, name string) (*engine.Snapshot, error)
	GetHistory(ctx context.Context, name string) (*engine.History, error)
	ListUsers(ctx context.Context) ([]*UserInfo, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Rooms is the room registry driven by the coordinator
type Rooms interface {
	Create(name string) bool
	Join(name, username string) room.JoinResult
	Leave(name, username string) (room.LeaveResult, error)
	SetReady(name, username string, ready bool) (room.ReadyResult, error)
	Restart(name string) (room.RestartResult, error)
	Move(name, username string, column int) (room.MoveResult, error)
	Forfeit(name, username string) (room.ForfeitResult, error)

	Names() []string
	Members(name string) []string
	RoomsOf(username string) []string
	Get(name string) (*room.Info, error)
	List() []*room.Info
	GameState(name string) (*engine.Snapshot, error)
	History(name string) (*engine.History, error)
}

// Fanout is the username directory and delivery layer
type Fanout interface {
	Register(username string, peer *hub.Peer) error
	Unregister(username string, peer *hub.Peer) bool
	Lookup(username string) (*hub.Peer, bool)
	Usernames() []string
	Count() int
	SendTo(usernames []string, payload []byte)
	Broadcast(payload []byte)
}
