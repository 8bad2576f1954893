package protocol

import "github.com/wricardo/connect4-rooms/game/engine"

// Check_Username reply statuses
const (
	StatusValid   = "Valid"
	StatusInvalid = "Invalid"
)

// Outbound is a server-to-client update
type Outbound interface {
	Command() string

	outbound()
}

// CheckUsernameReply answers a Check_Username claim
type CheckUsernameReply struct {
	Status         string   `json:"Status"`
	Reason         string   `json:"Reason,omitempty"`
	UsersInRoom    []string `json:"Users_In_Room"`
	AvailableRooms []string `json:"Available_Rooms"`
}

// RoomState lists the rooms, and the members of one room when sent to a room
type RoomState struct {
	AvailableRooms []string `json:"Available_Rooms"`
	UsersInRoom    []string `json:"Users_In_Room"`
}

// JoinRoomEcho announces a membership change to a room
type JoinRoomEcho struct {
	RoomName    string   `json:"Room_Name"`
	UserName    string   `json:"User_Name"`
	UsersInRoom []string `json:"Users_In_Room"`
}

// ChatMessage is a chat line delivered to a room
type ChatMessage struct {
	RoomName string `json:"Room_Name"`
	UserName string `json:"User_Name"`
	Text     string `json:"Text"`
}

// ReadyUpdate carries the full ready map of a room
type ReadyUpdate struct {
	RoomName   string          `json:"Room_Name"`
	ReadyUsers map[string]bool `json:"Ready_Users"`
}

// GameStart announces a new game
type GameStart struct {
	RoomName  string          `json:"Room_Name"`
	GameState engine.Snapshot `json:"Game_State"`
}

// GameUpdate announces an accepted move
type GameUpdate struct {
	RoomName  string          `json:"Room_Name"`
	Move      engine.Move     `json:"Move"`
	GameState engine.Snapshot `json:"Game_State"`
}

// GameOver announces the end of a game. Winner is engine.NoWinner on a draw.
type GameOver struct {
	RoomName  string          `json:"Room_Name"`
	Winner    string          `json:"Winner"`
	GameState engine.Snapshot `json:"Game_State"`
}

// GameRestart announces that the room's game was torn down
type GameRestart struct {
	RoomName   string           `json:"Room_Name"`
	ReadyUsers map[string]bool  `json:"Ready_Users"`
	GameState  *engine.Snapshot `json:"Game_State,omitempty"`
}

func (CheckUsernameReply) Command() string { return CmdCheckUsername }
func (RoomState) Command() string          { return CmdRoomState }
func (JoinRoomEcho) Command() string       { return CmdJoinRoom }
func (ChatMessage) Command() string        { return CmdSendingMessage }
func (ReadyUpdate) Command() string        { return CmdReadyUpdate }
func (GameStart) Command() string          { return CmdGameStart }
func (GameUpdate) Command() string         { return CmdGameUpdate }
func (GameOver) Command() string           { return CmdGameOver }
func (GameRestart) Command() string        { return CmdGameRestart }

func (CheckUsernameReply) outbound() {}
func (RoomState) outbound()          {}
func (JoinRoomEcho) outbound()       {}
func (ChatMessage) outbound()        {}
func (ReadyUpdate) outbound()        {}
func (GameStart) outbound()          {}
func (GameUpdate) outbound()         {}
func (GameOver) outbound()           {}
func (GameRestart) outbound()        {}
