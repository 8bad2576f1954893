package protocol

// Command discriminators, shared by inbound and outbound messages where the
// name is reused.
const (
	CmdCheckUsername  = "Check_Username"
	CmdCreateRoom     = "Create_Room"
	CmdJoinRoom       = "Join_Room"
	CmdLeaveRoom      = "Leave_Room"
	CmdSendingMessage = "Sending_Message"
	CmdReadyStatus    = "Ready_Status"
	CmdGameMove       = "Game_Move"
	CmdRestartGame    = "Restart_Game"
	CmdGameQuit       = "Game_Quit"

	CmdRoomState   = "Room_State"
	CmdReadyUpdate = "Ready_Update"
	CmdGameStart   = "Game_Start"
	CmdGameUpdate  = "Game_Update"
	CmdGameOver    = "Game_Over"
	CmdGameRestart = "Game_Restart"
)

// Inbound is a client-to-server command. The set of implementations is
// closed to this package.
type Inbound interface {
	// Command returns the wire discriminator
	Command() string
	// Sender returns the User_Name the client put in the message
	Sender() string

	inbound()
}

// CheckUsername claims an identity for the connection
type CheckUsername struct {
	UserName string
}

// CreateRoom creates an empty room
type CreateRoom struct {
	RoomName string
	UserName string
}

// JoinRoom adds the sender to a room, creating it if needed
type JoinRoom struct {
	RoomName string
	UserName string
}

// LeaveRoom removes the sender from a room
type LeaveRoom struct {
	RoomName string
	UserName string
}

// SendingMessage is a chat line for a room
type SendingMessage struct {
	RoomName string
	UserName string
	Text     string
}

// ReadyStatus flips the sender's ready flag
type ReadyStatus struct {
	RoomName string
	UserName string
	Ready    bool
}

// GameMove drops a chip into Column
type GameMove struct {
	RoomName string
	UserName string
	Column   int
}

// RestartGame tears down the room's game
type RestartGame struct {
	RoomName string
	UserName string
}

// GameQuit forfeits the room's game
type GameQuit struct {
	RoomName string
	UserName string
}

func (CheckUsername) Command() string  { return CmdCheckUsername }
func (CreateRoom) Command() string     { return CmdCreateRoom }
func (JoinRoom) Command() string       { return CmdJoinRoom }
func (LeaveRoom) Command() string      { return CmdLeaveRoom }
func (SendingMessage) Command() string { return CmdSendingMessage }
func (ReadyStatus) Command() string    { return CmdReadyStatus }
func (GameMove) Command() string       { return CmdGameMove }
func (RestartGame) Command() string    { return CmdRestartGame }
func (GameQuit) Command() string       { return CmdGameQuit }

func (c CheckUsername) Sender() string  { return c.UserName }
func (c CreateRoom) Sender() string     { return c.UserName }
func (c JoinRoom) Sender() string       { return c.UserName }
func (c LeaveRoom) Sender() string      { return c.UserName }
func (c SendingMessage) Sender() string { return c.UserName }
func (c ReadyStatus) Sender() string    { return c.UserName }
func (c GameMove) Sender() string       { return c.UserName }
func (c RestartGame) Sender() string    { return c.UserName }
func (c GameQuit) Sender() string       { return c.UserName }

func (CheckUsername) inbound()  {}
func (CreateRoom) inbound()     {}
func (JoinRoom) inbound()       {}
func (LeaveRoom) inbound()      {}
func (SendingMessage) inbound() {}
func (ReadyStatus) inbound()    {}
func (GameMove) inbound()       {}
func (RestartGame) inbound()    {}
func (GameQuit) inbound()       {}

// LeftRoomText is the chat line legacy clients send to leave a room
func LeftRoomText(username string) string {
	return username + " has left the room."
}

// JoinedRoomText is the chat line announcing a new member
func JoinedRoomText(username string) string {
	return username + " has joined the room."
}

// QuitGameText is the chat line announcing a forfeit
func QuitGameText(username string) string {
	return username + " has quit the game."
}
