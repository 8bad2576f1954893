package service

import (
	"context"
	"errors"
	"io"
	"net"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/connect4-rooms/game/engine"
	"github.com/wricardo/connect4-rooms/game/room"
	"github.com/wricardo/connect4-rooms/protocol"
	"github.com/wricardo/connect4-rooms/transport/hub"
)

const usernameTakenReason = "username taken"

// Coordinator runs the per-connection protocol loop and turns commands into
// registry calls and broadcasts.
type Coordinator struct {
	rooms     Rooms
	hub       Fanout
	log       *zap.SugaredLogger
	queueSize int

	// mu serializes dispatch so that each registry change and the fan-out
	// it triggers are enqueued to every peer in the same order.
	mu    sync.Mutex
	conns atomic.Int64
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Coordinator) {
		c.log = log
	}
}

// WithQueueSize sets the per-connection send queue length
func WithQueueSize(n int) Option {
	return func(c *Coordinator) {
		c.queueSize = n
	}
}

// NewCoordinator creates a coordinator over rooms and fanout
func NewCoordinator(rooms Rooms, fanout Fanout, opts ...Option) *Coordinator {
	c := &Coordinator{
		rooms:     rooms,
		hub:       fanout,
		log:       zap.NewNop().Sugar(),
		queueSize: hub.DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// session is the coordinator's state for one connection
type session struct {
	peer     *hub.Peer
	username string
	log      *zap.SugaredLogger
}

// Serve runs the protocol on conn until the client disconnects, the
// connection fails or ctx is cancelled. Whatever ends the session, the user
// leaves every room and the remaining clients are told.
func (c *Coordinator) Serve(ctx context.Context, conn hub.Conn) error {
	peer := hub.NewPeer(uuid.NewString(), conn, c.queueSize)
	s := &session{
		peer: peer,
		log:  c.log.With("session", peer.ID(), "remote", conn.RemoteAddr()),
	}

	c.conns.Add(1)
	defer c.conns.Add(-1)

	go peer.WritePump()
	stop := context.AfterFunc(ctx, func() { peer.Close() })
	defer stop()

	s.log.Debug("session started")

	var readErr error
	for {
		payload, err := conn.ReadFrame()
		if err != nil {
			readErr = err
			break
		}
		if len(payload) == 0 {
			continue
		}

		cmd, err := protocol.Decode(payload)
		if err != nil {
			s.log.Warnw("dropping malformed message", "error", err)
			continue
		}
		c.dispatch(s, cmd)
	}

	c.disconnect(s)
	peer.Close()

	if isClosed(readErr) || ctx.Err() != nil {
		s.log.Debugw("session ended", "user", s.username)
		return nil
	}
	s.log.Infow("session ended with error", "user", s.username, "error", readErr)
	return readErr
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}

// dispatch applies one command. Everything but Check_Username requires a
// claimed identity matching the command's User_Name.
func (c *Coordinator) dispatch(s *session, cmd protocol.Inbound) {
	if _, claiming := cmd.(protocol.CheckUsername); !claiming {
		if s.username == "" {
			s.log.Debugw("dropping command before username claim", "command", cmd.Command())
			return
		}
		if cmd.Sender() != s.username {
			s.log.Debugw("dropping command for another identity", "command", cmd.Command(), "user", s.username, "claimed", cmd.Sender())
			return
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s.log.Debugw("command", "command", cmd.Command(), "user", s.username)

	switch m := cmd.(type) {
	case protocol.CheckUsername:
		c.checkUsername(s, m)
	case protocol.CreateRoom:
		c.createRoom(m)
	case protocol.JoinRoom:
		c.joinRoom(m)
	case protocol.LeaveRoom:
		c.leaveRoom(s, m.RoomName, m.UserName)
	case protocol.SendingMessage:
		c.chat(s, m)
	case protocol.ReadyStatus:
		c.setReady(s, m)
	case protocol.GameMove:
		c.move(s, m)
	case protocol.RestartGame:
		c.restart(s, m)
	case protocol.GameQuit:
		c.quit(s, m)
	}
}

func (c *Coordinator) checkUsername(s *session, m protocol.CheckUsername) {
	if s.username != "" {
		s.log.Debugw("ignoring repeated username claim", "user", s.username, "claimed", m.UserName)
		return
	}

	reply := protocol.CheckUsernameReply{
		Status:         protocol.StatusValid,
		UsersInRoom:    []string{},
		AvailableRooms: c.roomNames(),
	}
	if err := c.hub.Register(m.UserName, s.peer); err != nil {
		reply.Status = protocol.StatusInvalid
		reply.Reason = usernameTakenReason
		s.log.Infow("username rejected", "user", m.UserName, "error", err)
		c.reply(s, reply)
		return
	}

	s.username = m.UserName
	s.log.Infow("username claimed", "user", s.username)
	c.reply(s, reply)
	c.toAll(c.lobbyState())
}

func (c *Coordinator) createRoom(m protocol.CreateRoom) {
	if c.rooms.Create(m.RoomName) {
		c.log.Infow("room created", "room", m.RoomName, "user", m.UserName)
	}
	c.toAll(c.lobbyState())
}

func (c *Coordinator) joinRoom(m protocol.JoinRoom) {
	res := c.rooms.Join(m.RoomName, m.UserName)
	if res.Created {
		c.log.Infow("room created", "room", m.RoomName, "user", m.UserName)
		c.toAll(c.lobbyState())
	}

	msgs := []protocol.Outbound{
		protocol.JoinRoomEcho{RoomName: m.RoomName, UserName: m.UserName, UsersInRoom: res.Members},
		protocol.RoomState{AvailableRooms: c.roomNames(), UsersInRoom: res.Members},
	}
	if res.Added {
		msgs = append(msgs, protocol.ChatMessage{
			RoomName: m.RoomName,
			UserName: m.UserName,
			Text:     protocol.JoinedRoomText(m.UserName),
		})
	}
	msgs = append(msgs, protocol.ReadyUpdate{RoomName: m.RoomName, ReadyUsers: res.Ready})
	c.toRoom(m.RoomName, msgs...)
}

// leaveRoom removes username from a room, ending their game if they were
// playing one. It is shared by Leave_Room and disconnect cleanup.
func (c *Coordinator) leaveRoom(s *session, name, username string) {
	res, err := c.rooms.Leave(name, username)
	if err != nil {
		s.log.Debugw("leave ignored", "room", name, "user", username, "error", err)
		return
	}

	if res.Deleted {
		c.log.Infow("room deleted", "room", name)
		c.toAll(c.lobbyState())
		return
	}

	var msgs []protocol.Outbound
	if f := res.Forfeit; f != nil {
		c.log.Infow("game forfeited by leave", "room", name, "user", username, "winner", f.Winner)
		msgs = append(msgs, protocol.GameOver{RoomName: name, Winner: f.Winner, GameState: f.State})
	}
	msgs = append(msgs,
		protocol.RoomState{AvailableRooms: c.roomNames(), UsersInRoom: res.Members},
		protocol.ReadyUpdate{RoomName: name, ReadyUsers: res.Ready},
		protocol.ChatMessage{RoomName: name, UserName: username, Text: protocol.LeftRoomText(username)},
	)
	c.toRoom(name, msgs...)
}

func (c *Coordinator) chat(s *session, m protocol.SendingMessage) {
	if !c.isMember(m.RoomName, m.UserName) {
		s.log.Debugw("chat from non-member ignored", "room", m.RoomName)
		return
	}
	c.toRoom(m.RoomName, protocol.ChatMessage{RoomName: m.RoomName, UserName: m.UserName, Text: m.Text})
}

func (c *Coordinator) setReady(s *session, m protocol.ReadyStatus) {
	res, err := c.rooms.SetReady(m.RoomName, m.UserName, m.Ready)
	if err != nil {
		s.log.Debugw("ready ignored", "room", m.RoomName, "error", err)
		return
	}

	msgs := []protocol.Outbound{protocol.ReadyUpdate{RoomName: m.RoomName, ReadyUsers: res.Ready}}
	if res.Started != nil {
		c.log.Infow("game started", "room", m.RoomName, "players", res.Started.Players)
		msgs = append(msgs, protocol.GameStart{RoomName: m.RoomName, GameState: *res.Started})
	}
	c.toRoom(m.RoomName, msgs...)
}

func (c *Coordinator) move(s *session, m protocol.GameMove) {
	res, err := c.rooms.Move(m.RoomName, m.UserName, m.Column)
	if err != nil {
		s.log.Debugw("move rejected", "room", m.RoomName, "column", m.Column, "error", err)
		return
	}

	msgs := []protocol.Outbound{protocol.GameUpdate{RoomName: m.RoomName, Move: res.Move, GameState: res.State}}
	if res.State.GameOver {
		winner := engine.NoWinner
		if res.State.Winner != nil {
			winner = *res.State.Winner
		}
		c.log.Infow("game over", "room", m.RoomName, "winner", winner)
		msgs = append(msgs, protocol.GameOver{RoomName: m.RoomName, Winner: winner, GameState: res.State})
	}
	c.toRoom(m.RoomName, msgs...)
}

func (c *Coordinator) restart(s *session, m protocol.RestartGame) {
	if !c.isMember(m.RoomName, m.UserName) {
		s.log.Debugw("restart from non-member ignored", "room", m.RoomName)
		return
	}
	res, err := c.rooms.Restart(m.RoomName)
	if err != nil {
		s.log.Debugw("restart ignored", "room", m.RoomName, "error", err)
		return
	}
	c.toRoom(m.RoomName, protocol.GameRestart{RoomName: m.RoomName, ReadyUsers: res.Ready, GameState: res.Previous})
}

func (c *Coordinator) quit(s *session, m protocol.GameQuit) {
	res, err := c.rooms.Forfeit(m.RoomName, m.UserName)
	if err != nil {
		s.log.Debugw("quit ignored", "room", m.RoomName, "error", err)
		return
	}

	c.log.Infow("game forfeited", "room", m.RoomName, "user", m.UserName, "winner", res.Winner)
	c.toRoom(m.RoomName,
		protocol.GameOver{RoomName: m.RoomName, Winner: res.Winner, GameState: res.State},
		protocol.RoomState{AvailableRooms: c.roomNames(), UsersInRoom: orEmpty(c.rooms.Members(m.RoomName))},
		protocol.ChatMessage{RoomName: m.RoomName, UserName: m.UserName, Text: protocol.QuitGameText(m.UserName)},
	)
}

// disconnect is the cleanup path for a session that has ended
func (c *Coordinator) disconnect(s *session) {
	if s.username == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range c.rooms.RoomsOf(s.username) {
		c.leaveRoom(s, name, s.username)
	}
	c.hub.Unregister(s.username, s.peer)
	c.toAll(c.lobbyState())

	s.log.Infow("user disconnected", "user", s.username)
}

func (c *Coordinator) isMember(name, username string) bool {
	return slices.Contains(c.rooms.Members(name), username)
}

func (c *Coordinator) roomNames() []string {
	return orEmpty(c.rooms.Names())
}

// lobbyState is the Room_State sent to every client
func (c *Coordinator) lobbyState() protocol.RoomState {
	return protocol.RoomState{AvailableRooms: c.roomNames(), UsersInRoom: []string{}}
}

func (c *Coordinator) encode(msg protocol.Outbound) ([]byte, bool) {
	data, err := protocol.Encode(msg)
	if err != nil {
		c.log.Errorw("failed to encode message", "command", msg.Command(), "error", err)
		return nil, false
	}
	return data, true
}

func (c *Coordinator) reply(s *session, msg protocol.Outbound) {
	data, ok := c.encode(msg)
	if !ok {
		return
	}
	if err := s.peer.Enqueue(data); err != nil {
		s.log.Warnw("reply not delivered", "command", msg.Command(), "error", err)
	}
}

func (c *Coordinator) toAll(msg protocol.Outbound) {
	if data, ok := c.encode(msg); ok {
		c.hub.Broadcast(data)
	}
}

// toRoom sends msgs, in order, to the current members of a room
func (c *Coordinator) toRoom(name string, msgs ...protocol.Outbound) {
	members := c.rooms.Members(name)
	if len(members) == 0 {
		return
	}
	for _, msg := range msgs {
		if data, ok := c.encode(msg); ok {
			c.hub.SendTo(members, data)
		}
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ListRooms returns every room in creation order
func (c *Coordinator) ListRooms(ctx context.Context) ([]*room.Info, error) {
	return c.rooms.List(), nil
}

// GetRoom returns one room
func (c *Coordinator) GetRoom(ctx context.Context, name string) (*room.Info, error) {
	return c.rooms.Get(name)
}

// GetGame returns the snapshot of a room's game
func (c *Coordinator) GetGame(ctx context.Context, name string) (*engine.Snapshot, error) {
	return c.rooms.GameState(name)
}

// GetHistory returns the moves played in a room's game
func (c *Coordinator) GetHistory(ctx context.Context, name string) (*engine.History, error) {
	return c.rooms.History(name)
}

// ListUsers returns every claimed username with its session details
func (c *Coordinator) ListUsers(ctx context.Context) ([]*UserInfo, error) {
	names := c.hub.Usernames()
	users := make([]*UserInfo, 0, len(names))
	for _, name := range names {
		peer, ok := c.hub.Lookup(name)
		if !ok {
			continue
		}
		users = append(users, &UserInfo{
			Username:  name,
			SessionID: peer.ID(),
			Remote:    peer.RemoteAddr(),
			Rooms:     orEmpty(c.rooms.RoomsOf(name)),
		})
	}
	return users, nil
}

// Stats returns connection, user, room and game counts
func (c *Coordinator) Stats(ctx context.Context) (*Stats, error) {
	rooms := c.rooms.List()
	stats := &Stats{
		Connections: c.conns.Load(),
		Users:       c.hub.Count(),
		Rooms:       len(rooms),
	}
	for _, r := range rooms {
		if r.Game != nil && !r.Game.GameOver {
			stats.ActiveGames++
		}
	}
	return stats, nil
}

var _ LobbyService = (*Coordinator)(nil)
