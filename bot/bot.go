package bot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"

	"go.uber.org/zap"

	"github.com/wricardo/connect4-rooms/game/engine"
	"github.com/wricardo/connect4-rooms/protocol"
)

var (
	ErrUsernameTaken = errors.New("username taken")
	ErrNoMove        = errors.New("no playable column")
)

// Results tallies finished games from the bot's side
type Results struct {
	Played int `json:"played"`
	Won    int `json:"won"`
	Lost   int `json:"lost"`
	Drawn  int `json:"drawn"`
}

// Bot is an automated player speaking the game protocol over one connection
type Bot struct {
	conn     net.Conn
	r        *bufio.Reader
	name     string
	room     string
	games    int
	maxFrame int
	strategy Strategy
	log      *zap.SugaredLogger

	results Results
}

// Option configures a Bot
type Option func(*Bot)

// WithGames sets how many games to finish before leaving. Default 1.
func WithGames(n int) Option {
	return func(b *Bot) { b.games = n }
}

func WithStrategy(s Strategy) Option {
	return func(b *Bot) { b.strategy = s }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(b *Bot) { b.log = log }
}

func WithMaxFrame(n int) Option {
	return func(b *Bot) { b.maxFrame = n }
}

// New creates a bot that will claim name and play in room over conn
func New(conn net.Conn, name, room string, opts ...Option) *Bot {
	b := &Bot{
		conn:     conn,
		r:        bufio.NewReader(conn),
		name:     name,
		room:     room,
		games:    1,
		maxFrame: protocol.DefaultMaxFrame,
		strategy: Greedy{},
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With("bot", name, "room", room)
	return b
}

// Dial connects to a game server and returns a bot for it
func Dial(ctx context.Context, addr, name, room string, opts ...Option) (*Bot, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return New(conn, name, room, opts...), nil
}

// Run claims the username, joins the room and plays until the configured
// number of games has finished. It leaves the room and closes the
// connection before returning.
func (b *Bot) Run(ctx context.Context) (Results, error) {
	stop := context.AfterFunc(ctx, func() { b.conn.Close() })
	defer stop()
	defer b.conn.Close()

	if err := b.send(protocol.CheckUsername{UserName: b.name}); err != nil {
		return b.results, err
	}
	if err := b.awaitClaim(); err != nil {
		return b.results, b.ctxErr(ctx, err)
	}

	if err := b.send(protocol.JoinRoom{RoomName: b.room, UserName: b.name}); err != nil {
		return b.results, err
	}
	if err := b.ready(); err != nil {
		return b.results, err
	}

	for b.results.Played < b.games {
		msg, err := b.next()
		if err != nil {
			return b.results, b.ctxErr(ctx, err)
		}

		switch m := msg.(type) {
		case protocol.GameStart:
			b.log.Debugw("game started", "players", m.GameState.Players)
			err = b.play(m.GameState)
		case protocol.GameUpdate:
			err = b.play(m.GameState)
		case protocol.GameOver:
			b.record(m.Winner)
			if b.results.Played < b.games {
				err = b.ready()
			}
		}
		if err != nil {
			return b.results, err
		}
	}

	b.log.Infow("done", "played", b.results.Played, "won", b.results.Won, "lost", b.results.Lost, "drawn", b.results.Drawn)
	return b.results, b.send(protocol.LeaveRoom{RoomName: b.room, UserName: b.name})
}

func (b *Bot) awaitClaim() error {
	for {
		msg, err := b.next()
		if err != nil {
			return err
		}
		reply, ok := msg.(protocol.CheckUsernameReply)
		if !ok {
			continue
		}
		if reply.Status != protocol.StatusValid {
			return fmt.Errorf("%w: %s", ErrUsernameTaken, b.name)
		}
		return nil
	}
}

func (b *Bot) ready() error {
	return b.send(protocol.ReadyStatus{RoomName: b.room, UserName: b.name, Ready: true})
}

// play moves when snap says it is this bot's turn
func (b *Bot) play(snap engine.Snapshot) error {
	if snap.GameOver || snap.CurrentPlayer == nil || *snap.CurrentPlayer != b.name {
		return nil
	}
	me := slices.Index(snap.Players, b.name)
	if me < 0 {
		return nil
	}

	col := b.strategy.Choose(snap.Grid, engine.Cell(me))
	if col < 0 {
		return ErrNoMove
	}
	b.log.Debugw("move", "column", col)
	return b.send(protocol.GameMove{RoomName: b.room, UserName: b.name, Column: col})
}

func (b *Bot) record(winner string) {
	b.results.Played++
	switch winner {
	case b.name:
		b.results.Won++
	case engine.NoWinner:
		b.results.Drawn++
	default:
		b.results.Lost++
	}
	b.log.Debugw("game over", "winner", winner)
}

func (b *Bot) send(cmd protocol.Inbound) error {
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return protocol.WriteFrame(b.conn, data)
}

// next returns the next message the bot understands, skipping frames it
// cannot decode.
func (b *Bot) next() (protocol.Outbound, error) {
	for {
		frame, err := protocol.ReadFrame(b.r, b.maxFrame)
		if err != nil {
			return nil, err
		}
		msg, err := protocol.DecodeOutbound(frame)
		if err != nil {
			b.log.Warnw("undecodable message", "error", err)
			continue
		}
		return msg, nil
	}
}

func (b *Bot) ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
