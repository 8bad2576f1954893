package room

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/wricardo/connect4-rooms/game/engine"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotMember    = errors.New("user is not a member of the room")
	ErrNoGame       = errors.New("no game in progress")
)

// Room is a named group of members sharing chat and at most one game
type Room struct {
	Name      string
	Members   []string
	Ready     map[string]bool
	Game      *engine.Game
	CreatedAt time.Time
}

// Info is a copy of a room's state
type Info struct {
	Name      string           `json:"name"`
	Members   []string         `json:"members"`
	Ready     map[string]bool  `json:"ready"`
	Game      *engine.Snapshot `json:"game,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// JoinResult describes the room after a join
type JoinResult struct {
	Members []string
	Ready   map[string]bool
	Created bool // the room did not exist before
	Added   bool // the user was not already a member
}

// LeaveResult describes the room after a leave
type LeaveResult struct {
	Members []string
	Ready   map[string]bool
	Deleted bool

	// Forfeit is set when the leaving user abandoned a game in progress.
	Forfeit *ForfeitResult
}

// ReadyResult carries the ready map and, when the rendezvous completed, the
// new game's first snapshot.
type ReadyResult struct {
	Ready   map[string]bool
	Started *engine.Snapshot
}

// RestartResult carries the reset ready map and the game that was torn down
type RestartResult struct {
	Ready    map[string]bool
	Previous *engine.Snapshot
}

// MoveResult describes an accepted move
type MoveResult struct {
	Move  engine.Move
	State engine.Snapshot
}

// ForfeitResult describes a game ended because a player quit
type ForfeitResult struct {
	Quitter string
	Winner  string
	State   engine.Snapshot
}

// GameFactory builds a game for the two members of a room
type GameFactory func(players []string) (*engine.Game, error)

// Option configures a Registry
type Option func(*Registry)

// WithGameFactory replaces engine.NewGame, e.g. to fix player order in tests.
func WithGameFactory(f GameFactory) Option {
	return func(r *Registry) {
		r.newGame = f
	}
}

// Registry owns all rooms and their games
type Registry struct {
	rooms   map[string]*Room
	order   []string // room names in creation order
	newGame GameFactory
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms:   make(map[string]*Room),
		newGame: engine.NewGame,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create allocates an empty room. It reports false if the room already
// existed.
func (r *Registry) Create(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[name]; exists {
		return false
	}
	r.createLocked(name)
	return true
}

// Join adds username to the room, creating the room if needed. Joining twice
// is a no-op.
func (r *Registry) Join(name, username string) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res JoinResult
	room, exists := r.rooms[name]
	if !exists {
		room = r.createLocked(name)
		res.Created = true
	}

	if !slices.Contains(room.Members, username) {
		room.Members = append(room.Members, username)
		room.Ready[username] = false
		res.Added = true
	}

	res.Members = slices.Clone(room.Members)
	res.Ready = maps.Clone(room.Ready)
	return res
}

// Leave removes username from the room. If username was playing a game in
// progress the game is forfeited first. The room is deleted, together with
// its game and ready flags, when its last member leaves.
func (r *Registry) Leave(name, username string) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[name]
	if !exists {
		return LeaveResult{}, ErrRoomNotFound
	}
	idx := slices.Index(room.Members, username)
	if idx < 0 {
		return LeaveResult{}, ErrNotMember
	}

	var res LeaveResult
	if forfeit, err := forfeitLocked(room, username); err == nil {
		res.Forfeit = forfeit
	}

	room.Members = slices.Delete(room.Members, idx, idx+1)
	delete(room.Ready, username)

	if len(room.Members) == 0 {
		r.deleteLocked(name)
		res.Deleted = true
		return res, nil
	}

	res.Members = slices.Clone(room.Members)
	res.Ready = maps.Clone(room.Ready)
	return res, nil
}

// SetReady updates a member's ready flag. When the room has exactly two
// members and both are ready, a new game replaces any previous one and both
// flags are reset to false.
func (r *Registry) SetReady(name, username string, ready bool) (ReadyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[name]
	if !exists {
		return ReadyResult{}, ErrRoomNotFound
	}
	if !slices.Contains(room.Members, username) {
		return ReadyResult{}, ErrNotMember
	}

	room.Ready[username] = ready

	var res ReadyResult
	if len(room.Members) == 2 && room.Ready[room.Members[0]] && room.Ready[room.Members[1]] {
		game, err := r.newGame(slices.Clone(room.Members))
		if err != nil {
			return ReadyResult{}, fmt.Errorf("failed to start game in room %s: %w", name, err)
		}
		room.Game = game
		for _, member := range room.Members {
			room.Ready[member] = false
		}
		snap := game.Snapshot()
		res.Started = &snap
	}

	res.Ready = maps.Clone(room.Ready)
	return res, nil
}

// Restart drops the room's game, if any, and resets every ready flag.
func (r *Registry) Restart(name string) (RestartResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[name]
	if !exists {
		return RestartResult{}, ErrRoomNotFound
	}

	var res RestartResult
	if room.Game != nil {
		snap := room.Game.Snapshot()
		res.Previous = &snap
		room.Game = nil
	}
	for member := range room.Ready {
		room.Ready[member] = false
	}

	res.Ready = maps.Clone(room.Ready)
	return res, nil
}

// Move applies a chip drop to the room's game
func (r *Registry) Move(name, username string, column int) (MoveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[name]
	if !exists {
		return MoveResult{}, ErrRoomNotFound
	}
	if room.Game == nil {
		return MoveResult{}, ErrNoGame
	}

	if _, err := room.Game.AttemptMove(username, column); err != nil {
		return MoveResult{}, err
	}

	return MoveResult{
		Move:  *room.Game.LastMove(),
		State: room.Game.Snapshot(),
	}, nil
}

// Forfeit ends the room's game in progress, declaring the opponent of
// username the winner, and removes the game from the room.
func (r *Registry) Forfeit(name, username string) (ForfeitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[name]
	if !exists {
		return ForfeitResult{}, ErrRoomNotFound
	}

	res, err := forfeitLocked(room, username)
	if err != nil {
		return ForfeitResult{}, err
	}
	return *res, nil
}

func forfeitLocked(room *Room, username string) (*ForfeitResult, error) {
	if room.Game == nil || room.Game.IsOver() {
		return nil, ErrNoGame
	}

	winner, err := room.Game.Forfeit(username)
	if err != nil {
		return nil, err
	}

	res := &ForfeitResult{
		Quitter: username,
		Winner:  winner,
		State:   room.Game.Snapshot(),
	}
	room.Game = nil
	return res, nil
}

// Names returns room names in creation order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Members returns the members of a room in join order, or nil if the room
// does not exist.
func (r *Registry) Members(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[name]
	if !exists {
		return nil
	}
	return slices.Clone(room.Members)
}

// RoomsOf returns the names of every room username belongs to
func (r *Registry) RoomsOf(username string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, name := range r.order {
		if slices.Contains(r.rooms[name].Members, username) {
			names = append(names, name)
		}
	}
	return names
}

// Get returns a copy of a room
func (r *Registry) Get(name string) (*Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[name]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return infoLocked(room), nil
}

// List returns copies of all rooms in creation order
func (r *Registry) List() []*Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Info, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, infoLocked(r.rooms[name]))
	}
	return result
}

// GameState returns the snapshot of the room's game
func (r *Registry) GameState(name string) (*engine.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[name]
	if !exists {
		return nil, ErrRoomNotFound
	}
	if room.Game == nil {
		return nil, ErrNoGame
	}
	snap := room.Game.Snapshot()
	return &snap, nil
}

// History returns the move log of the room's game
func (r *Registry) History(name string) (*engine.History, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[name]
	if !exists {
		return nil, ErrRoomNotFound
	}
	if room.Game == nil {
		return nil, ErrNoGame
	}
	h := room.Game.History()
	return &h, nil
}

// Count returns the number of rooms
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) createLocked(name string) *Room {
	room := &Room{
		Name:      name,
		Members:   []string{},
		Ready:     make(map[string]bool),
		CreatedAt: time.Now(),
	}
	r.rooms[name] = room
	r.order = append(r.order, name)
	return room
}

func (r *Registry) deleteLocked(name string) {
	delete(r.rooms, name)
	if idx := slices.Index(r.order, name); idx >= 0 {
		r.order = slices.Delete(r.order, idx, idx+1)
	}
}

func infoLocked(room *Room) *Info {
	info := &Info{
		Name:      room.Name,
		Members:   slices.Clone(room.Members),
		Ready:     maps.Clone(room.Ready),
		CreatedAt: room.CreatedAt,
	}
	if room.Game != nil {
		snap := room.Game.Snapshot()
		info.Game = &snap
	}
	return info
}
