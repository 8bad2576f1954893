package hub

import (
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
)

var ErrUsernameTaken = errors.New("username taken")

// Hub maps claimed usernames to their peers
type Hub struct {
	peers map[string]*Peer
	mu    sync.RWMutex
	log   *zap.SugaredLogger
}

// New creates an empty hub
func New(log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hub{
		peers: make(map[string]*Peer),
		log:   log,
	}
}

// Register binds username to peer. Registering the same pair again is a
// no-op; a name held by another peer returns ErrUsernameTaken.
func (h *Hub) Register(username string, peer *Peer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.peers[username]; ok && existing != peer {
		return ErrUsernameTaken
	}
	h.peers[username] = peer

	h.log.Debugw("peer registered", "user", username, "session", peer.ID(), "total", len(h.peers))
	return nil
}

// Unregister removes username if it is still bound to peer
func (h *Hub) Unregister(username string, peer *Peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.peers[username]; !ok || existing != peer {
		return false
	}
	delete(h.peers, username)

	h.log.Debugw("peer unregistered", "user", username, "session", peer.ID(), "remaining", len(h.peers))
	return true
}

// Lookup returns the peer holding username
func (h *Hub) Lookup(username string) (*Peer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.peers[username]
	return p, ok
}

// SendTo delivers payload to every listed user that is connected. Unknown
// users are skipped.
func (h *Hub) SendTo(usernames []string, payload []byte) {
	h.mu.RLock()
	targets := make(map[string]*Peer, len(usernames))
	for _, name := range usernames {
		if p, ok := h.peers[name]; ok {
			targets[name] = p
		}
	}
	h.mu.RUnlock()

	for name, peer := range targets {
		h.deliver(name, peer, payload)
	}
}

// Broadcast delivers payload to every claimed user
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	targets := make(map[string]*Peer, len(h.peers))
	for name, p := range h.peers {
		targets[name] = p
	}
	h.mu.RUnlock()

	for name, peer := range targets {
		h.deliver(name, peer, payload)
	}
}

func (h *Hub) deliver(username string, peer *Peer, payload []byte) {
	err := peer.Enqueue(payload)
	switch {
	case errors.Is(err, ErrQueueFull):
		h.log.Warnw("send queue full, closing peer", "user", username, "session", peer.ID(), "remote", peer.RemoteAddr())
	case err != nil:
		h.log.Debugw("skipping closed peer", "user", username, "session", peer.ID())
	}
}

// Usernames returns the claimed usernames in sorted order
func (h *Hub) Usernames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.peers))
	for name := range h.peers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Count returns the number of claimed usernames
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// CloseAll closes every registered peer. Each peer's reader then runs its
// own cleanup.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	peers := make([]*Peer, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.RUnlock()

	for _, p := range peers {
		p.Close()
	}
}
