package hub

import (
	"errors"
	"sync"
)

// DefaultQueueSize is the per-peer send buffer used when none is configured
const DefaultQueueSize = 256

var (
	ErrPeerClosed = errors.New("peer is closed")
	ErrQueueFull  = errors.New("peer send queue is full")
)

// Conn is one client connection carrying whole protocol payloads
type Conn interface {
	// ReadFrame blocks until the next payload arrives
	ReadFrame() ([]byte, error)
	// WriteFrame sends one payload
	WriteFrame(payload []byte) error
	Close() error
	RemoteAddr() string
}

// Peer is the server side of one connection
type Peer struct {
	id   string
	conn Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewPeer wraps conn with a send queue of queueSize payloads
func NewPeer(id string, conn Conn, queueSize int) *Peer {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Peer{
		id:   id,
		conn: conn,
		send: make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
}

// ID returns the session identifier
func (p *Peer) ID() string {
	return p.id
}

// RemoteAddr returns the client's address
func (p *Peer) RemoteAddr() string {
	return p.conn.RemoteAddr()
}

// Done is closed when the peer is closed
func (p *Peer) Done() <-chan struct{} {
	return p.done
}

// Enqueue queues payload without blocking. A full queue closes the peer.
func (p *Peer) Enqueue(payload []byte) error {
	select {
	case <-p.done:
		return ErrPeerClosed
	default:
	}

	select {
	case p.send <- payload:
		return nil
	default:
		p.Close()
		return ErrQueueFull
	}
}

// WritePump writes queued payloads to the connection until the peer is
// closed. A write error closes the peer.
func (p *Peer) WritePump() error {
	for {
		select {
		case payload := <-p.send:
			if err := p.conn.WriteFrame(payload); err != nil {
				p.Close()
				return err
			}
		case <-p.done:
			return nil
		}
	}
}

// Close stops the write pump and closes the connection. It is safe to call
// more than once.
func (p *Peer) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		p.closeErr = p.conn.Close()
	})
	return p.closeErr
}
