package tcp

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/wricardo/connect4-rooms/protocol"
)

// Time allowed to write a frame to the peer.
const writeWait = 10 * time.Second

// Conn is a length-prefixed framed TCP connection
type Conn struct {
	conn     net.Conn
	r        *bufio.Reader
	maxFrame int
	idle     time.Duration

	wmu sync.Mutex
}

// NewConn wraps c. A positive idle duration is the longest the client may
// stay silent before ReadFrame fails.
func NewConn(c net.Conn, maxFrame int, idle time.Duration) *Conn {
	if maxFrame <= 0 {
		maxFrame = protocol.DefaultMaxFrame
	}
	return &Conn{
		conn:     c,
		r:        bufio.NewReader(c),
		maxFrame: maxFrame,
		idle:     idle,
	}
}

// ReadFrame reads the next payload
func (c *Conn) ReadFrame() ([]byte, error) {
	if c.idle > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.idle)); err != nil {
			return nil, err
		}
	}
	return protocol.ReadFrame(c.r, c.maxFrame)
}

// WriteFrame writes one payload. Concurrent writers are serialized.
func (c *Conn) WriteFrame(payload []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return protocol.WriteFrame(c.conn, payload)
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
