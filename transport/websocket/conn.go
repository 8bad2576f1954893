package websocket

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time allowed for the close message before the socket is dropped.
	closeGrace = time.Second
)

// Conn carries one protocol payload per WebSocket text message
type Conn struct {
	ws *websocket.Conn

	wmu       sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewConn wraps ws and starts its keepalive pings. maxMessage bounds
// inbound messages.
func NewConn(ws *websocket.Conn, maxMessage int) *Conn {
	c := &Conn{
		ws:   ws,
		done: make(chan struct{}),
	}

	if maxMessage > 0 {
		ws.SetReadLimit(int64(maxMessage))
	}
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.pingLoop()
	return c
}

// ReadFrame returns the next text or binary message. A normal close from
// the client reads as io.EOF.
func (c *Conn) ReadFrame() ([]byte, error) {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		// Any traffic proves the peer is alive.
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return data, nil
	}
}

// WriteFrame sends payload as one text message
func (c *Conn) WriteFrame(payload []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	select {
	case <-c.done:
		return errors.New("websocket: connection closed")
	default:
	}

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

// Close marks the connection closed and returns without waiting. The close
// message and socket teardown run in the background: a writer stalled on a
// slow client holds gorilla's write lock until its deadline, so the close
// message gets closeGrace before the socket is dropped under it.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		go func() {
			c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(closeGrace))
			c.ws.Close()
		}()
	})
	return nil
}

func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

func (c *Conn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
