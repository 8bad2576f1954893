package websocket

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/connect4-rooms/protocol"
	"github.com/wricardo/connect4-rooms/transport/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Game clients connect from anywhere
		return true
	},
}

// SessionHandler serves one connection until it ends
type SessionHandler interface {
	Serve(ctx context.Context, conn hub.Conn) error
}

// Handler upgrades HTTP requests and runs a game session on each socket
type Handler struct {
	sessions   SessionHandler
	ctx        context.Context
	log        *zap.SugaredLogger
	maxMessage int
}

// NewHandler creates a handler. Sessions end when ctx is cancelled.
func NewHandler(ctx context.Context, sessions SessionHandler, log *zap.SugaredLogger, maxMessage int) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if maxMessage <= 0 {
		maxMessage = protocol.DefaultMaxFrame
	}
	return &Handler{
		sessions:   sessions,
		ctx:        ctx,
		log:        log,
		maxMessage: maxMessage,
	}
}

// ServeHTTP handles WebSocket requests from clients
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := NewConn(ws, h.maxMessage)
	defer conn.Close()

	h.log.Debugw("websocket connected", "remote", conn.RemoteAddr())
	if err := h.sessions.Serve(h.ctx, conn); err != nil {
		h.log.Debugw("websocket session ended", "remote", conn.RemoteAddr(), "error", err)
	}
}
