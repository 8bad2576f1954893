package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/connect4-rooms/api"
	"github.com/wricardo/connect4-rooms/config"
	"github.com/wricardo/connect4-rooms/game/room"
	"github.com/wricardo/connect4-rooms/game/service"
	"github.com/wricardo/connect4-rooms/transport/hub"
	"github.com/wricardo/connect4-rooms/transport/mcp"
	"github.com/wricardo/connect4-rooms/transport/tcp"
	"github.com/wricardo/connect4-rooms/transport/websocket"
)

// instance is one running server: game listeners, admin HTTP and the shared
// coordinator behind them.
type instance struct {
	log   *zap.SugaredLogger
	hub   *hub.Hub
	coord *service.Coordinator

	gameAddr string // bound game listener address
	apiURL   string // loopback admin API URL, "" when HTTP is disabled
	endpoint atomic.Value

	httpServer *http.Server
	wg         sync.WaitGroup
}

type startOption func(*startOptions)

type startOptions struct {
	loopbackAPI bool
}

// withLoopbackAPI serves the admin API on an ephemeral loopback port even
// when the configured HTTP port is 0.
func withLoopbackAPI() startOption {
	return func(o *startOptions) { o.loopbackAPI = true }
}

// start binds every listener and serves until ctx ends.
func start(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, opts ...startOption) (*instance, error) {
	var so startOptions
	for _, opt := range opts {
		opt(&so)
	}

	fanout := hub.New(log.Named("hub"))
	coord := service.NewCoordinator(room.NewRegistry(), fanout,
		service.WithLogger(log.Named("coordinator")),
		service.WithQueueSize(cfg.SendQueue),
	)

	inst := &instance{log: log, hub: fanout, coord: coord}

	ln, err := net.Listen("tcp", cfg.GameAddr())
	if err != nil {
		return nil, fmt.Errorf("failed to listen for game clients: %w", err)
	}
	inst.gameAddr = ln.Addr().String()
	inst.endpoint.Store("tcp://" + advertisedAddr(cfg.Host, ln.Addr()))

	tcpOpts := []tcp.Option{
		tcp.WithLogger(log.Named("tcp")),
		tcp.WithMaxFrame(cfg.MaxFrame),
		tcp.WithIdleTimeout(time.Duration(cfg.IdleTimeout)),
	}

	inst.wg.Add(1)
	go func() {
		defer inst.wg.Done()
		tcp.NewServer(coord, tcpOpts...).Serve(ctx, ln)
	}()

	if cfg.Ngrok {
		inst.wg.Add(1)
		go func() {
			defer inst.wg.Done()
			inst.serveNgrok(ctx, cfg.NgrokAuth, tcp.NewServer(coord, tcpOpts...))
		}()
	}

	httpAddr := cfg.HTTPAddr()
	if httpAddr == "" && so.loopbackAPI {
		httpAddr = "127.0.0.1:0"
	}
	if httpAddr == "" {
		log.Info("admin HTTP server disabled")
		return inst, nil
	}

	httpLn, err := net.Listen("tcp", httpAddr)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("failed to listen for admin HTTP: %w", err)
	}
	inst.apiURL = "http://" + loopbackAddr(httpLn.Addr())

	ws := websocket.NewHandler(ctx, coord, log.Named("ws"), cfg.MaxFrame)
	apiServer := api.NewServer(coord,
		api.WithWebSocket(ws),
		api.WithEndpoint(inst.Endpoint),
		api.WithLogger(log.Named("api")),
	)

	router := http.NewServeMux()
	router.Handle("/", apiServer)
	router.Handle("/mcp", mcpHandler(mcp.NewClient(inst.apiURL, Version)))

	inst.httpServer = &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	inst.wg.Add(1)
	go func() {
		defer inst.wg.Done()
		log.Infow("admin HTTP server listening",
			"addr", httpLn.Addr().String(),
			"api", inst.apiURL+"/api",
			"ws", "ws"+inst.apiURL[len("http"):]+"/ws",
			"mcp", inst.apiURL+"/mcp",
		)
		if err := inst.httpServer.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("admin HTTP server failed", "error", err)
		}
	}()

	return inst, nil
}

// serveNgrok exposes the game protocol through an ngrok TCP tunnel and
// advertises the tunnel URL as the public endpoint.
func (inst *instance) serveNgrok(ctx context.Context, authToken string, srv *tcp.Server) {
	inst.log.Info("starting ngrok tunnel")

	tun, err := ngrok.Listen(ctx,
		ngrokConfig.TCPEndpoint(),
		ngrok.WithAuthtoken(authToken),
	)
	if err != nil {
		inst.log.Errorw("failed to start ngrok tunnel", "error", err)
		return
	}

	inst.endpoint.Store(tun.URL())
	inst.log.Infow("ngrok tunnel established", "url", tun.URL())

	srv.Serve(ctx, tun)
	inst.log.Info("ngrok tunnel closed")
}

// Endpoint is the public game address clients should dial
func (inst *instance) Endpoint() string {
	s, _ := inst.endpoint.Load().(string)
	return s
}

// shutdown stops the admin HTTP server and waits for every listener. The
// caller must have cancelled the context passed to start.
func (inst *instance) shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var err error
	if inst.httpServer != nil {
		if serr := inst.httpServer.Shutdown(ctx); serr != nil {
			err = fmt.Errorf("HTTP server shutdown: %w", serr)
		}
	}
	inst.hub.CloseAll()

	done := make(chan struct{})
	go func() {
		inst.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		inst.log.Info("server stopped")
	case <-ctx.Done():
		inst.log.Warn("shutdown timed out with sessions still open")
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// mcpHandler serves MCP JSON-RPC messages posted over HTTP.
func mcpHandler(client *mcp.Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)
		if response == nil {
			// notifications carry no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
}

// advertisedAddr replaces a wildcard bind host with the machine's hostname.
func advertisedAddr(host string, addr net.Addr) string {
	port := strconv.Itoa(addr.(*net.TCPAddr).Port)
	if host == "" || host == "0.0.0.0" || host == "::" {
		if name, err := os.Hostname(); err == nil {
			host = name
		}
	}
	return net.JoinHostPort(host, port)
}

// loopbackAddr is a dialable form of a listener address.
func loopbackAddr(addr net.Addr) string {
	tcpAddr := addr.(*net.TCPAddr)
	if tcpAddr.IP.IsUnspecified() {
		return net.JoinHostPort("127.0.0.1", strconv.Itoa(tcpAddr.Port))
	}
	return tcpAddr.String()
}
