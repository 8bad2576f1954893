package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/wricardo/connect4-rooms/game/room"
	"github.com/wricardo/connect4-rooms/game/service"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// Server represents the REST API server
type Server struct {
	service  service.LobbyService
	ws       http.Handler
	endpoint func() string
	log      *zap.SugaredLogger
	router   *mux.Router
}

// Option configures a Server
type Option func(*Server)

// WithWebSocket mounts the game WebSocket handler at /ws
func WithWebSocket(h http.Handler) Option {
	return func(s *Server) { s.ws = h }
}

// WithEndpoint sets the function reporting the public game address encoded
// by /api/connect.png. It is called per request because a tunnel may come up
// after the server starts.
func WithEndpoint(f func() string) Option {
	return func(s *Server) { s.endpoint = f }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Server) { s.log = log }
}

// NewServer creates a new API server
func NewServer(lobby service.LobbyService, opts ...Option) *Server {
	s := &Server{
		service: lobby,
		log:     zap.NewNop().Sugar(),
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("", s.handleStats).Methods("GET")
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{name}", s.handleGetRoom).Methods("GET")
	api.HandleFunc("/rooms/{name}/game", s.handleGetGame).Methods("GET")
	api.HandleFunc("/rooms/{name}/moves", s.handleGetMoves).Methods("GET")
	api.HandleFunc("/users", s.handleListUsers).Methods("GET")
	api.HandleFunc("/connect.png", s.handleConnectQR).Methods("GET")

	if s.ws != nil {
		s.router.Handle("/ws", s.ws)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugw("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr, "took", time.Since(start))
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps registry errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, room.ErrNoGame):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Room Handlers

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.service.ListRooms(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	if query.Get("playing") == "true" {
		playing := rooms[:0]
		for _, info := range rooms {
			if info.Game != nil && !info.Game.GameOver {
				playing = append(playing, info)
			}
		}
		rooms = playing
	}

	total := len(rooms)
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(rooms) {
			rooms = rooms[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rooms),
		"total": total,
		"rooms": rooms,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	info, err := s.service.GetRoom(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	snap, err := s.service.GetGame(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetMoves(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	history, err := s.service.GetHistory(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(users),
		"users": users,
	})
}

// handleConnectQR renders the game endpoint as a QR code for phones
func (s *Server) handleConnectQR(w http.ResponseWriter, r *http.Request) {
	var endpoint string
	if s.endpoint != nil {
		endpoint = s.endpoint()
	}
	if endpoint == "" {
		respondError(w, http.StatusServiceUnavailable, "game endpoint not available")
		return
	}

	size := defaultQRSize
	if sizeStr := r.URL.Query().Get("size"); sizeStr != "" {
		n, err := strconv.Atoi(sizeStr)
		if err != nil || n <= 0 || n > maxQRSize {
			respondError(w, http.StatusBadRequest, "size must be between 1 and 1024")
			return
		}
		size = n
	}

	png, err := qrcode.Encode(endpoint, qrcode.Medium, size)
	if err != nil {
		s.log.Errorw("failed to render qr code", "endpoint", endpoint, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to render qr code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}
