package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/connect4-rooms/api"
	"github.com/wricardo/connect4-rooms/game/engine"
	"github.com/wricardo/connect4-rooms/game/room"
	"github.com/wricardo/connect4-rooms/game/service"
	"github.com/wricardo/connect4-rooms/transport/hub"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/", "test")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.Stats{Users: 4})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test")

	var stats service.Stats
	if err := client.apiCall(context.Background(), "/api", &stats); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if stats.Users != 4 {
		t.Errorf("Expected 4 users, got %d", stats.Users)
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", "test")
		if err := client.apiCall(context.Background(), "/api", nil); err == nil {
			t.Error("Expected error for an unreachable server")
		}
	})

	t.Run("json error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "room not found"})
		}))
		defer server.Close()

		err := NewClient(server.URL, "test").apiCall(context.Background(), "/api/rooms/x", nil)
		if err == nil || err.Error() != "room not found" {
			t.Errorf("Expected 'room not found', got %v", err)
		}
	})

	t.Run("plain error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL, "test").apiCall(context.Background(), "/api", nil)
		if err == nil || !strings.Contains(err.Error(), "API error") {
			t.Errorf("Expected 'API error' in error message, got: %v", err)
		}
	})
}

// liveClient runs the real REST API over a coordinator with one game
// in progress between alice and bob in room R.
func liveClient(t *testing.T) *Client {
	t.Helper()

	registry := room.NewRegistry(room.WithGameFactory(engine.NewGameOrdered))
	registry.Join("R", "alice")
	registry.Join("R", "bob")
	registry.Join("Lobby", "carol")
	registry.SetReady("R", "alice", true)
	registry.SetReady("R", "bob", true)
	if _, err := registry.Move("R", "alice", 3); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	coord := service.NewCoordinator(registry, hub.New(nil))
	server := httptest.NewServer(api.NewServer(coord))
	t.Cleanup(server.Close)

	return NewClient(server.URL, "test")
}

func TestTools(t *testing.T) {
	client := liveClient(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		call     func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args     map[string]interface{}
		isError  bool
		contains []string
		excludes []string
	}{
		{
			name:     "server_stats",
			call:     client.handleStats,
			contains: []string{"Rooms: 2", "Active games: 1"},
		},
		{
			name:     "list_rooms",
			call:     client.handleListRooms,
			contains: []string{"Rooms (2)", "- R: alice, bob [playing, bob to move]", "- Lobby: carol [no game]"},
		},
		{
			name:     "list_rooms playing",
			call:     client.handleListRooms,
			args:     map[string]interface{}{"playing": true},
			contains: []string{"Rooms (1)", "- R:"},
			excludes: []string{"Lobby"},
		},
		{
			name:     "get_room",
			call:     client.handleGetRoom,
			args:     map[string]interface{}{"room": "R"},
			contains: []string{"Room: R", "alice (not ready)", "bob (not ready)"},
		},
		{
			name:     "get_room missing",
			call:     client.handleGetRoom,
			args:     map[string]interface{}{"room": "nowhere"},
			isError:  true,
			contains: []string{"room not found"},
		},
		{
			name:    "get_room without argument",
			call:    client.handleGetRoom,
			args:    map[string]interface{}{},
			isError: true,
		},
		{
			name:     "get_game",
			call:     client.handleGetGame,
			args:     map[string]interface{}{"room": "R"},
			contains: []string{"X: alice", "O: bob", "|...X...|", " 0123456"},
		},
		{
			name:    "get_game without a game",
			call:    client.handleGetGame,
			args:    map[string]interface{}{"room": "Lobby"},
			isError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.call(ctx, callRequest(tt.name, tt.args))
			if err != nil {
				t.Fatalf("Handler returned error: %v", err)
			}
			if result.IsError != tt.isError {
				t.Fatalf("Expected IsError %v, got %v", tt.isError, result.IsError)
			}
			text := resultText(t, result)
			for _, want := range tt.contains {
				if !strings.Contains(text, want) {
					t.Errorf("Expected %q in result, got:\n%s", want, text)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(text, unwanted) {
					t.Errorf("Did not expect %q in result, got:\n%s", unwanted, text)
				}
			}
		})
	}
}

func TestFormatGame(t *testing.T) {
	grid := engine.NewGrid()
	grid[0][0] = 0
	grid[1][0] = 1
	winner := engine.NoWinner
	snap := &engine.Snapshot{Grid: grid, GameOver: true, Winner: &winner, Players: []string{"a", "b"}}

	result := formatGame(snap)
	lines := strings.Split(strings.TrimRight(result, "\n"), "\n")

	if !strings.Contains(result, "Status: draw") {
		t.Errorf("Expected draw status, got:\n%s", result)
	}
	// Bottom row is printed last before the column index line.
	if got := lines[len(lines)-2]; got != "|X......|" {
		t.Errorf("Expected bottom row |X......|, got %s", got)
	}
	if got := lines[len(lines)-3]; got != "|O......|" {
		t.Errorf("Expected second row |O......|, got %s", got)
	}
}

func TestGameStatus(t *testing.T) {
	alice := "alice"
	tests := []struct {
		name     string
		snap     *engine.Snapshot
		expected string
	}{
		{"no game", nil, "no game"},
		{"in progress", &engine.Snapshot{CurrentPlayer: &alice}, "playing, alice to move"},
		{"won", &engine.Snapshot{GameOver: true, Winner: &alice}, "won by alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gameStatus(tt.snap); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
