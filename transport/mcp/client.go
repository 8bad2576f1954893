package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/connect4-rooms/game/engine"
	"github.com/wricardo/connect4-rooms/game/room"
	"github.com/wricardo/connect4-rooms/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string, version string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer(version)
	return c
}

func (c *Client) initMCPServer(version string) {
	c.mcpServer = server.NewMCPServer(
		"Connect-Four Rooms",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Connect-Four Rooms - MCP Interface

Read-only view of a running Connect-Four rooms server. Players connect over
TCP or WebSocket, gather in named rooms, chat, and play Connect-Four once two
members mark themselves ready. These tools observe that activity; they never
change it.

AVAILABLE TOOLS:
- server_stats: Connection, user, room and active game counts
- list_rooms: Every room with members, ready flags and game status
- get_room: One room in detail
- get_game: The board of a room's game, row 6 printed first
- list_users: Claimed usernames and the rooms they are in`),
	)

	c.registerTools()
}

func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.NewTool("server_stats",
		mcp.WithDescription("Get connection, user, room and active game counts"),
	), c.handleStats)

	c.mcpServer.AddTool(mcp.NewTool("list_rooms",
		mcp.WithDescription("List all rooms with their members and game status"),
		mcp.WithBoolean("playing",
			mcp.Description("Only rooms with a game in progress"),
		),
	), c.handleListRooms)

	c.mcpServer.AddTool(mcp.NewTool("get_room",
		mcp.WithDescription("Get members, ready flags and game status of a room"),
		mcp.WithString("room",
			mcp.Required(),
			mcp.Description("Room name"),
		),
	), c.handleGetRoom)

	c.mcpServer.AddTool(mcp.NewTool("get_game",
		mcp.WithDescription("Get the board and turn of the game in a room"),
		mcp.WithString("room",
			mcp.Required(),
			mcp.Description("Room name"),
		),
	), c.handleGetGame)

	c.mcpServer.AddTool(mcp.NewTool("list_users",
		mcp.WithDescription("List connected users and their rooms"),
	), c.handleListUsers)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// Tool handlers

func (c *Client) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats service.Stats
	if err := c.apiCall(ctx, "/api", &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Connections: %d\nUsers: %d\nRooms: %d\nActive games: %d\n",
		stats.Connections, stats.Users, stats.Rooms, stats.ActiveGames)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/rooms"
	if request.GetBool("playing", false) {
		path += "?playing=true"
	}

	var response struct {
		Count int          `json:"count"`
		Rooms []*room.Info `json:"rooms"`
	}
	if err := c.apiCall(ctx, path, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No rooms.\n"), nil
	}

	result := fmt.Sprintf("Rooms (%d):\n\n", response.Count)
	for _, info := range response.Rooms {
		result += fmt.Sprintf("- %s: %s [%s]\n", info.Name, strings.Join(info.Members, ", "), gameStatus(info.Game))
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("room")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info room.Info
	if err := c.apiCall(ctx, "/api/rooms/"+url.PathEscape(name), &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatRoom(&info)), nil
}

func (c *Client) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("room")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "/api/rooms/"+url.PathEscape(name)+"/game", &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGame(&snap)), nil
}

func (c *Client) handleListUsers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                 `json:"count"`
		Users []*service.UserInfo `json:"users"`
	}
	if err := c.apiCall(ctx, "/api/users", &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Users (%d):\n\n", response.Count)
	for _, u := range response.Users {
		rooms := "no rooms"
		if len(u.Rooms) > 0 {
			rooms = strings.Join(u.Rooms, ", ")
		}
		result += fmt.Sprintf("- %s (%s) in %s\n", u.Username, u.Remote, rooms)
	}
	return mcp.NewToolResultText(result), nil
}

// Formatting helpers

func gameStatus(snap *engine.Snapshot) string {
	switch {
	case snap == nil:
		return "no game"
	case !snap.GameOver:
		return fmt.Sprintf("playing, %s to move", deref(snap.CurrentPlayer))
	case deref(snap.Winner) == engine.NoWinner:
		return "draw"
	default:
		return fmt.Sprintf("won by %s", deref(snap.Winner))
	}
}

func formatRoom(info *room.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room: %s\n", info.Name)
	fmt.Fprintf(&b, "Members (%d):\n", len(info.Members))
	for _, m := range info.Members {
		ready := "not ready"
		if info.Ready[m] {
			ready = "ready"
		}
		fmt.Fprintf(&b, "  - %s (%s)\n", m, ready)
	}
	fmt.Fprintf(&b, "Game: %s\n", gameStatus(info.Game))
	return b.String()
}

// formatGame draws the board top row first. Player 0 is X and player 1 is O.
func formatGame(snap *engine.Snapshot) string {
	var b strings.Builder
	for i, p := range snap.Players {
		fmt.Fprintf(&b, "%s: %s\n", cellChar(engine.Cell(i)), p)
	}
	fmt.Fprintf(&b, "Status: %s\n\n", gameStatus(snap))

	for row := engine.Rows - 1; row >= 0; row-- {
		b.WriteString("|")
		for col := 0; col < engine.Columns; col++ {
			b.WriteString(cellChar(snap.Grid[row][col]))
		}
		b.WriteString("|\n")
	}
	b.WriteString(" ")
	for col := 0; col < engine.Columns; col++ {
		fmt.Fprintf(&b, "%d", col)
	}
	b.WriteString("\n")
	return b.String()
}

func cellChar(c engine.Cell) string {
	switch c {
	case 0:
		return "X"
	case 1:
		return "O"
	default:
		return "."
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
