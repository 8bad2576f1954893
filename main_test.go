package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/connect4-rooms/config"
	"github.com/wricardo/connect4-rooms/protocol"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "connect4-rooms" {
		t.Errorf("Expected app name connect4-rooms, got %s", AppName)
	}
}

// parseConfig runs the CLI with args and returns the config it built
func parseConfig(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	var (
		cfg      *config.Config
		buildErr error
	)
	capture := func(ctx context.Context, cmd *cli.Command) error {
		cfg, buildErr = buildConfig(cmd)
		return nil
	}

	app := newApp()
	app.Action = capture
	for _, sub := range app.Commands {
		sub.Action = capture
	}

	if err := app.Run(context.Background(), append([]string{AppName}, args...)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return cfg, buildErr
}

func TestBuildConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := parseConfig(t)
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}
		if cfg.GameAddr() != "0.0.0.0:12345" {
			t.Errorf("Expected 0.0.0.0:12345, got %s", cfg.GameAddr())
		}
		if cfg.HTTPPort != 8080 {
			t.Errorf("Expected http port 8080, got %d", cfg.HTTPPort)
		}
	})

	t.Run("flags", func(t *testing.T) {
		cfg, err := parseConfig(t, "--port", "4000", "--http-port", "0", "--idle-timeout", "30s", "--debug")
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}
		if cfg.Port != 4000 {
			t.Errorf("Expected port 4000, got %d", cfg.Port)
		}
		if cfg.HTTPAddr() != "" {
			t.Errorf("Expected HTTP disabled, got %s", cfg.HTTPAddr())
		}
		if time.Duration(cfg.IdleTimeout) != 30*time.Second {
			t.Errorf("Expected 30s idle timeout, got %v", time.Duration(cfg.IdleTimeout))
		}
		if !cfg.Debug {
			t.Error("Expected debug enabled")
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("C4_SEND_QUEUE", "16")
		t.Setenv("C4_HOST", "127.0.0.1")

		cfg, err := parseConfig(t, "serve")
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}
		if cfg.SendQueue != 16 {
			t.Errorf("Expected send queue 16, got %d", cfg.SendQueue)
		}
		if cfg.Host != "127.0.0.1" {
			t.Errorf("Expected host 127.0.0.1, got %s", cfg.Host)
		}
	})

	t.Run("file under flags", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "c4.json")
		if err := os.WriteFile(path, []byte(`{"port":5000,"http_port":5001,"send_queue":8}`), 0o644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		cfg, err := parseConfig(t, "--config", path, "--send-queue", "32")
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}
		if cfg.Port != 5000 || cfg.HTTPPort != 5001 {
			t.Errorf("Expected ports from file, got %d and %d", cfg.Port, cfg.HTTPPort)
		}
		if cfg.SendQueue != 32 {
			t.Errorf("Expected the flag to win, got send queue %d", cfg.SendQueue)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := parseConfig(t, "--port", "8080")
		if !errors.Is(err, config.ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig for clashing ports, got %v", err)
		}
	})

	t.Run("ngrok needs token", func(t *testing.T) {
		t.Setenv("NGROK_AUTHTOKEN", "")
		t.Setenv("NGROK_AUTH_TOKEN", "")
		_, err := parseConfig(t, "--ngrok")
		if !errors.Is(err, config.ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestAddrHelpers(t *testing.T) {
	wildcard := &net.TCPAddr{IP: net.IPv4zero, Port: 9000}
	if got := loopbackAddr(wildcard); got != "127.0.0.1:9000" {
		t.Errorf("Expected 127.0.0.1:9000, got %s", got)
	}

	bound := &net.TCPAddr{IP: net.ParseIP("10.0.0.5"), Port: 9000}
	if got := loopbackAddr(bound); got != "10.0.0.5:9000" {
		t.Errorf("Expected 10.0.0.5:9000, got %s", got)
	}

	if got := advertisedAddr("game.example.com", bound); got != "game.example.com:9000" {
		t.Errorf("Expected game.example.com:9000, got %s", got)
	}
	if got := advertisedAddr("0.0.0.0", wildcard); strings.HasPrefix(got, "0.0.0.0") {
		t.Errorf("Expected the wildcard host replaced, got %s", got)
	}
}

func startTestInstance(t *testing.T) (*instance, context.CancelFunc) {
	t.Helper()

	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.HTTPPort = 0

	ctx, cancel := context.WithCancel(context.Background())
	inst, err := start(ctx, cfg, zap.NewNop().Sugar(), withLoopbackAPI())
	if err != nil {
		cancel()
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		inst.shutdown(5 * time.Second)
	})
	return inst, cancel
}

func TestStartServesGameAndAPI(t *testing.T) {
	inst, _ := startTestInstance(t)

	if !strings.HasPrefix(inst.Endpoint(), "tcp://127.0.0.1:") {
		t.Errorf("Expected a loopback tcp endpoint, got %s", inst.Endpoint())
	}

	conn, err := net.DialTimeout("tcp", inst.gameAddr, 2*time.Second)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	data, _ := protocol.EncodeCommand(protocol.CheckUsername{UserName: "alice"})
	if err := protocol.WriteFrame(conn, data); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	frame, err := protocol.ReadFrame(conn, protocol.DefaultMaxFrame)
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	msg, err := protocol.DecodeOutbound(frame)
	if err != nil {
		t.Fatalf("DecodeOutbound failed: %v", err)
	}
	reply, ok := msg.(protocol.CheckUsernameReply)
	if !ok || reply.Status != protocol.StatusValid {
		t.Fatalf("Expected a Valid Check_Username reply, got %+v", msg)
	}

	// The claim is visible through the admin API once processed
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(inst.apiURL + "/api/users")
		if err != nil {
			t.Fatalf("GET /api/users failed: %v", err)
		}
		var users struct {
			Count int `json:"count"`
		}
		json.NewDecoder(resp.Body).Decode(&users)
		resp.Body.Close()
		if users.Count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected 1 user, got %d", users.Count)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestMCPEndpoint(t *testing.T) {
	inst, _ := startTestInstance(t)

	t.Run("rejects GET", func(t *testing.T) {
		resp, err := http.Get(inst.apiURL + "/mcp")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", resp.StatusCode)
		}
	})

	t.Run("lists tools", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`
		resp, err := http.Post(inst.apiURL+"/mcp", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST failed: %v", err)
		}
		defer resp.Body.Close()

		var rpc struct {
			Result struct {
				Tools []struct {
					Name string `json:"name"`
				} `json:"tools"`
			} `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		names := map[string]bool{}
		for _, tool := range rpc.Result.Tools {
			names[tool.Name] = true
		}
		for _, want := range []string{"server_stats", "list_rooms", "get_room", "get_game", "list_users"} {
			if !names[want] {
				t.Errorf("Expected tool %s, got %v", want, names)
			}
		}
	})
}

func TestShutdownClosesListeners(t *testing.T) {
	inst, cancel := startTestInstance(t)

	cancel()
	if err := inst.shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if conn, err := net.DialTimeout("tcp", inst.gameAddr, time.Second); err == nil {
		conn.Close()
		t.Error("Expected the game listener to be closed")
	}
}
