// Command connect4-rooms runs the Connect-Four rooms server.
//
// It supports two modes:
//  1. "serve" (default) runs the game listener on TCP, plus the admin HTTP
//     server exposing the REST API, WebSocket game sessions and an /mcp endpoint
//  2. "mcp" runs an MCP stdio server against a running admin API, starting an
//     embedded server when none answers
//
// Flags control addresses, frame and queue limits, debug logging and optional
// ngrok tunneling of the game port. Every flag can also be set through a C4_*
// environment variable, a .env file or a JSON file passed with --config.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/connect4-rooms/config"
	"github.com/wricardo/connect4-rooms/transport/mcp"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "connect4-rooms"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	envErr := godotenv.Load()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}

	if envErr != nil && !os.IsNotExist(envErr) {
		fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", envErr)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "Connect-Four rooms, chat and matches over TCP and WebSocket",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "JSON configuration file",
				Sources: cli.EnvVars("C4_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "0.0.0.0",
				Usage:   "address to bind",
				Sources: cli.EnvVars("C4_HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   12345,
				Usage:   "game TCP port",
				Sources: cli.EnvVars("C4_PORT"),
			},
			&cli.IntFlag{
				Name:    "http-port",
				Value:   8080,
				Usage:   "admin HTTP port, 0 disables it",
				Sources: cli.EnvVars("C4_HTTP_PORT"),
			},
			&cli.IntFlag{
				Name:    "max-frame",
				Value:   1 << 20,
				Usage:   "largest accepted frame in bytes",
				Sources: cli.EnvVars("C4_MAX_FRAME"),
			},
			&cli.IntFlag{
				Name:    "send-queue",
				Value:   256,
				Usage:   "outbound messages buffered per connection",
				Sources: cli.EnvVars("C4_SEND_QUEUE"),
			},
			&cli.DurationFlag{
				Name:    "idle-timeout",
				Usage:   "drop TCP clients silent for this long, 0 disables it",
				Sources: cli.EnvVars("C4_IDLE_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("C4_DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "expose the game port through an ngrok TCP tunnel",
				Sources: cli.EnvVars("C4_NGROK", "NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the game server (default)",
				Action: runServe,
			},
			{
				Name:  "mcp",
				Usage: "run an MCP stdio server over the admin API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api",
						Usage:   "admin API base URL, probed on the local http port when empty",
						Sources: cli.EnvVars("C4_API_URL"),
					},
				},
				Action: runMCP,
			},
		},
	}
}

// buildConfig layers the config file, then explicitly set flags and
// environment variables, over the defaults.
func buildConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("http-port") {
		cfg.HTTPPort = cmd.Int("http-port")
	}
	if cmd.IsSet("max-frame") {
		cfg.MaxFrame = cmd.Int("max-frame")
	}
	if cmd.IsSet("send-queue") {
		cfg.SendQueue = cmd.Int("send-queue")
	}
	if cmd.IsSet("idle-timeout") {
		cfg.IdleTimeout = config.Duration(cmd.Duration("idle-timeout"))
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("ngrok") {
		cfg.Ngrok = cmd.Bool("ngrok")
	}
	cfg.NgrokAuth = cmd.String("ngrok-auth")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	// stdout carries the MCP stdio stream
	zcfg.OutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// runServe starts the server and blocks until SIGINT or SIGTERM.
func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("starting", "app", AppName, "version", Version)

	inst, err := start(ctx, cfg, log)
	if err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("shutting down")
	return inst.shutdown(10 * time.Second)
}

// runMCP serves MCP over stdio. With no --api it reuses a local admin API
// when one answers, otherwise it starts an embedded server on loopback.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	baseURL := cmd.String("api")
	if baseURL == "" && cfg.HTTPPort != 0 {
		local := fmt.Sprintf("http://127.0.0.1:%d", cfg.HTTPPort)
		if apiReachable(ctx, local) {
			log.Infow("using running admin API", "url", local)
			baseURL = local
		}
	}

	if baseURL == "" {
		embedded := *cfg
		embedded.Host = "127.0.0.1"
		embedded.Port = 0
		embedded.HTTPPort = 0
		embedded.Ngrok = false

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		inst, err := start(ctx, &embedded, log, withLoopbackAPI())
		if err != nil {
			return err
		}
		defer func() {
			cancel()
			inst.shutdown(10 * time.Second)
		}()
		baseURL = inst.apiURL
		log.Infow("started embedded server", "api", baseURL, "game", inst.gameAddr)
	}

	client := mcp.NewClient(baseURL, Version)
	log.Info("MCP stdio server ready")
	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func apiReachable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}
