// Package config holds the server's runtime settings.
//
// Settings come from three layers, lowest precedence first: Default(), an
// optional JSON file (LoadFile), and command-line flags or their environment
// variables. Validate checks the merged result before anything binds a port.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/wricardo/connect4-rooms/protocol"
	"github.com/wricardo/connect4-rooms/transport/hub"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Config is the complete server configuration
type Config struct {
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	HTTPPort    int      `json:"http_port"` // 0 disables the admin HTTP server
	MaxFrame    int      `json:"max_frame"`
	SendQueue   int      `json:"send_queue"`
	IdleTimeout Duration `json:"idle_timeout"` // 0 disables the idle timeout
	Debug       bool     `json:"debug"`

	Ngrok     bool   `json:"ngrok"`
	NgrokAuth string `json:"-"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Host:      "0.0.0.0",
		Port:      12345,
		HTTPPort:  8080,
		MaxFrame:  protocol.DefaultMaxFrame,
		SendQueue: hub.DefaultQueueSize,
	}
}

// LoadFile reads a JSON file over the defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("%w: http port %d out of range", ErrInvalidConfig, c.HTTPPort)
	}
	if c.HTTPPort == c.Port {
		return fmt.Errorf("%w: game and http ports are both %d", ErrInvalidConfig, c.Port)
	}
	if c.MaxFrame <= 0 {
		return fmt.Errorf("%w: max frame must be positive", ErrInvalidConfig)
	}
	if c.SendQueue <= 0 {
		return fmt.Errorf("%w: send queue must be positive", ErrInvalidConfig)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("%w: idle timeout must not be negative", ErrInvalidConfig)
	}
	if c.Ngrok && c.NgrokAuth == "" {
		return fmt.Errorf("%w: ngrok enabled without an auth token", ErrInvalidConfig)
	}
	return nil
}

// GameAddr is the TCP address game clients connect to
func (c *Config) GameAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// HTTPAddr is the admin HTTP address, or "" when disabled
func (c *Config) HTTPAddr() string {
	if c.HTTPPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.HTTPPort))
}

// Duration is a time.Duration read from JSON as "30s" or as nanoseconds
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration must be a string or integer: %w", err)
	}
	*d = Duration(n)
	return nil
}
