package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/wricardo/mcp-training/minecraftremote/game/service"
)

// Backends
const (
	BackendSim    = "sim"
	BackendBridge = "bridge"
)

// Config holds all application configuration
type Config struct {
	// MCP / HTTP server settings
	Host      string `env:"MCP_HOST" envDefault:"localhost"`
	Port      int    `env:"MCP_PORT" envDefault:"3000"`
	PublicURL string `env:"MCP_PUBLIC_URL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Bot backend and tool timings
	Bot BotConfig

	// Tunnel
	Ngrok NgrokConfig

	// Server timeouts
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"0s"` // 0 keeps SSE streams open
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// BotConfig selects the bot backend and tunes the tools
type BotConfig struct {
	Backend           string        `env:"BOT_BACKEND" envDefault:"sim"`
	BridgeURL         string        `env:"BOT_BRIDGE_URL"`
	ScenarioDir       string        `env:"SCENARIO_DIR" envDefault:"scenarios"`
	Scenario          string        `env:"SCENARIO"`
	DefaultVersion    string        `env:"BOT_DEFAULT_VERSION" envDefault:"1.20.4"`
	ConnectTimeout    time.Duration `env:"BOT_CONNECT_TIMEOUT" envDefault:"30s"`
	MoveTimeout       time.Duration `env:"BOT_MOVE_TIMEOUT" envDefault:"60s"`
	FlightTimeout     time.Duration `env:"BOT_FLIGHT_TIMEOUT" envDefault:"20s"`
	FindBlockDistance float64       `env:"BOT_FIND_BLOCK_DISTANCE" envDefault:"16"`
}

// NgrokConfig holds the optional public tunnel settings
type NgrokConfig struct {
	Enabled   bool   `env:"NGROK_ENABLED" envDefault:"false"`
	AuthToken string `env:"NGROK_AUTHTOKEN"`
	Domain    string `env:"NGROK_DOMAIN"`
}

// Load reads .env when present, then parses the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return parse(env.Options{})
}

// FromMap parses configuration from environ instead of the process
// environment
func FromMap(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and combinations
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("MCP_PORT must be between 1 and 65535, got %d", c.Port))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	switch c.Bot.Backend {
	case BackendSim:
	case BackendBridge:
		if c.Bot.BridgeURL == "" {
			errs = append(errs, errors.New("BOT_BRIDGE_URL is required for the bridge backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("BOT_BACKEND must be %s or %s, got %q", BackendSim, BackendBridge, c.Bot.Backend))
	}
	if c.Bot.ConnectTimeout <= 0 || c.Bot.MoveTimeout <= 0 || c.Bot.FlightTimeout <= 0 {
		errs = append(errs, errors.New("bot timeouts must be positive"))
	}
	if c.Bot.FindBlockDistance <= 0 {
		errs = append(errs, fmt.Errorf("BOT_FIND_BLOCK_DISTANCE must be positive, got %v", c.Bot.FindBlockDistance))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr is the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// BaseURL is the origin advertised to SSE clients
func (c *Config) BaseURL() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	return "http://" + c.Addr()
}

// ServiceOptions converts the bot settings for the service layer
func (c *Config) ServiceOptions() service.Options {
	opts := service.DefaultOptions()
	opts.Backend = c.Bot.Backend
	opts.DefaultVersion = c.Bot.DefaultVersion
	opts.ConnectTimeout = c.Bot.ConnectTimeout
	opts.MoveTimeout = c.Bot.MoveTimeout
	opts.FlightTimeout = c.Bot.FlightTimeout
	opts.FindBlockDistance = c.Bot.FindBlockDistance
	return opts
}
