// Command minecraftremote starts the Minecraft remote-control MCP server.
//
// It supports two modes:
//  1. "serve" (default) runs the HTTP server exposing MCP over SSE and /mcp, the REST API and the observer WebSocket
//  2. "stdio" serves MCP over stdin/stdout for clients that launch the server as a subprocess
//
// Configuration comes from the environment (and .env when present). Flags
// override individual settings, and ngrok tunneling can expose the HTTP server
// publicly during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/minecraftremote/api"
	"github.com/wricardo/mcp-training/minecraftremote/config"
	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
	"github.com/wricardo/mcp-training/minecraftremote/game/bridge"
	scenarios "github.com/wricardo/mcp-training/minecraftremote/game/config"
	"github.com/wricardo/mcp-training/minecraftremote/game/service"
	"github.com/wricardo/mcp-training/minecraftremote/game/session"
	"github.com/wricardo/mcp-training/minecraftremote/game/sim"
	"github.com/wricardo/mcp-training/minecraftremote/logging"
	"github.com/wricardo/mcp-training/minecraftremote/transport/mcp"
	"github.com/wricardo/mcp-training/minecraftremote/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Minecraft Remote MCP Server"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// newApp builds the command tree. Flags on the root command are inherited by
// the subcommands.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "minecraftremote",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP server host (MCP_HOST)"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port (MCP_PORT)"},
			&cli.StringFlag{Name: "public-url", Usage: "origin advertised to SSE clients (MCP_PUBLIC_URL)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (LOG_LEVEL)"},
			&cli.StringFlag{Name: "log-format", Usage: "json or console (LOG_FORMAT)"},
			&cli.StringFlag{Name: "backend", Usage: "bot backend: sim or bridge (BOT_BACKEND)"},
			&cli.StringFlag{Name: "bridge-url", Usage: "WebSocket URL of the bot agent (BOT_BRIDGE_URL)"},
			&cli.StringFlag{Name: "scenario-dir", Usage: "directory of simulated world scenarios (SCENARIO_DIR)"},
			&cli.StringFlag{Name: "scenario", Usage: "scenario the simulated bot spawns into (SCENARIO)"},
			&cli.BoolFlag{Name: "ngrok", Usage: "expose the HTTP server through an ngrok tunnel (NGROK_ENABLED)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain (NGROK_DOMAIN)"},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run the HTTP server with MCP (SSE and /mcp), REST API and observer WebSocket",
				Action:  runServe,
			},
			{
				Name:    "stdio",
				Aliases: []string{"stdio-mcp", "mcp"},
				Usage:   "Serve MCP over stdin/stdout",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "http", Usage: "also run the HTTP server for observers and the REST API"},
				},
				Action: runStdio,
			},
		},
	}
}

// loadConfig reads the environment and applies the flags that were set
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("public-url") {
		cfg.PublicURL = cmd.String("public-url")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.LogFormat = cmd.String("log-format")
	}
	if cmd.IsSet("backend") {
		cfg.Bot.Backend = cmd.String("backend")
	}
	if cmd.IsSet("bridge-url") {
		cfg.Bot.BridgeURL = cmd.String("bridge-url")
	}
	if cmd.IsSet("scenario-dir") {
		cfg.Bot.ScenarioDir = cmd.String("scenario-dir")
	}
	if cmd.IsSet("scenario") {
		cfg.Bot.Scenario = cmd.String("scenario")
	}
	if cmd.IsSet("ngrok") {
		cfg.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Ngrok.Domain = cmd.String("ngrok-domain")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(cmd *cli.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// app holds the wired services
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	state   *session.State
	hub     *websocket.Hub
	service service.BotService
	tools   *mcp.Server
	api     *api.Server
}

// initializeServices wires the bot backend, session state, observer hub, MCP
// tools and HTTP API.
func initializeServices(cfg *config.Config, logger *zap.Logger) (*app, error) {
	dialer, lister, err := newDialer(cfg, logger)
	if err != nil {
		return nil, err
	}

	state := session.NewState()
	hub := websocket.NewHub(logger)
	botService := service.NewBotService(state, dialer, hub, logger, cfg.ServiceOptions())

	tools, err := mcp.NewServer(botService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}

	apiServer := api.NewServer(botService, hub, tools, api.Options{
		PublicURL: cfg.BaseURL(),
		Scenarios: lister,
		Version:   Version,
		Logger:    logger,
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		state:   state,
		hub:     hub,
		service: botService,
		tools:   tools,
		api:     apiServer,
	}, nil
}

// newDialer picks the bot backend. The scenario lister is only returned for
// the simulated backend.
func newDialer(cfg *config.Config, logger *zap.Logger) (bot.Dialer, api.ScenarioLister, error) {
	if cfg.Bot.Backend == config.BackendBridge {
		logger.Info("using bot agent bridge", zap.String("url", cfg.Bot.BridgeURL))
		return bridge.NewDialer(cfg.Bot.BridgeURL, logger), nil, nil
	}

	manager, err := scenarios.NewManager(cfg.Bot.ScenarioDir)
	if err != nil {
		if cfg.Bot.Scenario != "" {
			return nil, nil, fmt.Errorf("failed to create scenario manager: %w", err)
		}
		logger.Warn("scenario directory unavailable, using built-in world", zap.Error(err))
		return sim.NewDialer(nil, "", logger), nil, nil
	}

	if cfg.Bot.Scenario != "" {
		if err := manager.SetDefault(cfg.Bot.Scenario); err != nil {
			return nil, nil, fmt.Errorf("failed to load scenario %q: %w", cfg.Bot.Scenario, err)
		}
	}

	logger.Info("using simulated world",
		zap.String("scenario_dir", cfg.Bot.ScenarioDir),
		zap.String("scenario", manager.GetDefault().Name))
	return sim.NewDialer(manager, cfg.Bot.Scenario, logger), manager, nil
}

// runServe starts the HTTP server and, when enabled, the ngrok tunnel
func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "serve"))

	var tun ngrok.Tunnel
	if cfg.Ngrok.Enabled {
		tun, err = listenNgrok(ctx, cfg.Ngrok, logger)
		if err != nil {
			return err
		}
		if tun != nil && cfg.PublicURL == "" {
			cfg.PublicURL = tun.URL()
		}
	}

	a, err := initializeServices(cfg, logger)
	if err != nil {
		if tun != nil {
			tun.Close()
		}
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	return a.serveHTTP(ctx, tun)
}

// runStdio serves MCP on stdin/stdout. Logs go to stderr so they never mix
// with protocol messages.
func runStdio(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "stdio"))

	a, err := initializeServices(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cmd.Bool("http") {
		g.Go(func() error { return a.serveHTTP(gctx, nil) })
	} else {
		g.Go(func() error {
			a.hub.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		// stdin closing ends the whole process
		defer stop()
		logger.Info("MCP stdio server ready")
		if err := a.tools.ServeStdio(gctx, os.Stdin, os.Stdout); err != nil {
			return fmt.Errorf("MCP stdio server error: %w", err)
		}
		a.disconnect()
		return nil
	})

	return g.Wait()
}

// serveHTTP runs the observer hub and the HTTP server until ctx is done, then
// shuts down gracefully. A non-nil tunnel is served by the same server.
func (a *app) serveHTTP(ctx context.Context, tun ngrok.Tunnel) error {
	httpServer := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      a.api,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		base := "http://" + a.cfg.Addr()
		a.logger.Info("HTTP server listening",
			zap.String("addr", a.cfg.Addr()),
			zap.String("sse", base+"/sse"),
			zap.String("mcp", base+"/mcp"),
			zap.String("api", base+"/api"),
			zap.String("observers", "ws://"+a.cfg.Addr()+"/ws"))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if tun != nil {
		g.Go(func() error {
			url := tun.URL()
			a.logger.Info("ngrok tunnel established",
				zap.String("url", url),
				zap.String("sse", url+"/sse"),
				zap.String("mcp", url+"/mcp"),
				zap.String("observers", url+"/ws"))

			if err := httpServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Warn("ngrok server error", zap.Error(err))
			}
			a.logger.Info("ngrok tunnel closed")
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		a.disconnect()
		if err := a.api.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("SSE shutdown error", zap.Error(err))
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		a.logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}

// disconnect quits the bot if one is connected
func (a *app) disconnect() {
	if !a.state.Connected() {
		return
	}
	resp := a.service.Disconnect(context.Background())
	a.logger.Info("bot disconnected on shutdown", zap.String("result", resp.Message))
}

// listenNgrok opens the public tunnel. A missing auth token disables the
// tunnel with a warning and returns a nil tunnel.
func listenNgrok(ctx context.Context, cfg config.NgrokConfig, logger *zap.Logger) (ngrok.Tunnel, error) {
	if cfg.AuthToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (set NGROK_AUTHTOKEN)")
		return nil, nil
	}

	var opts []ngrokConfig.HTTPEndpointOption
	if cfg.Domain != "" {
		opts = append(opts, ngrokConfig.WithDomain(cfg.Domain))
		logger.Info("using custom ngrok domain", zap.String("domain", cfg.Domain))
	}

	logger.Info("starting ngrok tunnel")
	tun, err := ngrok.Listen(ctx,
		ngrokConfig.HTTPEndpoint(opts...),
		ngrok.WithAuthtoken(cfg.AuthToken),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start ngrok tunnel: %w", err)
	}
	return tun, nil
}
