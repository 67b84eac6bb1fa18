package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/minecraftremote/game/service"
)

const (
	ServerName    = "minecraft-remote"
	ServerVersion = "1.0.0"

	// maxMessageBytes caps a single JSON-RPC POST to /mcp
	maxMessageBytes = 1 << 20
)

const instructions = `Minecraft Remote - MCP Interface

Control a bot in a Minecraft world. Call connectToServer first; every other
tool reports "Not connected" until a session is open.

AVAILABLE TOOLS:
- connectToServer / disconnectFromServer: manage the bot session
- getPosition: current coordinates
- moveTo: walk with pathfinding (keeps going in the background if slow)
- flyTo: fly in creative mode (stops after a timeout)
- digBlock, placeBlock, getBlockInfo, findBlock: work with blocks
- checkInventory, findItem: inspect the inventory

Coordinates are world coordinates; Y is up.`

// toolFunc is a tool body. It returns exactly one response.
type toolFunc func(ctx context.Context, req mcp.CallToolRequest) service.ToolResponse

// Server exposes the bot service as MCP tools
type Server struct {
	service   service.BotService
	mcpServer *server.MCPServer
	logger    *zap.Logger
	schemas   map[string]*gojsonschema.Schema
}

// NewServer creates the MCP server and registers every tool
func NewServer(svc service.BotService, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)

	s := &Server{
		service:   svc,
		mcpServer: mcpServer,
		logger:    logger.Named("mcp"),
		schemas:   make(map[string]*gojsonschema.Schema),
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	return s, nil
}

// MCPServer returns the underlying MCP server for serving
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves MCP over in and out until in closes or ctx is done
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger.Named("stdio")))

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// NewSSEServer builds the SSE transport. baseURL is the externally visible
// origin used in the endpoint event sent to clients.
func (s *Server) NewSSEServer(baseURL string) *server.SSEServer {
	opts := []server.SSEOption{
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/messages"),
	}
	if baseURL != "" {
		opts = append(opts, server.WithBaseURL(baseURL))
	}
	return server.NewSSEServer(s.mcpServer, opts...)
}

// HandleMessage serves a single JSON-RPC request per POST
func (s *Server) HandleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	response := s.mcpServer.HandleMessage(r.Context(), body)
	if response == nil {
		// notification
		w.WriteHeader(http.StatusAccepted)
		return
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(responseData)
}

// addTool compiles the tool's input schema and registers fn behind argument
// validation, logging and panic recovery
func (s *Server) addTool(tool mcp.Tool, fn toolFunc) error {
	schema, err := compileSchema(tool)
	if err != nil {
		return fmt.Errorf("tool %s: %w", tool.Name, err)
	}
	s.schemas[tool.Name] = schema
	s.mcpServer.AddTool(tool, s.wrap(tool.Name, schema, fn))
	return nil
}

func (s *Server) wrap(name string, schema *gojsonschema.Schema, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		start := time.Now()
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("tool panicked",
					zap.String("tool", name),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				result = mcp.NewToolResultError(fmt.Sprintf("Error: %s failed unexpectedly: %v", name, r))
				err = nil
			}
		}()

		s.logger.Info("tool call", zap.String("tool", name), zap.Any("args", args))

		if msg := validateArgs(schema, args); msg != "" {
			s.logger.Warn("invalid tool arguments", zap.String("tool", name), zap.String("reason", msg))
			return mcp.NewToolResultError(fmt.Sprintf("Error: invalid arguments for %s: %s", name, msg)), nil
		}

		resp := fn(ctx, req)
		s.logger.Debug("tool done",
			zap.String("tool", name),
			zap.Bool("error", resp.IsError()),
			zap.Duration("took", time.Since(start)))
		return toResult(resp), nil
	}
}

func toResult(resp service.ToolResponse) *mcp.CallToolResult {
	if resp.IsError() {
		return mcp.NewToolResultError(resp.Message)
	}
	return mcp.NewToolResultText(resp.Message)
}

// compileSchema turns a tool's input schema into a JSON Schema validator
func compileSchema(tool mcp.Tool) (*gojsonschema.Schema, error) {
	doc := map[string]any{"type": "object"}
	if len(tool.InputSchema.Properties) > 0 {
		doc["properties"] = tool.InputSchema.Properties
	}
	if len(tool.InputSchema.Required) > 0 {
		doc["required"] = tool.InputSchema.Required
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("invalid input schema: %w", err)
	}
	return schema, nil
}

// validateArgs returns a readable description of every violation, or "" when
// args conform
func validateArgs(schema *gojsonschema.Schema, args map[string]any) string {
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return err.Error()
	}
	if result.Valid() {
		return ""
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		if e.Field() == "(root)" {
			msgs = append(msgs, e.Description())
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return strings.Join(msgs, "; ")
}
