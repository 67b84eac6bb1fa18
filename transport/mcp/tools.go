package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
	"github.com/wricardo/mcp-training/minecraftremote/game/service"
)

// Tool names
const (
	ToolConnect        = "connectToServer"
	ToolDisconnect     = "disconnectFromServer"
	ToolGetPosition    = "getPosition"
	ToolMoveTo         = "moveTo"
	ToolFlyTo          = "flyTo"
	ToolDigBlock       = "digBlock"
	ToolPlaceBlock     = "placeBlock"
	ToolGetBlockInfo   = "getBlockInfo"
	ToolFindBlock      = "findBlock"
	ToolCheckInventory = "checkInventory"
	ToolFindItem       = "findItem"
)

// readOnlyTool creates a tool that only observes the world
func readOnlyTool(name string, opts ...mcp.ToolOption) mcp.Tool {
	opts = append(opts, mcp.WithToolAnnotation(mcp.ToolAnnotation{
		ReadOnlyHint:    mcp.ToBoolPtr(true),
		DestructiveHint: mcp.ToBoolPtr(false),
		OpenWorldHint:   mcp.ToBoolPtr(true),
	}))
	return mcp.NewTool(name, opts...)
}

// actionTool creates a tool that changes the bot or the world
func actionTool(name string, destructive bool, opts ...mcp.ToolOption) mcp.Tool {
	opts = append(opts, mcp.WithToolAnnotation(mcp.ToolAnnotation{
		ReadOnlyHint:    mcp.ToBoolPtr(false),
		DestructiveHint: mcp.ToBoolPtr(destructive),
		OpenWorldHint:   mcp.ToBoolPtr(true),
	}))
	return mcp.NewTool(name, opts...)
}

// coordinates adds the required x, y and z arguments
func coordinates(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(opts,
		mcp.WithNumber("x", mcp.Required(), mcp.Description("X coordinate")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Y coordinate")),
		mcp.WithNumber("z", mcp.Required(), mcp.Description("Z coordinate")),
	)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	tools := []struct {
		tool mcp.Tool
		fn   toolFunc
	}{
		// Connection
		{actionTool(ToolConnect, false,
			mcp.WithDescription("Connect the bot to a Minecraft server. Any existing connection is closed first."),
			mcp.WithString("host", mcp.Required(), mcp.MinLength(1), mcp.Description("Server hostname or IP address")),
			mcp.WithNumber("port", mcp.Min(1), mcp.Max(65535), mcp.DefaultNumber(25565), mcp.Description("Server port (default: 25565)")),
			mcp.WithString("username", mcp.Required(), mcp.MinLength(1), mcp.Description("Bot username")),
			mcp.WithString("version", mcp.Description("Minecraft version (default: server configured version)")),
		), s.handleConnect},
		{actionTool(ToolDisconnect, false,
			mcp.WithDescription("Disconnect the bot from the Minecraft server"),
		), s.handleDisconnect},

		// Movement
		{readOnlyTool(ToolGetPosition,
			mcp.WithDescription("Get the current position of the player in the Minecraft world"),
		), s.handleGetPosition},
		{actionTool(ToolMoveTo, false, coordinates(
			mcp.WithDescription("Move the player to a specific location"),
		)...), s.handleMoveTo},
		{actionTool(ToolFlyTo, false, coordinates(
			mcp.WithDescription("Make the bot fly to a specific position"),
		)...), s.handleFlyTo},

		// Blocks
		{actionTool(ToolDigBlock, true, coordinates(
			mcp.WithDescription("Dig a block at the specified coordinates"),
		)...), s.handleDigBlock},
		{actionTool(ToolPlaceBlock, false, coordinates(
			mcp.WithDescription("Place a block at the specified location"),
			mcp.WithString("itemName", mcp.Required(), mcp.MinLength(1), mcp.Description("Name of the item to place")),
		)...), s.handlePlaceBlock},
		{readOnlyTool(ToolGetBlockInfo, coordinates(
			mcp.WithDescription("Get information about a block at the specified position"),
		)...), s.handleGetBlockInfo},
		{readOnlyTool(ToolFindBlock,
			mcp.WithDescription("Find the nearest block of a specific type by its block name (e.g. stone, oak_log)"),
			mcp.WithString("blockType", mcp.Required(), mcp.MinLength(1), mcp.Description("Block name, e.g. diamond_ore")),
			mcp.WithNumber("maxDistance", mcp.Min(1), mcp.DefaultNumber(16), mcp.Description("Maximum search distance (default: 16)")),
		), s.handleFindBlock},

		// Inventory
		{readOnlyTool(ToolCheckInventory,
			mcp.WithDescription("Check the items in the player inventory"),
		), s.handleCheckInventory},
		{readOnlyTool(ToolFindItem,
			mcp.WithDescription("Find a specific item in the bot's inventory"),
			mcp.WithString("nameOrType", mcp.Required(), mcp.MinLength(1), mcp.Description("Name or type of item to find")),
		), s.handleFindItem},
	}

	for _, t := range tools {
		if err := s.addTool(t.tool, t.fn); err != nil {
			return err
		}
	}
	return nil
}

// position reads x, y and z. The schema has already required them.
func position(req mcp.CallToolRequest) bot.Vec3 {
	return bot.Vec3{
		X: req.GetFloat("x", 0),
		Y: req.GetFloat("y", 0),
		Z: req.GetFloat("z", 0),
	}
}

// Tool handlers

func (s *Server) handleConnect(ctx context.Context, req mcp.CallToolRequest) service.ToolResponse {
	return s.service.Connect(ctx, service.ConnectParams{
		Host:     req.GetString("host", ""),
		Port:     int(req.GetFloat("port", 0)),
		Username: req.GetString("username", ""),
		Version:  req.GetString("version", ""),
	})
}

func (s *Server) handleDisconnect(ctx context.Context, req mcp.CallToolRequest) service.ToolResponse {
	return s.service.Disconnect(ctx)
}

func (s *Server) handleGetPosition(ctx context.Context, req mcp.CallToolRequest) service.ToolResponse {
	return s.service.Position(ctx)
}

func (s *Server) handleMoveTo(ctx context.Context, req mcp.CallToolRequest) service.ToolResponse {
	return s.service.MoveTo(ctx, position(req))
}

func (s *Server) handleFlyTo(ctx context.Context, req mcp.CallToolRequest) service.ToolResponse {
	return s.service.FlyTo(ctx, position(req))
}

func (s *Server) handleDigBlock(ctx context.Context, req mcp.CallToolRequest) service.ToolResponse {
	return s.service.DigBlock(ctx, position(req))
}

func (s *Server) handlePlaceBlock(ctx context.Context, req mcp.CallToolRequest) service.ToolResponse {
	return s.service.PlaceBlock(ctx, position(req), req.GetString("itemName", ""))
}

func (s *Server) handleGetBlockInfo(ctx context.Context, req mcp.CallToolRequest) service.ToolResponse {
	return s.service.BlockInfo(ctx, position(req))
}

func (s *Server) handleFindBlock(ctx context.Context, req mcp.CallToolRequest) service.ToolResponse {
	return s.service.FindBlock(ctx, req.GetString("blockType", ""), req.GetFloat("maxDistance", 0))
}

func (s *Server) handleCheckInventory(ctx context.Context, req mcp.CallToolRequest) service.ToolResponse {
	return s.service.CheckInventory(ctx)
}

func (s *Server) handleFindItem(ctx context.Context, req mcp.CallToolRequest) service.ToolResponse {
	return s.service.FindItem(ctx, req.GetString("nameOrType", ""))
}
