package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
)

// BotService defines every tool operation on the remote bot.
// Each method returns exactly one ToolResponse and never panics.
type BotService interface {
	// Connection
	Connect(ctx context.Context, params ConnectParams) ToolResponse
	Disconnect(ctx context.Context) ToolResponse

	// Movement
	Position(ctx context.Context) ToolResponse
	MoveTo(ctx context.Context, dest bot.Vec3) ToolResponse
	FlyTo(ctx context.Context, dest bot.Vec3) ToolResponse

	// Blocks
	DigBlock(ctx context.Context, pos bot.Vec3) ToolResponse
	PlaceBlock(ctx context.Context, pos bot.Vec3, itemName string) ToolResponse
	BlockInfo(ctx context.Context, pos bot.Vec3) ToolResponse
	FindBlock(ctx context.Context, blockType string, maxDistance float64) ToolResponse

	// Inventory
	CheckInventory(ctx context.Context) ToolResponse
	FindItem(ctx context.Context, nameOrType string) ToolResponse

	// Status reports the connection state for the REST API
	Status(ctx context.Context) (*StatusInfo, error)
}

// Options tune BotService timing and defaults
type Options struct {
	// Backend names the dialer in status output
	Backend           string
	DefaultPort       int
	DefaultVersion    string
	ConnectTimeout    time.Duration
	MoveTimeout       time.Duration
	FlightTimeout     time.Duration
	FindBlockDistance float64
	// SnapshotTimeout bounds the position read taken when a flight is aborted
	SnapshotTimeout time.Duration
}

// DefaultOptions returns the stock timings
func DefaultOptions() Options {
	return Options{
		Backend:           "sim",
		DefaultPort:       25565,
		DefaultVersion:    "1.20.4",
		ConnectTimeout:    30 * time.Second,
		MoveTimeout:       60 * time.Second,
		FlightTimeout:     20 * time.Second,
		FindBlockDistance: 16,
		SnapshotTimeout:   2 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Backend == "" {
		o.Backend = d.Backend
	}
	if o.DefaultPort <= 0 {
		o.DefaultPort = d.DefaultPort
	}
	if o.DefaultVersion == "" {
		o.DefaultVersion = d.DefaultVersion
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = d.ConnectTimeout
	}
	if o.MoveTimeout <= 0 {
		o.MoveTimeout = d.MoveTimeout
	}
	if o.FlightTimeout <= 0 {
		o.FlightTimeout = d.FlightTimeout
	}
	if o.FindBlockDistance <= 0 {
		o.FindBlockDistance = d.FindBlockDistance
	}
	if o.SnapshotTimeout <= 0 {
		o.SnapshotTimeout = d.SnapshotTimeout
	}
	return o
}
