package bot

import (
	"context"
	"errors"
)

var (
	ErrSessionClosed = errors.New("bot session closed")
	ErrNoPath        = errors.New("no path to goal")
	ErrGoalChanged   = errors.New("goal changed")
	ErrFlightStopped = errors.New("flight stopped")
	ErrNotCreative   = errors.New("creative mode is not available")
	ErrOutOfReach    = errors.New("block out of reach")
)

// Session is an active connection of one bot to a game server.
//
// Blocking calls take a context; cancelling it abandons the call. For Goto and
// FlyTo the backend is also asked to stop moving, but may take its own time to
// do so.
type Session interface {
	Username() string
	Version() string

	// Position returns the bot entity position
	Position(ctx context.Context) (Vec3, error)

	// BlockAt returns the block at pos, or nil when the chunk is not loaded
	BlockAt(ctx context.Context, pos Vec3) (*Block, error)
	// BlockType resolves a block name in the server's registry, nil when unknown
	BlockType(ctx context.Context, name string) (*BlockType, error)
	// FindBlock returns the nearest block of the given type, nil when none is in range
	FindBlock(ctx context.Context, typeID int, maxDistance float64) (*Block, error)
	CanDig(ctx context.Context, block *Block) bool
	CanSee(ctx context.Context, block *Block) bool

	Items(ctx context.Context) ([]Item, error)
	Equip(ctx context.Context, item Item, destination string) error
	PlaceBlock(ctx context.Context, reference *Block, face Vec3) error
	Dig(ctx context.Context, block *Block) error

	// Goto walks toward goal and returns once it is reached
	Goto(ctx context.Context, goal Goal) error

	// Creative reports whether flight is available
	Creative() bool
	// FlyTo flies in a straight line and returns on arrival
	FlyTo(ctx context.Context, dest Vec3) error
	// StopFlying ends any flight in progress. Safe to call when not flying.
	StopFlying()

	// Quit disconnects the bot
	Quit(reason string) error
	// Done is closed once the session has ended for any reason
	Done() <-chan struct{}
}

// Dialer opens sessions
type Dialer interface {
	Dial(ctx context.Context, opts ConnectOptions) (Session, error)
}

// DialerFunc adapts a function to the Dialer interface
type DialerFunc func(ctx context.Context, opts ConnectOptions) (Session, error)

// Dial calls f
func (f DialerFunc) Dial(ctx context.Context, opts ConnectOptions) (Session, error) {
	return f(ctx, opts)
}
