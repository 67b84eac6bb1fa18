// Package bottest provides a scriptable bot.Session for tests.
package bottest

import (
	"context"
	"sync"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
)

// Placement records one PlaceBlock call
type Placement struct {
	Reference bot.Vec3
	Face      bot.Vec3
}

// Session is an in-memory bot.Session whose behaviour is set through fields.
// Unset hooks succeed immediately. Set fields before handing the session out.
type Session struct {
	Name      string
	Ver       string
	Pos       bot.Vec3
	Blocks    map[bot.Vec3]*bot.Block
	Types     map[string]*bot.BlockType
	Inventory []bot.Item
	Flying    bool // creative mode

	GotoFunc   func(ctx context.Context, goal bot.Goal) error
	FlyFunc    func(ctx context.Context, dest bot.Vec3) error
	DigFunc    func(ctx context.Context, block *bot.Block) error
	PlaceFunc  func(ctx context.Context, reference *bot.Block, face bot.Vec3) error
	FindFunc   func(ctx context.Context, typeID int, maxDistance float64) (*bot.Block, error)
	EquipFunc  func(ctx context.Context, item bot.Item, destination string) error
	CanDigFunc func(block *bot.Block) bool
	CanSeeFunc func(block *bot.Block) bool
	// PositionFunc overrides Pos when set
	PositionFunc func(ctx context.Context) (bot.Vec3, error)
	// PanicOn makes the named method panic
	PanicOn string

	mu          sync.Mutex
	gotoGoals   []bot.Goal
	flights     []bot.Vec3
	digs        []bot.Vec3
	placements  []Placement
	equipped    []bot.Item
	stopFlyings int
	quits       []string

	doneOnce sync.Once
	done     chan struct{}
}

var _ bot.Session = (*Session)(nil)

// New returns a fake session named username
func New(username string) *Session {
	return &Session{
		Name:   username,
		Ver:    "1.20.4",
		Blocks: make(map[bot.Vec3]*bot.Block),
		Types:  make(map[string]*bot.BlockType),
	}
}

func (s *Session) maybePanic(method string) {
	if s.PanicOn == method {
		panic("bottest: " + method + " exploded")
	}
}

func (s *Session) doneCh() chan struct{} {
	s.doneOnce.Do(func() {
		s.mu.Lock()
		if s.done == nil {
			s.done = make(chan struct{})
		}
		s.mu.Unlock()
	})
	return s.done
}

func (s *Session) Username() string { return s.Name }
func (s *Session) Version() string  { return s.Ver }

func (s *Session) Position(ctx context.Context) (bot.Vec3, error) {
	s.maybePanic("Position")
	if s.PositionFunc != nil {
		return s.PositionFunc(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Pos, nil
}

// SetPosition moves the bot, safe for concurrent use with Position
func (s *Session) SetPosition(p bot.Vec3) {
	s.mu.Lock()
	s.Pos = p
	s.mu.Unlock()
}

// SetBlock stores a block at pos with the given name and type id
func (s *Session) SetBlock(pos bot.Vec3, name string, typeID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Blocks[pos] = &bot.Block{Name: name, Type: typeID, Position: pos}
}

func (s *Session) BlockAt(ctx context.Context, pos bot.Vec3) (*bot.Block, error) {
	s.maybePanic("BlockAt")
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.Blocks[pos.Floored()]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *Session) BlockType(ctx context.Context, name string) (*bot.BlockType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Types[name], nil
}

func (s *Session) FindBlock(ctx context.Context, typeID int, maxDistance float64) (*bot.Block, error) {
	if s.FindFunc != nil {
		return s.FindFunc(ctx, typeID, maxDistance)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *bot.Block
	bestDist := maxDistance
	for _, b := range s.Blocks {
		if b.Type != typeID {
			continue
		}
		if d := s.Pos.DistanceTo(b.Position); d <= bestDist {
			cp := *b
			best, bestDist = &cp, d
		}
	}
	return best, nil
}

func (s *Session) CanDig(ctx context.Context, block *bot.Block) bool {
	if s.CanDigFunc != nil {
		return s.CanDigFunc(block)
	}
	return true
}

func (s *Session) CanSee(ctx context.Context, block *bot.Block) bool {
	if s.CanSeeFunc != nil {
		return s.CanSeeFunc(block)
	}
	return true
}

func (s *Session) Items(ctx context.Context) ([]bot.Item, error) {
	s.maybePanic("Items")
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bot.Item(nil), s.Inventory...), nil
}

func (s *Session) Equip(ctx context.Context, item bot.Item, destination string) error {
	s.mu.Lock()
	s.equipped = append(s.equipped, item)
	s.mu.Unlock()
	if s.EquipFunc != nil {
		return s.EquipFunc(ctx, item, destination)
	}
	return nil
}

func (s *Session) PlaceBlock(ctx context.Context, reference *bot.Block, face bot.Vec3) error {
	s.mu.Lock()
	s.placements = append(s.placements, Placement{Reference: reference.Position, Face: face})
	s.mu.Unlock()
	if s.PlaceFunc != nil {
		return s.PlaceFunc(ctx, reference, face)
	}
	return nil
}

func (s *Session) Dig(ctx context.Context, block *bot.Block) error {
	s.mu.Lock()
	s.digs = append(s.digs, block.Position)
	s.mu.Unlock()
	if s.DigFunc != nil {
		return s.DigFunc(ctx, block)
	}
	return nil
}

func (s *Session) Goto(ctx context.Context, goal bot.Goal) error {
	s.maybePanic("Goto")
	s.mu.Lock()
	s.gotoGoals = append(s.gotoGoals, goal)
	s.mu.Unlock()
	if s.GotoFunc != nil {
		return s.GotoFunc(ctx, goal)
	}
	s.SetPosition(goal.Target)
	return nil
}

func (s *Session) Creative() bool { return s.Flying }

func (s *Session) FlyTo(ctx context.Context, dest bot.Vec3) error {
	s.mu.Lock()
	s.flights = append(s.flights, dest)
	s.mu.Unlock()
	if s.FlyFunc != nil {
		return s.FlyFunc(ctx, dest)
	}
	s.SetPosition(dest)
	return nil
}

func (s *Session) StopFlying() {
	s.mu.Lock()
	s.stopFlyings++
	s.mu.Unlock()
}

func (s *Session) Quit(reason string) error {
	s.mu.Lock()
	s.quits = append(s.quits, reason)
	s.mu.Unlock()
	s.End()
	return nil
}

// End closes Done as if the server dropped the connection
func (s *Session) End() {
	ch := s.doneCh()
	select {
	case <-ch:
	default:
		close(ch)
	}
}

func (s *Session) Done() <-chan struct{} { return s.doneCh() }

// GotoGoals returns the goals passed to Goto
func (s *Session) GotoGoals() []bot.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bot.Goal(nil), s.gotoGoals...)
}

// Flights returns the destinations passed to FlyTo
func (s *Session) Flights() []bot.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bot.Vec3(nil), s.flights...)
}

// Digs returns the positions passed to Dig
func (s *Session) Digs() []bot.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bot.Vec3(nil), s.digs...)
}

// Placements returns every PlaceBlock attempt in order
func (s *Session) Placements() []Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Placement(nil), s.placements...)
}

// Equipped returns the items passed to Equip
func (s *Session) Equipped() []bot.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bot.Item(nil), s.equipped...)
}

// StopFlyingCalls counts StopFlying invocations
func (s *Session) StopFlyingCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopFlyings
}

// Quits returns the reasons passed to Quit
func (s *Session) Quits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.quits...)
}
