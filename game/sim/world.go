package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
)

// EyeHeight is the offset from feet to eyes used for reach checks
const EyeHeight = 1.62

var (
	ErrNothingEquipped = errors.New("nothing equipped in hand")
	ErrOccupied        = errors.New("target position is occupied")
)

// World is an in-memory voxel world with a single bot in it.
// It implements bot.Session.
type World struct {
	scenario *Scenario
	palette  *Palette
	username string
	version  string
	logger   *zap.Logger

	mu         sync.Mutex
	blocks     map[Point]string
	pos        bot.Vec3
	inventory  map[int]bot.Item
	held       int
	walkStop   chan struct{}
	flightStop chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

var _ bot.Session = (*World)(nil)

// NewWorld builds a world from a validated scenario
func NewWorld(s *Scenario, p *Palette, opts bot.ConnectOptions, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	version := opts.Version
	if version == "" {
		version = s.Version
	}

	w := &World{
		scenario:  s,
		palette:   p,
		username:  opts.Username,
		version:   version,
		logger:    logger.Named("sim").With(zap.String("username", opts.Username)),
		blocks:    make(map[Point]string),
		pos:       s.Spawn,
		inventory: make(map[int]bot.Item),
		held:      -1,
		done:      make(chan struct{}),
	}

	for _, r := range s.Regions {
		fillRegion(w.blocks, r)
	}
	for _, b := range s.Blocks {
		setBlock(w.blocks, b.At, b.Block)
	}
	for _, st := range s.Inventory {
		slot := st.Slot
		if slot == 0 {
			slot = w.freeSlot()
		}
		if slot < 0 {
			break
		}
		w.inventory[slot] = bot.Item{Name: st.Name, Count: st.Count, Slot: slot}
	}

	return w
}

func fillRegion(blocks map[Point]string, r Region) {
	x0, x1 := order(r.From.X, r.To.X)
	y0, y1 := order(r.From.Y, r.To.Y)
	z0, z1 := order(r.From.Z, r.To.Z)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				setBlock(blocks, Point{X: x, Y: y, Z: z}, r.Block)
			}
		}
	}
}

func setBlock(blocks map[Point]string, p Point, name string) {
	if name == Air {
		delete(blocks, p)
		return
	}
	blocks[p] = name
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

// freeSlot returns the first empty slot, hotbar first. Caller holds mu or owns w.
func (w *World) freeSlot() int {
	for slot := HotbarFirstSlot; slot <= HotbarFirstSlot+8; slot++ {
		if _, used := w.inventory[slot]; !used {
			return slot
		}
	}
	for slot := 9; slot < HotbarFirstSlot; slot++ {
		if _, used := w.inventory[slot]; !used {
			return slot
		}
	}
	return -1
}

func (w *World) closed() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func (w *World) Username() string { return w.username }
func (w *World) Version() string  { return w.version }

// Position returns the bot's feet position
func (w *World) Position(ctx context.Context) (bot.Vec3, error) {
	if w.closed() {
		return bot.Vec3{}, bot.ErrSessionClosed
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos, nil
}

// Teleport moves the bot instantly
func (w *World) Teleport(pos bot.Vec3) {
	w.mu.Lock()
	w.pos = pos
	w.mu.Unlock()
}

// SetBlock changes the block at pos
func (w *World) SetBlock(pos bot.Vec3, name string) {
	w.mu.Lock()
	setBlock(w.blocks, pointOf(pos), name)
	w.mu.Unlock()
}

// blockLocked reads the block at p. Caller holds mu.
func (w *World) blockLocked(p Point) *bot.Block {
	name, ok := w.blocks[p]
	if !ok {
		name = Air
	}
	kind, _ := w.palette.Lookup(name)
	return &bot.Block{Name: name, Type: kind.ID, Position: p.Vec()}
}

func center(p Point) bot.Vec3 {
	return p.Vec().Add(bot.Vec3{X: 0.5, Y: 0.5, Z: 0.5})
}

func (w *World) eyes() bot.Vec3 {
	return w.pos.Add(bot.Vec3{Y: EyeHeight})
}

// BlockAt returns nil for positions beyond the view distance
func (w *World) BlockAt(ctx context.Context, pos bot.Vec3) (*bot.Block, error) {
	if w.closed() {
		return nil, bot.ErrSessionClosed
	}
	p := pointOf(pos)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pos.DistanceTo(center(p)) > w.scenario.ViewDistance {
		return nil, nil
	}
	return w.blockLocked(p), nil
}

// BlockType resolves name against the palette
func (w *World) BlockType(ctx context.Context, name string) (*bot.BlockType, error) {
	if w.closed() {
		return nil, bot.ErrSessionClosed
	}
	kind, ok := w.palette.Lookup(name)
	if !ok {
		return nil, nil
	}
	return &bot.BlockType{ID: kind.ID, Name: kind.Name}, nil
}

// FindBlock returns the nearest block of typeID within maxDistance
func (w *World) FindBlock(ctx context.Context, typeID int, maxDistance float64) (*bot.Block, error) {
	if w.closed() {
		return nil, bot.ErrSessionClosed
	}
	kind, ok := w.palette.ByID(typeID)
	if !ok || kind.Name == Air {
		return nil, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var (
		best     Point
		bestDist = math.Inf(1)
		found    bool
	)
	for p, name := range w.blocks {
		if name != kind.Name {
			continue
		}
		d := w.pos.DistanceTo(center(p))
		if d > maxDistance {
			continue
		}
		if d < bestDist || (d == bestDist && less(p, best)) {
			best, bestDist, found = p, d, true
		}
	}
	if !found {
		return nil, nil
	}
	return w.blockLocked(best), nil
}

func less(a, b Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// CanDig reports whether block is breakable and within reach
func (w *World) CanDig(ctx context.Context, block *bot.Block) bool {
	if block == nil || block.IsAir() || w.closed() {
		return false
	}
	kind, ok := w.palette.Lookup(block.Name)
	if !ok || kind.Unbreakable {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.eyes().DistanceTo(center(pointOf(block.Position))) <= w.scenario.Reach
}

// CanSee reports whether block has an exposed face and lies within reach
func (w *World) CanSee(ctx context.Context, block *bot.Block) bool {
	if block == nil || w.closed() {
		return false
	}
	p := pointOf(block.Position)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.eyes().DistanceTo(center(p)) > w.scenario.Reach {
		return false
	}
	for _, face := range bot.PlacementFaces() {
		n := pointOf(p.Vec().Add(face))
		if !w.solidLocked(n) {
			return true
		}
	}
	return false
}

func (w *World) solidLocked(p Point) bool {
	name, ok := w.blocks[p]
	if !ok {
		return false
	}
	kind, _ := w.palette.Lookup(name)
	return kind.Solid
}

// Items returns the inventory ordered by slot
func (w *World) Items(ctx context.Context) ([]bot.Item, error) {
	if w.closed() {
		return nil, bot.ErrSessionClosed
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	items := make([]bot.Item, 0, len(w.inventory))
	for _, it := range w.inventory {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Slot < items[j].Slot })
	return items, nil
}

// Equip holds item in hand. Only the "hand" destination is supported.
func (w *World) Equip(ctx context.Context, item bot.Item, destination string) error {
	if w.closed() {
		return bot.ErrSessionClosed
	}
	if destination != "hand" {
		return fmt.Errorf("unsupported equip destination %q", destination)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if it, ok := w.inventory[item.Slot]; ok && it.Name == item.Name {
		w.held = item.Slot
		return nil
	}
	for slot, it := range w.inventory {
		if it.Name == item.Name {
			w.held = slot
			return nil
		}
	}
	return fmt.Errorf("item %s is not in the inventory", item.Name)
}

// PlaceBlock puts the held block against reference on face
func (w *World) PlaceBlock(ctx context.Context, reference *bot.Block, face bot.Vec3) error {
	if w.closed() {
		return bot.ErrSessionClosed
	}
	if reference == nil {
		return errors.New("no reference block")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	held, ok := w.inventory[w.held]
	if !ok {
		return ErrNothingEquipped
	}
	kind, ok := w.palette.Lookup(held.Name)
	if !ok || kind.Name == Air {
		return fmt.Errorf("%s cannot be placed", held.Name)
	}

	ref := pointOf(reference.Position)
	if !w.solidLocked(ref) {
		return fmt.Errorf("cannot place against %s", w.blockLocked(ref).Name)
	}
	target := pointOf(ref.Vec().Add(face))
	if _, taken := w.blocks[target]; taken {
		return ErrOccupied
	}
	feet := pointOf(w.pos)
	if target == feet || target == (Point{X: feet.X, Y: feet.Y + 1, Z: feet.Z}) {
		return fmt.Errorf("%w by the bot", ErrOccupied)
	}
	if w.eyes().DistanceTo(center(target)) > w.scenario.Reach {
		return bot.ErrOutOfReach
	}

	setBlock(w.blocks, target, held.Name)
	held.Count--
	if held.Count == 0 {
		delete(w.inventory, w.held)
		w.held = -1
	} else {
		w.inventory[w.held] = held
	}
	w.logger.Debug("block placed", zap.String("block", held.Name), zap.Stringer("at", target.Vec()))
	return nil
}

// Dig breaks block after the scenario dig time and collects its drop
func (w *World) Dig(ctx context.Context, block *bot.Block) error {
	if w.closed() {
		return bot.ErrSessionClosed
	}
	if block == nil {
		return errors.New("no block to dig")
	}
	p := pointOf(block.Position)

	w.mu.Lock()
	current := w.blockLocked(p)
	kind, _ := w.palette.Lookup(current.Name)
	inReach := w.eyes().DistanceTo(center(p)) <= w.scenario.Reach
	w.mu.Unlock()

	switch {
	case current.IsAir():
		return errors.New("no block to dig")
	case kind.Unbreakable:
		return fmt.Errorf("cannot dig %s", current.Name)
	case !inReach:
		return fmt.Errorf("%s at %s: %w", current.Name, p.Vec(), bot.ErrOutOfReach)
	}

	if err := w.wait(ctx, w.scenario.DigTime); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.blockLocked(p).Name != current.Name {
		return fmt.Errorf("block at %s changed while digging", p.Vec())
	}
	delete(w.blocks, p)
	if kind.Drop != "" {
		w.collectLocked(kind.Drop)
	}
	w.logger.Debug("block dug", zap.String("block", current.Name), zap.Stringer("at", p.Vec()))
	return nil
}

func (w *World) collectLocked(name string) {
	for slot, it := range w.inventory {
		if it.Name == name && it.Count < MaxStackSize {
			it.Count++
			w.inventory[slot] = it
			return
		}
	}
	if slot := w.freeSlot(); slot >= 0 {
		w.inventory[slot] = bot.Item{Name: name, Count: 1, Slot: slot}
	}
}

func (w *World) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return bot.ErrSessionClosed
	}
}

// Goto walks in a straight line to goal. A newer Goto ends this one with
// bot.ErrGoalChanged. Exact goals inside solid blocks fail with bot.ErrNoPath.
func (w *World) Goto(ctx context.Context, goal bot.Goal) error {
	if w.closed() {
		return bot.ErrSessionClosed
	}
	p := pointOf(goal.Target)
	if !inWorld(p.Y) {
		return bot.ErrNoPath
	}

	stop := make(chan struct{})
	w.mu.Lock()
	if goal.Range == 0 && (w.solidLocked(p) || w.solidLocked(Point{X: p.X, Y: p.Y + 1, Z: p.Z})) {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s is inside a solid block", bot.ErrNoPath, p.Vec())
	}
	if w.walkStop != nil {
		close(w.walkStop)
	}
	w.walkStop = stop
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		if w.walkStop == stop {
			w.walkStop = nil
		}
		w.mu.Unlock()
	}()

	dest := p.Vec().Add(bot.Vec3{X: 0.5, Z: 0.5})
	return w.travel(ctx, dest, goal.Range, w.scenario.WalkSpeed, stop, bot.ErrGoalChanged)
}

// Creative reports whether the scenario allows flight
func (w *World) Creative() bool {
	return w.scenario.GameMode == Creative
}

// FlyTo flies straight to dest. StopFlying or a newer flight ends it with
// bot.ErrFlightStopped.
func (w *World) FlyTo(ctx context.Context, dest bot.Vec3) error {
	if w.closed() {
		return bot.ErrSessionClosed
	}
	if !w.Creative() {
		return bot.ErrNotCreative
	}

	stop := make(chan struct{})
	w.mu.Lock()
	if w.flightStop != nil {
		close(w.flightStop)
	}
	w.flightStop = stop
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		if w.flightStop == stop {
			w.flightStop = nil
		}
		w.mu.Unlock()
	}()

	return w.travel(ctx, dest, 0, w.scenario.FlySpeed, stop, bot.ErrFlightStopped)
}

// StopFlying interrupts the current flight, if any
func (w *World) StopFlying() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.flightStop != nil {
		close(w.flightStop)
		w.flightStop = nil
	}
}

// Flying reports whether a flight is in progress
func (w *World) Flying() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flightStop != nil
}

// travel moves the bot toward target by speed each tick until it is within
// range. The bot stays wherever it was when interrupted.
func (w *World) travel(ctx context.Context, target bot.Vec3, within, speed float64, stop <-chan struct{}, stopErr error) error {
	tick := w.scenario.Tick
	step := speed * tick.Seconds()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		w.mu.Lock()
		remaining := w.pos.DistanceTo(target) - within
		w.mu.Unlock()
		if remaining <= 1e-9 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return stopErr
		case <-w.done:
			return bot.ErrSessionClosed
		case <-ticker.C:
		}

		w.mu.Lock()
		delta := target.Sub(w.pos)
		dist := w.pos.DistanceTo(target)
		move := math.Min(step, dist-within)
		if dist > 0 && move > 0 {
			f := move / dist
			w.pos = w.pos.Add(bot.Vec3{X: delta.X * f, Y: delta.Y * f, Z: delta.Z * f})
		}
		w.mu.Unlock()
	}
}

// Quit ends the session. Further calls fail with bot.ErrSessionClosed.
func (w *World) Quit(reason string) error {
	w.closeOnce.Do(func() {
		w.logger.Info("bot quit", zap.String("reason", reason))
		close(w.done)
	})
	return nil
}

// Done is closed after Quit
func (w *World) Done() <-chan struct{} {
	return w.done
}
