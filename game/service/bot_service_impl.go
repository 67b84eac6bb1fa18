package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
	"github.com/wricardo/mcp-training/minecraftremote/game/session"
	"github.com/wricardo/mcp-training/minecraftremote/game/timed"
)

// botServiceImpl implements the BotService interface
type botServiceImpl struct {
	state  *session.State
	dialer bot.Dialer
	events EventPublisher
	logger *zap.Logger
	opts   Options

	// connectMu serializes Connect so a dial never replaces a session
	// without quitting it
	connectMu sync.Mutex
}

// NewBotService creates a bot service over the injected connection state
func NewBotService(state *session.State, dialer bot.Dialer, events EventPublisher, logger *zap.Logger, opts Options) BotService {
	if events == nil {
		events = NopPublisher
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &botServiceImpl{
		state:  state,
		dialer: dialer,
		events: events,
		logger: logger.Named("bot"),
		opts:   opts.withDefaults(),
	}
}

// withSession gates fn on an active session and turns a panic into an
// error-kind response
func (s *botServiceImpl) withSession(tool string, fn func(sess bot.Session) ToolResponse) (resp ToolResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool panicked",
				zap.String("tool", tool),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			resp = Failure(fmt.Errorf("%s failed unexpectedly: %v", tool, r))
		}
	}()

	sess, ok := s.state.Session()
	if !ok {
		return NotConnected()
	}
	return fn(sess)
}

func (s *botServiceImpl) publish(typ EventType, sess bot.Session, pos *bot.Vec3, format string, args ...any) {
	username := ""
	if sess != nil {
		username = sess.Username()
	}
	s.events.Publish(NewEvent(typ, username, fmt.Sprintf(format, args...), pos))
}

// coords renders X=.., Y=.., Z=.. with the caller's numbers as given
func coords(v bot.Vec3) string {
	return fmt.Sprintf("X=%s, Y=%s, Z=%s", bot.FormatCoord(v.X), bot.FormatCoord(v.Y), bot.FormatCoord(v.Z))
}

// Connect opens a new session, quitting the current one first
func (s *botServiceImpl) Connect(ctx context.Context, params ConnectParams) (resp ToolResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("connect panicked", zap.Any("panic", r))
			resp = Failure(fmt.Errorf("connect failed unexpectedly: %v", r))
		}
	}()

	opts := bot.ConnectOptions{
		Host:     params.Host,
		Port:     params.Port,
		Username: params.Username,
		Version:  params.Version,
	}
	if opts.Port <= 0 {
		opts.Port = s.opts.DefaultPort
	}
	if opts.Version == "" {
		opts.Version = s.opts.DefaultVersion
	}
	if opts.Host == "" || opts.Username == "" {
		return Failure(errors.New("host and username are required"))
	}

	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	if old, ok := s.state.Session(); ok {
		s.logger.Info("replacing existing session", zap.String("username", old.Username()))
		if err := old.Quit("reconnecting"); err != nil {
			s.logger.Warn("failed to quit previous session", zap.Error(err))
		}
		s.state.ClearIf(old)
	}

	dctx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	s.logger.Info("connecting",
		zap.String("addr", opts.Addr()),
		zap.String("username", opts.Username),
		zap.String("version", opts.Version),
		zap.String("backend", s.opts.Backend))

	sess, err := s.dialer.Dial(dctx, opts)
	if err != nil {
		s.logger.Warn("connect failed", zap.String("addr", opts.Addr()), zap.Error(err))
		return Failure(fmt.Errorf("failed to connect to %s: %w", opts.Addr(), err))
	}

	s.state.Update(true, sess, session.InfoFromOptions(opts))
	go s.watch(sess)

	s.publish(EventConnected, sess, nil, "connected to %s", opts.Addr())
	return Success("Successfully connected to %s as %s (version %s)", opts.Addr(), opts.Username, opts.Version)
}

// watch clears the state when sess ends without a disconnect call
func (s *botServiceImpl) watch(sess bot.Session) {
	<-sess.Done()
	if s.state.ClearIf(sess) {
		s.logger.Warn("session ended", zap.String("username", sess.Username()))
		s.publish(EventDisconnected, sess, nil, "session ended")
	}
}

// Disconnect quits the active session. Connection info is kept.
func (s *botServiceImpl) Disconnect(ctx context.Context) ToolResponse {
	return s.withSession("disconnectFromServer", func(sess bot.Session) ToolResponse {
		err := sess.Quit("disconnect requested")
		s.state.ClearIf(sess)
		s.publish(EventDisconnected, sess, nil, "disconnect requested")
		if err != nil {
			return Failure(fmt.Errorf("disconnect: %w", err))
		}
		return Success("Disconnected from Minecraft server.")
	})
}

// Position reports the bot entity position to two decimals
func (s *botServiceImpl) Position(ctx context.Context) ToolResponse {
	return s.withSession("getPosition", func(sess bot.Session) ToolResponse {
		pos, err := sess.Position(ctx)
		if err != nil {
			return Failure(err)
		}
		return Success("Current position: X=%.2f, Y=%.2f, Z=%.2f", pos.X, pos.Y, pos.Z)
	})
}

// MoveTo walks to dest, waiting at most MoveTimeout. The walk is not cancelled
// when the wait ends.
func (s *botServiceImpl) MoveTo(ctx context.Context, dest bot.Vec3) ToolResponse {
	return s.withSession("moveTo", func(sess bot.Session) ToolResponse {
		s.publish(EventMoveStarted, sess, &dest, "moving to %s", dest)

		_, err := timed.Bounded(ctx, s.opts.MoveTimeout,
			func(actx context.Context) (struct{}, error) {
				return struct{}{}, sess.Goto(actx, bot.GoalBlock(dest.X, dest.Y, dest.Z))
			},
			timed.WithLateResult(func(err error) {
				if err != nil {
					s.logger.Info("background movement failed", zap.Stringer("dest", dest), zap.Error(err))
					s.publish(EventMoveFailed, sess, &dest, "movement failed: %v", err)
					return
				}
				s.logger.Info("background movement reached destination", zap.Stringer("dest", dest))
				s.publish(EventMoveCompleted, sess, &dest, "reached %s", dest)
			}),
		)

		switch {
		case errors.Is(err, timed.ErrStillRunning):
			s.publish(EventMoveStillRunning, sess, &dest, "still moving to %s", dest)
			return Success("Movement is taking longer than expected. Still trying to reach the destination...")
		case err != nil:
			s.publish(EventMoveFailed, sess, &dest, "movement failed: %v", err)
			return Failure(err)
		}

		s.publish(EventMoveCompleted, sess, &dest, "reached %s", dest)
		return Success("Successfully moved to %s", coords(dest))
	})
}

// FlyTo flies to dest in creative mode. After FlightTimeout the flight is
// stopped and the position at that moment is reported.
func (s *botServiceImpl) FlyTo(ctx context.Context, dest bot.Vec3) ToolResponse {
	return s.withSession("flyTo", func(sess bot.Session) ToolResponse {
		if !sess.Creative() {
			return Success("Creative mode is not available. Cannot fly.")
		}

		from := "unknown"
		if pos, err := sess.Position(ctx); err == nil {
			from = pos.Floored().String()
		}
		s.logger.Info("flying", zap.String("from", from), zap.Stringer("to", dest.Floored()))
		s.publish(EventFlightStarted, sess, &dest, "flying from %s to %s", from, dest.Floored())

		_, err := timed.Cancellable(ctx, s.opts.FlightTimeout,
			func(actx context.Context) (struct{}, error) {
				return struct{}{}, sess.FlyTo(actx, dest)
			},
			timed.WithCleanup(sess.StopFlying),
			timed.WithSnapshot(func() string { return s.currentPosition(sess) }),
		)

		var te *timed.TimeoutError
		switch {
		case errors.As(err, &te):
			s.logger.Warn("flight timed out", zap.Duration("timeout", te.Timeout), zap.String("position", te.State))
			s.publish(EventFlightTimeout, sess, nil, "flight timed out at %s", te.State)
			return Success("Flight timed out after %s seconds. The destination may be unreachable. Current position: %s",
				bot.FormatCoord(te.Timeout.Seconds()), te.State)
		case err != nil:
			s.logger.Warn("flight failed", zap.Error(err))
			s.publish(EventFlightFailed, sess, &dest, "flight failed: %v", err)
			return Failure(err)
		}

		s.publish(EventFlightCompleted, sess, &dest, "arrived at %s", dest)
		return Success("Successfully flew to position %s.", dest)
	})
}

// currentPosition reads the floored position for diagnostics
func (s *botServiceImpl) currentPosition(sess bot.Session) string {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SnapshotTimeout)
	defer cancel()

	pos, err := sess.Position(ctx)
	if err != nil {
		return "unknown"
	}
	return pos.Floored().String()
}

// DigBlock digs the block at pos, walking closer first when it is out of reach
// or not visible
func (s *botServiceImpl) DigBlock(ctx context.Context, pos bot.Vec3) ToolResponse {
	return s.withSession("digBlock", func(sess bot.Session) ToolResponse {
		block, err := sess.BlockAt(ctx, pos)
		if err != nil {
			return Failure(err)
		}
		if block.IsAir() {
			return Success("No block found at the specified coordinates.")
		}

		if !sess.CanDig(ctx, block) || !sess.CanSee(ctx, block) {
			if err := sess.Goto(ctx, bot.GoalNear(pos.X, pos.Y, pos.Z, 2)); err != nil {
				return Failure(err)
			}
		}

		if err := sess.Dig(ctx, block); err != nil {
			return Failure(err)
		}

		s.publish(EventBlockDug, sess, &block.Position, "dug %s", block.Name)
		return Success("Successfully dug %s at %s", block.Name, coords(pos))
	})
}

// PlaceBlock places itemName at pos against the first solid neighbour that
// accepts it
func (s *botServiceImpl) PlaceBlock(ctx context.Context, pos bot.Vec3, itemName string) ToolResponse {
	return s.withSession("placeBlock", func(sess bot.Session) ToolResponse {
		items, err := sess.Items(ctx)
		if err != nil {
			return Failure(err)
		}

		var item *bot.Item
		for i := range items {
			if strings.EqualFold(items[i].Name, itemName) {
				item = &items[i]
				break
			}
		}
		if item == nil {
			return Success("Item %q not found in inventory.", itemName)
		}

		if err := sess.Equip(ctx, *item, "hand"); err != nil {
			return Failure(err)
		}

		for _, face := range bot.PlacementFaces() {
			reference, err := sess.BlockAt(ctx, pos.Sub(face))
			if err != nil {
				return Failure(err)
			}
			if reference.IsAir() {
				continue
			}
			if err := sess.PlaceBlock(ctx, reference, face); err != nil {
				s.logger.Debug("placement failed, trying next face",
					zap.Stringer("reference", reference.Position),
					zap.Stringer("face", face),
					zap.Error(err))
				continue
			}

			s.publish(EventBlockPlaced, sess, &pos, "placed %s", itemName)
			return Success("Successfully placed %s at %s", itemName, coords(pos))
		}

		return Success("Failed to place %s. No suitable surface found or not enough space.", itemName)
	})
}

// BlockInfo describes the block at pos
func (s *botServiceImpl) BlockInfo(ctx context.Context, pos bot.Vec3) ToolResponse {
	return s.withSession("getBlockInfo", func(sess bot.Session) ToolResponse {
		block, err := sess.BlockAt(ctx, pos)
		if err != nil {
			return Failure(err)
		}
		if block == nil {
			return Success("No block information found at position %s", pos)
		}
		return Success("Found %s (type: %d) at position %s", block.Name, block.Type, block.Position)
	})
}

// FindBlock locates the nearest block named blockType
func (s *botServiceImpl) FindBlock(ctx context.Context, blockType string, maxDistance float64) ToolResponse {
	return s.withSession("findBlock", func(sess bot.Session) ToolResponse {
		if maxDistance <= 0 {
			maxDistance = s.opts.FindBlockDistance
		}

		bt, err := sess.BlockType(ctx, blockType)
		if err != nil {
			return Failure(err)
		}
		if bt == nil {
			return Success("Unknown block type: %s", blockType)
		}

		block, err := sess.FindBlock(ctx, bt.ID, maxDistance)
		if err != nil {
			return Failure(err)
		}
		if block == nil {
			return Success("No %s found within %s blocks", blockType, bot.FormatCoord(maxDistance))
		}
		return Success("Found %s at position %s", blockType, block.Position)
	})
}

// CheckInventory lists every stack
func (s *botServiceImpl) CheckInventory(ctx context.Context) ToolResponse {
	return s.withSession("checkInventory", func(sess bot.Session) ToolResponse {
		items, err := sess.Items(ctx)
		if err != nil {
			return Failure(err)
		}
		if len(items) == 0 {
			return Success("Inventory is empty.")
		}

		parts := make([]string, 0, len(items))
		for _, it := range items {
			parts = append(parts, fmt.Sprintf("%s x%d", it.Name, it.Count))
		}
		return Success("Inventory contains: %s", strings.Join(parts, ", "))
	})
}

// FindItem returns the first stack whose name contains the lower-cased query
func (s *botServiceImpl) FindItem(ctx context.Context, nameOrType string) ToolResponse {
	return s.withSession("findItem", func(sess bot.Session) ToolResponse {
		items, err := sess.Items(ctx)
		if err != nil {
			return Failure(err)
		}

		query := strings.ToLower(nameOrType)
		for _, it := range items {
			if strings.Contains(it.Name, query) {
				return Success("Found %d %s in inventory (slot %d)", it.Count, it.Name, it.Slot)
			}
		}
		return Success("Couldn't find any item matching '%s' in inventory", nameOrType)
	})
}

// Status returns the connection snapshot and, when connected, the position
func (s *botServiceImpl) Status(ctx context.Context) (*StatusInfo, error) {
	info := &StatusInfo{
		Snapshot: s.state.Snapshot(),
		Backend:  s.opts.Backend,
	}

	sess, ok := s.state.Session()
	if !ok {
		return info, nil
	}

	pos, err := sess.Position(ctx)
	if err != nil {
		return info, fmt.Errorf("failed to read position: %w", err)
	}
	info.Position = &pos
	return info, nil
}
