package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
	"github.com/wricardo/mcp-training/minecraftremote/game/bot/bottest"
	"github.com/wricardo/mcp-training/minecraftremote/game/session"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc    BotService
	state  *session.State
	fake   *bottest.Session
	events *recorder
	dialed []bot.ConnectOptions
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		state:  session.NewState(),
		fake:   bottest.New("Bot"),
		events: &recorder{},
	}
	dialer := bot.DialerFunc(func(ctx context.Context, o bot.ConnectOptions) (bot.Session, error) {
		f.dialed = append(f.dialed, o)
		f.fake.Name = o.Username
		f.fake.Ver = o.Version
		return f.fake, nil
	})
	f.svc = NewBotService(f.state, dialer, f.events, zaptest.NewLogger(t), opts)
	return f
}

// connected returns a fixture whose fake session is already active
func connected(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := newFixture(t, opts)
	f.state.Update(true, f.fake, &session.InfoUpdate{})
	return f
}

func TestBotService_AllToolsNotConnected(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	p := bot.Vec3{X: 1, Y: 2, Z: 3}

	calls := map[string]func() ToolResponse{
		"disconnectFromServer": func() ToolResponse { return f.svc.Disconnect(ctx) },
		"getPosition":          func() ToolResponse { return f.svc.Position(ctx) },
		"moveTo":               func() ToolResponse { return f.svc.MoveTo(ctx, p) },
		"flyTo":                func() ToolResponse { return f.svc.FlyTo(ctx, p) },
		"digBlock":             func() ToolResponse { return f.svc.DigBlock(ctx, p) },
		"placeBlock":           func() ToolResponse { return f.svc.PlaceBlock(ctx, p, "dirt") },
		"getBlockInfo":         func() ToolResponse { return f.svc.BlockInfo(ctx, p) },
		"findBlock":            func() ToolResponse { return f.svc.FindBlock(ctx, "stone", 0) },
		"checkInventory":       func() ToolResponse { return f.svc.CheckInventory(ctx) },
		"findItem":             func() ToolResponse { return f.svc.FindItem(ctx, "dirt") },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			resp := call()
			assert.Equal(t, KindSuccess, resp.Kind)
			assert.Equal(t, NotConnectedMessage, resp.Message)
		})
	}
	assert.Empty(t, f.fake.GotoGoals())
	assert.Empty(t, f.fake.Digs())
}

func TestBotService_ConnectThenPosition(t *testing.T) {
	f := newFixture(t, Options{})
	f.fake.Pos = bot.Vec3{X: 12.3456, Y: 64, Z: -7.5}
	ctx := context.Background()

	resp := f.svc.Connect(ctx, ConnectParams{Host: "h", Port: 25565, Username: "Bot", Version: "1.20.1"})
	require.False(t, resp.IsError(), resp.Message)
	assert.Contains(t, resp.Message, "h:25565")

	snap := f.state.Snapshot()
	assert.True(t, snap.Connected)
	assert.Equal(t, session.ConnectionInfo{Host: "h", Port: 25565, Username: "Bot", Version: "1.20.1"}, snap.Info)

	resp = f.svc.Position(ctx)
	assert.Equal(t, KindSuccess, resp.Kind)
	assert.Equal(t, "Current position: X=12.35, Y=64.00, Z=-7.50", resp.Message)
	assert.Contains(t, f.events.types(), EventConnected)
}

func TestBotService_ConnectAppliesDefaults(t *testing.T) {
	f := newFixture(t, Options{DefaultVersion: "1.21"})

	resp := f.svc.Connect(context.Background(), ConnectParams{Host: "localhost", Username: "Bot"})
	require.False(t, resp.IsError())
	require.Len(t, f.dialed, 1)
	assert.Equal(t, 25565, f.dialed[0].Port)
	assert.Equal(t, "1.21", f.dialed[0].Version)
}

func TestBotService_ConnectRequiresHostAndUsername(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.svc.Connect(context.Background(), ConnectParams{Host: "localhost"})
	assert.True(t, resp.IsError())
	assert.Empty(t, f.dialed)
}

func TestBotService_ConnectFailure(t *testing.T) {
	state := session.NewState()
	dialer := bot.DialerFunc(func(ctx context.Context, o bot.ConnectOptions) (bot.Session, error) {
		return nil, errors.New("connection refused")
	})
	svc := NewBotService(state, dialer, nil, zaptest.NewLogger(t), Options{})

	resp := svc.Connect(context.Background(), ConnectParams{Host: "h", Username: "Bot"})
	assert.True(t, resp.IsError())
	assert.Equal(t, "Error: failed to connect to h:25565: connection refused", resp.Message)
	assert.False(t, state.Connected())
}

func TestBotService_ConnectReplacesExistingSession(t *testing.T) {
	f := newFixture(t, Options{})
	old := bottest.New("old")
	f.state.Update(true, old, nil)

	resp := f.svc.Connect(context.Background(), ConnectParams{Host: "h", Username: "Bot"})
	require.False(t, resp.IsError())

	assert.Len(t, old.Quits(), 1)
	sess, ok := f.state.Session()
	require.True(t, ok)
	assert.Same(t, f.fake, sess)
}

func TestBotService_ConcurrentConnectsQuitDisplacedSession(t *testing.T) {
	state := session.NewState()

	var mu sync.Mutex
	var sessions []*bottest.Session
	dialing, maxDialing := 0, 0
	dialer := bot.DialerFunc(func(ctx context.Context, o bot.ConnectOptions) (bot.Session, error) {
		mu.Lock()
		dialing++
		maxDialing = max(maxDialing, dialing)
		sess := bottest.New(o.Username)
		sessions = append(sessions, sess)
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		dialing--
		mu.Unlock()
		return sess, nil
	})
	svc := NewBotService(state, dialer, nil, zaptest.NewLogger(t), Options{})

	var wg sync.WaitGroup
	for _, name := range []string{"Alex", "Steve"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := svc.Connect(context.Background(), ConnectParams{Host: "h", Username: name})
			assert.Equal(t, KindSuccess, resp.Kind)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxDialing)
	require.Len(t, sessions, 2)

	// the first dialed session was displaced and quit, the second is active
	assert.Len(t, sessions[0].Quits(), 1)
	assert.Empty(t, sessions[1].Quits())
	sess, ok := state.Session()
	require.True(t, ok)
	assert.Same(t, sessions[1], sess)
}

func TestBotService_SessionEndingMarksDisconnected(t *testing.T) {
	f := newFixture(t, Options{})
	resp := f.svc.Connect(context.Background(), ConnectParams{Host: "h", Username: "Bot"})
	require.False(t, resp.IsError())

	f.fake.End()

	require.Eventually(t, func() bool { return !f.state.Connected() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "h", f.state.Snapshot().Info.Host)
	assert.Equal(t, NotConnectedMessage, f.svc.Position(context.Background()).Message)
}

func TestBotService_Disconnect(t *testing.T) {
	f := connected(t, Options{})

	resp := f.svc.Disconnect(context.Background())
	assert.Equal(t, KindSuccess, resp.Kind)
	assert.Equal(t, "Disconnected from Minecraft server.", resp.Message)
	assert.False(t, f.state.Connected())
	assert.Len(t, f.fake.Quits(), 1)
}

func TestBotService_MoveTo(t *testing.T) {
	t.Run("reaches destination", func(t *testing.T) {
		f := connected(t, Options{})
		resp := f.svc.MoveTo(context.Background(), bot.Vec3{X: 10, Y: 64, Z: -3.5})

		assert.Equal(t, KindSuccess, resp.Kind)
		assert.Equal(t, "Successfully moved to X=10, Y=64, Z=-3.5", resp.Message)
		assert.Equal(t, []bot.Goal{bot.GoalBlock(10, 64, -3.5)}, f.fake.GotoGoals())
	})

	t.Run("pathfinding failure", func(t *testing.T) {
		f := connected(t, Options{})
		f.fake.GotoFunc = func(ctx context.Context, goal bot.Goal) error { return bot.ErrNoPath }

		resp := f.svc.MoveTo(context.Background(), bot.Vec3{X: 1, Y: 2, Z: 3})
		assert.True(t, resp.IsError())
		assert.Equal(t, "Error: no path to goal", resp.Message)
	})

	t.Run("still running after bound", func(t *testing.T) {
		f := connected(t, Options{MoveTimeout: 20 * time.Millisecond})
		release := make(chan struct{})
		var sawCancel bool
		f.fake.GotoFunc = func(ctx context.Context, goal bot.Goal) error {
			<-release
			sawCancel = ctx.Err() != nil
			return nil
		}

		resp := f.svc.MoveTo(context.Background(), bot.Vec3{X: 1, Y: 2, Z: 3})
		assert.Equal(t, KindSuccess, resp.Kind)
		assert.Equal(t, "Movement is taking longer than expected. Still trying to reach the destination...", resp.Message)

		close(release)
		require.Eventually(t, func() bool {
			for _, typ := range f.events.types() {
				if typ == EventMoveCompleted {
					return true
				}
			}
			return false
		}, time.Second, 5*time.Millisecond)
		assert.False(t, sawCancel, "movement must not be cancelled by the bound")
		assert.Equal(t, "Movement is taking longer than expected. Still trying to reach the destination...", resp.Message)
	})
}

func TestBotService_FlyTo(t *testing.T) {
	t.Run("not creative", func(t *testing.T) {
		f := connected(t, Options{})
		resp := f.svc.FlyTo(context.Background(), bot.Vec3{X: 1, Y: 2, Z: 3})

		assert.Equal(t, KindSuccess, resp.Kind)
		assert.Equal(t, "Creative mode is not available. Cannot fly.", resp.Message)
		assert.Empty(t, f.fake.Flights())
	})

	t.Run("arrives", func(t *testing.T) {
		f := connected(t, Options{})
		f.fake.Flying = true

		resp := f.svc.FlyTo(context.Background(), bot.Vec3{X: 100, Y: 80, Z: -20})
		assert.Equal(t, KindSuccess, resp.Kind)
		assert.Equal(t, "Successfully flew to position (100, 80, -20).", resp.Message)
		assert.Equal(t, 1, f.fake.StopFlyingCalls(), "stop flying runs after every flight")
	})

	t.Run("times out and reports position at abort", func(t *testing.T) {
		f := connected(t, Options{FlightTimeout: 50 * time.Millisecond})
		f.fake.Flying = true
		f.fake.SetPosition(bot.Vec3{X: 0.5, Y: 64, Z: 0.5})

		f.fake.FlyFunc = func(ctx context.Context, dest bot.Vec3) error {
			f.fake.SetPosition(bot.Vec3{X: 10.7, Y: 70.2, Z: -3.1})
			<-ctx.Done()
			// the library keeps going briefly, then reports its own failure
			time.Sleep(20 * time.Millisecond)
			return bot.ErrFlightStopped
		}

		start := time.Now()
		resp := f.svc.FlyTo(context.Background(), bot.Vec3{X: 1000, Y: 64, Z: 1000})

		assert.Less(t, time.Since(start), 500*time.Millisecond)
		assert.Equal(t, KindSuccess, resp.Kind)
		assert.Equal(t, "Flight timed out after 0.05 seconds. The destination may be unreachable. Current position: (10, 70, -4)", resp.Message)
		assert.Contains(t, f.events.types(), EventFlightTimeout)

		time.Sleep(40 * time.Millisecond)
		assert.Equal(t, 1, f.fake.StopFlyingCalls(), "late failure must not stop the flight twice")
	})

	t.Run("failure", func(t *testing.T) {
		f := connected(t, Options{})
		f.fake.Flying = true
		f.fake.FlyFunc = func(ctx context.Context, dest bot.Vec3) error { return errors.New("blocked by bedrock") }

		resp := f.svc.FlyTo(context.Background(), bot.Vec3{X: 1, Y: 2, Z: 3})
		assert.True(t, resp.IsError())
		assert.Equal(t, "Error: blocked by bedrock", resp.Message)
		assert.Equal(t, 1, f.fake.StopFlyingCalls())
	})
}

func TestBotService_DigBlock(t *testing.T) {
	target := bot.Vec3{X: 3, Y: 63, Z: 4}

	t.Run("air is a no-op", func(t *testing.T) {
		f := connected(t, Options{})
		f.fake.SetBlock(target, "air", 0)

		resp := f.svc.DigBlock(context.Background(), target)
		assert.Equal(t, KindSuccess, resp.Kind)
		assert.Equal(t, "No block found at the specified coordinates.", resp.Message)
		assert.Empty(t, f.fake.Digs())
	})

	t.Run("unloaded chunk is a no-op", func(t *testing.T) {
		f := connected(t, Options{})

		resp := f.svc.DigBlock(context.Background(), target)
		assert.Equal(t, "No block found at the specified coordinates.", resp.Message)
		assert.Empty(t, f.fake.Digs())
	})

	t.Run("digs in reach", func(t *testing.T) {
		f := connected(t, Options{})
		f.fake.SetBlock(target, "stone", 1)

		resp := f.svc.DigBlock(context.Background(), target)
		assert.Equal(t, "Successfully dug stone at X=3, Y=63, Z=4", resp.Message)
		assert.Equal(t, []bot.Vec3{target}, f.fake.Digs())
		assert.Empty(t, f.fake.GotoGoals())
	})

	t.Run("approaches when not visible", func(t *testing.T) {
		f := connected(t, Options{})
		f.fake.SetBlock(target, "dirt", 10)
		f.fake.CanSeeFunc = func(*bot.Block) bool { return false }

		resp := f.svc.DigBlock(context.Background(), target)
		assert.False(t, resp.IsError())
		assert.Equal(t, []bot.Goal{bot.GoalNear(3, 63, 4, 2)}, f.fake.GotoGoals())
		assert.Len(t, f.fake.Digs(), 1)
	})

	t.Run("dig failure", func(t *testing.T) {
		f := connected(t, Options{})
		f.fake.SetBlock(target, "bedrock", 25)
		f.fake.DigFunc = func(ctx context.Context, b *bot.Block) error { return errors.New("cannot dig bedrock") }

		resp := f.svc.DigBlock(context.Background(), target)
		assert.True(t, resp.IsError())
		assert.Equal(t, "Error: cannot dig bedrock", resp.Message)
	})
}

func TestBotService_PlaceBlock(t *testing.T) {
	target := bot.Vec3{X: 0, Y: 65, Z: 0}

	t.Run("item missing", func(t *testing.T) {
		f := connected(t, Options{})
		f.fake.Inventory = []bot.Item{{Name: "dirt", Count: 3, Slot: 36}}

		resp := f.svc.PlaceBlock(context.Background(), target, "diamond_block")
		assert.Equal(t, KindSuccess, resp.Kind)
		assert.Equal(t, `Item "diamond_block" not found in inventory.`, resp.Message)
		assert.Empty(t, f.fake.Placements())
		assert.Empty(t, f.fake.Equipped())
	})

	t.Run("places on the block below", func(t *testing.T) {
		f := connected(t, Options{})
		f.fake.Inventory = []bot.Item{{Name: "oak_planks", Count: 8, Slot: 36}}
		f.fake.SetBlock(bot.Vec3{X: 0, Y: 64, Z: 0}, "grass_block", 9)

		resp := f.svc.PlaceBlock(context.Background(), target, "OAK_PLANKS")
		assert.Equal(t, "Successfully placed OAK_PLANKS at X=0, Y=65, Z=0", resp.Message)
		require.Len(t, f.fake.Equipped(), 1)
		assert.Equal(t, "oak_planks", f.fake.Equipped()[0].Name)
		assert.Equal(t, []bottest.Placement{{Reference: bot.Vec3{X: 0, Y: 64, Z: 0}, Face: bot.FaceUp}}, f.fake.Placements())
	})

	t.Run("falls through failing faces", func(t *testing.T) {
		f := connected(t, Options{})
		f.fake.Inventory = []bot.Item{{Name: "stone", Count: 1, Slot: 36}}
		f.fake.SetBlock(bot.Vec3{X: 0, Y: 64, Z: 0}, "grass_block", 9)
		f.fake.SetBlock(bot.Vec3{X: -1, Y: 65, Z: 0}, "oak_log", 46)
		f.fake.PlaceFunc = func(ctx context.Context, ref *bot.Block, face bot.Vec3) error {
			if face == bot.FaceUp {
				return errors.New("entity in the way")
			}
			return nil
		}

		resp := f.svc.PlaceBlock(context.Background(), target, "stone")
		assert.Equal(t, "Successfully placed stone at X=0, Y=65, Z=0", resp.Message)
		assert.Equal(t, []bottest.Placement{
			{Reference: bot.Vec3{X: 0, Y: 64, Z: 0}, Face: bot.FaceUp},
			{Reference: bot.Vec3{X: -1, Y: 65, Z: 0}, Face: bot.FaceEast},
		}, f.fake.Placements())
	})

	t.Run("no surface", func(t *testing.T) {
		f := connected(t, Options{})
		f.fake.Inventory = []bot.Item{{Name: "stone", Count: 1, Slot: 36}}

		resp := f.svc.PlaceBlock(context.Background(), target, "stone")
		assert.Equal(t, KindSuccess, resp.Kind)
		assert.Equal(t, "Failed to place stone. No suitable surface found or not enough space.", resp.Message)
	})
}

func TestBotService_BlockInfo(t *testing.T) {
	f := connected(t, Options{})
	f.fake.SetBlock(bot.Vec3{X: 1, Y: 2, Z: 3}, "stone", 1)

	resp := f.svc.BlockInfo(context.Background(), bot.Vec3{X: 1.5, Y: 2.2, Z: 3.9})
	assert.Equal(t, "Found stone (type: 1) at position (1, 2, 3)", resp.Message)

	resp = f.svc.BlockInfo(context.Background(), bot.Vec3{X: 500, Y: 2, Z: 3})
	assert.Equal(t, "No block information found at position (500, 2, 3)", resp.Message)
}

func TestBotService_FindBlock(t *testing.T) {
	f := connected(t, Options{})
	f.fake.Types["diamond_ore"] = &bot.BlockType{ID: 56, Name: "diamond_ore"}
	f.fake.Types["stone"] = &bot.BlockType{ID: 1, Name: "stone"}
	f.fake.SetBlock(bot.Vec3{X: 5, Y: 12, Z: -8}, "diamond_ore", 56)

	resp := f.svc.FindBlock(context.Background(), "unobtainium", 0)
	assert.Equal(t, "Unknown block type: unobtainium", resp.Message)

	resp = f.svc.FindBlock(context.Background(), "stone", 0)
	assert.Equal(t, "No stone found within 16 blocks", resp.Message)

	resp = f.svc.FindBlock(context.Background(), "diamond_ore", 64)
	assert.Equal(t, "Found diamond_ore at position (5, 12, -8)", resp.Message)

	resp = f.svc.FindBlock(context.Background(), "diamond_ore", 4)
	assert.Equal(t, "No diamond_ore found within 4 blocks", resp.Message)
}

func TestBotService_Inventory(t *testing.T) {
	f := connected(t, Options{})

	assert.Equal(t, "Inventory is empty.", f.svc.CheckInventory(context.Background()).Message)

	f.fake.Inventory = []bot.Item{
		{Name: "oak_log", Count: 12, Slot: 36},
		{Name: "iron_pickaxe", Count: 1, Slot: 37},
	}
	assert.Equal(t, "Inventory contains: oak_log x12, iron_pickaxe x1", f.svc.CheckInventory(context.Background()).Message)

	assert.Equal(t, "Found 1 iron_pickaxe in inventory (slot 37)", f.svc.FindItem(context.Background(), "PICKAXE").Message)
	assert.Equal(t, "Couldn't find any item matching 'Diamond' in inventory", f.svc.FindItem(context.Background(), "Diamond").Message)
}

func TestBotService_PanicBecomesError(t *testing.T) {
	f := connected(t, Options{})
	f.fake.PanicOn = "Position"

	resp := f.svc.Position(context.Background())
	assert.True(t, resp.IsError())
	assert.Contains(t, resp.Message, "getPosition failed unexpectedly")
}

func TestBotService_Status(t *testing.T) {
	f := newFixture(t, Options{Backend: "bridge"})

	st, err := f.svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Connected)
	assert.Nil(t, st.Position)
	assert.Equal(t, "bridge", st.Backend)

	f.fake.Pos = bot.Vec3{X: 1, Y: 2, Z: 3}
	require.False(t, f.svc.Connect(context.Background(), ConnectParams{Host: "h", Username: "Bot"}).IsError())

	st, err = f.svc.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Connected)
	require.NotNil(t, st.Position)
	assert.Equal(t, bot.Vec3{X: 1, Y: 2, Z: 3}, *st.Position)
}
