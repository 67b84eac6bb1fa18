package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
)

func newTestWorld(t *testing.T, mutate ...func(*Scenario)) *World {
	t.Helper()
	s := createTestScenario()
	for _, m := range mutate {
		m(s)
	}
	require.NoError(t, s.Validate(DefaultPalette()))
	w := NewWorld(s, DefaultPalette(), bot.ConnectOptions{Username: "Bot", Version: "1.20.4"}, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = w.Quit("test done") })
	return w
}

func vec(x, y, z float64) bot.Vec3 { return bot.Vec3{X: x, Y: y, Z: z} }

func TestWorld_BlockAt(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	b, err := w.BlockAt(ctx, vec(0.3, 0.9, 0.7))
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "stone", b.Name)
	assert.Equal(t, 1, b.Type)
	assert.Equal(t, vec(0, 0, 0), b.Position)

	b, err = w.BlockAt(ctx, vec(0, 5, 0))
	require.NoError(t, err)
	assert.True(t, b.IsAir())
	assert.NotNil(t, b, "loaded air is a block, not an unloaded chunk")

	b, err = w.BlockAt(ctx, vec(100, 0, 0))
	require.NoError(t, err)
	assert.Nil(t, b, "beyond view distance reads as unloaded")
}

func TestWorld_BlockTypeAndFindBlock(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	bt, err := w.BlockType(ctx, "diamond_ore")
	require.NoError(t, err)
	require.NotNil(t, bt)

	unknown, err := w.BlockType(ctx, "cheese")
	require.NoError(t, err)
	assert.Nil(t, unknown)

	b, err := w.FindBlock(ctx, bt.ID, 16)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, vec(6, 0, 6), b.Position)

	b, err = w.FindBlock(ctx, bt.ID, 3)
	require.NoError(t, err)
	assert.Nil(t, b)

	// nearest of many, ties broken by coordinate
	stone, _ := w.BlockType(ctx, "stone")
	b, err = w.FindBlock(ctx, stone.ID, 16)
	require.NoError(t, err)
	assert.Equal(t, vec(0, 0, 0), b.Position)
}

func TestWorld_Items(t *testing.T) {
	w := newTestWorld(t)

	items, err := w.Items(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []bot.Item{
		{Name: "oak_planks", Count: 2, Slot: 36},
		{Name: "torch", Count: 4, Slot: 40},
	}, items)
}

func TestWorld_Goto(t *testing.T) {
	ctx := context.Background()

	t.Run("reaches exact block", func(t *testing.T) {
		w := newTestWorld(t)
		require.NoError(t, w.Goto(ctx, bot.GoalBlock(3, 1, 3)))

		pos, _ := w.Position(ctx)
		assert.InDelta(t, 3.5, pos.X, 1e-6)
		assert.InDelta(t, 1, pos.Y, 1e-6)
		assert.InDelta(t, 3.5, pos.Z, 1e-6)
	})

	t.Run("stops within range", func(t *testing.T) {
		w := newTestWorld(t)
		require.NoError(t, w.Goto(ctx, bot.GoalNear(6, 1, 6, 2)))

		pos, _ := w.Position(ctx)
		assert.LessOrEqual(t, pos.DistanceTo(vec(6.5, 1, 6.5)), 2+1e-6)
	})

	t.Run("solid goal has no path", func(t *testing.T) {
		w := newTestWorld(t)
		err := w.Goto(ctx, bot.GoalBlock(2, 1, 0))
		assert.ErrorIs(t, err, bot.ErrNoPath)
	})

	t.Run("new goal supersedes", func(t *testing.T) {
		w := newTestWorld(t)
		first := make(chan error, 1)
		go func() { first <- w.Goto(ctx, bot.GoalBlock(8, 1, 8)) }()

		time.Sleep(15 * time.Millisecond)
		require.NoError(t, w.Goto(ctx, bot.GoalBlock(-1, 1, -1)))
		assert.ErrorIs(t, <-first, bot.ErrGoalChanged)
	})

	t.Run("cancellation leaves bot in place", func(t *testing.T) {
		w := newTestWorld(t)
		cctx, cancel := context.WithTimeout(ctx, 15*time.Millisecond)
		defer cancel()

		err := w.Goto(cctx, bot.GoalBlock(8, 1, 8))
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		pos, _ := w.Position(ctx)
		assert.Greater(t, pos.X, 0.5)
		assert.Less(t, pos.X, 8.5)
	})
}

func TestWorld_FlyTo(t *testing.T) {
	ctx := context.Background()

	t.Run("arrives", func(t *testing.T) {
		w := newTestWorld(t)
		require.NoError(t, w.FlyTo(ctx, vec(0.5, 10, 0.5)))
		pos, _ := w.Position(ctx)
		assert.InDelta(t, 10, pos.Y, 1e-6)
		assert.False(t, w.Flying())
	})

	t.Run("stop flying interrupts", func(t *testing.T) {
		w := newTestWorld(t)
		done := make(chan error, 1)
		go func() { done <- w.FlyTo(ctx, vec(0.5, 300, 0.5)) }()

		require.Eventually(t, w.Flying, time.Second, time.Millisecond)
		time.Sleep(15 * time.Millisecond)
		w.StopFlying()

		assert.ErrorIs(t, <-done, bot.ErrFlightStopped)
		pos, _ := w.Position(ctx)
		assert.Greater(t, pos.Y, 1.0)
		assert.Less(t, pos.Y, 300.0)

		w.StopFlying() // no flight in progress
	})

	t.Run("survival cannot fly", func(t *testing.T) {
		w := newTestWorld(t, func(s *Scenario) { s.GameMode = Survival })
		assert.False(t, w.Creative())
		assert.ErrorIs(t, w.FlyTo(ctx, vec(0, 10, 0)), bot.ErrNotCreative)
	})
}

func TestWorld_Dig(t *testing.T) {
	ctx := context.Background()

	t.Run("digs and collects drop", func(t *testing.T) {
		w := newTestWorld(t)
		b, _ := w.BlockAt(ctx, vec(2, 1, 0))
		require.Equal(t, "dirt", b.Name)
		assert.True(t, w.CanDig(ctx, b))
		assert.True(t, w.CanSee(ctx, b))

		require.NoError(t, w.Dig(ctx, b))

		after, _ := w.BlockAt(ctx, vec(2, 1, 0))
		assert.True(t, after.IsAir())
		items, _ := w.Items(ctx)
		assert.Contains(t, items, bot.Item{Name: "dirt", Count: 1, Slot: 37})
	})

	t.Run("bedrock is unbreakable", func(t *testing.T) {
		w := newTestWorld(t)
		b, _ := w.BlockAt(ctx, vec(0, -1, 0))
		assert.False(t, w.CanDig(ctx, b))
		err := w.Dig(ctx, b)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot dig bedrock")
	})

	t.Run("out of reach", func(t *testing.T) {
		w := newTestWorld(t)
		b, _ := w.BlockAt(ctx, vec(6, 0, 6))
		assert.False(t, w.CanDig(ctx, b))
		assert.False(t, w.CanSee(ctx, b))
		assert.ErrorIs(t, w.Dig(ctx, b), bot.ErrOutOfReach)
	})

	t.Run("air", func(t *testing.T) {
		w := newTestWorld(t)
		b, _ := w.BlockAt(ctx, vec(0, 3, 0))
		assert.Error(t, w.Dig(ctx, b))
	})
}

func TestWorld_PlaceBlock(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t)

	items, _ := w.Items(ctx)
	require.NoError(t, w.Equip(ctx, items[0], "hand"))

	ref, _ := w.BlockAt(ctx, vec(1, 0, 0))
	require.NoError(t, w.PlaceBlock(ctx, ref, bot.FaceUp))
	placed, _ := w.BlockAt(ctx, vec(1, 1, 0))
	assert.Equal(t, "oak_planks", placed.Name)

	err := w.PlaceBlock(ctx, ref, bot.FaceUp)
	assert.ErrorIs(t, err, ErrOccupied)

	feet, _ := w.BlockAt(ctx, vec(0, 0, 0))
	assert.ErrorIs(t, w.PlaceBlock(ctx, feet, bot.FaceUp), ErrOccupied, "cannot place into the bot")

	require.NoError(t, w.PlaceBlock(ctx, placed, bot.FaceUp))
	items, _ = w.Items(ctx)
	assert.Equal(t, []bot.Item{{Name: "torch", Count: 4, Slot: 40}}, items, "empty stack is removed")

	err = w.PlaceBlock(ctx, placed, bot.FaceEast)
	assert.ErrorIs(t, err, ErrNothingEquipped)

	air, _ := w.BlockAt(ctx, vec(0, 4, 0))
	require.NoError(t, w.Equip(ctx, bot.Item{Name: "torch", Slot: 40}, "hand"))
	assert.Error(t, w.PlaceBlock(ctx, air, bot.FaceUp), "air is not a reference surface")

	assert.Error(t, w.Equip(ctx, bot.Item{Name: "torch", Slot: 40}, "off-hand"))
	assert.Error(t, w.Equip(ctx, bot.Item{Name: "diamond"}, "hand"))
}

func TestWorld_Quit(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	walking := make(chan error, 1)
	go func() { walking <- w.Goto(ctx, bot.GoalBlock(8, 1, 8)) }()
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, w.Quit("bye"))
	require.NoError(t, w.Quit("again"))

	select {
	case <-w.Done():
	default:
		t.Fatal("Done should be closed after Quit")
	}
	assert.ErrorIs(t, <-walking, bot.ErrSessionClosed)

	_, err := w.Position(ctx)
	assert.ErrorIs(t, err, bot.ErrSessionClosed)
}

type scenarioFunc func(name string) (*Scenario, error)

func (f scenarioFunc) LoadScenario(name string) (*Scenario, error) { return f(name) }

func TestDialer(t *testing.T) {
	ctx := context.Background()

	t.Run("default scenario", func(t *testing.T) {
		d := NewDialer(nil, "", zaptest.NewLogger(t))
		sess, err := d.Dial(ctx, bot.ConnectOptions{Host: "localhost", Port: 25565, Username: "Bot", Version: "1.20.1"})
		require.NoError(t, err)
		defer sess.Quit("done")

		assert.Equal(t, "Bot", sess.Username())
		assert.Equal(t, "1.20.1", sess.Version())
		assert.True(t, sess.Creative())
		pos, err := sess.Position(ctx)
		require.NoError(t, err)
		assert.Equal(t, DefaultScenario().Spawn, pos)
	})

	t.Run("named scenario", func(t *testing.T) {
		var asked string
		src := scenarioFunc(func(name string) (*Scenario, error) {
			asked = name
			return createTestScenario(), nil
		})
		sess, err := NewDialer(src, "island", nil).Dial(ctx, bot.ConnectOptions{Username: "Bot"})
		require.NoError(t, err)
		defer sess.Quit("done")
		assert.Equal(t, "island", asked)
	})

	t.Run("scenario error", func(t *testing.T) {
		boom := errors.New("missing")
		src := scenarioFunc(func(string) (*Scenario, error) { return nil, boom })
		_, err := NewDialer(src, "x", nil).Dial(ctx, bot.ConnectOptions{Username: "Bot"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("invalid username", func(t *testing.T) {
		_, err := NewDialer(nil, "", nil).Dial(ctx, bot.ConnectOptions{Username: "not a name!"})
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewDialer(nil, "", nil).Dial(cctx, bot.ConnectOptions{Username: "Bot"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
