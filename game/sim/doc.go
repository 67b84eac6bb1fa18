// Package sim provides an in-memory voxel world that stands in for a game server.
//
// The sim package implements:
//   - A block palette mapping names to registry ids
//   - YAML scenarios describing terrain, spawn, game mode and starting inventory
//   - A World implementing bot.Session (blocks, inventory, walking, flight)
//   - A Dialer that spawns a fresh World for every connection
//
// Core Types:
//
// Scenario is loaded from YAML and validated against a Palette. World holds the
// block map, the bot position and its inventory behind a single mutex. Dialer
// resolves a scenario through a ScenarioSource and returns a new World.
//
// Movement:
//
// Goto and FlyTo move the bot in a straight line, one step per scenario tick,
// at the walk or fly speed. There is no collision or pathfinding: an exact goal
// inside a solid block fails with bot.ErrNoPath, anything else is reachable.
// Starting a new Goto ends the previous one with bot.ErrGoalChanged and
// StopFlying ends a flight with bot.ErrFlightStopped. Context cancellation
// leaves the bot wherever it stopped.
//
// Usage:
//
//	scenario, err := sim.LoadScenario("scenarios/flatland.yaml", sim.DefaultPalette())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	world := sim.NewWorld(scenario, sim.DefaultPalette(), bot.ConnectOptions{Username: "Bot"}, logger)
//	err = world.Goto(ctx, bot.GoalBlock(3, 64, 3))
//
// World Rules:
//
// Blocks outside the scenario view distance read as unloaded (nil). Digging
// needs the block within reach of the bot's eyes and takes the scenario dig
// time; the block's drop is added to the inventory. Placing needs an equipped
// placeable item, a solid reference block and an empty target that the bot is
// not standing in.
package sim
