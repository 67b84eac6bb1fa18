// Package service provides the tool logic for remote-controlling a game bot.
//
// The service package implements:
//   - Connection lifecycle (connect, replace, disconnect, session-end watch)
//   - Movement: pathfinding with a bounded wait, flight with a hard timeout
//   - Block operations: dig, place, inspect, search
//   - Inventory listing and lookup
//
// Core Interfaces:
//
// BotService is the main service interface. Every operation returns exactly
// one ToolResponse, either a success text or an error text, and never panics.
// EventPublisher receives lifecycle events (connected, move_completed,
// flight_timeout, ...) for the WebSocket feed.
//
// Architecture:
//
// The service layer sits between the transports (MCP, REST, WebSocket) and a
// bot.Dialer. The single shared session lives in session.State; operations
// other than Connect fail with a not-connected response when it is empty.
// Long operations go through the timed package: moves keep running in the
// background after the wait expires, flights are cancelled and the bot stops.
//
// Usage:
//
//	state := session.NewState()
//	svc := service.NewBotService(state, sim.NewDialer(scenarios, "", logger), hub, logger, service.DefaultOptions())
//
//	resp := svc.Connect(ctx, service.ConnectParams{Host: "localhost", Username: "Steve"})
//	fmt.Println(resp.Message) // Successfully connected to localhost:25565 as Steve (version 1.20.4)
//
//	resp = svc.MoveTo(ctx, bot.Vec3{X: 10, Y: 64, Z: 10})
package service
