// Package websocket streams bot events to observers over WebSocket.
//
// The websocket package implements:
//   - A hub that fans service.Event values out to connected clients
//   - Optional per-bot filtering (?username=Steve)
//   - Ping/pong keepalive and slow-client eviction
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub owns the client
// set. Registration, unregistration and broadcast all go through the Run loop,
// so the client map is only touched from one goroutine. Each client has a
// read pump (disconnect detection) and a write pump (events and pings).
//
// Message Protocol:
//
// Observers only receive. Each event is one JSON object:
//
//	{"id":"...","type":"move_completed","username":"Steve","message":"...","position":{"x":1,"y":64,"z":2},"time":"..."}
//
// Events queued while a write is in progress are sent in the same frame,
// separated by newlines.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	svc := service.NewBotService(state, dialer, hub, logger, opts)
//	router.HandleFunc("/ws", hub.ServeWS)
//
// Publish never blocks the caller; when the queue is full the event is dropped
// and counted.
package websocket
