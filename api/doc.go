// Package api provides the HTTP router for the Minecraft remote server.
//
// The api package mounts every HTTP surface on one gorilla/mux router:
//   - REST endpoints for health, bot status and scenarios
//   - The WebSocket event feed
//   - The MCP transports (SSE and single-shot JSON-RPC)
//
// Endpoints:
//
// REST:
//   - GET /api/health - Liveness, version and uptime
//   - GET /api/status - Connection snapshot, position when connected, observer count
//   - GET /api/scenarios - Scenarios available to the sim backend (404 otherwise)
//
// Observers:
//   - GET /ws - WebSocket event stream (?username= filters by bot)
//
// MCP:
//   - GET /sse - SSE stream; the first event names the message endpoint
//   - POST /messages?sessionId=... - JSON-RPC messages for an SSE session
//   - POST /mcp - One JSON-RPC request, one JSON response
//
// Usage:
//
//	server := api.NewServer(botService, hub, tools, api.Options{
//		PublicURL: "http://localhost:3000",
//		Scenarios: scenarioManager,
//		Version:   "1.0.0",
//		Logger:    logger,
//	})
//	http.ListenAndServe(":3000", server)
//
// Error Handling:
//
// Errors are returned as JSON with an appropriate HTTP status code:
//
//	{
//	  "error": "error message"
//	}
package api
