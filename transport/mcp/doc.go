// Package mcp exposes the bot service as Model Context Protocol tools.
//
// The mcp package implements:
//   - Tool definitions with JSON input schemas
//   - Argument validation against each schema before the handler runs
//   - Panic containment and call logging around every tool
//   - Stdio, SSE and single-shot HTTP transports
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - connectToServer: open a bot session (host, port, username, version)
//   - disconnectFromServer: close the session
//   - getPosition: current coordinates
//   - moveTo: pathfind to x, y, z
//   - flyTo: fly to x, y, z (creative mode)
//   - digBlock: dig the block at x, y, z
//   - placeBlock: place an inventory item at x, y, z
//   - getBlockInfo: describe the block at x, y, z
//   - findBlock: nearest block of a type within maxDistance
//   - checkInventory: list inventory contents
//   - findItem: look up an item by name
//
// Results:
//
// Every call produces one text result. Service failures carry isError=true
// and a message starting with "Error: ". Not-connected, not-found and timeout
// outcomes are plain text results.
//
// Transport Modes:
//   - Stdio: Server.ServeStdio for local MCP clients
//   - SSE: Server.NewSSEServer mounted at /sse and /messages
//   - HTTP: Server.HandleMessage answers one JSON-RPC request per POST at /mcp
//
// Usage:
//
//	srv, err := mcp.NewServer(botService, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Stdio mode
//	srv.ServeStdio(ctx, os.Stdin, os.Stdout)
//
//	// HTTP mode
//	sse := srv.NewSSEServer("http://localhost:3000")
//	router.Handle("/sse", sse.SSEHandler())
//	router.Handle("/messages", sse.MessageHandler())
//	router.HandleFunc("/mcp", srv.HandleMessage)
package mcp
