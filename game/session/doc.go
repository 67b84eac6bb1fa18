// Package session holds the connection state of the remote bot.
//
// The session package implements:
//   - A single State value created at startup and injected where needed
//   - Partial updates of connection info (nil fields are left untouched)
//   - Identity-checked clearing when a session ends on its own
//   - Concurrent access control
//
// Core Types:
//
// State is the connection holder. It tracks whether the bot is connected, the
// live bot.Session handle and the last known ConnectionInfo (host, port,
// username, version). Snapshot is a copy of that state safe to serialize.
//
// Update Semantics:
//
// Update(connected, sess, info) sets the flag and the handle and merges only the
// non-nil fields of info, so repeating an update has no further effect.
// Disconnecting keeps the info so status endpoints can still report where the
// bot was connected.
//
// Concurrency:
//
// MCP tool calls are dispatched on their own goroutines. State guards every
// read and write with a sync.RWMutex; the last writer wins. Handlers read the
// handle once per call and never hold the lock across a game operation.
//
// Usage:
//
//	state := session.NewState()
//
//	state.Update(true, sess, session.InfoFromOptions(opts))
//
//	if sess, ok := state.Session(); ok {
//		pos, err := sess.Position(ctx)
//		...
//	}
//
//	// when the session ends by itself
//	state.ClearIf(sess)
package session
