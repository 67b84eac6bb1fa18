// Package bridge drives a real game client through an external bot agent.
//
// The agent is a separate process that owns the game connection (protocol,
// physics, pathfinding). This package speaks to it over a WebSocket with small
// JSON messages:
//
//	-> {"id":"<uuid>","method":"position"}
//	<- {"id":"<uuid>","result":{"x":1.5,"y":64,"z":-3}}
//	<- {"id":"<uuid>","error":{"code":"no_path","message":"No path to the goal!"}}
//	<- {"event":"end","data":{"reason":"socket closed"}}
//
// Requests without an id are notifications (stopPathing, stopFlying) and get
// no reply. Error codes map onto the sentinel errors of the bot package so
// callers can use errors.Is regardless of backend.
//
// One WebSocket carries exactly one bot. Dial opens the link and sends
// connect; Quit sends quit and closes it. When the agent reports end or
// kicked, or the link drops, Done is closed and every pending call fails with
// bot.ErrSessionClosed.
package bridge
