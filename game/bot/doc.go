// Package bot defines the capability surface of a game-world participant.
//
// The bot package is the boundary between the tool layer and whatever actually
// drives the player in the world. It contains:
//   - Session: an active, connected bot (position, blocks, inventory, movement, flight)
//   - Dialer: the factory that opens a Session for a server/username/version
//   - Value types read from the world per call (Vec3, Block, BlockType, Item, Goal)
//
// Backends:
//
// Two implementations live in sibling packages. game/sim is an in-memory voxel
// world used for tests and offline play. game/bridge forwards every call over a
// WebSocket to an external bot agent that owns the real game connection.
//
// Nothing in this package caches world state. Callers re-read position,
// blocks and inventory on every call.
package bot
