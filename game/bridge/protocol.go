package bridge

import (
	"encoding/json"
	"errors"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
)

// Methods understood by the bot agent
const (
	MethodConnect     = "connect"
	MethodQuit        = "quit"
	MethodPosition    = "position"
	MethodBlockAt     = "blockAt"
	MethodBlockType   = "blockType"
	MethodFindBlock   = "findBlock"
	MethodCanDig      = "canDig"
	MethodCanSee      = "canSee"
	MethodItems       = "items"
	MethodEquip       = "equip"
	MethodPlaceBlock  = "placeBlock"
	MethodDig         = "dig"
	MethodGoto        = "goto"
	MethodStopPathing = "stopPathing"
	MethodFlyTo       = "flyTo"
	MethodStopFlying  = "stopFlying"
)

// Events pushed by the agent
const (
	EventEnd      = "end"
	EventKicked   = "kicked"
	EventGameMode = "gameMode"
)

// Error codes mapped onto bot sentinel errors
const (
	CodeSessionClosed = "session_closed"
	CodeNoPath        = "no_path"
	CodeGoalChanged   = "goal_changed"
	CodeFlightStopped = "flight_stopped"
	CodeNotCreative   = "not_creative"
	CodeOutOfReach    = "out_of_reach"
)

// Request is sent to the agent. Requests without an id are notifications and
// get no response.
type Request struct {
	ID     string `json:"id,omitempty"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// Envelope is anything read from the agent: a response (ID set) or an event
// (Event set)
type Envelope struct {
	ID     string          `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RemoteError    `json:"error,omitempty"`
	Event  string          `json:"event,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// RemoteError is a failure reported by the agent
type RemoteError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Unwrap maps the error code onto the matching bot error
func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case CodeSessionClosed:
		return bot.ErrSessionClosed
	case CodeNoPath:
		return bot.ErrNoPath
	case CodeGoalChanged:
		return bot.ErrGoalChanged
	case CodeFlightStopped:
		return bot.ErrFlightStopped
	case CodeNotCreative:
		return bot.ErrNotCreative
	case CodeOutOfReach:
		return bot.ErrOutOfReach
	}
	return nil
}

var errMalformed = errors.New("malformed message from agent")

// ConnectResult is the agent's reply to connect
type ConnectResult struct {
	Username string `json:"username"`
	Version  string `json:"version"`
	Creative bool   `json:"creative"`
}

// EndData accompanies end and kicked events
type EndData struct {
	Reason string `json:"reason"`
}

// GameModeData accompanies gameMode events
type GameModeData struct {
	Creative bool `json:"creative"`
}

type positionParams struct {
	Position bot.Vec3 `json:"position"`
}

type nameParams struct {
	Name string `json:"name"`
}

type findBlockParams struct {
	Type        int     `json:"type"`
	MaxDistance float64 `json:"maxDistance"`
}

type equipParams struct {
	Item        bot.Item `json:"item"`
	Destination string   `json:"destination"`
}

type placeParams struct {
	Reference bot.Vec3 `json:"reference"`
	Face      bot.Vec3 `json:"face"`
}

type gotoParams struct {
	Goal bot.Goal `json:"goal"`
}

type flyParams struct {
	Destination bot.Vec3 `json:"destination"`
}

type quitParams struct {
	Reason string `json:"reason"`
}
