package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
	"github.com/wricardo/mcp-training/minecraftremote/game/session"
)

// ResponseKind tags a ToolResponse
type ResponseKind string

const (
	KindSuccess ResponseKind = "success"
	KindError   ResponseKind = "error"
)

// NotConnectedMessage is returned by every tool that needs a session while none is active
const NotConnectedMessage = "Not connected to a Minecraft server. Use the connectToServer tool first."

// ToolResponse is the outcome of one tool call
type ToolResponse struct {
	Kind    ResponseKind `json:"kind"`
	Message string       `json:"message"`
}

// IsError reports whether the response is error-kind
func (r ToolResponse) IsError() bool {
	return r.Kind == KindError
}

// Success builds an informational response
func Success(format string, args ...any) ToolResponse {
	return ToolResponse{Kind: KindSuccess, Message: fmt.Sprintf(format, args...)}
}

// Failure builds an error-kind response carrying err's message
func Failure(err error) ToolResponse {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ToolResponse{Kind: KindError, Message: "Error: " + msg}
}

// NotConnected is the informational response for calls made without a session
func NotConnected() ToolResponse {
	return ToolResponse{Kind: KindSuccess, Message: NotConnectedMessage}
}

// ConnectParams are the arguments of connectToServer
type ConnectParams struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Version  string `json:"version,omitempty"`
}

// StatusInfo is reported by the REST status endpoint
type StatusInfo struct {
	session.Snapshot
	Position *bot.Vec3 `json:"position,omitempty"`
	Backend  string    `json:"backend"`
}

// EventType names what happened to the bot
type EventType string

const (
	EventConnected        EventType = "connected"
	EventDisconnected     EventType = "disconnected"
	EventMoveStarted      EventType = "move_started"
	EventMoveCompleted    EventType = "move_completed"
	EventMoveFailed       EventType = "move_failed"
	EventMoveStillRunning EventType = "move_still_running"
	EventFlightStarted    EventType = "flight_started"
	EventFlightCompleted  EventType = "flight_completed"
	EventFlightTimeout    EventType = "flight_timeout"
	EventFlightFailed     EventType = "flight_failed"
	EventBlockDug         EventType = "block_dug"
	EventBlockPlaced      EventType = "block_placed"
)

// Event is a notification about bot activity pushed to observers
type Event struct {
	ID       string    `json:"id"`
	Type     EventType `json:"type"`
	Username string    `json:"username,omitempty"`
	Message  string    `json:"message"`
	Position *bot.Vec3 `json:"position,omitempty"`
	Time     time.Time `json:"time"`
}

// NewEvent stamps an event with a fresh id and the current time
func NewEvent(typ EventType, username, message string, pos *bot.Vec3) Event {
	return Event{
		ID:       uuid.NewString(),
		Type:     typ,
		Username: username,
		Message:  message,
		Position: pos,
		Time:     time.Now().UTC(),
	}
}

// EventPublisher receives bot events. Publish must not block.
type EventPublisher interface {
	Publish(evt Event)
}

// EventPublisherFunc adapts a function to EventPublisher
type EventPublisherFunc func(evt Event)

// Publish calls f
func (f EventPublisherFunc) Publish(evt Event) { f(evt) }

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}

// NopPublisher discards every event
var NopPublisher EventPublisher = nopPublisher{}
