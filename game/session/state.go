package session

import (
	"sync"
	"time"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
)

// ConnectionInfo describes the server the bot is (or was last) connected to
type ConnectionInfo struct {
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	Version  string `json:"version,omitempty"`
}

// InfoUpdate is a partial ConnectionInfo. Nil fields are left unchanged.
type InfoUpdate struct {
	Host     *string
	Port     *int
	Username *string
	Version  *string
}

// InfoFromOptions builds a full update from dial options
func InfoFromOptions(opts bot.ConnectOptions) *InfoUpdate {
	return &InfoUpdate{
		Host:     &opts.Host,
		Port:     &opts.Port,
		Username: &opts.Username,
		Version:  &opts.Version,
	}
}

// Snapshot is a point-in-time copy of the connection state
type Snapshot struct {
	Connected   bool           `json:"connected"`
	Info        ConnectionInfo `json:"info"`
	ConnectedAt time.Time      `json:"connected_at,omitzero"`
}

// State holds the single active bot connection.
//
// One State is created at startup and injected into every component that needs
// it. Tool calls run concurrently, so all access goes through the lock and the
// last Update wins.
type State struct {
	mu          sync.RWMutex
	connected   bool
	session     bot.Session
	info        ConnectionInfo
	connectedAt time.Time
	now         func() time.Time
}

// NewState creates a disconnected state
func NewState() *State {
	return &State{now: time.Now}
}

// Update sets the connected flag and session handle and merges the non-nil
// fields of info. Applying the same update twice leaves the same state.
func (s *State) Update(connected bool, sess bot.Session, info *InfoUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connected && sess != nil && (sess != s.session || !s.connected) {
		s.connectedAt = s.now()
	}
	if !connected {
		s.connectedAt = time.Time{}
	}

	s.connected = connected
	s.session = sess

	if info == nil {
		return
	}
	if info.Host != nil {
		s.info.Host = *info.Host
	}
	if info.Port != nil {
		s.info.Port = *info.Port
	}
	if info.Username != nil {
		s.info.Username = *info.Username
	}
	if info.Version != nil {
		s.info.Version = *info.Version
	}
}

// Session returns the current handle and whether it can be used
func (s *State) Session() (bot.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected || s.session == nil {
		return nil, false
	}
	return s.session, true
}

// Connected reports whether a usable session is held
func (s *State) Connected() bool {
	_, ok := s.Session()
	return ok
}

// Snapshot returns a copy for reporting
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Connected:   s.connected && s.session != nil,
		Info:        s.info,
		ConnectedAt: s.connectedAt,
	}
}

// ClearIf marks the state disconnected only if sess is still the current
// handle. Connection info is kept. Reports whether anything changed.
func (s *State) ClearIf(sess bot.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess == nil || s.session != sess {
		return false
	}
	s.connected = false
	s.session = nil
	s.connectedAt = time.Time{}
	return true
}
