package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/minecraftremote/game/bot"
)

const (
	// Time allowed to write a message to the agent.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the agent.
	pongWait = 60 * time.Second

	// Send pings to the agent with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from the agent.
	maxMessageSize = 1 << 20

	// quitTimeout bounds the goodbye exchange in Quit
	quitTimeout = 2 * time.Second
)

// Session is a bot.Session whose calls are forwarded to a bot agent over a
// WebSocket connection
type Session struct {
	conn     *websocket.Conn
	logger   *zap.Logger
	username string
	version  string
	creative atomic.Bool

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Envelope

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

var _ bot.Session = (*Session)(nil)

// Dialer connects to a bot agent and asks it to join a server
type Dialer struct {
	url    string
	header http.Header
	ws     *websocket.Dialer
	logger *zap.Logger
}

var _ bot.Dialer = (*Dialer)(nil)

// NewDialer creates a dialer for the agent at url (ws:// or wss://)
func NewDialer(url string, logger *zap.Logger) *Dialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialer{
		url:    url,
		header: http.Header{},
		ws: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger.Named("bridge"),
	}
}

// Dial opens the agent link and performs the connect handshake. ctx bounds only
// the handshake; the session lives until Quit or the link drops.
func (d *Dialer) Dial(ctx context.Context, opts bot.ConnectOptions) (bot.Session, error) {
	conn, _, err := d.ws.DialContext(ctx, d.url, d.header)
	if err != nil {
		return nil, fmt.Errorf("failed to reach bot agent at %s: %w", d.url, err)
	}

	s := newSession(conn, d.logger.With(zap.String("username", opts.Username)))

	var res ConnectResult
	if err := s.call(ctx, MethodConnect, opts, &res); err != nil {
		s.shutdown(err)
		return nil, err
	}

	s.username = res.Username
	if s.username == "" {
		s.username = opts.Username
	}
	s.version = res.Version
	if s.version == "" {
		s.version = opts.Version
	}
	s.creative.Store(res.Creative)

	s.logger.Info("bot joined server", zap.String("addr", opts.Addr()), zap.String("version", s.version))
	return s, nil
}

func newSession(conn *websocket.Conn, logger *zap.Logger) *Session {
	s := &Session{
		conn:    conn,
		logger:  logger,
		pending: make(map[string]chan Envelope),
		done:    make(chan struct{}),
	}
	go s.readPump()
	go s.pingPump()
	return s
}

// readPump dispatches responses and events until the link fails
func (s *Session) readPump() {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("agent link closed unexpectedly", zap.Error(err))
			}
			s.shutdown(fmt.Errorf("%w: %v", bot.ErrSessionClosed, err))
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.logger.Warn("dropping message", zap.Error(errMalformed), zap.ByteString("data", data))
			continue
		}

		if env.Event != "" {
			s.handleEvent(env)
			continue
		}

		s.mu.Lock()
		ch, ok := s.pending[env.ID]
		delete(s.pending, env.ID)
		s.mu.Unlock()
		if !ok {
			// abandoned call
			continue
		}
		ch <- env
	}
}

func (s *Session) handleEvent(env Envelope) {
	switch env.Event {
	case EventEnd, EventKicked:
		var d EndData
		_ = json.Unmarshal(env.Data, &d)
		s.logger.Info("bot left server", zap.String("event", env.Event), zap.String("reason", d.Reason))
		s.shutdown(fmt.Errorf("%w: %s %s", bot.ErrSessionClosed, env.Event, d.Reason))
	case EventGameMode:
		var d GameModeData
		if err := json.Unmarshal(env.Data, &d); err == nil {
			s.creative.Store(d.Creative)
		}
	default:
		s.logger.Debug("ignoring agent event", zap.String("event", env.Event))
	}
}

// pingPump keeps the link alive
func (s *Session) pingPump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.writeMu.Unlock()
			if err != nil {
				s.shutdown(fmt.Errorf("%w: ping failed: %v", bot.ErrSessionClosed, err))
				return
			}
		case <-s.done:
			return
		}
	}
}

// shutdown ends the session once; pending and future calls fail
func (s *Session) shutdown(cause error) {
	s.closeOnce.Do(func() {
		s.closeErr = cause
		close(s.done)

		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		s.writeMu.Unlock()
		s.conn.Close()
	})
}

func (s *Session) err() error {
	if s.closeErr != nil {
		return s.closeErr
	}
	return bot.ErrSessionClosed
}

func (s *Session) write(req Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", req.Method, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// call sends method and waits for the matching response. A cancelled ctx
// abandons the call; its response is dropped when it arrives.
func (s *Session) call(ctx context.Context, method string, params any, out any) error {
	select {
	case <-s.done:
		return s.err()
	default:
	}

	id := uuid.NewString()
	ch := make(chan Envelope, 1)
	s.mu.Lock()
	s.pending[id] = ch
	s.mu.Unlock()

	abandon := func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}

	if err := s.write(Request{ID: id, Method: method, Params: params}); err != nil {
		abandon()
		s.shutdown(fmt.Errorf("%w: %v", bot.ErrSessionClosed, err))
		return s.err()
	}

	select {
	case env := <-ch:
		if env.Error != nil {
			return env.Error
		}
		if out == nil || len(env.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		abandon()
		return ctx.Err()
	case <-s.done:
		abandon()
		return s.err()
	}
}

// notify sends a request that expects no response
func (s *Session) notify(method string, params any) {
	select {
	case <-s.done:
		return
	default:
	}
	if err := s.write(Request{Method: method, Params: params}); err != nil {
		s.logger.Warn("notification failed", zap.String("method", method), zap.Error(err))
	}
}

func (s *Session) Username() string { return s.username }
func (s *Session) Version() string  { return s.version }

func (s *Session) Position(ctx context.Context) (bot.Vec3, error) {
	var pos bot.Vec3
	err := s.call(ctx, MethodPosition, nil, &pos)
	return pos, err
}

func (s *Session) BlockAt(ctx context.Context, pos bot.Vec3) (*bot.Block, error) {
	var b *bot.Block
	if err := s.call(ctx, MethodBlockAt, positionParams{Position: pos}, &b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Session) BlockType(ctx context.Context, name string) (*bot.BlockType, error) {
	var bt *bot.BlockType
	if err := s.call(ctx, MethodBlockType, nameParams{Name: name}, &bt); err != nil {
		return nil, err
	}
	return bt, nil
}

func (s *Session) FindBlock(ctx context.Context, typeID int, maxDistance float64) (*bot.Block, error) {
	var b *bot.Block
	if err := s.call(ctx, MethodFindBlock, findBlockParams{Type: typeID, MaxDistance: maxDistance}, &b); err != nil {
		return nil, err
	}
	return b, nil
}

// CanDig reports false when the agent cannot answer
func (s *Session) CanDig(ctx context.Context, block *bot.Block) bool {
	if block == nil {
		return false
	}
	var ok bool
	if err := s.call(ctx, MethodCanDig, positionParams{Position: block.Position}, &ok); err != nil {
		s.logger.Debug("canDig failed", zap.Error(err))
		return false
	}
	return ok
}

// CanSee reports false when the agent cannot answer
func (s *Session) CanSee(ctx context.Context, block *bot.Block) bool {
	if block == nil {
		return false
	}
	var ok bool
	if err := s.call(ctx, MethodCanSee, positionParams{Position: block.Position}, &ok); err != nil {
		s.logger.Debug("canSee failed", zap.Error(err))
		return false
	}
	return ok
}

func (s *Session) Items(ctx context.Context) ([]bot.Item, error) {
	var items []bot.Item
	if err := s.call(ctx, MethodItems, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Session) Equip(ctx context.Context, item bot.Item, destination string) error {
	return s.call(ctx, MethodEquip, equipParams{Item: item, Destination: destination}, nil)
}

func (s *Session) PlaceBlock(ctx context.Context, reference *bot.Block, face bot.Vec3) error {
	if reference == nil {
		return errors.New("no reference block")
	}
	return s.call(ctx, MethodPlaceBlock, placeParams{Reference: reference.Position, Face: face}, nil)
}

func (s *Session) Dig(ctx context.Context, block *bot.Block) error {
	if block == nil {
		return errors.New("no block to dig")
	}
	return s.call(ctx, MethodDig, positionParams{Position: block.Position}, nil)
}

// Goto asks the agent's pathfinder to reach goal. Cancelling ctx also tells
// the agent to stop pathing.
func (s *Session) Goto(ctx context.Context, goal bot.Goal) error {
	err := s.call(ctx, MethodGoto, gotoParams{Goal: goal}, nil)
	if ctx.Err() != nil {
		s.notify(MethodStopPathing, nil)
	}
	return err
}

func (s *Session) Creative() bool {
	return s.creative.Load()
}

// FlyTo asks the agent to fly to dest. Cancelling ctx also stops the flight.
func (s *Session) FlyTo(ctx context.Context, dest bot.Vec3) error {
	if !s.Creative() {
		return bot.ErrNotCreative
	}
	err := s.call(ctx, MethodFlyTo, flyParams{Destination: dest}, nil)
	if ctx.Err() != nil {
		s.StopFlying()
	}
	return err
}

func (s *Session) StopFlying() {
	s.notify(MethodStopFlying, nil)
}

// Quit asks the agent to leave the server and closes the link
func (s *Session) Quit(reason string) error {
	select {
	case <-s.done:
		return nil
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), quitTimeout)
	defer cancel()
	err := s.call(ctx, MethodQuit, quitParams{Reason: reason}, nil)
	s.shutdown(fmt.Errorf("%w: quit: %s", bot.ErrSessionClosed, reason))
	if err != nil && !errors.Is(err, bot.ErrSessionClosed) {
		return err
	}
	return nil
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}
