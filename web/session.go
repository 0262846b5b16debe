package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"galaxygenerator/config"
	"galaxygenerator/core"
	"galaxygenerator/gpu"
	"galaxygenerator/panel"
)

// Message types exchanged with the browser
const (
	MessageCommit  = "commit"
	MessageAttach  = "attach"
	MessageDetach  = "detach"
	MessageRelease = "release"
	MessageError   = "error"
)

// ClientMessage is sent by the browser. Params may name only some fields;
// the rest keep their current values.
type ClientMessage struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ServerMessage is sent to the browser. An attach message is followed by
// one binary frame of Count*Stride bytes of interleaved float32 vertices.
type ServerMessage struct {
	Type   string             `json:"type"`
	ID     uint64             `json:"id,omitempty"`
	Count  int                `json:"count,omitempty"`
	Size   float64            `json:"size,omitempty"`
	Stride int                `json:"stride,omitempty"`
	Params *core.ParameterSet `json:"params,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// remoteCloud is a point cloud living in the browser.
type remoteCloud struct {
	id       uint64
	session  *session
	params   core.ParameterSet
	vertices []byte
	count    int

	once sync.Once
}

func (c *remoteCloud) Release() {
	c.once.Do(func() {
		c.vertices = nil
		c.session.send(ServerMessage{Type: MessageRelease, ID: c.id})
	})
}

// session is one browser connection. It is the Allocator and Scene of its
// own BufferManager.
type session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool

	nextID  uint64
	limiter *rate.Limiter
	manager *core.BufferManager
	panel   *panel.Panel
	logger  *slog.Logger
}

func newSession(conn *websocket.Conn, galaxy config.GalaxySettings, settings config.ServerSettings, logger *slog.Logger) *session {
	s := &session{
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(settings.CommitsPerSecond), settings.CommitBurst),
		logger:  logger.With("component", "web_session"),
	}
	generator := core.NewGenerator(core.NewSeededSource(galaxy.Seed), logger)
	s.manager = core.NewBufferManager(generator, s, s, logger)
	s.panel = panel.New(galaxy.Parameters, s.regenerate, logger)
	return s
}

// run sends the initial galaxy and serves commits until the client leaves.
func (s *session) run() {
	s.logger.Info("Client connected", "operation", "connect")
	defer func() {
		s.manager.Close()
		s.markClosed()
		s.logger.Info("Client disconnected", "operation", "disconnect")
	}()

	s.regenerate(s.panel.Params())

	for {
		var msg ClientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket read error", "operation", "read", "error", err)
			}
			return
		}
		s.handle(msg)
	}
}

func (s *session) handle(msg ClientMessage) {
	switch msg.Type {
	case MessageCommit:
		if !s.limiter.Allow() {
			s.sendError(errors.New("commit rate limit exceeded"))
			return
		}
		params := s.panel.Params()
		if len(msg.Params) > 0 {
			if err := json.Unmarshal(msg.Params, &params); err != nil {
				s.sendError(fmt.Errorf("invalid params: %w", err))
				return
			}
		}
		s.panel.Commit(params)
	default:
		s.sendError(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

// regenerate is the panel's commit callback. Failures are reported to the
// client and the session carries on.
func (s *session) regenerate(params core.ParameterSet) {
	if err := s.manager.Regenerate(params); err != nil {
		s.logger.Error("Regeneration failed", "operation", "regenerate", "error", err)
		s.sendError(err)
	}
}

// Allocate packs the buffers for the wire. Nothing is sent until Attach.
func (s *session) Allocate(buffers core.GalaxyBuffers, params core.ParameterSet) (core.Renderable, error) {
	if s.isClosed() {
		return nil, errors.New("connection closed")
	}
	points, err := gpu.NewPointBuffers(buffers, params.Size)
	if err != nil {
		return nil, err
	}
	s.nextID++
	return &remoteCloud{
		id:       s.nextID,
		session:  s,
		params:   params,
		vertices: points.Bytes(),
		count:    points.Count(),
	}, nil
}

func (s *session) Attach(r core.Renderable) {
	cloud, ok := r.(*remoteCloud)
	if !ok {
		s.logger.Error("Refusing foreign renderable", "operation", "attach", "type", fmt.Sprintf("%T", r))
		return
	}
	params := cloud.params
	header := ServerMessage{
		Type:   MessageAttach,
		ID:     cloud.id,
		Count:  cloud.count,
		Size:   params.Size,
		Stride: gpu.Stride,
		Params: &params,
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return
	}
	// A failed write means the client is gone. The manager still owns the
	// cloud; later allocations are refused and Close releases it.
	if err := s.conn.WriteJSON(header); err != nil {
		s.logger.Error("WebSocket write error", "operation", "attach", "error", err)
		s.closed = true
		return
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, cloud.vertices); err != nil {
		s.logger.Error("WebSocket write error", "operation", "attach", "error", err)
		s.closed = true
	}
}

func (s *session) Detach(r core.Renderable) {
	if cloud, ok := r.(*remoteCloud); ok {
		s.send(ServerMessage{Type: MessageDetach, ID: cloud.id})
	}
}

// sendError reports err along with the panel's working set, so the client
// can put its controls back in step with what the server holds.
func (s *session) sendError(err error) {
	params := s.panel.Params()
	s.send(ServerMessage{Type: MessageError, Error: err.Error(), Params: &params})
}

func (s *session) send(msg ServerMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug("WebSocket write error", "operation", msg.Type, "error", err)
		s.closed = true
	}
}

func (s *session) markClosed() {
	s.writeMu.Lock()
	s.closed = true
	s.writeMu.Unlock()
}

func (s *session) isClosed() bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.closed
}
