package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/pong3d/internal/core/observability/log"
	"github.com/zeusync/pong3d/internal/engine"
	"github.com/zeusync/pong3d/pkg/generic"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// frameBuffers recycles the encode buffers of the write loop.
var frameBuffers = generic.NewPool(
	func() *bytes.Buffer { return new(bytes.Buffer) },
	func(b *bytes.Buffer) { b.Reset() },
)

// movementKeys are released when the controller disconnects so no paddle
// keeps drifting.
var movementKeys = []engine.Key{
	engine.KeyPlayer1Up,
	engine.KeyPlayer1Down,
	engine.KeyPlayer2Up,
	engine.KeyPlayer2Down,
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Authorize(r); err != nil {
		s.logger.Warn("Controller rejected", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if !atomic.CompareAndSwapInt32(&s.controller, 0, 1) {
		http.Error(w, ErrControllerBusy.Error(), http.StatusConflict)
		return
	}
	defer atomic.StoreInt32(&s.controller, 0)

	if _, err := s.current(); err != nil {
		s.logger.Error("No session for controller", log.Error(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}
	conn.SetReadLimit(s.cfg.Server.MaxMessageSize)
	s.setConn(conn)

	if s.metrics != nil {
		s.metrics.Clients.Inc()
		defer s.metrics.Clients.Dec()
	}

	c := &controller{
		srv:    s,
		conn:   conn,
		logger: s.logger.With(log.String("remote_addr", conn.RemoteAddr().String())),
		outbox: make(chan ServerMessage, 8),
		done:   make(chan struct{}),
	}
	c.logger.Info("Controller connected")
	c.serve()
	c.logger.Info("Controller disconnected")

	s.setConn(nil)
	if sess := s.Session(); sess != nil {
		for _, k := range movementKeys {
			_ = sess.Input(string(k), false)
		}
		_ = sess.SetPaused(true)
	}
}

// controller is the single connected client. Only the write loop writes
// to conn.
type controller struct {
	srv    *Server
	conn   *websocket.Conn
	logger log.Log
	outbox chan ServerMessage
	done   chan struct{}
}

func (c *controller) serve() {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop()
	}()

	c.readLoop()
	close(c.done)
	wg.Wait()
	_ = c.conn.Close()
}

func (c *controller) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Controller read failed", log.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(ServerMessage{Type: MsgError, Error: ErrInvalidMessage.Error() + ": " + err.Error()})
			continue
		}

		c.logger.Debug("Handling message", log.String("type", msg.Type))
		quit, err := c.srv.dispatch(msg)
		if err != nil {
			c.logger.Debug("Message rejected", log.String("type", msg.Type), log.Error(err))
			c.reply(ServerMessage{Type: MsgError, Error: err.Error()})
			continue
		}
		if quit {
			return
		}
	}
}

// reply queues a message for the write loop. Replies are dropped when the
// client is not keeping up.
func (c *controller) reply(m ServerMessage) {
	select {
	case c.outbox <- m:
	default:
		c.logger.Warn("Outbox full, dropping reply", log.String("type", m.Type))
	}
}

func (c *controller) writeLoop() {
	ticker := time.NewTicker(c.srv.cfg.Server.BroadcastInterval())
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-c.srv.ctx.Done():
			// unblock the read loop
			_ = c.conn.Close()
			return
		case m := <-c.outbox:
			if err := c.writeJSON(m); err != nil {
				c.fail(err)
				return
			}
		case <-ticker.C:
			sess := c.srv.Session()
			if sess == nil {
				continue
			}
			f := sess.Frame()
			if err := c.writeJSON(ServerMessage{Type: MsgFrame, Frame: &f}); err != nil {
				c.fail(err)
				return
			}
		}
	}
}

func (c *controller) writeJSON(m ServerMessage) error {
	buf := frameBuffers.Get()
	defer frameBuffers.Put(buf)
	if err := json.NewEncoder(buf).Encode(m); err != nil {
		return err
	}
	return c.write(websocket.TextMessage, buf.Bytes())
}

func (c *controller) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.srv.cfg.Server.WriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func (c *controller) fail(err error) {
	if !errors.Is(err, websocket.ErrCloseSent) {
		c.logger.Warn("Controller write failed", log.Error(err))
	}
	_ = c.conn.Close()
}
