package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/pong3d/internal/config"
	"github.com/zeusync/pong3d/internal/core/observability/log"
	"github.com/zeusync/pong3d/internal/core/observability/metrics"
	"github.com/zeusync/pong3d/internal/match"
	"github.com/zeusync/pong3d/internal/overlay"
	"github.com/zeusync/pong3d/internal/session"
)

// Server hosts one match at a time for a single controlling client. The
// client sends input over /ws and receives frames at the broadcast rate.
type Server struct {
	cfg     config.Config
	base    log.Log
	logger  log.Log
	metrics *metrics.Collector
	auth    *TokenAuth

	httpServer *http.Server
	listener   net.Listener

	// ctx lives until Stop or Close and bounds every session.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	session *session.Session
	match   match.Config
	conn    *websocket.Conn

	controller int32 // atomic bool
	running    int32 // atomic bool
	closed     int32 // atomic bool

	workerGroup sync.WaitGroup
}

func NewServer(cfg config.Config, logger log.Log, m *metrics.Collector) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		base:    logger,
		logger:  logger.With(log.Component("server")),
		metrics: m,
		auth:    NewTokenAuth(cfg.Server.Token),
		ctx:     ctx,
		cancel:  cancel,
		match:   cfg.Match,
	}

	s.logger.Info("Server created",
		log.String("listen_addr", cfg.Server.ListenAddr),
		log.Int("broadcast_rate", cfg.Server.BroadcastRate))

	return s
}

// Start listens on the configured address, creates the first session and
// serves HTTP in the background.
func (s *Server) Start(ctx context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	s.logger.Info("Starting server")

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	s.listener = ln

	if _, err := s.current(); err != nil {
		atomic.StoreInt32(&s.running, 0)
		_ = ln.Close()
		return err
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.workerGroup.Add(1)
	go func() {
		defer s.workerGroup.Done()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Run starts the server and blocks until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Stop(shutdownCtx)
}

// Stop drains HTTP, drops the controller and closes the session.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")

	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, s.release())
	s.workerGroup.Wait()

	s.logger.Info("Server stopped")
	return errors.Join(errs...)
}

// Close releases everything. It is safe to call without Start.
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil // Already closed
	}

	s.logger.Info("Closing server")

	if atomic.LoadInt32(&s.running) == 1 {
		return s.Stop(context.Background())
	}
	return s.release()
}

func (s *Server) release() error {
	s.cancel()

	s.mu.Lock()
	sess, conn := s.session, s.conn
	s.session = nil
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if sess != nil {
		return sess.Close()
	}
	return nil
}

// Addr is the bound address once started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Session returns the running session, or nil between matches.
func (s *Server) Session() *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// current returns the running session, creating one when there is none.
func (s *Server) current() (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return s.session, nil
	}
	return s.startSessionLocked(s.match)
}

// restart replaces the session with a fresh one for m.
func (s *Server) restart(m match.Config) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old := s.session; old != nil {
		s.session = nil
		if err := old.Close(); err != nil {
			s.logger.Warn("Session close failed", log.String("session_id", old.ID()), log.Error(err))
		}
	}
	return s.startSessionLocked(m)
}

func (s *Server) endSession() error {
	s.mu.Lock()
	old := s.session
	s.session = nil
	s.mu.Unlock()
	if old == nil {
		return nil
	}
	return old.Close()
}

func (s *Server) startSessionLocked(m match.Config) (*session.Session, error) {
	if s.ctx.Err() != nil {
		return nil, ErrServerClosed
	}
	cfg := s.cfg
	cfg.Match = m
	sess, err := session.New(cfg, session.WithLogger(s.base), session.WithMetrics(s.metrics))
	if err != nil {
		return nil, err
	}
	if err := sess.Start(s.ctx); err != nil {
		_ = sess.Close()
		return nil, err
	}
	s.session = sess
	s.match = m
	s.logger.Info("Match started", log.String("session_id", sess.ID()))
	return sess, nil
}

// dispatch applies one client message. quit reports that the client asked
// to leave the match.
func (s *Server) dispatch(msg ClientMessage) (quit bool, err error) {
	sess, err := s.current()
	if err != nil {
		return false, err
	}

	switch msg.Type {
	case MsgKey:
		return false, sess.Input(msg.Key, msg.Down)
	case MsgPause:
		return false, sess.TogglePause()
	case MsgResetCamera:
		sess.ResetCamera(msg.Token)
		return false, nil
	case MsgOrbit:
		sess.Camera().Orbit(msg.Alpha, msg.Beta, msg.Radius)
		return false, nil
	case MsgRestart:
		_, err := s.restart(s.currentMatch())
		return false, err
	case MsgConfigure:
		if msg.Match == nil {
			return false, fmt.Errorf("%w: configure without match", ErrInvalidMessage)
		}
		m := *msg.Match
		style, err := match.ParseMapStyle(string(m.MapStyle))
		if err != nil {
			return false, err
		}
		m.MapStyle = style
		if err := m.ValidateDistinct(); err != nil {
			return false, err
		}
		_, err = s.restart(m)
		return false, err
	case MsgPress:
		act, err := sess.Press(msg.Action)
		if err != nil {
			return false, err
		}
		switch act {
		case overlay.ActionRestart:
			_, err := s.restart(s.currentMatch())
			return false, err
		case overlay.ActionQuit:
			return true, s.endSession()
		}
		return false, nil
	}
	return false, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, msg.Type)
}

func (s *Server) currentMatch() match.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match
}

func (s *Server) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}
