package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/pong3d/internal/config"
	"github.com/zeusync/pong3d/internal/core/events/bus"
	"github.com/zeusync/pong3d/internal/core/observability/log"
	"github.com/zeusync/pong3d/internal/core/observability/metrics"
	"github.com/zeusync/pong3d/internal/engine"
	"github.com/zeusync/pong3d/internal/overlay"
	"github.com/zeusync/pong3d/internal/scene"
)

// Session is one match: the scene, the engine driving it, the overlay
// presenter and the loops that keep them moving.
type Session struct {
	id  string
	cfg config.Config

	scene     *scene.Scene
	engine    *engine.Engine
	presenter *overlay.Presenter
	cues      *scene.CueQueue
	bus       bus.EventBus
	watcher   *scene.ResetWatcher
	bridge    *metricsBridge

	logger  log.Log
	metrics *metrics.Collector

	mu      sync.Mutex
	cancel  context.CancelFunc
	group   *errgroup.Group
	running int32 // atomic bool
	closed  int32 // atomic bool
}

type options struct {
	id      string
	logger  log.Log
	metrics *metrics.Collector
}

type Option func(*options)

// WithID fixes the session id. By default a random uuid is used.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

func WithLogger(l log.Log) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}

// New builds the scene and wires the engine to it. Nothing runs until
// Start.
func New(cfg config.Config, opts ...Option) (*Session, error) {
	o := options{logger: log.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	resolved, err := cfg.Match.Resolve()
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	tagged := o.logger.WithContext(log.ContextWithSession(context.Background(), o.id))
	logger := tagged.With(log.Component("session"))
	cues := scene.NewCueQueue(64)
	sc, err := scene.Build(cfg.Match,
		scene.WithLogger(tagged),
		scene.WithSoundLoader(cues),
		scene.WithHitSounds(HitSounds(cfg.Engine.HitSounds)))
	if err != nil {
		return nil, err
	}

	b := bus.New()
	seed := cfg.Engine.Seed
	if seed == 0 {
		seed = int64(xxhash.Sum64String(o.id))
	}

	eng, err := engine.New(engine.Entities{
		Paddle1: sc.Paddle1,
		Paddle2: sc.Paddle2,
		Ball:    sc.Ball,
		Mini:    sc.Mini,
	}, engine.Options{
		Physics: cfg.Physics,
		Match:   resolved,
		Rand:    rand.New(rand.NewSource(seed)),
		Sounds:  sc.Sounds,
		Bus:     b,
		Logger:  tagged,
		Source:  o.id,
	})
	if err != nil {
		_ = sc.Dispose()
		return nil, err
	}

	s := &Session{
		id:      o.id,
		cfg:     cfg,
		scene:   sc,
		engine:  eng,
		cues:    cues,
		bus:     b,
		watcher: scene.NewResetWatcher(sc.Camera, 0),
		logger:  logger,
		metrics: o.metrics,
	}

	if o.metrics != nil {
		s.bridge, err = newMetricsBridge(b, o.metrics, resolved.Style)
		if err != nil {
			s.teardown()
			return nil, err
		}
	}
	s.presenter, err = overlay.NewPresenter(b, eng, tagged)
	if err != nil {
		s.teardown()
		return nil, err
	}

	logger.Info("Session created",
		log.String("style", string(resolved.Style)),
		log.Int64("seed", seed))
	return s, nil
}

// HitSounds lists n hit sound slots.
func HitSounds(n int) []scene.SoundSpec {
	specs := make([]scene.SoundSpec, n)
	for i := range specs {
		specs[i] = scene.SoundSpec{
			Name:   fmt.Sprintf("hit%d", i+1),
			URL:    fmt.Sprintf("/sounds/pong-%d.mp3", i+1),
			Volume: 0.5,
		}
	}
	return specs
}

func (s *Session) ID() string { return s.id }

// Start begins the match and runs the frame loop and countdown scheduler
// until ctx is done or Close is called.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrSessionClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.engine.RunCountdown(gctx, s.cfg.Engine.CountdownInterval)
	})
	g.Go(func() error {
		return s.engine.Run(gctx, s.cfg.Engine.TickInterval(), s.observeTick)
	})
	s.cancel, s.group = cancel, g

	if err := s.engine.Start(); err != nil {
		cancel()
		_ = g.Wait()
		s.cancel, s.group = nil, nil
		atomic.StoreInt32(&s.running, 0)
		return err
	}
	if s.metrics != nil {
		s.metrics.Sessions.Inc()
	}
	s.logger.Info("Session started",
		log.Duration("tick_interval", s.cfg.Engine.TickInterval()),
		log.Duration("countdown_interval", s.cfg.Engine.CountdownInterval))
	return nil
}

func (s *Session) observeTick(d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.Ticks.Inc()
	s.metrics.TickDurations.Observe(d.Seconds())
}

// Wait blocks until the loops exit.
func (s *Session) Wait() error {
	s.mu.Lock()
	g := s.group
	s.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Wait()
}

// Input forwards a key event from the host.
func (s *Session) Input(key string, down bool) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrSessionClosed
	}
	k := engine.ParseKey(key)
	if down {
		s.engine.KeyDown(k)
	} else {
		s.engine.KeyUp(k)
	}
	return nil
}

func (s *Session) TogglePause() error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrSessionClosed
	}
	s.engine.TogglePause()
	return nil
}

// SetPaused pauses or resumes a running rally. The host pauses when the
// controller goes away.
func (s *Session) SetPaused(paused bool) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrSessionClosed
	}
	return s.presenter.SetPaused(paused)
}

// Press handles an overlay button. Restart and quit are returned for the
// host to act on.
func (s *Session) Press(a overlay.Action) (overlay.Action, error) {
	if atomic.LoadInt32(&s.closed) == 1 {
		return "", ErrSessionClosed
	}
	return s.presenter.Press(a)
}

// ResetCamera re-centers the camera when token differs from the last one
// seen. It never touches the simulation.
func (s *Session) ResetCamera(token uint64) bool {
	return s.watcher.Observe(token)
}

func (s *Session) Camera() *scene.Camera { return s.scene.Camera }

func (s *Session) Snapshot() engine.Snapshot { return s.engine.Snapshot() }

func (s *Session) View() overlay.View { return s.presenter.View() }

// Frame is what the host renderer needs to draw one frame.
type Frame struct {
	SessionID  string           `json:"session_id"`
	Style      string           `json:"style"`
	Soundtrack string           `json:"soundtrack"`
	View       overlay.View     `json:"view"`
	State      engine.Snapshot  `json:"state"`
	Nodes      []scene.Node     `json:"nodes"`
	Lights     []scene.Light    `json:"lights"`
	Glow       *scene.GlowLayer `json:"glow,omitempty"`
	Camera     scene.Pose       `json:"camera"`
	Eye        mgl64.Vec3       `json:"eye"`
	Cues       []scene.Cue      `json:"cues,omitempty"`
}

// Frame snapshots the scene and drains pending sound cues.
func (s *Session) Frame() Frame {
	pose := s.scene.Camera.Pose()
	return Frame{
		SessionID:  s.id,
		Style:      string(s.scene.Style),
		Soundtrack: s.scene.Soundtrack,
		View:       s.presenter.View(),
		State:      s.engine.Snapshot(),
		Nodes:      s.scene.Nodes(),
		Lights:     s.scene.Lights,
		Glow:       s.scene.Glow,
		Camera:     pose,
		Eye:        pose.Eye(),
		Cues:       s.cues.Drain(),
	}
}

// Close stops the frame loop and countdown scheduler, drops every event
// subscription and then disposes the scene. It is idempotent.
func (s *Session) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}

	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	var errs []error
	if cancel != nil {
		cancel()
		if err := s.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
		if s.metrics != nil {
			s.metrics.Sessions.Dec()
		}
	}
	errs = append(errs, s.teardown())
	s.logger.Info("Session closed", log.Any("score", s.engine.Snapshot().Score))
	return errors.Join(errs...)
}

func (s *Session) teardown() error {
	var errs []error
	if s.presenter != nil {
		errs = append(errs, s.presenter.Close())
	}
	if s.bridge != nil {
		errs = append(errs, s.bridge.Close())
	}
	errs = append(errs, s.bus.Close(), s.scene.Dispose())
	return errors.Join(errs...)
}
