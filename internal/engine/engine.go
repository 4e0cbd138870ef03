package engine

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/pong3d/internal/core/events/bus"
	"github.com/zeusync/pong3d/internal/core/observability/log"
	"github.com/zeusync/pong3d/internal/match"
)

// Entity is a movable scene handle.
type Entity interface {
	Position() mgl64.Vec3
	SetPosition(mgl64.Vec3)
}

// Colorable is an entity whose material color can change.
type Colorable interface {
	Entity
	Color() match.Color
	SetColor(match.Color)
}

//go:generate mockgen -destination=mock_engine/mock_sound.go -package=mock_engine . SoundPlayer

// SoundPlayer plays collision sounds by index. Errors are cosmetic.
type SoundPlayer interface {
	Count() int
	Play(index int) error
}

type Entities struct {
	Paddle1 Entity
	Paddle2 Entity
	Ball    Colorable
	Mini    Entity
}

type Options struct {
	Physics Physics
	Match   match.Resolved
	// Rand drives serve angles, the first server and sound choice. It is
	// only used under the engine lock.
	Rand   *rand.Rand
	Sounds SoundPlayer
	Bus    bus.EventBus
	Logger log.Log
	// Source tags published events, usually the session id.
	Source string
}

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseServing
	PhaseRallying
	PhasePaused
	PhaseFinished
	PhaseHalted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseServing:
		return "serving"
	case PhaseRallying:
		return "rallying"
	case PhasePaused:
		return "paused"
	case PhaseFinished:
		return "finished"
	case PhaseHalted:
		return "halted"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Engine owns the simulation state. Every read and write, from the frame
// loop, the countdown scheduler or input, goes through mu. Events are
// queued under the lock and published after it is released, so handlers
// may call back into the engine.
type Engine struct {
	mu sync.Mutex

	phys   Physics
	colors match.Resolved
	ents   Entities
	sounds SoundPlayer
	rng    *rand.Rand
	bus    bus.EventBus
	logger log.Log
	source string

	phase       Phase
	ballPos     mgl64.Vec3
	ballVel     mgl64.Vec3
	speed       float64
	score       Score
	winner      match.Side
	paused      bool
	countdown   int
	serveToward match.Side
	keys        map[Key]struct{}
	miniDir     float64
	ticks       uint64
	haltErr     error

	pending        []bus.Event
	countdownReset chan struct{}
}

func New(ents Entities, opts Options) (*Engine, error) {
	if ents.Paddle1 == nil || ents.Paddle2 == nil || ents.Ball == nil || ents.Mini == nil {
		return nil, ErrMissingEntity
	}
	if opts.Physics == (Physics{}) {
		opts.Physics = DefaultPhysics()
	}
	if err := opts.Physics.Validate(); err != nil {
		return nil, err
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNop()
	}

	e := &Engine{
		phys:           opts.Physics,
		colors:         opts.Match,
		ents:           ents,
		sounds:         opts.Sounds,
		rng:            opts.Rand,
		bus:            opts.Bus,
		logger:         opts.Logger.With(log.Component("engine")),
		source:         opts.Source,
		speed:          opts.Physics.BaseSpeed,
		keys:           make(map[Key]struct{}, 4),
		miniDir:        1,
		countdownReset: make(chan struct{}, 1),
	}
	e.ballPos = ents.Ball.Position()
	return e, nil
}

// Start enters Serving with the initial countdown. The first serve goes
// toward a random side.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.phase != PhaseIdle {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.serveToward = match.Player1
	if e.rng.Float64() > 0.5 {
		e.serveToward = match.Player2
	}
	e.beginCountdown(e.phys.InitialCountdown)
	e.logger.Info("Match started",
		log.Stringer("first_serve_toward", e.serveToward),
		log.Int("countdown", e.countdown))
	events := e.drain()
	e.mu.Unlock()

	e.publish(events)
	return nil
}

// Tick advances one fixed step. It is a no-op unless rallying. A panic
// inside the step halts the engine; ErrHalted is returned from then on.
func (e *Engine) Tick() error {
	e.mu.Lock()
	err := e.step()
	events := e.drain()
	e.mu.Unlock()

	e.publish(events)
	return err
}

func (e *Engine) step() (err error) {
	switch e.phase {
	case PhaseRallying:
	case PhaseHalted:
		return fmt.Errorf("%w: %w", ErrHalted, e.haltErr)
	default:
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = e.halt(fmt.Errorf("%w: %v", ErrTickPanic, r))
		}
	}()

	e.ticks++
	e.movePaddles()
	e.moveMini()

	e.ballPos = e.ballPos.Add(e.ballVel)
	e.ents.Ball.SetPosition(e.ballPos)

	e.resolveCollisions()
	e.checkScoring()
	return nil
}

func (e *Engine) movePaddles() {
	step := e.phys.PaddleStep
	if e.held(KeyPlayer1Up) {
		e.nudge(e.ents.Paddle1, -step)
	}
	if e.held(KeyPlayer1Down) {
		e.nudge(e.ents.Paddle1, step)
	}
	if e.held(KeyPlayer2Up) {
		e.nudge(e.ents.Paddle2, -step)
	}
	if e.held(KeyPlayer2Down) {
		e.nudge(e.ents.Paddle2, step)
	}
}

func (e *Engine) nudge(paddle Entity, dx float64) {
	pos := paddle.Position()
	pos[0] = mgl64.Clamp(pos[0]+dx, -e.phys.PaddleLimit, e.phys.PaddleLimit)
	paddle.SetPosition(pos)
}

// moveMini ping-pongs the obstacle between its lateral limits.
func (e *Engine) moveMini() {
	pos := e.ents.Mini.Position()
	pos[0] += e.phys.MiniSpeed * e.miniDir
	if pos[0] > e.phys.MiniLimit {
		pos[0] = e.phys.MiniLimit
		e.miniDir = -1
	} else if pos[0] < -e.phys.MiniLimit {
		pos[0] = -e.phys.MiniLimit
		e.miniDir = 1
	}
	e.ents.Mini.SetPosition(pos)
}

// resolveCollisions checks wall, paddle1, paddle2 and mini in that order.
// Every matching branch applies, so two hits in one tick compound.
func (e *Engine) resolveCollisions() {
	p := e.phys
	x, z := e.ballPos.X(), e.ballPos.Z()

	if math.Abs(x) > p.WallX {
		e.redirect(mgl64.Vec3{-e.ballVel.X(), 0, e.ballVel.Z()}, HitWall)
	}

	p1 := e.ents.Paddle1.Position()
	if z < -p.PaddleZ && math.Abs(x-p1.X()) < p.PaddleHalfWidth {
		angle := (x - p1.X()) / p.PaddleHalfWidth * p.MaxBounceAngle
		e.redirect(mgl64.Vec3{math.Sin(angle), 0, math.Cos(angle)}, HitPaddle1)
		e.recolor(e.colors.Paddle1)
	}

	p2 := e.ents.Paddle2.Position()
	if z > p.PaddleZ && math.Abs(x-p2.X()) < p.PaddleHalfWidth {
		angle := (x - p2.X()) / p.PaddleHalfWidth * p.MaxBounceAngle
		e.redirect(mgl64.Vec3{math.Sin(angle), 0, -math.Cos(angle)}, HitPaddle2)
		e.recolor(e.colors.Paddle2)
	}

	m := e.ents.Mini.Position()
	if math.Abs(z-m.Z()) < p.MiniHalfDepth && math.Abs(x-m.X()) < p.MiniHalfWidth {
		angle := (x - m.X()) / p.MiniHalfWidth * p.MiniBounceAngle
		dz := math.Cos(angle)
		if e.ballVel.Z() > 0 {
			dz = -dz
		}
		e.redirect(mgl64.Vec3{math.Sin(angle), 0, dz}, HitMini)
	}
}

func (e *Engine) redirect(dir mgl64.Vec3, kind HitKind) {
	if dir.Len() == 0 {
		return
	}
	e.speed *= e.phys.SpeedIncrement
	if e.phys.MaxSpeed > 0 && e.speed > e.phys.MaxSpeed {
		e.speed = e.phys.MaxSpeed
	}
	e.ballVel = dir.Normalize().Mul(e.speed)
	e.playHit()
	e.emit(EventCollision, Collision{Kind: kind, Speed: e.speed})
}

// recolor tints the ball with the hitting paddle's color. The neon map
// keeps the ball neutral.
func (e *Engine) recolor(c match.Color) {
	if e.colors.Style == match.StyleNeon {
		return
	}
	e.ents.Ball.SetColor(c)
}

func (e *Engine) playHit() {
	if e.sounds == nil {
		return
	}
	n := e.sounds.Count()
	if n == 0 {
		return
	}
	if err := e.sounds.Play(e.rng.Intn(n)); err != nil {
		e.logger.Debug("Hit sound failed", log.Error(err))
	}
}

func (e *Engine) checkScoring() {
	z := e.ballPos.Z()
	if z < -e.phys.GoalZ {
		e.award(match.Player2)
	}
	if z > e.phys.GoalZ {
		e.award(match.Player1)
	}
}

func (e *Engine) award(side match.Side) {
	if e.winner != match.NoSide {
		return
	}
	switch side {
	case match.Player1:
		e.score.Player1++
	case match.Player2:
		e.score.Player2++
	}
	e.emit(EventScore, e.score)
	e.logger.Info("Point scored",
		log.Stringer("side", side),
		log.Int("player1", e.score.Player1),
		log.Int("player2", e.score.Player2),
		log.Float64("rally_speed", e.speed))

	if e.score.Of(side) >= e.phys.WinScore {
		e.winner = side
		e.phase = PhaseFinished
		clear(e.keys)
		e.emit(EventWinner, side)
		e.logger.Info("Match finished", log.Stringer("winner", side), log.Uint64("ticks", e.ticks))
		return
	}
	e.resetBall(side.Opponent())
}

// resetBall freezes the ball at the center and schedules a serve away from
// the side that conceded.
func (e *Engine) resetBall(loser match.Side) {
	e.ballPos = mgl64.Vec3{}
	e.ballVel = mgl64.Vec3{}
	e.ents.Ball.SetPosition(e.ballPos)
	e.serveToward = loser.Opponent()
	e.beginCountdown(e.phys.PointCountdown)
}

func (e *Engine) beginCountdown(n int) {
	e.phase = PhaseServing
	e.countdown = n
	if !e.paused {
		e.paused = true
		e.emit(EventPaused, true)
	}
	e.emit(EventCountdown, n)
	select {
	case e.countdownReset <- struct{}{}:
	default:
	}
}

// StepCountdown advances the serve countdown by one step. When it reaches
// zero the ball is served and the rally starts.
func (e *Engine) StepCountdown() {
	e.mu.Lock()
	e.stepCountdown()
	events := e.drain()
	e.mu.Unlock()

	e.publish(events)
}

func (e *Engine) stepCountdown() {
	if e.phase != PhaseServing || e.countdown == 0 {
		return
	}
	e.countdown--
	if e.countdown > 0 {
		e.emit(EventCountdown, e.countdown)
		return
	}
	e.emit(EventCountdown, 0)
	e.paused = false
	e.phase = PhaseRallying
	e.emit(EventPaused, false)
	e.serve(e.serveToward)
}

func (e *Engine) serve(toward match.Side) {
	e.speed = e.phys.BaseSpeed
	angle := (e.rng.Float64()*2 - 1) * e.phys.ServeAngle
	sign := 1.0
	if toward == match.Player1 {
		sign = -1
	}
	e.ballVel = mgl64.Vec3{math.Sin(angle) * e.speed, 0, math.Cos(angle) * e.speed * sign}
	e.emit(EventServe, Serve{Toward: toward, Angle: angle, Speed: e.speed})
}

func (e *Engine) halt(cause error) error {
	e.phase = PhaseHalted
	e.paused = true
	e.countdown = 0
	e.haltErr = cause
	clear(e.keys)
	e.emit(EventHalted, cause)
	e.logger.Error("Simulation halted", log.Error(cause), log.Uint64("tick", e.ticks))
	return fmt.Errorf("%w: %w", ErrHalted, cause)
}

func (e *Engine) emit(eventType string, data any) {
	if e.bus == nil {
		return
	}
	e.pending = append(e.pending, bus.NewEvent(eventType, e.source, data))
}

func (e *Engine) drain() []bus.Event {
	out := e.pending
	e.pending = nil
	return out
}

func (e *Engine) publish(events []bus.Event) {
	for _, ev := range events {
		if err := e.bus.Publish(ev); err != nil {
			e.logger.Warn("Event handler failed", log.String("event", ev.Type()), log.Error(err))
		}
	}
}

// CountdownStarted fires whenever a new countdown begins, so the scheduler
// can realign its interval.
func (e *Engine) CountdownStarted() <-chan struct{} {
	return e.countdownReset
}
