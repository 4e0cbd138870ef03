package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/pong3d/internal/match"
)

// Snapshot is a consistent copy of the simulation state.
type Snapshot struct {
	Phase        Phase       `json:"phase"`
	Tick         uint64      `json:"tick"`
	Ball         mgl64.Vec3  `json:"ball"`
	BallVelocity mgl64.Vec3  `json:"ball_velocity"`
	BallColor    match.Color `json:"ball_color"`
	Speed        float64     `json:"speed"`
	Paddle1      mgl64.Vec3  `json:"paddle1"`
	Paddle2      mgl64.Vec3  `json:"paddle2"`
	Mini         mgl64.Vec3  `json:"mini"`
	Score        Score       `json:"score"`
	Winner       match.Side  `json:"winner"`
	Paused       bool        `json:"paused"`
	// Countdown is the remaining serve steps, 0 when none is running.
	Countdown   int        `json:"countdown"`
	ServeToward match.Side `json:"serve_toward"`
	Halted      string     `json:"halted,omitempty"`
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		Phase:        e.phase,
		Tick:         e.ticks,
		Ball:         e.ballPos,
		BallVelocity: e.ballVel,
		Speed:        e.speed,
		Score:        e.score,
		Winner:       e.winner,
		Paused:       e.paused,
		Countdown:    e.countdown,
		ServeToward:  e.serveToward,
	}
	if e.phase == PhaseHalted {
		s.Halted = e.haltErr.Error()
		return s
	}
	s.BallColor = e.ents.Ball.Color()
	s.Paddle1 = e.ents.Paddle1.Position()
	s.Paddle2 = e.ents.Paddle2.Position()
	s.Mini = e.ents.Mini.Position()
	return s
}

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}
