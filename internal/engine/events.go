package engine

import "github.com/zeusync/pong3d/internal/match"

// Event types published on the bus. Payloads are listed next to each.
const (
	EventScore     = "match.score"     // Score
	EventWinner    = "match.winner"    // match.Side
	EventCountdown = "match.countdown" // int, 0 when the countdown ends
	EventPaused    = "match.paused"    // bool
	EventServe     = "match.serve"     // Serve
	EventCollision = "match.collision" // Collision
	EventHalted    = "match.halted"    // error
)

type Score struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

func (s Score) Of(side match.Side) int {
	switch side {
	case match.Player1:
		return s.Player1
	case match.Player2:
		return s.Player2
	}
	return 0
}

type HitKind string

const (
	HitWall    HitKind = "wall"
	HitPaddle1 HitKind = "paddle1"
	HitPaddle2 HitKind = "paddle2"
	HitMini    HitKind = "mini"
)

type Collision struct {
	Kind  HitKind `json:"kind"`
	Speed float64 `json:"speed"`
}

type Serve struct {
	Toward match.Side `json:"toward"`
	Angle  float64    `json:"angle"`
	Speed  float64    `json:"speed"`
}
