package engine

import (
	"fmt"
	"math"
)

// Physics holds the tuning constants. Distances are field units, speeds
// are units per tick.
type Physics struct {
	BaseSpeed      float64 `yaml:"base_speed"`
	SpeedIncrement float64 `yaml:"speed_increment"`
	// MaxSpeed caps the rally speed. Zero leaves growth unbounded.
	MaxSpeed   float64 `yaml:"max_speed"`
	ServeAngle float64 `yaml:"serve_angle"`

	PaddleStep      float64 `yaml:"paddle_step"`
	PaddleLimit     float64 `yaml:"paddle_limit"`
	PaddleZ         float64 `yaml:"paddle_z"`
	PaddleHalfWidth float64 `yaml:"paddle_half_width"`
	MaxBounceAngle  float64 `yaml:"max_bounce_angle"`

	WallX float64 `yaml:"wall_x"`
	GoalZ float64 `yaml:"goal_z"`

	MiniSpeed       float64 `yaml:"mini_speed"`
	MiniLimit       float64 `yaml:"mini_limit"`
	MiniHalfWidth   float64 `yaml:"mini_half_width"`
	MiniHalfDepth   float64 `yaml:"mini_half_depth"`
	MiniBounceAngle float64 `yaml:"mini_bounce_angle"`

	WinScore         int `yaml:"win_score"`
	InitialCountdown int `yaml:"initial_countdown"`
	PointCountdown   int `yaml:"point_countdown"`
}

func DefaultPhysics() Physics {
	return Physics{
		BaseSpeed:      0.16,
		SpeedIncrement: 1.009,
		ServeAngle:     math.Pi / 4,

		PaddleStep:      0.3,
		PaddleLimit:     9,
		PaddleZ:         19,
		PaddleHalfWidth: 3,
		MaxBounceAngle:  math.Pi / 3,

		WallX: 10,
		GoalZ: 20,

		MiniSpeed:       0.1,
		MiniLimit:       6,
		MiniHalfWidth:   2,
		MiniHalfDepth:   0.25,
		MiniBounceAngle: math.Pi / 4,

		WinScore:         5,
		InitialCountdown: 5,
		PointCountdown:   3,
	}
}

func (p Physics) Validate() error {
	positive := map[string]float64{
		"base_speed":        p.BaseSpeed,
		"paddle_step":       p.PaddleStep,
		"paddle_limit":      p.PaddleLimit,
		"paddle_z":          p.PaddleZ,
		"paddle_half_width": p.PaddleHalfWidth,
		"wall_x":            p.WallX,
		"goal_z":            p.GoalZ,
		"mini_half_width":   p.MiniHalfWidth,
		"mini_half_depth":   p.MiniHalfDepth,
	}
	for name, v := range positive {
		if !(v > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidPhysics, name, v)
		}
	}
	if p.SpeedIncrement < 1 {
		return fmt.Errorf("%w: speed_increment must be >= 1, got %v", ErrInvalidPhysics, p.SpeedIncrement)
	}
	if p.MaxSpeed != 0 && p.MaxSpeed < p.BaseSpeed {
		return fmt.Errorf("%w: max_speed %v below base_speed %v", ErrInvalidPhysics, p.MaxSpeed, p.BaseSpeed)
	}
	if p.MiniSpeed < 0 || p.MiniLimit < 0 {
		return fmt.Errorf("%w: mini obstacle speed and limit must not be negative", ErrInvalidPhysics)
	}
	if p.GoalZ <= p.PaddleZ {
		return fmt.Errorf("%w: goal_z %v must lie beyond paddle_z %v", ErrInvalidPhysics, p.GoalZ, p.PaddleZ)
	}
	if p.WinScore < 1 || p.InitialCountdown < 1 || p.PointCountdown < 1 {
		return fmt.Errorf("%w: win_score and countdowns must be at least 1", ErrInvalidPhysics)
	}
	return nil
}
