package overlay

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/pong3d/internal/match"
)

type entity struct {
	pos   mgl64.Vec3
	color match.Color
}

func (e *entity) Position() mgl64.Vec3 { return e.pos }
func (e *entity) SetPosition(p mgl64.Vec3) { e.pos = p }
func (e *entity) Color() match.Color { return e.color }
func (e *entity) SetColor(c match.Color) { e.color = c }
