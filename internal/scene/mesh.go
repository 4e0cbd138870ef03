package scene

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/pong3d/internal/match"
)

type Shape string

const (
	ShapeBox    Shape = "box"
	ShapeSphere Shape = "sphere"
	ShapeGround Shape = "ground"
)

// Material mirrors the standard material knobs a renderer needs.
type Material struct {
	Name          string      `json:"name"`
	Diffuse       match.Color `json:"diffuse"`
	Emissive      match.Color `json:"emissive"`
	Specular      match.Color `json:"specular"`
	SpecularPower float64     `json:"specular_power,omitempty"`
}

// Mesh is a scene node. Paddles, ball and mini-obstacle are handed to the
// engine through Position/SetPosition and Color/SetColor.
type Mesh struct {
	Name  string
	Shape Shape
	// Size is width (x), height (y), depth (z). Spheres use x as diameter.
	Size mgl64.Vec3

	mu       sync.RWMutex
	position mgl64.Vec3
	material Material
}

func newMesh(name string, shape Shape, size mgl64.Vec3, mat Material) *Mesh {
	return &Mesh{Name: name, Shape: shape, Size: size, material: mat}
}

func (m *Mesh) Position() mgl64.Vec3 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

func (m *Mesh) SetPosition(p mgl64.Vec3) {
	m.mu.Lock()
	m.position = p
	m.mu.Unlock()
}

// Color is the diffuse color of the mesh material.
func (m *Mesh) Color() match.Color {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.material.Diffuse
}

func (m *Mesh) SetColor(c match.Color) {
	m.mu.Lock()
	m.material.Diffuse = c
	m.mu.Unlock()
}

func (m *Mesh) Material() Material {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.material
}

// Node is the wire form of a mesh for host renderers.
type Node struct {
	Name     string     `json:"name"`
	Shape    Shape      `json:"shape"`
	Size     mgl64.Vec3 `json:"size"`
	Position mgl64.Vec3 `json:"position"`
	Material Material   `json:"material"`
}

func (m *Mesh) Node() Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Node{Name: m.Name, Shape: m.Shape, Size: m.Size, Position: m.position, Material: m.material}
}
