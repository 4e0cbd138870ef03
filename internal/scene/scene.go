package scene

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/pong3d/internal/core/observability/log"
	"github.com/zeusync/pong3d/internal/match"
)

// Field geometry in world units. The field spans x in [-10, 10] and
// z in [-20, 20]; paddles sit just inside the goal lines.
const (
	FieldWidth  = 20.0
	FieldLength = 40.0
	FloorY      = -0.25
	PaddleZ     = 19.0
)

var (
	classicFloor = match.MustHex("#1A1A1A")
	redFloor     = match.MustHex("#800020")
	neonStripes  = []match.Color{
		match.MustHex("#FF00FF"),
		match.MustHex("#00FF00"),
		match.MustHex("#FFFF00"),
		match.MustHex("#00FFFF"),
		match.MustHex("#FF0000"),
		match.MustHex("#0000FF"),
	}
	neonPaddle1Glow = match.Color{R: 1, G: 0.5, B: 0}
	neonPaddle2Glow = match.White
)

type LightKind string

const (
	LightDirectional LightKind = "directional"
	LightHemispheric LightKind = "hemispheric"
)

type Light struct {
	Name      string     `json:"name"`
	Kind      LightKind  `json:"kind"`
	Direction mgl64.Vec3 `json:"direction"`
	Intensity float64    `json:"intensity"`
}

// GlowLayer is only present on the neon map.
type GlowLayer struct {
	Intensity float64 `json:"intensity"`
}

// Scene holds every handle built for one match.
type Scene struct {
	Style      match.MapStyle
	Soundtrack string

	Camera  *Camera
	Lights  []Light
	Glow    *GlowLayer
	Ground  *Mesh
	Stripes []*Mesh

	Paddle1 *Mesh
	Paddle2 *Mesh
	Ball    *Mesh
	Mini    *Mesh

	Sounds *SoundBank

	logger   log.Log
	mu       sync.Mutex
	disposed bool
}

type options struct {
	logger    log.Log
	loader    SoundLoader
	hitSounds []SoundSpec
}

type Option func(*options)

func WithLogger(l log.Log) Option {
	return func(o *options) { o.logger = l }
}

// WithSoundLoader sets the audio backend. Without one the scene is silent.
func WithSoundLoader(l SoundLoader) Option {
	return func(o *options) { o.loader = l }
}

func WithHitSounds(specs []SoundSpec) Option {
	return func(o *options) { o.hitSounds = specs }
}

// Build validates cfg and constructs the scene. Invalid colors or style
// fail here; nothing is defaulted.
func Build(cfg match.Config, opts ...Option) (*Scene, error) {
	o := options{logger: log.NewNop(), hitSounds: DefaultHitSounds}
	for _, opt := range opts {
		opt(&o)
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	logger := o.logger.With(log.Component("scene"), log.String("style", string(resolved.Style)))

	s := &Scene{
		Style:      resolved.Style,
		Soundtrack: resolved.Style.Soundtrack(),
		Camera:     NewCamera(),
		Lights: []Light{
			{Name: "dir", Kind: LightDirectional, Direction: mgl64.Vec3{1, -1, 0}, Intensity: 0.5},
			{Name: "hemi", Kind: LightHemispheric, Direction: mgl64.Vec3{0, 1, 0}, Intensity: 0.3},
		},
		logger: logger,
	}

	p1Mat := Material{Name: "p1Mat", Diffuse: resolved.Paddle1}
	p2Mat := Material{Name: "p2Mat", Diffuse: resolved.Paddle2}
	groundMat := Material{Name: "groundMat"}

	switch resolved.Style {
	case match.StyleClassic:
		groundMat.Diffuse = classicFloor
	case match.StyleRed:
		groundMat.Diffuse = redFloor
	case match.StyleNeon:
		s.Glow = &GlowLayer{Intensity: 0.6}
		s.Stripes = buildStripes()
		p1Mat.Emissive, p1Mat.SpecularPower = neonPaddle1Glow, 32
		p2Mat.Emissive, p2Mat.SpecularPower = neonPaddle2Glow, 32
	}

	s.Ground = newMesh("ground", ShapeGround, mgl64.Vec3{FieldWidth, 0, FieldLength}, groundMat)
	s.Ground.SetPosition(mgl64.Vec3{0, FloorY, 0})

	paddleSize := mgl64.Vec3{6, 0.5, 0.5}
	s.Paddle1 = newMesh("p1", ShapeBox, paddleSize, p1Mat)
	s.Paddle1.SetPosition(mgl64.Vec3{0, 0, -PaddleZ})
	s.Paddle2 = newMesh("p2", ShapeBox, paddleSize, p2Mat)
	s.Paddle2.SetPosition(mgl64.Vec3{0, 0, PaddleZ})

	s.Mini = newMesh("miniPaddle", ShapeBox, mgl64.Vec3{4, 0.5, 0.5}, Material{Name: "whiteMat", Diffuse: match.White})
	s.Ball = newMesh("ball", ShapeSphere, mgl64.Vec3{0.5, 0.5, 0.5}, Material{Name: "ballMat", Diffuse: match.Black})

	s.Sounds = LoadSoundBank(o.loader, o.hitSounds, logger)

	logger.Debug("Scene built",
		log.String("paddle1", resolved.Paddle1.Hex()),
		log.String("paddle2", resolved.Paddle2.Hex()),
		log.Int("hit_sounds", s.Sounds.Count()))

	return s, nil
}

func buildStripes() []*Mesh {
	depth := FieldLength / float64(len(neonStripes))
	stripes := make([]*Mesh, len(neonStripes))
	for i, c := range neonStripes {
		m := newMesh(fmt.Sprintf("stripe%d", i), ShapeGround, mgl64.Vec3{FieldWidth, 0, depth}, Material{
			Name:          fmt.Sprintf("stripeMat%d", i),
			Diffuse:       c,
			Emissive:      c,
			Specular:      c,
			SpecularPower: 32,
		})
		m.SetPosition(mgl64.Vec3{0, FloorY, -FieldLength/2 + depth/2 + float64(i)*depth})
		stripes[i] = m
	}
	return stripes
}

// Meshes lists every mesh in draw order.
func (s *Scene) Meshes() []*Mesh {
	out := make([]*Mesh, 0, 5+len(s.Stripes))
	out = append(out, s.Stripes...)
	return append(out, s.Ground, s.Paddle1, s.Paddle2, s.Mini, s.Ball)
}

// Nodes snapshots every mesh for a renderer.
func (s *Scene) Nodes() []Node {
	meshes := s.Meshes()
	nodes := make([]Node, len(meshes))
	for i, m := range meshes {
		nodes[i] = m.Node()
	}
	return nodes
}

// Dispose releases the sound bank. It is idempotent.
func (s *Scene) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil
	}
	s.disposed = true
	err := s.Sounds.Close()
	s.logger.Debug("Scene disposed")
	return err
}

func (s *Scene) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
