package scene

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is an orbit camera pose: Alpha rotates around the vertical axis,
// Beta is the elevation from the vertical, Radius the distance to Target.
type Pose struct {
	Alpha  float64    `json:"alpha"`
	Beta   float64    `json:"beta"`
	Radius float64    `json:"radius"`
	Target mgl64.Vec3 `json:"target"`
}

// DefaultPose looks at the field center from behind paddle2's end.
var DefaultPose = Pose{Alpha: 0, Beta: math.Pi / 3.1, Radius: 35, Target: mgl64.Vec3{}}

// Camera is safe for concurrent use; the host orbits it while the
// simulation runs.
type Camera struct {
	mu   sync.RWMutex
	pose Pose
}

func NewCamera() *Camera {
	return &Camera{pose: DefaultPose}
}

func (c *Camera) Pose() Pose {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pose
}

// Orbit applies user camera input. Beta stays within (0, pi) and the radius
// stays positive.
func (c *Camera) Orbit(dAlpha, dBeta, dRadius float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pose.Alpha += dAlpha
	c.pose.Beta = mgl64.Clamp(c.pose.Beta+dBeta, 0.01, math.Pi-0.01)
	c.pose.Radius = math.Max(1, c.pose.Radius+dRadius)
}

// Reset restores DefaultPose.
func (c *Camera) Reset() {
	c.mu.Lock()
	c.pose = DefaultPose
	c.mu.Unlock()
}

// Eye returns the camera position in world space (y up).
func (p Pose) Eye() mgl64.Vec3 {
	sinBeta := math.Sin(p.Beta)
	return p.Target.Add(mgl64.Vec3{
		p.Radius * math.Cos(p.Alpha) * sinBeta,
		p.Radius * math.Cos(p.Beta),
		p.Radius * math.Sin(p.Alpha) * sinBeta,
	})
}

// ResetWatcher resets the camera whenever the external token changes.
// The token is opaque; only inequality matters.
type ResetWatcher struct {
	mu     sync.Mutex
	camera *Camera
	last   uint64
}

func NewResetWatcher(camera *Camera, initial uint64) *ResetWatcher {
	return &ResetWatcher{camera: camera, last: initial}
}

// Observe reports whether the token change triggered a reset.
func (w *ResetWatcher) Observe(token uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if token == w.last {
		return false
	}
	w.last = token
	w.camera.Reset()
	return true
}
