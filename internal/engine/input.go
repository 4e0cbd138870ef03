package engine

import (
	"strings"

	"github.com/zeusync/pong3d/internal/core/observability/log"
)

// Key is a keyboard key name as reported by the host (KeyboardEvent.key).
type Key string

const (
	KeyPlayer1Up   Key = "w"
	KeyPlayer1Down Key = "s"
	KeyPlayer2Up   Key = "ArrowUp"
	KeyPlayer2Down Key = "ArrowDown"
	KeyPause       Key = "Escape"
)

// ParseKey normalizes letter case for the player 1 keys. Unknown keys are
// returned as-is and ignored by the engine.
func ParseKey(s string) Key {
	if len(s) == 1 {
		return Key(strings.ToLower(s))
	}
	return Key(s)
}

func (k Key) movement() bool {
	switch k {
	case KeyPlayer1Up, KeyPlayer1Down, KeyPlayer2Up, KeyPlayer2Down:
		return true
	}
	return false
}

// KeyDown registers a held movement key or toggles pause on Escape.
// Movement keys pressed while not rallying are dropped.
func (e *Engine) KeyDown(k Key) {
	e.mu.Lock()
	switch {
	case k == KeyPause:
		e.togglePause()
	case k.movement() && e.phase == PhaseRallying:
		e.keys[k] = struct{}{}
	}
	events := e.drain()
	e.mu.Unlock()

	e.publish(events)
}

// KeyUp releases a key. Releasing a key that is not held is harmless.
func (e *Engine) KeyUp(k Key) {
	e.mu.Lock()
	delete(e.keys, k)
	e.mu.Unlock()
}

func (e *Engine) held(k Key) bool {
	_, ok := e.keys[k]
	return ok
}

// TogglePause flips between Rallying and Paused. It does nothing while
// serving, finished or halted.
func (e *Engine) TogglePause() {
	e.withLock(e.togglePause)
}

// Pause freezes a running rally.
func (e *Engine) Pause() {
	e.withLock(func() {
		if e.phase == PhaseRallying {
			e.togglePause()
		}
	})
}

// Resume continues a paused rally. There is nothing to resume once a
// winner is set.
func (e *Engine) Resume() {
	e.withLock(func() {
		if e.phase == PhasePaused {
			e.togglePause()
		}
	})
}

// SetPaused is the overlay's pause control.
func (e *Engine) SetPaused(paused bool) {
	if paused {
		e.Pause()
		return
	}
	e.Resume()
}

func (e *Engine) togglePause() {
	switch e.phase {
	case PhaseRallying:
		e.phase = PhasePaused
		e.paused = true
	case PhasePaused:
		e.phase = PhaseRallying
		e.paused = false
	default:
		return
	}
	e.emit(EventPaused, e.paused)
	e.logger.Debug("Pause toggled", log.Bool("paused", e.paused))
}

func (e *Engine) withLock(fn func()) {
	e.mu.Lock()
	fn()
	events := e.drain()
	e.mu.Unlock()

	e.publish(events)
}
