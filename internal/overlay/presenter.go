package overlay

import (
	"errors"
	"sync"

	"github.com/zeusync/pong3d/internal/core/events/bus"
	"github.com/zeusync/pong3d/internal/core/observability/log"
	"github.com/zeusync/pong3d/internal/engine"
)

// StateSource is anything that can produce a consistent engine snapshot.
type StateSource interface {
	Snapshot() engine.Snapshot
}

// PauseController receives the overlay's pause control.
type PauseController interface {
	SetPaused(paused bool)
	TogglePause()
}

// Controller is what the engine offers the overlay.
type Controller interface {
	StateSource
	PauseController
}

// watched are the events that change what the overlay shows. Collisions
// only move the ball and are left to the frame push.
var watched = []string{
	engine.EventScore,
	engine.EventWinner,
	engine.EventCountdown,
	engine.EventPaused,
	engine.EventServe,
	engine.EventHalted,
}

// Presenter keeps the latest View current from bus events and forwards
// pause intents back to the engine.
type Presenter struct {
	ctrl   Controller
	logger log.Log

	mu      sync.RWMutex
	view    View
	subs    []bus.Subscription
	updates chan View
	closed  bool
}

func NewPresenter(b bus.EventBus, ctrl Controller, logger log.Log) (*Presenter, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	p := &Presenter{
		ctrl:    ctrl,
		logger:  logger.With(log.Component("overlay")),
		updates: make(chan View, 1),
	}
	for _, typ := range watched {
		sub, err := b.Subscribe(typ, p.onEvent)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		p.subs = append(p.subs, sub)
	}
	p.Refresh()
	return p, nil
}

func (p *Presenter) onEvent(bus.Event) error {
	p.Refresh()
	return nil
}

// Refresh re-renders from the engine's current state. The snapshot is taken
// under the presenter lock so concurrent refreshes store views in the order
// the engine produced them.
func (p *Presenter) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	v := Render(p.ctrl.Snapshot())
	p.view = v
	// keep only the newest view for slow readers
	select {
	case <-p.updates:
	default:
	}
	p.updates <- v
}

func (p *Presenter) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view
}

// Updates delivers the newest view after each change. Intermediate views
// are dropped when the reader lags. The channel is closed by Close.
func (p *Presenter) Updates() <-chan View {
	return p.updates
}

// SetPaused is the pause/resume button.
func (p *Presenter) SetPaused(paused bool) error {
	if p.isClosed() {
		return ErrPresenterClosed
	}
	p.ctrl.SetPaused(paused)
	return nil
}

// Press handles a banner or pause button. Restart and quit belong to the
// host and are returned as-is.
func (p *Presenter) Press(a Action) (Action, error) {
	switch a {
	case ActionPause:
		return "", p.SetPaused(true)
	case ActionResume:
		return "", p.SetPaused(false)
	case ActionRestart, ActionQuit:
		return a, nil
	}
	return "", nil
}

func (p *Presenter) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

func (p *Presenter) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	subs := p.subs
	p.subs = nil
	close(p.updates)
	p.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if err := s.Cancel(); err != nil {
			errs = append(errs, err)
		}
	}
	p.logger.Debug("Presenter closed")
	return errors.Join(errs...)
}
