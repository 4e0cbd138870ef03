package session

import (
	"errors"
	"sync"

	"github.com/zeusync/pong3d/internal/core/events/bus"
	"github.com/zeusync/pong3d/internal/core/observability/metrics"
	"github.com/zeusync/pong3d/internal/engine"
	"github.com/zeusync/pong3d/internal/match"
)

// metricsBridge turns engine events into Prometheus updates.
type metricsBridge struct {
	m     *metrics.Collector
	style match.MapStyle

	mu   sync.Mutex
	last engine.Score
	subs []bus.Subscription
}

func newMetricsBridge(b bus.EventBus, m *metrics.Collector, style match.MapStyle) (*metricsBridge, error) {
	mb := &metricsBridge{m: m, style: style}
	handlers := map[string]bus.EventHandler{
		engine.EventCollision: mb.onCollision,
		engine.EventScore:     mb.onScore,
		engine.EventWinner:    mb.onWinner,
		engine.EventServe:     mb.onServe,
	}
	for typ, h := range handlers {
		sub, err := b.Subscribe(typ, h)
		if err != nil {
			_ = mb.Close()
			return nil, err
		}
		mb.subs = append(mb.subs, sub)
	}
	return mb, nil
}

func (mb *metricsBridge) onCollision(e bus.Event) error {
	c, ok := e.Data().(engine.Collision)
	if !ok {
		return nil
	}
	mb.m.Collisions.WithLabelValues(string(c.Kind)).Inc()
	mb.m.RallySpeed.Set(c.Speed)
	return nil
}

func (mb *metricsBridge) onServe(e bus.Event) error {
	if s, ok := e.Data().(engine.Serve); ok {
		mb.m.RallySpeed.Set(s.Speed)
	}
	return nil
}

// onScore labels the point by whichever side's total went up.
func (mb *metricsBridge) onScore(e bus.Event) error {
	s, ok := e.Data().(engine.Score)
	if !ok {
		return nil
	}
	mb.mu.Lock()
	prev := mb.last
	mb.last = s
	mb.mu.Unlock()

	if s.Player1 > prev.Player1 {
		mb.m.Points.WithLabelValues(match.Player1.String()).Inc()
	}
	if s.Player2 > prev.Player2 {
		mb.m.Points.WithLabelValues(match.Player2.String()).Inc()
	}
	return nil
}

func (mb *metricsBridge) onWinner(e bus.Event) error {
	if side, ok := e.Data().(match.Side); ok {
		mb.m.Matches.WithLabelValues(side.String(), string(mb.style)).Inc()
	}
	return nil
}

func (mb *metricsBridge) Close() error {
	mb.mu.Lock()
	subs := mb.subs
	mb.subs = nil
	mb.mu.Unlock()

	var errs []error
	for _, s := range subs {
		errs = append(errs, s.Cancel())
	}
	return errors.Join(errs...)
}
