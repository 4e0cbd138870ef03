package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics exported by a running match host.
type Collector struct {
	gatherer prometheus.Gatherer

	Ticks         prometheus.Counter
	TickDurations prometheus.Histogram
	Collisions    *prometheus.CounterVec
	Points        *prometheus.CounterVec
	Matches       *prometheus.CounterVec
	RallySpeed    prometheus.Gauge
	Sessions      prometheus.Gauge
	Clients       prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil. Registering twice against the same registry
// reuses the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pong_ticks_total",
		Help: "Frame loop ticks.",
	}))
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pong_tick_duration_seconds",
		Help:    "Wall time spent in one simulation tick.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.016},
	}))
	if err != nil {
		return nil, err
	}
	collisions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pong_collisions_total",
		Help: "Ball collisions, labeled by what the ball hit.",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}
	points, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pong_points_total",
		Help: "Points scored, labeled by scoring side.",
	}, []string{"side"}))
	if err != nil {
		return nil, err
	}
	matches, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pong_matches_finished_total",
		Help: "Finished matches, labeled by winner and map style.",
	}, []string{"winner", "style"}))
	if err != nil {
		return nil, err
	}
	speed, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pong_rally_speed",
		Help: "Current ball speed scalar in field units per tick.",
	}))
	if err != nil {
		return nil, err
	}
	sessions, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pong_sessions_active",
		Help: "Match sessions currently running.",
	}))
	if err != nil {
		return nil, err
	}
	clients, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pong_ws_clients",
		Help: "Connected websocket controllers.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		Ticks:         ticks,
		TickDurations: durations,
		Collisions:    collisions,
		Points:        points,
		Matches:       matches,
		RallySpeed:    speed,
		Sessions:      sessions,
		Clients:       clients,
	}, nil
}

// Handler serves the gatherer the collector was registered with.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				var zero T
				return zero, fmt.Errorf("metrics: collector type mismatch for %T", c)
			}
			return existing, nil
		}
		var zero T
		return zero, err
	}
	return c, nil
}
