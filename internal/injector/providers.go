package injector

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zeusync/pong3d/internal/config"
	"github.com/zeusync/pong3d/internal/core/observability/log"
	"github.com/zeusync/pong3d/internal/core/observability/metrics"
	"github.com/zeusync/pong3d/internal/server"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideRegisterer,
	ProvideMetrics,
	ProvideServer,
)

// ProvideLogger builds the process logger. The cleanup flushes it.
func ProvideLogger(cfg config.Config) (*log.Logger, func()) {
	logger := log.New(cfg.LogLevel())
	return logger, func() { _ = logger.Sync() }
}

func ProvideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

func ProvideMetrics(reg prometheus.Registerer) (*metrics.Collector, error) {
	return metrics.NewCollector(reg)
}

// ProvideServer builds the match host. The cleanup closes it and every
// session it owns.
func ProvideServer(cfg config.Config, logger log.Log, m *metrics.Collector) (*server.Server, func()) {
	srv := server.NewServer(cfg, logger, m)
	return srv, func() { _ = srv.Close() }
}
