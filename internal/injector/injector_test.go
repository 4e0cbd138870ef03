package injector

import (
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/pong3d/internal/config"
	"github.com/zeusync/pong3d/internal/core/observability/log"
)

func TestProviders(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "warn"

	logger, cleanup := ProvideLogger(cfg)
	defer cleanup()
	assert.Equal(t, log.LevelWarn, logger.GetLevel())

	m, err := ProvideMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	srv, closeSrv := ProvideServer(cfg, log.NewNop(), m)
	require.NotNil(t, srv)
	closeSrv()
	assert.Nil(t, srv.Session())
}

func TestGeneratedHeader(t *testing.T) {
	src, err := os.ReadFile("wire_gen.go")
	require.NoError(t, err)
	header := string(src)
	header = header[:strings.Index(header, "package injector")]

	build := strings.Index(header, "//go:build !wireinject")
	generate := strings.Index(header, "//go:generate")
	require.NotEqual(t, -1, build)
	require.NotEqual(t, -1, generate)
	assert.Less(t, build, generate)
}
