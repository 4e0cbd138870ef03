package log

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observed gates Log at level and records everything the core accepts.
func observed(level Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return wrap(zap.New(core), zap.NewAtomicLevelAt(toZapLevel(level))), logs
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"off":     LevelSilent,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerFieldsAndComponent(t *testing.T) {
	l, logs := observed(LevelDebug)

	engineLog := l.With(Component("engine"))
	engineLog.Info("point scored",
		Int("player1", 3),
		Uint64("tick", 42),
		Float64("speed", 0.16),
		Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	ctx := entry.ContextMap()
	assert.Equal(t, "engine", ctx["component"])
	assert.EqualValues(t, 3, ctx["player1"])
	assert.EqualValues(t, 42, ctx["tick"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestLoggerLevelGate(t *testing.T) {
	l, logs := observed(LevelWarn)

	l.Log(LevelInfo, "dropped")
	l.Log(LevelError, "kept")
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, LevelWarn, l.GetLevel())

	l.SetLevel(LevelSilent)
	l.Log(LevelError, "dropped too")
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, LevelSilent, l.GetLevel())
}

func TestWithContextSession(t *testing.T) {
	l, logs := observed(LevelDebug)

	ctx := ContextWithSession(context.Background(), "abc")
	l.WithContext(ctx).Info("hello")
	l.WithContext(context.Background()).Info("plain")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["session_id"])
	_, ok := logs.All()[1].ContextMap()["session_id"]
	assert.False(t, ok)
}
