package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/pong3d/internal/config"
	"github.com/zeusync/pong3d/internal/core/observability/log"
	"github.com/zeusync/pong3d/internal/core/observability/metrics"
	"github.com/zeusync/pong3d/internal/overlay"
)

// wireMessage decodes just the parts of a server message the tests look at.
type wireMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Frame *struct {
		SessionID string       `json:"session_id"`
		Style     string       `json:"style"`
		View      overlay.View `json:"view"`
		State     struct {
			Phase   string     `json:"phase"`
			Paddle1 [3]float64 `json:"paddle1"`
		} `json:"state"`
	} `json:"frame"`
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Engine.TickRate = 1000
	cfg.Engine.CountdownInterval = time.Millisecond
	cfg.Server.BroadcastRate = 200
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, string) {
	t.Helper()
	m, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	srv := NewServer(cfg, log.NewNop(), m)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		_ = srv.Close()
		ts.Close()
	})
	return srv, ts.URL
}

func dial(t *testing.T, base, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(base, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads messages until match returns true or the deadline hits.
func readUntil(t *testing.T, conn *websocket.Conn, match func(wireMessage) bool) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var m wireMessage
		require.NoError(t, conn.ReadJSON(&m))
		if match(m) {
			return m
		}
	}
}

func isFrame(m wireMessage) bool { return m.Type == MsgFrame && m.Frame != nil }

func TestControllerReceivesFrames(t *testing.T) {
	_, url := newTestServer(t, testConfig())
	conn := dial(t, url, "")

	m := readUntil(t, conn, isFrame)
	assert.NotEmpty(t, m.Frame.SessionID)
	assert.Equal(t, "classic", m.Frame.Style)
	assert.Equal(t, "0 - 0", m.Frame.View.Score)
	assert.Len(t, m.Frame.View.Hints, 3)
}

func TestSecondControllerRejected(t *testing.T) {
	_, url := newTestServer(t, testConfig())
	conn := dial(t, url, "")
	readUntil(t, conn, isFrame)

	u := "ws" + strings.TrimPrefix(url, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTokenRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Token = "letmein"
	_, url := newTestServer(t, cfg)
	u := "ws" + strings.TrimPrefix(url, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(u+"?token=nope", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn := dial(t, url, "?token=letmein")
	readUntil(t, conn, isFrame)
}

func TestKeyMessagesMovePaddle(t *testing.T) {
	_, url := newTestServer(t, testConfig())
	conn := dial(t, url, "")

	readUntil(t, conn, func(m wireMessage) bool {
		return isFrame(m) && m.Frame.State.Phase == "rallying"
	})
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MsgKey, Key: "s", Down: true}))

	m := readUntil(t, conn, func(m wireMessage) bool {
		return isFrame(m) && m.Frame.State.Paddle1[0] > 0
	})
	assert.LessOrEqual(t, m.Frame.State.Paddle1[0], 9.0)
}

func TestPauseMessageTogglesPause(t *testing.T) {
	_, url := newTestServer(t, testConfig())
	conn := dial(t, url, "")

	readUntil(t, conn, func(m wireMessage) bool {
		return isFrame(m) && m.Frame.State.Phase == "rallying"
	})
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MsgPause}))
	m := readUntil(t, conn, func(m wireMessage) bool {
		return isFrame(m) && m.Frame.State.Phase == "paused"
	})
	assert.Equal(t, overlay.ActionResume, m.Frame.View.Pause.Action)
}

func TestBadMessagesGetErrors(t *testing.T) {
	_, url := newTestServer(t, testConfig())
	conn := dial(t, url, "")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	m := readUntil(t, conn, func(m wireMessage) bool { return m.Type == MsgError })
	assert.Contains(t, m.Error, "invalid message")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "dance"}))
	m = readUntil(t, conn, func(m wireMessage) bool { return m.Type == MsgError })
	assert.Contains(t, m.Error, "dance")
}

func TestConfigureRebuildsMatch(t *testing.T) {
	srv, url := newTestServer(t, testConfig())
	conn := dial(t, url, "")
	first := readUntil(t, conn, isFrame).Frame.SessionID

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":  MsgConfigure,
		"match": map[string]string{"paddle1_color": "#FF0000", "paddle2_color": "#ff0000", "map_style": "red"},
	}))
	m := readUntil(t, conn, func(m wireMessage) bool { return m.Type == MsgError })
	assert.Contains(t, m.Error, "differ")

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":  MsgConfigure,
		"match": map[string]string{"paddle1_color": "#FFFF00", "paddle2_color": "#00FFFF", "map_style": " Neon "},
	}))
	m = readUntil(t, conn, func(m wireMessage) bool {
		return isFrame(m) && m.Frame.SessionID != first
	})
	assert.Equal(t, "neon", m.Frame.Style)
	assert.Equal(t, "neon", string(srv.currentMatch().MapStyle))
}

func TestRestartAndQuit(t *testing.T) {
	srv, url := newTestServer(t, testConfig())
	conn := dial(t, url, "")
	first := readUntil(t, conn, isFrame).Frame.SessionID

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MsgRestart}))
	readUntil(t, conn, func(m wireMessage) bool {
		return isFrame(m) && m.Frame.SessionID != first
	})

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MsgPress, Action: overlay.ActionQuit}))
	require.Eventually(t, func() bool { return srv.Session() == nil }, 3*time.Second, time.Millisecond)

	// a new controller gets a fresh match
	require.Eventually(t, func() bool {
		u := "ws" + strings.TrimPrefix(url, "http") + "/ws"
		c, _, err := websocket.DefaultDialer.Dial(u, nil)
		if err != nil {
			return false
		}
		_ = c.Close()
		return true
	}, 3*time.Second, 10*time.Millisecond)
}

func TestHealthAndMetrics(t *testing.T) {
	_, url := newTestServer(t, testConfig())
	conn := dial(t, url, "")
	readUntil(t, conn, isFrame)

	resp, err := http.Get(url + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var h health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.True(t, h.Connected)
	assert.NotEmpty(t, h.SessionID)

	resp, err = http.Get(url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pong_ws_clients 1")
	assert.Contains(t, string(body), "pong_sessions_active 1")
}

func TestStartStop(t *testing.T) {
	cfg := testConfig()
	cfg.Server.ListenAddr = "127.0.0.1:0"
	srv := NewServer(cfg, nil, nil)

	require.NoError(t, srv.Start(t.Context()))
	assert.ErrorIs(t, srv.Start(t.Context()), ErrServerAlreadyRunning)
	require.NotNil(t, srv.Addr())
	require.NotNil(t, srv.Session())

	resp, err := http.Get("http://" + srv.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop(t.Context()))
	assert.ErrorIs(t, srv.Stop(t.Context()), ErrServerNotRunning)
	assert.Nil(t, srv.Session())
	require.NoError(t, srv.Close())
	assert.ErrorIs(t, srv.Start(t.Context()), ErrServerClosed)
}
