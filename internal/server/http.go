package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/zeusync/pong3d/internal/core/observability/log"
)

// Handler routes /ws, /metrics and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

type health struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Score     string `json:"score,omitempty"`
	Connected bool   `json:"controller_connected"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h := health{Status: "ok", Connected: atomic.LoadInt32(&s.controller) == 1}
	if sess := s.Session(); sess != nil {
		snap := sess.Snapshot()
		h.SessionID = sess.ID()
		h.Phase = snap.Phase.String()
		h.Score = sess.View().Score
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h); err != nil {
		s.logger.Warn("Failed to write health response", log.Error(err))
	}
}
