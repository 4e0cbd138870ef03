package server

import (
	"github.com/zeusync/pong3d/internal/match"
	"github.com/zeusync/pong3d/internal/overlay"
	"github.com/zeusync/pong3d/internal/session"
)

// Client message types.
const (
	MsgKey         = "key"
	MsgPause       = "pause"
	MsgResetCamera = "reset_camera"
	MsgOrbit       = "orbit"
	MsgPress       = "press"
	MsgRestart     = "restart"
	MsgConfigure   = "configure"
)

// ClientMessage is one JSON message from the controlling client.
type ClientMessage struct {
	Type string `json:"type"`

	// key
	Key  string `json:"key,omitempty"`
	Down bool   `json:"down,omitempty"`

	// reset_camera
	Token uint64 `json:"token,omitempty"`

	// orbit
	Alpha  float64 `json:"alpha,omitempty"`
	Beta   float64 `json:"beta,omitempty"`
	Radius float64 `json:"radius,omitempty"`

	// press
	Action overlay.Action `json:"action,omitempty"`

	// configure
	Match *match.Config `json:"match,omitempty"`
}

// Server message types.
const (
	MsgFrame = "frame"
	MsgError = "error"
)

type ServerMessage struct {
	Type  string         `json:"type"`
	Frame *session.Frame `json:"frame,omitempty"`
	Error string         `json:"error,omitempty"`
}
