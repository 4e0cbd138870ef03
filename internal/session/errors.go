package session

import "errors"

var (
	ErrSessionClosed  = errors.New("session is closed")
	ErrAlreadyRunning = errors.New("session is already running")
)
