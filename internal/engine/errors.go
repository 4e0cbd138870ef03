package engine

import "errors"

var (
	ErrHalted         = errors.New("simulation halted")
	ErrTickPanic      = errors.New("tick panicked")
	ErrAlreadyStarted = errors.New("engine already started")
	ErrMissingEntity  = errors.New("missing entity handle")
	ErrInvalidPhysics = errors.New("invalid physics configuration")
)
