package engine

import (
	"context"
	"errors"
	"time"

	"github.com/zeusync/pong3d/internal/core/observability/log"
)

// Run drives Tick at a fixed interval until ctx is done. Steps are fixed
// size regardless of wall time. A halted engine ends the loop without an
// error so the host stays up with a frozen match.
func (e *Engine) Run(ctx context.Context, interval time.Duration, onTick func(time.Duration)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Debug("Frame loop started", log.Duration("interval", interval))
	defer e.logger.Debug("Frame loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start := time.Now()
			if err := e.Tick(); err != nil {
				if errors.Is(err, ErrHalted) {
					return nil
				}
				return err
			}
			if onTick != nil {
				onTick(time.Since(start))
			}
		}
	}
}

// RunCountdown steps the serve countdown every interval. The interval is
// realigned whenever a new countdown begins.
func (e *Engine) RunCountdown(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.CountdownStarted():
			ticker.Reset(interval)
		case <-ticker.C:
			e.StepCountdown()
		}
	}
}
