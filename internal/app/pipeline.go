package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ayusman/handray/internal/provider"
	"github.com/ayusman/handray/internal/tracking"
)

// retryDelay is how long the pipeline waits after a provider error.
const retryDelay = 250 * time.Millisecond

// runPipeline reads frames until ctx ends or the provider is exhausted.
//
// Every frame is recorded if a recording is in progress. While tracking is
// enabled it is also applied to the session, whose update callback publishes
// the new pointer states.
func (a *App) runPipeline(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		f, err := a.config.Provider.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			a.logger.Info("tracking source ended")
			return
		case ctx.Err() != nil, errors.Is(err, provider.ErrClosed):
			return
		default:
			a.logger.Warn("read tracking frame", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			continue
		}

		a.record(f)

		if !a.session.Running() {
			a.prev = [2]tracking.ControllerState{}
			continue
		}
		a.frameTime = f.Time
		a.session.Update(f)
	}
}
