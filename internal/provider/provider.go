// Package provider produces tracking frames from a webcam, from frames pushed
// over the network, or from a stored recording.
package provider

import (
	"context"
	"errors"

	"github.com/ayusman/handray/internal/tracking"
)

// ErrClosed is returned by Next and Push once a provider has been closed.
var ErrClosed = errors.New("provider closed")

// Provider is a source of tracking frames. Next blocks until a frame is ready,
// ctx is done, or the provider is closed. A finite source returns io.EOF
// after its last frame.
type Provider interface {
	Next(ctx context.Context) (tracking.Frame, error)
	Close() error
}
