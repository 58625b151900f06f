package provider

import (
	"context"
	"sync"

	"github.com/ayusman/handray/internal/tracking"
)

// Push is fed frames by a producer, typically the websocket ingest endpoint.
// When the consumer falls behind the oldest buffered frame is dropped, so the
// stabilizer always works on recent data.
type Push struct {
	mu      sync.Mutex
	frames  chan tracking.Frame
	done    chan struct{}
	closed  bool
	dropped uint64
}

// NewPush returns a provider buffering up to size frames. Sizes below 1 are
// raised to 1.
func NewPush(size int) *Push {
	return &Push{
		frames: make(chan tracking.Frame, max(size, 1)),
		done:   make(chan struct{}),
	}
}

// Push queues f, dropping the oldest frame when the buffer is full.
func (p *Push) Push(f tracking.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	for {
		select {
		case p.frames <- f:
			return nil
		default:
		}
		select {
		case <-p.frames:
			p.dropped++
		default:
		}
	}
}

// Next returns the oldest buffered frame.
func (p *Push) Next(ctx context.Context) (tracking.Frame, error) {
	select {
	case <-p.done:
		return tracking.Frame{}, ErrClosed
	default:
	}

	select {
	case <-ctx.Done():
		return tracking.Frame{}, ctx.Err()
	case <-p.done:
		return tracking.Frame{}, ErrClosed
	case f := <-p.frames:
		return f, nil
	}
}

// Len returns the number of buffered frames.
func (p *Push) Len() int {
	return len(p.frames)
}

// Dropped returns how many frames were discarded because the buffer was full.
func (p *Push) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Close stops the provider. Frames still buffered are discarded.
func (p *Push) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.done)
	}
	return nil
}
