package provider

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/ayusman/handray/internal/tracking"
)

// defaultPeriod separates the last frame of a loop from the first frame of
// the next when a recording has a single frame.
const defaultPeriod = 1.0 / 60

// ReplayOptions controls playback of a recording.
type ReplayOptions struct {
	// Realtime paces frames by their timestamps. Otherwise frames are
	// returned as fast as Next is called.
	Realtime bool

	// Loop restarts the recording at its end instead of returning io.EOF.
	// Timestamps keep increasing across loops.
	Loop bool
}

// Replay plays back recorded frames.
type Replay struct {
	frames []tracking.Frame
	opts   ReplayOptions
	period float64

	mu     sync.Mutex
	next   int
	offset float64
	start  time.Time
	base   float64
	done   chan struct{}
	closed bool
}

// NewReplay returns a provider over frames, which must be in time order.
func NewReplay(frames []tracking.Frame, opts ReplayOptions) *Replay {
	period := defaultPeriod
	if n := len(frames); n > 1 {
		if span := frames[n-1].Time - frames[0].Time; span > 0 {
			period = span / float64(n-1)
		}
	}
	return &Replay{
		frames: frames,
		opts:   opts,
		period: period,
		done:   make(chan struct{}),
	}
}

// Next returns the next recorded frame.
func (r *Replay) Next(ctx context.Context) (tracking.Frame, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return tracking.Frame{}, ErrClosed
	}
	if r.next >= len(r.frames) {
		if !r.opts.Loop || len(r.frames) == 0 {
			r.mu.Unlock()
			return tracking.Frame{}, io.EOF
		}
		first, last := r.frames[0].Time, r.frames[len(r.frames)-1].Time
		r.offset += last - first + r.period
		r.next = 0
	}

	f := r.frames[r.next]
	f.Time += r.offset
	r.next++

	var wait time.Duration
	if r.opts.Realtime {
		if r.start.IsZero() {
			r.start, r.base = time.Now(), f.Time
		}
		due := r.start.Add(time.Duration((f.Time - r.base) * float64(time.Second)))
		wait = time.Until(due)
	}
	r.mu.Unlock()

	if wait <= 0 {
		return f, nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return tracking.Frame{}, ctx.Err()
	case <-r.done:
		return tracking.Frame{}, ErrClosed
	case <-timer.C:
		return f, nil
	}
}

// Len returns the number of frames in the recording.
func (r *Replay) Len() int {
	return len(r.frames)
}

// Close stops playback.
func (r *Replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed {
		r.closed = true
		close(r.done)
	}
	return nil
}
