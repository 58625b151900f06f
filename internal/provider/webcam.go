package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handray/internal/capture"
	"github.com/ayusman/handray/internal/detector"
	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/gesture"
	"github.com/ayusman/handray/internal/hand"
	"github.com/ayusman/handray/internal/tracking"
)

// DefaultIdleTimeout is how long the webcam stays at the active rate after
// the last motion.
const DefaultIdleTimeout = 2 * time.Second

// WebcamConfig wires a webcam source.
type WebcamConfig struct {
	Camera     capture.Camera
	Detector   detector.Detector
	Classifier *gesture.Classifier // nil uses gesture.DefaultClassifierConfig
	Projection detector.Projection

	// Motion gates hand detection. Nil keeps the source always active.
	Motion *capture.MotionDetector

	IdleFPS     int           // zero uses capture.IdleFPS
	ActiveFPS   int           // zero uses capture.ActiveFPS
	IdleTimeout time.Duration // zero uses DefaultIdleTimeout

	Logger *slog.Logger
}

// Webcam turns camera frames into tracking frames. It polls at the idle rate
// until the motion detector sees something, then at the active rate with
// hand detection, and drops back after IdleTimeout without motion. Idle
// frames report both hands untracked. The viewer sits at the origin.
type Webcam struct {
	cfg    WebcamConfig
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	ticker     *time.Ticker
	start      time.Time
	active     bool
	lastMotion time.Time
	done       chan struct{}
	closed     bool
}

// NewWebcam opens the camera and returns the source.
func NewWebcam(cfg WebcamConfig) (*Webcam, error) {
	if cfg.Camera == nil {
		return nil, errors.New("webcam: camera is required")
	}
	if cfg.Detector == nil {
		return nil, errors.New("webcam: detector is required")
	}
	if cfg.Classifier == nil {
		cfg.Classifier = gesture.NewClassifier(gesture.DefaultClassifierConfig(), nil)
	}
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = capture.IdleFPS
	}
	if cfg.ActiveFPS <= 0 {
		cfg.ActiveFPS = capture.ActiveFPS
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if err := cfg.Camera.Open(); err != nil {
		return nil, fmt.Errorf("webcam: %w", err)
	}
	cfg.Camera.SetFPS(cfg.IdleFPS)

	return &Webcam{
		cfg:    cfg,
		logger: cfg.Logger,
		now:    time.Now,
		done:   make(chan struct{}),
	}, nil
}

// Active reports whether the source is running hand detection.
func (w *Webcam) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Next waits for the next capture tick and returns its frame.
func (w *Webcam) Next(ctx context.Context) (tracking.Frame, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return tracking.Frame{}, ErrClosed
	}
	if w.ticker == nil {
		w.ticker = time.NewTicker(time.Second / time.Duration(w.cfg.IdleFPS))
		w.start = w.now()
	}
	tick := w.ticker.C
	w.mu.Unlock()

	select {
	case <-ctx.Done():
		return tracking.Frame{}, ctx.Err()
	case <-w.done:
		return tracking.Frame{}, ErrClosed
	case <-tick:
	}

	return w.capture()
}

func (w *Webcam) capture() (tracking.Frame, error) {
	mat, err := w.cfg.Camera.ReadFrame()
	if err != nil {
		return tracking.Frame{}, fmt.Errorf("read frame: %w", err)
	}
	defer mat.Close()

	w.mu.Lock()
	now := w.now()
	f := tracking.Frame{
		Time:   now.Sub(w.start).Seconds(),
		Viewer: geom.IdentityPose(),
	}
	active := w.updateMode(mat, now)
	w.mu.Unlock()

	if !active {
		w.cfg.Classifier.Reset(hand.Right)
		w.cfg.Classifier.Reset(hand.Left)
		return f, nil
	}

	hands, err := w.cfg.Detector.Detect(mat)
	if err != nil {
		return tracking.Frame{}, fmt.Errorf("detect hands: %w", err)
	}

	for i := range hands {
		lm := &hands[i]
		h, joints, err := detector.ToJoints(lm, w.cfg.Projection)
		if err != nil {
			w.logger.Debug("skipping detected hand", "error", err)
			continue
		}
		if f.Hands[h].Tracked {
			continue // both hands got the same label; keep the first
		}
		f.Hands[h] = tracking.HandInput{
			Tracked: true,
			Gesture: w.cfg.Classifier.Classify(h, lm, &joints),
			Joints:  joints,
		}
	}
	for _, h := range hand.Both {
		if !f.Hands[h].Tracked {
			w.cfg.Classifier.Reset(h)
		}
	}
	return f, nil
}

// updateMode switches between the idle and active rates. Callers hold w.mu.
func (w *Webcam) updateMode(mat *gocv.Mat, now time.Time) bool {
	if w.cfg.Motion == nil {
		w.active = true
		return true
	}

	moved, changed := w.cfg.Motion.Detect(mat)
	switch {
	case moved:
		w.lastMotion = now
		if !w.active {
			w.active = true
			w.setRate(w.cfg.ActiveFPS)
			w.logger.Debug("webcam active", "changed_pct", changed)
		}
	case w.active && now.Sub(w.lastMotion) > w.cfg.IdleTimeout:
		w.active = false
		w.setRate(w.cfg.IdleFPS)
		w.logger.Debug("webcam idle")
	}
	return w.active
}

func (w *Webcam) setRate(fps int) {
	w.cfg.Camera.SetFPS(fps)
	w.ticker.Reset(time.Second / time.Duration(fps))
}

// Close stops the source and releases the camera, motion detector and hand
// detector.
func (w *Webcam) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	if w.ticker != nil {
		w.ticker.Stop()
	}
	w.mu.Unlock()

	if w.cfg.Motion != nil {
		w.cfg.Motion.Close()
	}
	return errors.Join(w.cfg.Camera.Close(), w.cfg.Detector.Close())
}
