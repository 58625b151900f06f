// Package app runs the hand-pointer pipeline: frames from a provider are
// stabilized by a tracking session and the resulting pointer states are
// published, recorded and turned into plugin events.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/handray/internal/hand"
	"github.com/ayusman/handray/internal/plugin"
	"github.com/ayusman/handray/internal/provider"
	"github.com/ayusman/handray/internal/stabilizer"
	"github.com/ayusman/handray/internal/store"
	"github.com/ayusman/handray/internal/tracking"
)

var (
	// ErrNoStore is returned by operations that need a store when none is configured.
	ErrNoStore = errors.New("no store configured")

	// ErrRecording is returned by StartRecording while a recording is in progress.
	ErrRecording = errors.New("already recording")

	// ErrNotRecording is returned by StopRecording when nothing is being recorded.
	ErrNotRecording = errors.New("not recording")
)

// Publisher receives the controller states after every applied frame.
type Publisher interface {
	Publish(time float64, states [2]tracking.ControllerState)
}

// Publishers fans every update out to each of its publishers in order.
type Publishers []Publisher

// Publish implements Publisher.
func (ps Publishers) Publish(time float64, states [2]tracking.ControllerState) {
	for _, p := range ps {
		p.Publish(time, states)
	}
}

// Config holds configuration options for the application.
type Config struct {
	// Provider is the source of tracking frames. Required.
	Provider provider.Provider
	// Store holds profiles and recordings. Optional.
	Store *store.Store
	// Tuning is used unless the store has an active profile.
	Tuning stabilizer.Tuning
	// Publisher and Plugins are optional.
	Publisher Publisher
	Plugins   *plugin.Dispatcher
	Logger    *slog.Logger
}

// App is the main application that orchestrates the pointer pipeline.
type App struct {
	config  Config
	logger  *slog.Logger
	session *tracking.Session

	mu        sync.RWMutex
	cancel    context.CancelFunc
	done      chan struct{}
	recording *recorder

	// Owned by the pipeline goroutine.
	frameTime float64
	prev      [2]tracking.ControllerState
}

// New creates a stopped, disabled App. When the store has an active profile
// its tuning replaces config.Tuning.
func New(config Config) (*App, error) {
	if config.Provider == nil {
		return nil, errors.New("app: provider is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tuning := config.Tuning
	if config.Store != nil {
		p, err := config.Store.Profiles().Active()
		switch {
		case err == nil:
			tuning = p.Tuning
			logger.Info("using active profile", "profile", p.Name)
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("load active profile: %w", err)
		}
	}
	if err := tuning.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}

	a := &App{
		config:  config,
		logger:  logger,
		session: tracking.NewSession(tuning, logger),
	}
	a.session.OnUpdated(a.publish)
	return a, nil
}

// Session returns the tracking session.
func (a *App) Session() *tracking.Session {
	return a.session
}

// SetEnabled starts or stops pointer tracking. Frames keep being read while
// disabled but do not reach the session; disabling resets both hands.
func (a *App) SetEnabled(enabled bool) {
	if enabled {
		a.session.Start()
	} else {
		a.session.Stop()
	}
}

// IsEnabled reports whether pointer tracking is enabled.
func (a *App) IsEnabled() bool {
	return a.session.Running()
}

// ControllerStates returns the latest pointer state of both hands.
func (a *App) ControllerStates() [2]tracking.ControllerState {
	return a.session.ControllerStates()
}

// Recenter recenters the pointer of hand h.
func (a *App) Recenter(h hand.Handedness) error {
	return a.session.Recenter(h)
}

// ApplyProfile loads the tuning of stored profile id into the session and
// marks the profile active.
func (a *App) ApplyProfile(id string) (*store.Profile, error) {
	if a.config.Store == nil {
		return nil, ErrNoStore
	}
	p, err := a.config.Store.Profiles().GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := a.session.SetTuning(p.Tuning); err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	if err := a.config.Store.Profiles().Activate(p.ID); err != nil {
		return nil, err
	}
	a.logger.Info("profile applied", "profile", p.Name)
	return p, nil
}

// Start runs the pipeline on its own goroutine until ctx is canceled, Stop
// is called or the provider runs out of frames. Starting a running App is a
// no-op.
func (a *App) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return
	}
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})
	go a.runPipeline(ctx, a.done)

	a.logger.Info("pointer pipeline started")
}

// Done is closed when the pipeline goroutine exits. It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// Stop halts the pipeline, waits for it to exit and finishes any recording.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel = nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if _, err := a.StopRecording(); err != nil && !errors.Is(err, ErrNotRecording) {
		a.logger.Error("finish recording", "error", err)
	}
	a.logger.Info("pointer pipeline stopped")
}

// Close stops the pipeline and closes the provider.
func (a *App) Close() error {
	a.Stop()
	return a.config.Provider.Close()
}

// publish runs on the pipeline goroutine after every applied frame.
func (a *App) publish(states [2]tracking.ControllerState) {
	if a.config.Publisher != nil {
		a.config.Publisher.Publish(a.frameTime, states)
	}
	if a.config.Plugins != nil {
		if events := plugin.Diff(a.prev, states, a.frameTime); len(events) > 0 {
			if !a.config.Plugins.Dispatch(events...) {
				a.logger.Debug("plugin events dropped", "count", len(events))
			}
		}
	}
	a.prev = states
}
