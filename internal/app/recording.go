package app

import (
	"github.com/ayusman/handray/internal/store"
	"github.com/ayusman/handray/internal/tracking"
)

// recordFlushFrames is how many frames are buffered before they are written.
const recordFlushFrames = 60

type recorder struct {
	rec    *store.Recording
	frames []tracking.Frame
}

// StartRecording starts storing every frame read from the provider under a
// new recording called name.
func (a *App) StartRecording(name string) (*store.Recording, error) {
	if a.config.Store == nil {
		return nil, ErrNoStore
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recording != nil {
		return nil, ErrRecording
	}
	rec, err := a.config.Store.Recordings().Create(name)
	if err != nil {
		return nil, err
	}
	a.recording = &recorder{
		rec:    rec,
		frames: make([]tracking.Frame, 0, recordFlushFrames),
	}
	a.logger.Info("recording started", "recording", rec.Name, "id", rec.ID)
	return rec, nil
}

// StopRecording writes the buffered frames and returns the finished recording.
func (a *App) StopRecording() (*store.Recording, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := a.recording
	if r == nil {
		return nil, ErrNotRecording
	}
	a.recording = nil

	if err := a.flushLocked(r); err != nil {
		return nil, err
	}
	rec, err := a.config.Store.Recordings().GetByID(r.rec.ID)
	if err != nil {
		return nil, err
	}
	a.logger.Info("recording stopped", "recording", rec.Name, "frames", rec.FrameCount)
	return rec, nil
}

// Recording returns the recording in progress, if any.
func (a *App) Recording() (*store.Recording, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.recording == nil {
		return nil, false
	}
	rec := *a.recording.rec
	return &rec, true
}

func (a *App) record(f tracking.Frame) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := a.recording
	if r == nil {
		return
	}
	r.frames = append(r.frames, f)
	if len(r.frames) < recordFlushFrames {
		return
	}
	if err := a.flushLocked(r); err != nil {
		a.logger.Error("write recording", "recording", r.rec.Name, "error", err)
	}
}

// flushLocked appends the buffered frames to the store. Frames that fail to
// write are dropped.
func (a *App) flushLocked(r *recorder) error {
	if len(r.frames) == 0 {
		return nil
	}
	err := a.config.Store.Recordings().Append(r.rec.ID, r.frames)
	if err == nil {
		r.rec.FrameCount += len(r.frames)
	}
	r.frames = r.frames[:0]
	return err
}
