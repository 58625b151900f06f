package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector finds hand landmarks in camera frames.
type Detector interface {
	// Detect returns the hands found in frame, or an empty slice.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// Python is the interpreter used for the MediaPipe service. Empty means a
	// virtualenv next to the binary or under ~/.handray, then python3.
	Python string

	// Script is the path of mediapipe_service.py. Empty means search the
	// usual locations.
	Script string

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// IdleTimeout stops the Python process after this long without a frame.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      2,
		MinConfidence: 0.5,
		IdleTimeout:   30 * time.Second,
	}
}
