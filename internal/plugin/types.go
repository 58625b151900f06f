// Package plugin runs external executables in response to pointer events.
//
// A plugin is a directory holding a plugin.json manifest and an executable.
// For every event the plugin subscribes to, the executable is started with a
// JSON Request on stdin and must print a JSON Response on stdout.
package plugin

import (
	"encoding/json"

	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
)

// Manifest describes a plugin and the events it subscribes to.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []EventType     `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Subscribes reports whether the manifest lists t.
func (m *Manifest) Subscribes(t EventType) bool {
	for _, e := range m.Events {
		if e == t {
			return true
		}
	}
	return false
}

// Request is written to the plugin's stdin.
type Request struct {
	Event  EventType       `json:"event"`
	Hand   hand.Handedness `json:"hand"`
	Time   float64         `json:"time"`
	Pose   geom.Pose       `json:"pose"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
