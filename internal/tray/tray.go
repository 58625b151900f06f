// Package tray provides the system tray menu of handray.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handray/internal/hand"
	"github.com/ayusman/handray/internal/tracking"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onRecenter func(h hand.Handedness)
	onSettings func()
	onQuit     func()
	enabled    bool
	status     [2]string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStatus [2]*systray.MenuItem
}

// New creates a new Tray showing the given enabled state.
func New(enabled bool) *Tray {
	t := &Tray{enabled: enabled}
	for _, h := range []hand.Handedness{hand.Right, hand.Left} {
		t.status[h] = statusLine(tracking.ControllerState{Hand: h})
	}
	return t
}

// OnToggle sets the callback function to be called when tracking is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnRecenter sets the callback for the recenter menu items.
func (t *Tray) OnRecenter(fn func(h hand.Handedness)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRecenter = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray, ending Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Handray")
	systray.SetTooltip("Handray hand pointer")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle pointer tracking")
	systray.AddSeparator()
	for _, h := range []hand.Handedness{hand.Right, hand.Left} {
		t.menuStatus[h] = systray.AddMenuItem(t.status[h], "Pointer state")
		t.menuStatus[h].Disable()
	}
	t.mu.Unlock()
	systray.AddSeparator()

	menuRecenterRight := systray.AddMenuItem("Recenter Right", "Point the right ray straight ahead")
	menuRecenterLeft := systray.AddMenuItem("Recenter Left", "Point the left ray straight ahead")
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Handray")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuRecenterRight.ClickedCh:
				t.handleRecenter(hand.Right)
			case <-menuRecenterLeft.ClickedCh:
				t.handleRecenter(hand.Left)
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

// statusLine renders one hand as "Right: pinch_locked (pinch)".
func statusLine(s tracking.ControllerState) string {
	name := "Right"
	if s.Hand == hand.Left {
		name = "Left"
	}
	if !s.Valid {
		return name + ": no pointer"
	}
	line := fmt.Sprintf("%s: %s", name, s.Phase)
	if s.Touching {
		line += " (pinch)"
	}
	return line
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleRecenter(h hand.Handedness) {
	t.mu.RLock()
	callback := t.onRecenter
	t.mu.RUnlock()

	if callback != nil {
		callback(h)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetEnabled shows enabled without calling the toggle callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// Publish updates the per-hand status lines. Menu titles are only rewritten
// when a line changes.
func (t *Tray) Publish(_ float64, states [2]tracking.ControllerState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, s := range states {
		line := statusLine(s)
		if line == t.status[i] {
			continue
		}
		t.status[i] = line
		if t.menuStatus[i] != nil {
			t.menuStatus[i].SetTitle(line)
		}
	}
}

// Status returns the status line of hand h.
func (t *Tray) Status(h hand.Handedness) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status[h]
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
