// Package main is a handray plugin that turns pointer events into macOS
// keystrokes via AppleScript.
//
// The manifest config maps event names to keys:
//
//	{"bindings": {"select_start": {"key": " "}, "system_gesture": {"key": "m", "modifiers": ["cmd"]}}}
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request is the pointer event sent by handray.
type Request struct {
	Event  string          `json:"event"`
	Hand   string          `json:"hand"`
	Time   float64         `json:"time"`
	Config json.RawMessage `json:"config"`
}

// Response is written back to handray.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Binding is the keystroke sent for one event.
type Binding struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
	// Hand limits the binding to "left" or "right". Empty matches both.
	Hand string `json:"hand,omitempty"`
}

// Config is the manifest config.
type Config struct {
	Bindings map[string]Binding `json:"bindings"`
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	script, ok, err := scriptFor(req)
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}
	if ok {
		if err := runAppleScript(script); err != nil {
			writeResponse(Response{Error: fmt.Sprintf("event %s failed: %v", req.Event, err)})
			return
		}
	}
	writeResponse(Response{Success: true})
}

// scriptFor returns the AppleScript bound to req, or false when the event
// has no binding for this hand.
func scriptFor(req Request) (string, bool, error) {
	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return "", false, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	b, ok := cfg.Bindings[req.Event]
	if !ok || (b.Hand != "" && !strings.EqualFold(b.Hand, req.Hand)) {
		return "", false, nil
	}
	if b.Key == "" {
		return "", false, fmt.Errorf("binding for %s has no key", req.Event)
	}
	return buildKeystrokeScript(b.Key, b.Modifiers), true, nil
}

// buildKeystrokeScript generates an AppleScript for the given key and modifiers.
func buildKeystrokeScript(key string, modifiers []string) string {
	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`,
		key, strings.Join(appleModifiers, ", "))
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
