package main

import (
	"encoding/json"
	"testing"
)

func TestBuildKeystrokeScript(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		modifiers []string
		want      string
	}{
		{"plain", "a", nil, `tell application "System Events" to keystroke "a"`},
		{"one modifier", "c", []string{"cmd"}, `tell application "System Events" to keystroke "c" using {command down}`},
		{"two modifiers", "m", []string{"Cmd", "shift"}, `tell application "System Events" to keystroke "m" using {command down, shift down}`},
		{"unknown modifier", "x", []string{"hyper"}, `tell application "System Events" to keystroke "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildKeystrokeScript(tt.key, tt.modifiers); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScriptFor(t *testing.T) {
	config := json.RawMessage(`{"bindings":{
		"select_start":{"key":" "},
		"system_gesture":{"key":"m","modifiers":["cmd"],"hand":"left"},
		"recentered":{}
	}}`)

	tests := []struct {
		name    string
		req     Request
		wantOK  bool
		wantErr bool
	}{
		{"bound", Request{Event: "select_start", Hand: "right"}, true, false},
		{"unbound event", Request{Event: "select_end", Hand: "right"}, false, false},
		{"matching hand", Request{Event: "system_gesture", Hand: "left"}, true, false},
		{"other hand", Request{Event: "system_gesture", Hand: "right"}, false, false},
		{"empty key", Request{Event: "recentered", Hand: "right"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Config = config
			_, ok, err := scriptFor(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}

	if _, _, err := scriptFor(Request{Event: "select_start", Config: json.RawMessage(`{`)}); err == nil {
		t.Error("expected error for malformed config")
	}
}
