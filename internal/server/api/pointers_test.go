package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
	"github.com/ayusman/handray/internal/tracking"
)

type fakeTracker struct {
	states    [2]tracking.ControllerState
	enabled   bool
	recenters []hand.Handedness
}

func newFakeTracker() *fakeTracker {
	tr := &fakeTracker{enabled: true}
	for _, h := range []hand.Handedness{hand.Right, hand.Left} {
		tr.states[h] = tracking.ControllerState{Hand: h, Pose: geom.IdentityPose()}
	}
	tr.states[hand.Right].Valid = true
	return tr
}

func (f *fakeTracker) ControllerStates() [2]tracking.ControllerState { return f.states }
func (f *fakeTracker) IsEnabled() bool { return f.enabled }
func (f *fakeTracker) SetEnabled(enabled bool) { f.enabled = enabled }

func (f *fakeTracker) Recenter(h hand.Handedness) error {
	if !f.states[h].Valid {
		return fmt.Errorf("recenter %s hand: %w", h, tracking.ErrPointerInvalid)
	}
	f.recenters = append(f.recenters, h)
	return nil
}

func TestPointerHandler_Pointers(t *testing.T) {
	h := NewPointerHandler(newFakeTracker())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pointers", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Enabled bool `json:"enabled"`
		Hands   []struct {
			Hand  string `json:"hand"`
			Valid bool   `json:"valid"`
		} `json:"hands"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Enabled)
	require.Len(t, resp.Hands, 2)
	assert.Equal(t, "right", resp.Hands[0].Hand)
	assert.True(t, resp.Hands[0].Valid)
	assert.Equal(t, "left", resp.Hands[1].Hand)
	assert.False(t, resp.Hands[1].Valid)
}

func TestPointerHandler_Recenter(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		method   string
		wantCode int
	}{
		{"valid hand", "/api/recenter/right", http.MethodPost, http.StatusNoContent},
		{"invalid ray", "/api/recenter/left", http.MethodPost, http.StatusConflict},
		{"unknown hand", "/api/recenter/middle", http.MethodPost, http.StatusBadRequest},
		{"wrong method", "/api/recenter/right", http.MethodGet, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newFakeTracker()
			h := NewPointerHandler(tracker)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusNoContent {
				assert.Equal(t, []hand.Handedness{hand.Right}, tracker.recenters)
			} else {
				assert.Empty(t, tracker.recenters)
			}
		})
	}
}

func TestPointerHandler_Tracking(t *testing.T) {
	tracker := newFakeTracker()
	h := NewPointerHandler(tracker)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/tracking", strings.NewReader(`{"enabled":false}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, tracker.enabled)
	assert.JSONEq(t, `{"enabled":false}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tracking", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"enabled":false}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/tracking", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/tracking", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPointerHandler_NotFound(t *testing.T) {
	h := NewPointerHandler(newFakeTracker())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pointers/extra", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
