package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/handray/internal/hand"
	"github.com/ayusman/handray/internal/tracking"
)

// Tracker is the live pointer pipeline.
type Tracker interface {
	ControllerStates() [2]tracking.ControllerState
	Recenter(h hand.Handedness) error
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// PointerHandler serves the live pointer state:
//
//	GET  /api/pointers
//	POST /api/recenter/{right|left}
//	GET  /api/tracking
//	PUT  /api/tracking
type PointerHandler struct {
	tracker Tracker
}

// NewPointerHandler creates a new PointerHandler for tracker.
func NewPointerHandler(tracker Tracker) *PointerHandler {
	return &PointerHandler{tracker: tracker}
}

type pointersResponse struct {
	Enabled bool                       `json:"enabled"`
	Hands   []tracking.ControllerState `json:"hands"`
}

type trackingRequest struct {
	Enabled *bool `json:"enabled"`
}

type trackingResponse struct {
	Enabled bool `json:"enabled"`
}

// ServeHTTP routes on the first path segment.
func (h *PointerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(r.URL.Path, "/api")
	switch {
	case len(segments) == 1 && segments[0] == "pointers":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.pointers(w)

	case len(segments) == 2 && segments[0] == "recenter":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.recenter(w, segments[1])

	case len(segments) == 1 && segments[0] == "tracking":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, trackingResponse{Enabled: h.tracker.IsEnabled()})
		case http.MethodPut:
			h.setTracking(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}

	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// pointers handles GET /api/pointers.
func (h *PointerHandler) pointers(w http.ResponseWriter) {
	states := h.tracker.ControllerStates()
	writeJSON(w, http.StatusOK, pointersResponse{
		Enabled: h.tracker.IsEnabled(),
		Hands:   states[:],
	})
}

// recenter handles POST /api/recenter/{hand}.
func (h *PointerHandler) recenter(w http.ResponseWriter, name string) {
	which, err := hand.ParseHandedness(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Hand must be right or left")
		return
	}

	if err := h.tracker.Recenter(which); err != nil {
		if errors.Is(err, tracking.ErrPointerInvalid) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to recenter")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setTracking handles PUT /api/tracking.
func (h *PointerHandler) setTracking(w http.ResponseWriter, r *http.Request) {
	var req trackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "Enabled is required")
		return
	}

	h.tracker.SetEnabled(*req.Enabled)
	writeJSON(w, http.StatusOK, trackingResponse{Enabled: h.tracker.IsEnabled()})
}
