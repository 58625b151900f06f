package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/handray/internal/app"
	"github.com/ayusman/handray/internal/store"
	"github.com/ayusman/handray/internal/tracking"
)

// Recorder records the frames the pipeline reads.
type Recorder interface {
	StartRecording(name string) (*store.Recording, error)
	StopRecording() (*store.Recording, error)
	Recording() (*store.Recording, bool)
}

// RecordingHandler handles recording endpoints under /api/recordings.
type RecordingHandler struct {
	store    *store.Store
	recorder Recorder
}

// NewRecordingHandler creates a new RecordingHandler. Without a recorder
// stored recordings can be read and deleted but not made.
func NewRecordingHandler(s *store.Store, recorder Recorder) *RecordingHandler {
	return &RecordingHandler{store: s, recorder: recorder}
}

type startRecordingRequest struct {
	Name string `json:"name"`
}

type recordingListResponse struct {
	Recordings []*store.Recording `json:"recordings"`
	Active     *store.Recording   `json:"active,omitempty"`
}

type recordingResponse struct {
	*store.Recording
	Duration float64          `json:"duration"`
	Frames   []tracking.Frame `json:"frames,omitempty"`
}

// ServeHTTP routes requests to the appropriate handler method.
func (h *RecordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(r.URL.Path, "/api/recordings")

	switch len(segments) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPost:
			h.start(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}

	case 1:
		if segments[0] == "stop" {
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			h.stop(w)
			return
		}

		id := segments[0]
		switch r.Method {
		case http.MethodGet:
			h.get(w, id, r.URL.Query().Get("frames") == "true")
		case http.MethodDelete:
			h.delete(w, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}

	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// list handles GET /api/recordings.
func (h *RecordingHandler) list(w http.ResponseWriter) {
	recordings, err := h.store.Recordings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list recordings")
		return
	}
	if recordings == nil {
		recordings = []*store.Recording{}
	}

	resp := recordingListResponse{Recordings: recordings}
	if h.recorder != nil {
		if active, ok := h.recorder.Recording(); ok {
			resp.Active = active
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// start handles POST /api/recordings.
func (h *RecordingHandler) start(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		writeError(w, http.StatusNotImplemented, "Recording is not available")
		return
	}

	var req startRecordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	rec, err := h.recorder.StartRecording(req.Name)
	if err != nil {
		h.recorderError(w, err, "Failed to start recording")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// stop handles POST /api/recordings/stop.
func (h *RecordingHandler) stop(w http.ResponseWriter) {
	if h.recorder == nil {
		writeError(w, http.StatusNotImplemented, "Recording is not available")
		return
	}

	rec, err := h.recorder.StopRecording()
	if err != nil {
		h.recorderError(w, err, "Failed to stop recording")
		return
	}
	writeJSON(w, http.StatusOK, recordingResponse{Recording: rec, Duration: rec.Duration()})
}

// get handles GET /api/recordings/{id}. With ?frames=true the frames are
// included.
func (h *RecordingHandler) get(w http.ResponseWriter, id string, withFrames bool) {
	rec, err := h.store.Recordings().GetByID(id)
	if err != nil {
		h.recorderError(w, err, "Failed to get recording")
		return
	}

	resp := recordingResponse{Recording: rec, Duration: rec.Duration()}
	if withFrames {
		if resp.Frames, err = h.store.Recordings().Frames(id); err != nil {
			h.recorderError(w, err, "Failed to get recording frames")
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// delete handles DELETE /api/recordings/{id}. The recording in progress
// cannot be deleted.
func (h *RecordingHandler) delete(w http.ResponseWriter, id string) {
	if h.recorder != nil {
		if active, ok := h.recorder.Recording(); ok && active.ID == id {
			writeError(w, http.StatusConflict, "Recording is in progress")
			return
		}
	}

	if err := h.store.Recordings().Delete(id); err != nil {
		h.recorderError(w, err, "Failed to delete recording")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordingHandler) recorderError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Recording not found")
	case errors.Is(err, app.ErrRecording), errors.Is(err, app.ErrNotRecording):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, message)
	}
}
