package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/handray/internal/stabilizer"
	"github.com/ayusman/handray/internal/store"
)

// ProfileApplier loads a stored profile into the running pipeline.
type ProfileApplier interface {
	ApplyProfile(id string) (*store.Profile, error)
}

// ProfileHandler handles tuning profile endpoints under /api/profiles.
type ProfileHandler struct {
	store   *store.Store
	applier ProfileApplier
}

// NewProfileHandler creates a new ProfileHandler. applier may be nil, in
// which case activating a profile only marks it active in the store.
func NewProfileHandler(s *store.Store, applier ProfileApplier) *ProfileHandler {
	return &ProfileHandler{store: s, applier: applier}
}

type profileRequest struct {
	Name   string          `json:"name"`
	Tuning json.RawMessage `json:"tuning,omitempty"`
}

type profileListResponse struct {
	Profiles []*store.Profile `json:"profiles"`
	Active   string           `json:"active,omitempty"`
}

// ServeHTTP routes requests to the appropriate handler method.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(r.URL.Path, "/api/profiles")

	switch len(segments) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPost:
			h.create(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}

	case 1:
		id := segments[0]
		switch r.Method {
		case http.MethodGet:
			h.get(w, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}

	case 2:
		if segments[1] != "activate" {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.activate(w, segments[0])

	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// list handles GET /api/profiles.
func (h *ProfileHandler) list(w http.ResponseWriter) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []*store.Profile{}
	}

	resp := profileListResponse{Profiles: profiles}
	if active, err := h.store.Profiles().Active(); err == nil {
		resp.Active = active.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// get handles GET /api/profiles/{id}.
func (h *ProfileHandler) get(w http.ResponseWriter, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// create handles POST /api/profiles. Tuning fields left out of the request
// keep their defaults.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	tuning, err := overlayTuning(stabilizer.DefaultTuning(), req.Tuning)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &store.Profile{
		ID:     uuid.New().String(),
		Name:   req.Name,
		Tuning: tuning,
	}
	if err := h.store.Profiles().Create(p); err != nil {
		h.storeError(w, err, "Failed to create profile")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// update handles PUT /api/profiles/{id}. The request tuning is laid over
// the stored one. Updating the active profile re-applies it.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get profile")
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		p.Name = name
	}
	if p.Tuning, err = overlayTuning(p.Tuning, req.Tuning); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Profiles().Update(p); err != nil {
		h.storeError(w, err, "Failed to update profile")
		return
	}

	if active, err := h.store.Profiles().Active(); err == nil && active.ID == p.ID && h.applier != nil {
		if _, err := h.applier.ApplyProfile(p.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to apply profile")
			return
		}
	}

	updated, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// delete handles DELETE /api/profiles/{id}.
func (h *ProfileHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		h.storeError(w, err, "Failed to delete profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// activate handles POST /api/profiles/{id}/activate.
func (h *ProfileHandler) activate(w http.ResponseWriter, id string) {
	if h.applier == nil {
		if err := h.store.Profiles().Activate(id); err != nil {
			h.storeError(w, err, "Failed to activate profile")
			return
		}
		p, err := h.store.Profiles().GetByID(id)
		if err != nil {
			h.storeError(w, err, "Failed to get profile")
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	}

	p, err := h.applier.ApplyProfile(id)
	if err != nil {
		h.storeError(w, err, "Failed to activate profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) storeError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "Profile name already exists")
	default:
		writeError(w, http.StatusInternalServerError, message)
	}
}

// overlayTuning decodes raw on top of base and validates the result.
func overlayTuning(base stabilizer.Tuning, raw json.RawMessage) (stabilizer.Tuning, error) {
	if len(raw) == 0 {
		return base, nil
	}
	if err := json.Unmarshal(raw, &base); err != nil {
		return base, errors.New("invalid tuning")
	}
	if err := base.Validate(); err != nil {
		return base, err
	}
	return base, nil
}
