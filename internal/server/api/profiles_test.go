package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handray/internal/stabilizer"
	"github.com/ayusman/handray/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type fakeApplier struct {
	store   *store.Store
	applied []string
}

func (f *fakeApplier) ApplyProfile(id string) (*store.Profile, error) {
	p, err := f.store.Profiles().GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := f.store.Profiles().Activate(id); err != nil {
		return nil, err
	}
	f.applied = append(f.applied, id)
	return p, nil
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createProfile(t *testing.T, h http.Handler, body string) store.Profile {
	t.Helper()
	rec := serve(h, http.MethodPost, "/api/profiles", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p store.Profile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}

func TestProfileHandler_Create(t *testing.T) {
	h := NewProfileHandler(newTestStore(t), nil)

	p := createProfile(t, h, `{"name":"steady","tuning":{"valid_cone":45,"thresholds":{"settle_time":0.5}}}`)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "steady", p.Name)
	assert.Equal(t, 45.0, p.Tuning.ValidCone)
	assert.Equal(t, 0.5, p.Tuning.Thresholds.SettleTime)

	def := stabilizer.DefaultTuning()
	assert.Equal(t, def.AnchorWeight, p.Tuning.AnchorWeight)
	assert.Equal(t, def.Presets, p.Tuning.Presets)
}

func TestProfileHandler_CreateErrors(t *testing.T) {
	s := newTestStore(t)
	h := NewProfileHandler(s, nil)
	createProfile(t, h, `{"name":"taken"}`)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing name", `{"name":"  "}`, http.StatusBadRequest},
		{"invalid tuning", `{"name":"bad","tuning":{"anchor_weight":2}}`, http.StatusBadRequest},
		{"tuning wrong type", `{"name":"bad","tuning":{"anchor_weight":"heavy"}}`, http.StatusBadRequest},
		{"duplicate name", `{"name":"taken"}`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, http.MethodPost, "/api/profiles", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			var resp errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestProfileHandler_ListAndGet(t *testing.T) {
	s := newTestStore(t)
	h := NewProfileHandler(s, nil)

	rec := serve(h, http.MethodGet, "/api/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"profiles":[]}`, rec.Body.String())

	b := createProfile(t, h, `{"name":"b"}`)
	a := createProfile(t, h, `{"name":"a"}`)
	require.NoError(t, s.Profiles().Activate(b.ID))

	rec = serve(h, http.MethodGet, "/api/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Profiles []store.Profile `json:"profiles"`
		Active   string          `json:"active"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Profiles, 2)
	assert.Equal(t, a.ID, list.Profiles[0].ID)
	assert.Equal(t, b.ID, list.Profiles[1].ID)
	assert.Equal(t, b.ID, list.Active)

	rec = serve(h, http.MethodGet, "/api/profiles/"+a.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got store.Profile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "a", got.Name)

	rec = serve(h, http.MethodGet, "/api/profiles/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileHandler_Update(t *testing.T) {
	s := newTestStore(t)
	h := NewProfileHandler(s, nil)
	p := createProfile(t, h, `{"name":"work","tuning":{"valid_cone":45}}`)
	createProfile(t, h, `{"name":"other"}`)

	rec := serve(h, http.MethodPut, "/api/profiles/"+p.ID, `{"name":"desk","tuning":{"up_range":0.5}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got store.Profile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "desk", got.Name)
	assert.Equal(t, 0.5, got.Tuning.UpRange)
	assert.Equal(t, 45.0, got.Tuning.ValidCone, "fields not sent keep their stored value")

	rec = serve(h, http.MethodPut, "/api/profiles/"+p.ID, `{"name":"other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(h, http.MethodPut, "/api/profiles/"+p.ID, `{"tuning":{"valid_cone":0}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, http.MethodPut, "/api/profiles/missing", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileHandler_UpdateReappliesActive(t *testing.T) {
	s := newTestStore(t)
	applier := &fakeApplier{store: s}
	h := NewProfileHandler(s, applier)

	active := createProfile(t, h, `{"name":"active"}`)
	idle := createProfile(t, h, `{"name":"idle"}`)

	rec := serve(h, http.MethodPost, "/api/profiles/"+active.ID+"/activate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{active.ID}, applier.applied)

	rec = serve(h, http.MethodPut, "/api/profiles/"+idle.ID, `{"tuning":{"valid_cone":30}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{active.ID}, applier.applied)

	rec = serve(h, http.MethodPut, "/api/profiles/"+active.ID, `{"tuning":{"valid_cone":30}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{active.ID, active.ID}, applier.applied)
}

func TestProfileHandler_Activate(t *testing.T) {
	t.Run("without applier marks active", func(t *testing.T) {
		s := newTestStore(t)
		h := NewProfileHandler(s, nil)
		p := createProfile(t, h, `{"name":"p"}`)

		rec := serve(h, http.MethodPost, "/api/profiles/"+p.ID+"/activate", "")
		require.Equal(t, http.StatusOK, rec.Code)

		active, err := s.Profiles().Active()
		require.NoError(t, err)
		assert.Equal(t, p.ID, active.ID)
	})

	t.Run("unknown profile", func(t *testing.T) {
		s := newTestStore(t)
		h := NewProfileHandler(s, &fakeApplier{store: s})

		rec := serve(h, http.MethodPost, "/api/profiles/missing/activate", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong method and action", func(t *testing.T) {
		h := NewProfileHandler(newTestStore(t), nil)

		assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodGet, "/api/profiles/x/activate", "").Code)
		assert.Equal(t, http.StatusNotFound, serve(h, http.MethodPost, "/api/profiles/x/deactivate", "").Code)
	})
}

func TestProfileHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	h := NewProfileHandler(s, nil)
	p := createProfile(t, h, `{"name":"gone"}`)

	rec := serve(h, http.MethodDelete, "/api/profiles/"+p.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(h, http.MethodDelete, "/api/profiles/"+p.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, http.MethodPatch, "/api/profiles/"+p.ID, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
