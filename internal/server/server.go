// Package server provides the HTTP and WebSocket server of handray.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/handray/internal/provider"
	"github.com/ayusman/handray/internal/server/api"
	"github.com/ayusman/handray/internal/store"
	"github.com/ayusman/handray/internal/tracking"
)

// shutdownTimeout bounds how long ListenAndServe waits for open requests.
const shutdownTimeout = 3 * time.Second

// Config holds the server configuration. Routes whose dependency is nil are
// not registered.
type Config struct {
	StaticDir string
	Store     *store.Store

	// Tracker, Recorder and Profiles are normally the same *app.App.
	Tracker  api.Tracker
	Recorder api.Recorder
	Profiles api.ProfileApplier

	// Hub fans pointer states out to /api/stream clients.
	Hub *Hub
	// Push receives frames sent to /api/frames.
	Push *provider.Push

	Logger *slog.Logger
}

// Server represents the HTTP server for the handray application.
type Server struct {
	config Config
	logger *slog.Logger
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: config,
		logger: logger.With("component", "server"),
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Tracker != nil {
		pointers := api.NewPointerHandler(s.config.Tracker)
		s.mux.Handle("/api/pointers", pointers)
		s.mux.Handle("/api/recenter/", pointers)
		s.mux.Handle("/api/tracking", pointers)
	}

	if s.config.Store != nil {
		profiles := api.NewProfileHandler(s.config.Store, s.config.Profiles)
		s.mux.Handle("/api/profiles", profiles)
		s.mux.Handle("/api/profiles/", profiles)

		recordings := api.NewRecordingHandler(s.config.Store, s.config.Recorder)
		s.mux.Handle("/api/recordings", recordings)
		s.mux.Handle("/api/recordings/", recordings)
	}

	if s.config.Hub != nil {
		var snapshot func() [2]tracking.ControllerState
		if s.config.Tracker != nil {
			snapshot = s.config.Tracker.ControllerStates
		}
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Hub, snapshot, s.logger))
	}

	if s.config.Push != nil {
		s.mux.Handle("/api/frames", NewIngestHandler(s.config.Push, s.logger))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Tracker != nil {
		response["tracking"] = s.config.Tracker.IsEnabled()
	}
	if s.config.Hub != nil {
		response["clients"] = s.config.Hub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		// ErrServerClosed means Shutdown was called.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}
