package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handray/internal/provider"
	"github.com/ayusman/handray/internal/tracking"
)

const (
	msgIngestError = "error"

	// maxFrameBytes bounds one ingested frame message.
	maxFrameBytes = 1 << 20
)

// IngestHandler accepts tracking frames from an external tracker over a
// websocket. Each message is one JSON tracking.Frame; it is queued on the
// Push provider. Malformed messages are answered with an error message and
// the connection stays open.
type IngestHandler struct {
	push   *provider.Push
	logger *slog.Logger
}

// NewIngestHandler creates the /api/frames endpoint.
func NewIngestHandler(push *provider.Push, logger *slog.Logger) *IngestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestHandler{push: push, logger: logger}
}

func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ingest upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	h.logger.Info("tracker connected", "remote_addr", r.RemoteAddr)
	defer h.logger.Info("tracker disconnected", "remote_addr", r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var f tracking.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			if !h.reply(conn, "invalid frame: "+err.Error()) {
				return
			}
			continue
		}

		if err := h.push.Push(f); err != nil {
			if errors.Is(err, provider.ErrClosed) {
				h.reply(conn, "tracking source closed")
				return
			}
			h.logger.Warn("queue frame", "error", err)
		}
	}
}

func (h *IngestHandler) reply(conn *websocket.Conn, message string) bool {
	now := time.Now().UTC()
	msg, err := json.Marshal(envelope{
		Type: msgIngestError,
		Ts:   &now,
		Data: map[string]string{"error": message},
	})
	if err != nil {
		return false
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, msg) == nil
}
