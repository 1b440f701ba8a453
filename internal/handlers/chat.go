package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"avatar-relay/internal/logger"
	"avatar-relay/internal/models"
	"avatar-relay/internal/services"
)

type chatRelay interface {
	Relay(ctx context.Context, req models.ChatRequest, out services.ChunkWriter) error
}

type ChatHandler struct {
	relay chatRelay
}

func NewChatHandler(relay chatRelay) *ChatHandler {
	return &ChatHandler{relay: relay}
}

// Chat streams the model's answer as plain text. Once the first byte is out
// failures only end the body early.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	out := newStreamWriter(w)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic while relaying chat", "panic", rec)
			if !out.started {
				writeJSON(w, http.StatusInternalServerError, errorResp(fmt.Sprint(rec)))
			}
		}
	}()

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}

	if err := h.relay.Relay(r.Context(), req, out); err != nil {
		if out.started {
			log.Warn("chat stream ended early", "error", err)
			return
		}
		handleServiceError(w, r, err)
	}
}

// streamWriter commits a text/plain 200 on Begin and flushes every chunk.
type streamWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	return &streamWriter{w: w, rc: http.NewResponseController(w)}
}

func (s *streamWriter) Begin() {
	h := s.w.Header()
	h.Set("Content-Type", "text/plain")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
	s.rc.Flush()
}

func (s *streamWriter) WriteChunk(chunk string) error {
	if _, err := io.WriteString(s.w, chunk); err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
