package handlers

import (
	"net/http"

	"avatar-relay/internal/logger"
	"avatar-relay/internal/models"
	"avatar-relay/internal/services"
)

type HistoryHandler struct {
	history *services.ConversationHistory
}

func NewHistoryHandler(history *services.ConversationHistory) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HistoryResponse{Messages: h.history.Snapshot()})
}

func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.history.Clear()
	logger.FromContext(r.Context()).Info("conversation history cleared")
	w.WriteHeader(http.StatusNoContent)
}
