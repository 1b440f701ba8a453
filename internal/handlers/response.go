package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"avatar-relay/internal/logger"
	"avatar-relay/internal/models"
	"avatar-relay/internal/services"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message string) models.ErrorResponse {
	return models.ErrorResponse{Error: message}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var validationErr *services.ValidationError
	var providerErr *services.ProviderError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResp(validationErr.Message))
	case errors.As(err, &providerErr):
		log.Error("provider request failed", "status", providerErr.StatusCode, "error", providerErr)
		writeJSON(w, http.StatusInternalServerError, errorResp(providerErr.Error()))
	default:
		log.Error("chat relay failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp(err.Error()))
	}
}
