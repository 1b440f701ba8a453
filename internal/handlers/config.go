package handlers

import (
	"net/http"

	"avatar-relay/internal/config"
)

type ConfigHandler struct {
	public config.PublicConfig
}

func NewConfigHandler(public config.PublicConfig) *ConfigHandler {
	return &ConfigHandler{public: public}
}

func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.public)
}
