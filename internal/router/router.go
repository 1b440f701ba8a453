package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"avatar-relay/internal/handlers"
	"avatar-relay/internal/middleware"
	"avatar-relay/internal/websocket"
)

func New(
	chatHandler *handlers.ChatHandler,
	configHandler *handlers.ConfigHandler,
	historyHandler *handlers.HistoryHandler,
	healthHandler *handlers.HealthHandler,
	wsHub *websocket.Hub,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", healthHandler.Get)

	r.Get("/config", configHandler.Get)
	r.Post("/chat", chatHandler.Chat)

	r.Route("/history", func(r chi.Router) {
		r.Get("/", historyHandler.Get)
		r.Delete("/", historyHandler.Clear)
	})

	if wsHub != nil {
		r.Get("/ws", wsHub.HandleWebSocket)
	}

	return r
}
