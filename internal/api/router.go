package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/eloladder/internal/api/handler"
	"github.com/mcoot/eloladder/internal/api/middleware"
	"github.com/mcoot/eloladder/internal/api/response"
	"github.com/mcoot/eloladder/internal/api/sse"
	"github.com/mcoot/eloladder/internal/services/identity"
	"github.com/mcoot/eloladder/internal/services/ladder"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger     *slog.Logger
	Engine     *ladder.Engine
	Identity   *identity.Service
	HubManager *sse.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.Engine)
	challengeHandler := handler.NewChallengeHandler(cfg.Engine)
	adminHandler := handler.NewAdminHandler(cfg.Engine)
	eventsHandler := handler.NewEventsHandler(cfg.Engine, cfg.HubManager)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.Identity)
	adminMiddleware := middleware.Admin(cfg.Identity)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Admin routes authenticate with the admin key instead of a token
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminMiddleware)
	admin.HandleFunc("/players/{id}/rating", adminHandler.SetRating).Methods(http.MethodPut)
	admin.HandleFunc("/challenges/{id}", adminHandler.CancelChallenge).Methods(http.MethodDelete)

	// Player routes
	players := api.PathPrefix("/players").Subrouter()
	players.Use(authMiddleware)
	players.HandleFunc("", playerHandler.Register).Methods(http.MethodPost)
	players.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	players.HandleFunc("/{id}", playerHandler.Get).Methods(http.MethodGet)

	// Challenge routes
	challenges := api.PathPrefix("/challenges").Subrouter()
	challenges.Use(authMiddleware)
	challenges.HandleFunc("", challengeHandler.Create).Methods(http.MethodPost)
	challenges.HandleFunc("", challengeHandler.List).Methods(http.MethodGet)
	challenges.HandleFunc("/{opponent_id}", challengeHandler.Withdraw).Methods(http.MethodDelete)
	challenges.HandleFunc("/{opponent_id}/confirm", challengeHandler.Confirm).Methods(http.MethodPost)

	// Event stream
	events := api.PathPrefix("/events").Subrouter()
	events.Use(authMiddleware)
	events.HandleFunc("", eventsHandler.Stream).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
