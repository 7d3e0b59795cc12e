package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
	"github.com/arifultcisdawin/numberbot/internal/rental_service/middleware"
)

// StatsResponse mirrors the bot's /admin stats for operator tooling.
type StatsResponse struct {
	Subscribers         int64 `json:"subscribers"`
	ActiveSubscriptions int64 `json:"active_subscriptions"`
	Credentials         int64 `json:"credentials"`
	AllocatedNumbers    int64 `json:"allocated_numbers"`
}

// AdminHandler serves the JWT-protected ops endpoints.
type AdminHandler struct {
	subscriberRepo domain.SubscriberRepository
	credentialRepo domain.CredentialRepository
	numberRepo     domain.NumberRepository
	logger         *slog.Logger
}

func NewAdminHandler(
	subscriberRepo domain.SubscriberRepository,
	credentialRepo domain.CredentialRepository,
	numberRepo domain.NumberRepository,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		subscriberRepo: subscriberRepo,
		credentialRepo: credentialRepo,
		numberRepo:     numberRepo,
		logger:         logger.With("component", "admin_http_handler"),
	}
}

func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscribers, err := h.subscriberRepo.Count(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to count subscribers", "error", err)
		http.Error(w, "Failed to gather stats", http.StatusInternalServerError)
		return
	}
	active, err := h.subscriberRepo.CountActive(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to count active subscribers", "error", err)
		http.Error(w, "Failed to gather stats", http.StatusInternalServerError)
		return
	}
	credentials, err := h.credentialRepo.Count(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to count credentials", "error", err)
		http.Error(w, "Failed to gather stats", http.StatusInternalServerError)
		return
	}
	numbers, err := h.numberRepo.Count(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to count allocated numbers", "error", err)
		http.Error(w, "Failed to gather stats", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Subscribers:         subscribers,
		ActiveSubscriptions: active,
		Credentials:         credentials,
		AllocatedNumbers:    numbers,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.ErrorContext(ctx, "Failed to encode stats response", "error", err)
	}
}

// NewRouter assembles the ops HTTP surface: liveness, metrics, and the
// JWT-protected admin endpoints.
func NewRouter(adminHandler *AdminHandler, jwtSecret []byte, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(jwtSecret, logger))
		r.Get("/admin/stats", adminHandler.GetStats)
	})

	return r
}
