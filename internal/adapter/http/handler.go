package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"log/slog"

	"soulboard/internal/core/port"
)

// Handler contains dependencies and routes. It is an inbound adapter for HTTP.
// It holds the Ledger to execute business logic and a logger for structured
// logging. Routes are registered on a chi.Router for convenient method
// handling.
//
// Marketplace discovery endpoints are open; everything else requires the
// caller identity injected by the fronting auth layer.
type Handler struct {
	ledger port.Ledger
	logger *slog.Logger
	router chi.Router
}

// NewHandler creates a handler with all routes configured. It accepts a
// Ledger implementation and a logger. The returned Handler registers
// handlers for each endpoint on a new chi.Router.
func NewHandler(ledger port.Ledger, logger *slog.Logger) *Handler {
	h := &Handler{ledger: ledger, logger: logger}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		// Open marketplace discovery.
		r.Get("/providers", h.handleAllProviders)
		r.Get("/locations", h.handleAllLocations)

		// Identity-scoped operations.
		r.Group(func(r chi.Router) {
			r.Use(h.requireCaller)

			r.Post("/providers", h.handleRegisterProvider)
			r.Get("/providers/mine", h.handleMyProviders)
			r.Get("/providers/{id}/earnings", h.handleProviderEarnings)
			r.Get("/providers/{id}/earnings/breakdown", h.handleEarningsBreakdown)
			r.Post("/providers/{id}/withdrawals", h.handleProviderWithdrawal)

			r.Post("/campaigns", h.handleCreateCampaign)
			r.Get("/campaigns/mine", h.handleMyCampaigns)
			r.Get("/campaigns/{id}/balance", h.handleCampaignBalance)
			r.Post("/campaigns/{id}/fund", h.handleFundCampaign)
			r.Post("/campaigns/{id}/payments", h.handlePayProvider)
			r.Post("/campaigns/{id}/withdrawals", h.handleCampaignWithdrawal)
			r.Delete("/campaigns/{id}", h.handleCloseCampaign)
		})
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}
