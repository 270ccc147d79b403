package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleRegisterProvider creates a provider owned by the caller. The request
// body holds the display name and the initial location inventory. On success
// it returns the generated provider id. Parsing errors produce HTTP 400.
func (h *Handler) handleRegisterProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string        `json:"name"`
		Locations []locationDTO `json:"locations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	id, err := h.ledger.RegisterProvider(r.Context(), callerFrom(r.Context()), req.Name, toDomainLocations(req.Locations))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleAllProviders lists every provider for marketplace discovery. Open
// endpoint; earnings are omitted.
func (h *Handler) handleAllProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.ledger.GetAllProviders(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]providerDTO, 0, len(providers))
	for _, p := range providers {
		out = append(out, toProviderDTO(p, false))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// handleAllLocations lists every location across all providers. Open
// endpoint.
func (h *Handler) handleAllLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.ledger.GetAllLocations(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toLocationDTOs(locations))
}

// handleMyProviders lists the caller's own providers, earnings included.
func (h *Handler) handleMyProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.ledger.GetMyProviders(r.Context(), callerFrom(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]providerDTO, 0, len(providers))
	for _, p := range providers {
		out = append(out, toProviderDTO(p, true))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// handleProviderEarnings returns the caller's current withdrawable balance
// for the provider. Owner-only.
func (h *Handler) handleProviderEarnings(w http.ResponseWriter, r *http.Request) {
	total, err := h.ledger.GetProviderEarnings(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"total_earnings": total})
}

// handleEarningsBreakdown returns the caller's per-campaign earnings records
// for the provider. Owner-only. Totals are lifetime gross, not reduced by
// withdrawals.
func (h *Handler) handleEarningsBreakdown(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.GetProviderEarningsBreakdown(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]earningsDTO, 0, len(records))
	for _, e := range records {
		out = append(out, toEarningsDTO(e))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// handleProviderWithdrawal pays out earned funds to the caller's external
// account. On success it returns the transfer receipt.
func (h *Handler) handleProviderWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	receipt, err := h.ledger.WithdrawProviderEarnings(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, receiptDTO{BlockIndex: receipt.BlockIndex})
}
