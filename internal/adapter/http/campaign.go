package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"soulboard/internal/core/port"
)

// handleCreateCampaign creates a campaign owned by the caller. The declared
// budget is not collected; FundCampaign backs it with an actual transfer.
func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string        `json:"name"`
		Description string        `json:"description"`
		Image       *string       `json:"image"`
		Locations   []locationDTO `json:"locations"`
		Budget      int64         `json:"budget"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	id, err := h.ledger.CreateCampaign(r.Context(), callerFrom(r.Context()), port.CreateCampaignInput{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		Locations:   toDomainLocations(req.Locations),
		Budget:      req.Budget,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleMyCampaigns lists the caller's own campaigns.
func (h *Handler) handleMyCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.ledger.GetMyCampaigns(r.Context(), callerFrom(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]campaignDTO, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, toCampaignDTO(c))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// handleCampaignBalance returns the campaign's current budget. Owner-only.
func (h *Handler) handleCampaignBalance(w http.ResponseWriter, r *http.Request) {
	budget, err := h.ledger.GetCampaignBalance(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"budget": budget})
}

// handleFundCampaign moves value from the caller's external account into
// custody and credits the campaign budget. On success it returns the
// transfer receipt.
func (h *Handler) handleFundCampaign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	receipt, err := h.ledger.FundCampaign(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, receiptDTO{BlockIndex: receipt.BlockIndex})
}

// handlePayProvider pays a provider out of the campaign budget. Purely
// local: no external transfer happens until the provider withdraws.
func (h *Handler) handlePayProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProviderID string `json:"provider_id"`
		Amount     int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	receipt, err := h.ledger.PayProvider(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req.ProviderID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, receiptDTO{BlockIndex: receipt.BlockIndex})
}

// handleCampaignWithdrawal returns unused budget to the caller's external
// account.
func (h *Handler) handleCampaignWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	receipt, err := h.ledger.WithdrawCampaignFunds(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, receiptDTO{BlockIndex: receipt.BlockIndex})
}

// handleCloseCampaign removes the campaign. Any remaining budget is
// abandoned.
func (h *Handler) handleCloseCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.CloseCampaign(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
