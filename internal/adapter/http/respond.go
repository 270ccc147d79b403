package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"soulboard/internal/core/domain"
	"soulboard/internal/core/port"
)

// writeJSON encodes v as the response body with the given status.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// encoding should rarely fail; log and move on, headers are sent
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

// writeError maps the ledger error taxonomy onto HTTP status codes. Unknown
// errors are logged and reported as a generic internal error.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var terr *port.TransferError
	switch {
	case errors.Is(err, port.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, port.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, port.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, port.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &terr):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// locationDTO is the wire representation of a display location.
type locationDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Image   string `json:"image"`
	BaseFee int64  `json:"base_fee"`
	Views   uint64 `json:"views"`
	Status  string `json:"status"`
}

func toLocationDTO(l domain.Location) locationDTO {
	return locationDTO{
		ID:      l.ID,
		Name:    l.Name,
		Image:   l.Image,
		BaseFee: l.BaseFee,
		Views:   l.Views,
		Status:  string(l.Status),
	}
}

func (d locationDTO) toDomain() domain.Location {
	status := domain.LocationStatus(d.Status)
	if status == "" {
		status = domain.LocationActive
	}
	return domain.Location{
		ID:      d.ID,
		Name:    d.Name,
		Image:   d.Image,
		BaseFee: d.BaseFee,
		Views:   d.Views,
		Status:  status,
	}
}

func toLocationDTOs(ls []domain.Location) []locationDTO {
	out := make([]locationDTO, 0, len(ls))
	for _, l := range ls {
		out = append(out, toLocationDTO(l))
	}
	return out
}

func toDomainLocations(ds []locationDTO) []domain.Location {
	if ds == nil {
		return nil
	}
	out := make([]domain.Location, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.toDomain())
	}
	return out
}

// providerDTO is the wire representation of a provider. TotalEarnings is
// owner-only and omitted from open marketplace listings.
type providerDTO struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Owner         string        `json:"owner"`
	Locations     []locationDTO `json:"locations"`
	TotalEarnings *int64        `json:"total_earnings,omitempty"`
}

func toProviderDTO(p domain.Provider, withEarnings bool) providerDTO {
	d := providerDTO{
		ID:        p.ID,
		Name:      p.Name,
		Owner:     p.Owner,
		Locations: toLocationDTOs(p.Locations),
	}
	if withEarnings {
		earnings := p.TotalEarnings
		d.TotalEarnings = &earnings
	}
	return d
}

// campaignDTO is the wire representation of a campaign. Budget is only
// exposed to the owner (campaign listings are already owner-scoped).
type campaignDTO struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Image       *string       `json:"image,omitempty"`
	Locations   []locationDTO `json:"locations,omitempty"`
	Budget      int64         `json:"budget"`
	Owner       string        `json:"owner"`
	Status      string        `json:"status"`
}

func toCampaignDTO(c domain.Campaign) campaignDTO {
	d := campaignDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Image:       c.Image,
		Budget:      c.Budget,
		Owner:       c.Owner,
		Status:      string(c.Status),
	}
	if c.Locations != nil {
		d.Locations = toLocationDTOs(c.Locations)
	}
	return d
}

// earningsDTO is the wire representation of a per-campaign earnings record.
type earningsDTO struct {
	ProviderID     string  `json:"provider_id"`
	CampaignID     string  `json:"campaign_id"`
	TotalEarned    int64   `json:"total_earned"`
	LastWithdrawal *string `json:"last_withdrawal,omitempty"`
}

func toEarningsDTO(e domain.ProviderEarnings) earningsDTO {
	d := earningsDTO{
		ProviderID:  e.ProviderID,
		CampaignID:  e.CampaignID,
		TotalEarned: e.TotalEarned,
	}
	if e.LastWithdrawal != nil {
		s := e.LastWithdrawal.UTC().Format(time.RFC3339)
		d.LastWithdrawal = &s
	}
	return d
}

// receiptDTO reports the external ledger sequence index of a committed
// transfer; zero for purely local operations.
type receiptDTO struct {
	BlockIndex uint64 `json:"block_index"`
}
