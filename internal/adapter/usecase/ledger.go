package usecase

import (
	"context"
	"errors"
	"fmt"

	"soulboard/internal/core/domain"
	"soulboard/internal/core/port"
)

// Ledger implements port.Ledger. It orchestrates authorization, local balance
// mutation and the external transfer call for every value-moving operation.
//
// Ordering rule across all operations: authorization and balance-sufficiency
// checks happen before any mutation or external call. Four of the five
// value-moving operations commit locally only after the transfer succeeds;
// WithdrawCampaignFunds commits first and compensates on failure. The
// per-entity lock is held across the transfer call, so the speculative state
// is never observable by other requests.
type Ledger struct {
	reg   port.Registry
	gw    port.TransferGateway
	locks *entityLocks
}

// NewLedger creates the ledger core with the provided registry and transfer
// gateway.
func NewLedger(reg port.Registry, gw port.TransferGateway) *Ledger {
	return &Ledger{reg: reg, gw: gw, locks: newEntityLocks()}
}

// RegisterProvider creates a provider owned by caller with zero earnings.
func (l *Ledger) RegisterProvider(ctx context.Context, caller, name string, locations []domain.Location) (string, error) {
	n, err := l.reg.NextID(ctx, port.KindProvider)
	if err != nil {
		return "", err
	}
	p := &domain.Provider{
		ID:        fmt.Sprintf("%s_%d", port.KindProvider, n),
		Name:      name,
		Owner:     caller,
		Locations: locations,
	}
	if err = l.reg.PutProvider(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// CreateCampaign creates an active campaign owned by caller. The initial
// budget is declared, not collected.
func (l *Ledger) CreateCampaign(ctx context.Context, caller string, in port.CreateCampaignInput) (string, error) {
	if in.Budget < 0 {
		return "", port.ErrInvalidAmount
	}
	n, err := l.reg.NextID(ctx, port.KindCampaign)
	if err != nil {
		return "", err
	}
	c := &domain.Campaign{
		ID:          fmt.Sprintf("%s_%d", port.KindCampaign, n),
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
		Locations:   in.Locations,
		Budget:      in.Budget,
		Owner:       caller,
		Status:      domain.CampaignActive,
	}
	if err = l.reg.PutCampaign(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

// FundCampaign debits the caller's external account into custody and credits
// the campaign budget once the transfer has succeeded.
func (l *Ledger) FundCampaign(ctx context.Context, caller, campaignID string, amount int64) (*port.Receipt, error) {
	if amount <= 0 {
		return nil, port.ErrInvalidAmount
	}
	unlock := l.locks.acquire(campaignID)
	defer unlock()

	c, err := l.ownedCampaign(ctx, campaignID, caller)
	if err != nil {
		return nil, err
	}

	idx, err := l.gw.Transfer(ctx, port.TransferRequest{
		FromAccount: caller,
		Amount:      amount,
		Memo:        fmt.Sprintf("Fund campaign: %s", campaignID),
	})
	if err != nil {
		return nil, asTransferError(err)
	}

	c.Budget += amount
	if err = l.reg.PutCampaign(ctx, c); err != nil {
		return nil, err
	}
	return &port.Receipt{BlockIndex: idx}, nil
}

// PayProvider moves amount from the campaign budget into the provider's
// earnings balance and the (provider, campaign) earnings record. All three
// writes are applied atomically by the registry. No external transfer is
// involved: accrued earnings are an internal liability realized later through
// WithdrawProviderEarnings.
func (l *Ledger) PayProvider(ctx context.Context, caller, campaignID, providerID string, amount int64) (*port.Receipt, error) {
	if amount <= 0 {
		return nil, port.ErrInvalidAmount
	}
	// Fixed campaign-then-provider order; the two id namespaces never
	// overlap, so cross-request lock cycles are impossible.
	unlockC := l.locks.acquire(campaignID)
	defer unlockC()
	if providerID != campaignID {
		unlockP := l.locks.acquire(providerID)
		defer unlockP()
	}

	c, err := l.ownedCampaign(ctx, campaignID, caller)
	if err != nil {
		return nil, err
	}
	if c.Budget < amount {
		return nil, port.ErrInsufficientFunds
	}

	p, err := l.reg.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, port.ErrNotFound
	}

	e, err := l.reg.GetEarnings(ctx, providerID, campaignID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		e = &domain.ProviderEarnings{ProviderID: providerID, CampaignID: campaignID}
	}

	c.Budget -= amount
	p.TotalEarnings += amount
	e.TotalEarned += amount

	if err = l.reg.ApplyPayment(ctx, c, p, e); err != nil {
		return nil, err
	}
	return &port.Receipt{}, nil
}

// WithdrawProviderEarnings pays out earned funds from custody to the caller
// and debits the provider's aggregate once the transfer has succeeded. The
// per-campaign earnings records keep their lifetime gross totals.
func (l *Ledger) WithdrawProviderEarnings(ctx context.Context, caller, providerID string, amount int64) (*port.Receipt, error) {
	if amount <= 0 {
		return nil, port.ErrInvalidAmount
	}
	unlock := l.locks.acquire(providerID)
	defer unlock()

	p, err := l.reg.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, port.ErrNotFound
	}
	if p.Owner != caller {
		return nil, port.ErrUnauthorized
	}
	if p.TotalEarnings < amount {
		return nil, port.ErrInsufficientFunds
	}

	idx, err := l.gw.Transfer(ctx, port.TransferRequest{
		ToAccount: caller,
		Amount:    amount,
		Memo:      fmt.Sprintf("Provider withdrawal: %s", providerID),
	})
	if err != nil {
		return nil, asTransferError(err)
	}

	p.TotalEarnings -= amount
	if err = l.reg.PutProvider(ctx, p); err != nil {
		return nil, err
	}
	return &port.Receipt{BlockIndex: idx}, nil
}

// WithdrawCampaignFunds returns unused budget from custody to the caller.
// Unlike the other operations the budget decrement is committed before the
// transfer is attempted; a failed transfer triggers a compensating
// re-increment of the same amount on the same field. The entity lock spans
// the whole sequence, so the speculative decrement is never visible outside
// this call.
func (l *Ledger) WithdrawCampaignFunds(ctx context.Context, caller, campaignID string, amount int64) (*port.Receipt, error) {
	if amount <= 0 {
		return nil, port.ErrInvalidAmount
	}
	unlock := l.locks.acquire(campaignID)
	defer unlock()

	c, err := l.ownedCampaign(ctx, campaignID, caller)
	if err != nil {
		return nil, err
	}
	if c.Budget < amount {
		return nil, port.ErrInsufficientFunds
	}

	c.Budget -= amount
	if err = l.reg.PutCampaign(ctx, c); err != nil {
		return nil, err
	}

	idx, err := l.gw.Transfer(ctx, port.TransferRequest{
		ToAccount: caller,
		Amount:    amount,
		Memo:      fmt.Sprintf("Campaign withdrawal: %s", campaignID),
	})
	if err != nil {
		c.Budget += amount
		if restoreErr := l.reg.PutCampaign(ctx, c); restoreErr != nil {
			// The budget decrement is committed but the payout never
			// happened. Storage failures are fatal preconditions; surface
			// both causes.
			return nil, fmt.Errorf("restoring budget after failed transfer: %v (transfer: %v)", restoreErr, err)
		}
		return nil, asTransferError(err)
	}
	return &port.Receipt{BlockIndex: idx}, nil
}

// CloseCampaign removes the campaign record unconditionally. Any remaining
// budget is abandoned.
func (l *Ledger) CloseCampaign(ctx context.Context, caller, campaignID string) error {
	unlock := l.locks.acquire(campaignID)
	defer unlock()

	if _, err := l.ownedCampaign(ctx, campaignID, caller); err != nil {
		return err
	}
	_, err := l.reg.DeleteCampaign(ctx, campaignID)
	return err
}

// GetProviderEarnings returns the provider's current aggregate balance.
func (l *Ledger) GetProviderEarnings(ctx context.Context, caller, providerID string) (int64, error) {
	p, err := l.ownedProvider(ctx, providerID, caller)
	if err != nil {
		return 0, err
	}
	return p.TotalEarnings, nil
}

// GetProviderEarningsBreakdown returns every per-campaign earnings record for
// the provider.
func (l *Ledger) GetProviderEarningsBreakdown(ctx context.Context, caller, providerID string) ([]domain.ProviderEarnings, error) {
	if _, err := l.ownedProvider(ctx, providerID, caller); err != nil {
		return nil, err
	}
	return l.reg.ListEarningsByProvider(ctx, providerID)
}

// GetCampaignBalance returns the campaign's current budget.
func (l *Ledger) GetCampaignBalance(ctx context.Context, caller, campaignID string) (int64, error) {
	c, err := l.ownedCampaign(ctx, campaignID, caller)
	if err != nil {
		return 0, err
	}
	return c.Budget, nil
}

// GetMyCampaigns returns the campaigns owned by caller.
func (l *Ledger) GetMyCampaigns(ctx context.Context, caller string) ([]domain.Campaign, error) {
	all, err := l.reg.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	mine := make([]domain.Campaign, 0, len(all))
	for _, c := range all {
		if c.Owner == caller {
			mine = append(mine, c)
		}
	}
	return mine, nil
}

// GetMyProviders returns the providers owned by caller.
func (l *Ledger) GetMyProviders(ctx context.Context, caller string) ([]domain.Provider, error) {
	all, err := l.reg.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	mine := make([]domain.Provider, 0, len(all))
	for _, p := range all {
		if p.Owner == caller {
			mine = append(mine, p)
		}
	}
	return mine, nil
}

// GetAllProviders lists every provider for marketplace discovery.
func (l *Ledger) GetAllProviders(ctx context.Context) ([]domain.Provider, error) {
	return l.reg.ListProviders(ctx)
}

// GetAllLocations lists every location across all providers.
func (l *Ledger) GetAllLocations(ctx context.Context) ([]domain.Location, error) {
	providers, err := l.reg.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	var locations []domain.Location
	for _, p := range providers {
		locations = append(locations, p.Locations...)
	}
	return locations, nil
}

// ownedCampaign loads the campaign and verifies the caller owns it.
func (l *Ledger) ownedCampaign(ctx context.Context, id, caller string) (*domain.Campaign, error) {
	c, err := l.reg.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, port.ErrNotFound
	}
	if c.Owner != caller {
		return nil, port.ErrUnauthorized
	}
	return c, nil
}

// ownedProvider loads the provider and verifies the caller owns it.
func (l *Ledger) ownedProvider(ctx context.Context, id, caller string) (*domain.Provider, error) {
	p, err := l.reg.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, port.ErrNotFound
	}
	if p.Owner != caller {
		return nil, port.ErrUnauthorized
	}
	return p, nil
}

var _ port.Ledger = (*Ledger)(nil)

// asTransferError normalizes gateway failures into *port.TransferError so the
// TransferFailed class is uniform regardless of the gateway implementation.
func asTransferError(err error) error {
	var terr *port.TransferError
	if errors.As(err, &terr) {
		return err
	}
	return &port.TransferError{Cause: err.Error()}
}
