package port

import (
	"context"
	"errors"

	"soulboard/internal/core/domain"
)

var (
	// ErrNotFound indicates the referenced campaign or provider id is unknown.
	ErrNotFound = errors.New("entity not found")
	// ErrUnauthorized indicates the caller does not own the entity.
	ErrUnauthorized = errors.New("caller is not the owner")
	// ErrInsufficientFunds indicates a budget or earnings balance is below
	// the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount indicates a zero or negative transfer amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Receipt is returned by value-moving operations. BlockIndex is the sequence
// index assigned by the external ledger; it is zero for purely local
// operations such as PayProvider.
type Receipt struct {
	BlockIndex uint64
}

// Ledger defines the business operations of the funds-custody core. This is
// the primary inbound port. The caller identity is resolved by the host
// environment and passed in as-is; it is trusted, not re-verified here.
//
// Every balance check and mutation on a given campaign or provider is
// serialized, including across the external transfer call, so interleaved
// requests can never observe a speculative intermediate state.
type Ledger interface {
	// RegisterProvider creates a provider owned by caller with zero earnings.
	RegisterProvider(ctx context.Context, caller, name string, locations []domain.Location) (string, error)

	// CreateCampaign creates an active campaign owned by caller. The initial
	// budget is declared, not collected; use FundCampaign to back it with an
	// actual transfer.
	CreateCampaign(ctx context.Context, caller string, in CreateCampaignInput) (string, error)

	// FundCampaign moves amount from the caller's external account into the
	// custodial account and, only after the transfer succeeds, credits the
	// campaign budget. A failed transfer leaves local state untouched.
	FundCampaign(ctx context.Context, caller, campaignID string, amount int64) (*Receipt, error)

	// PayProvider moves amount from the campaign budget to the provider's
	// earnings and records it against the (provider, campaign) pair. Purely
	// local: campaign payment and provider cash-out are decoupled in time.
	PayProvider(ctx context.Context, caller, campaignID, providerID string, amount int64) (*Receipt, error)

	// WithdrawProviderEarnings pays out amount from the custodial account to
	// the caller and, only after the transfer succeeds, debits the provider's
	// earnings balance.
	WithdrawProviderEarnings(ctx context.Context, caller, providerID string, amount int64) (*Receipt, error)

	// WithdrawCampaignFunds returns unused budget to the caller. The budget
	// is decremented before the transfer is attempted; if the transfer fails
	// a compensating re-increment restores it exactly.
	WithdrawCampaignFunds(ctx context.Context, caller, campaignID string, amount int64) (*Receipt, error)

	// CloseCampaign removes the campaign unconditionally. Any remaining
	// budget is abandoned, not transferred back.
	CloseCampaign(ctx context.Context, caller, campaignID string) error

	// GetProviderEarnings returns the provider's current aggregate balance.
	// Owner-only.
	GetProviderEarnings(ctx context.Context, caller, providerID string) (int64, error)
	// GetProviderEarningsBreakdown returns all per-campaign earnings records
	// for the provider. Owner-only. Records are lifetime gross and are not
	// reduced by withdrawals.
	GetProviderEarningsBreakdown(ctx context.Context, caller, providerID string) ([]domain.ProviderEarnings, error)
	// GetCampaignBalance returns the campaign's current budget. Owner-only.
	GetCampaignBalance(ctx context.Context, caller, campaignID string) (int64, error)

	// GetMyCampaigns returns the campaigns owned by caller.
	GetMyCampaigns(ctx context.Context, caller string) ([]domain.Campaign, error)
	// GetMyProviders returns the providers owned by caller.
	GetMyProviders(ctx context.Context, caller string) ([]domain.Provider, error)
	// GetAllProviders lists every provider for marketplace discovery. Open,
	// no identity required.
	GetAllProviders(ctx context.Context) ([]domain.Provider, error)
	// GetAllLocations lists every location across all providers. Open.
	GetAllLocations(ctx context.Context) ([]domain.Location, error)
}

// CreateCampaignInput carries the campaign creation parameters. Image and
// Locations are optional.
type CreateCampaignInput struct {
	Name        string
	Description string
	Image       *string
	Locations   []domain.Location
	Budget      int64
}
